package ur

import "fmt"

// Result is a status code returned by every loader entry point.
type Result int32

const (
	Success                 Result = 0
	ErrorInvalidOperation   Result = 1
	ErrorInvalidValue       Result = 4
	ErrorOutOfHostMemory    Result = 39
	ErrorOutOfResources     Result = 41
	ErrorAdapterSpecific    Result = 66
	ErrorUninitialized      Result = 0x78000001
	ErrorDeviceLost         Result = 0x78000002
	ErrorInvalidNullHandle  Result = 0x78000004
	ErrorInvalidEnumeration Result = 0x78000007
	ErrorUnsupportedFeature Result = 0x78000009
	ErrorUnknown            Result = 0x7ffffffe
)

var resultNames = map[Result]string{
	Success:                 "UR_RESULT_SUCCESS",
	ErrorInvalidOperation:   "UR_RESULT_ERROR_INVALID_OPERATION",
	ErrorInvalidValue:       "UR_RESULT_ERROR_INVALID_VALUE",
	ErrorOutOfHostMemory:    "UR_RESULT_ERROR_OUT_OF_HOST_MEMORY",
	ErrorOutOfResources:     "UR_RESULT_ERROR_OUT_OF_RESOURCES",
	ErrorAdapterSpecific:    "UR_RESULT_ERROR_ADAPTER_SPECIFIC",
	ErrorUninitialized:      "UR_RESULT_ERROR_UNINITIALIZED",
	ErrorDeviceLost:         "UR_RESULT_ERROR_DEVICE_LOST",
	ErrorInvalidNullHandle:  "UR_RESULT_ERROR_INVALID_NULL_HANDLE",
	ErrorInvalidEnumeration: "UR_RESULT_ERROR_INVALID_ENUMERATION",
	ErrorUnsupportedFeature: "UR_RESULT_ERROR_UNSUPPORTED_FEATURE",
	ErrorUnknown:            "UR_RESULT_ERROR_UNKNOWN",
}

// String returns the symbolic name of the code, or its numeric value when
// the code is not one this package knows about.
func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("<unknown result %d>", int32(r))
}

// OK reports whether r is Success.
func (r Result) OK() bool {
	return r == Success
}
