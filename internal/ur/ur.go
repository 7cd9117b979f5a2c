// Package ur describes the native unified-runtime loader: its opaque handles,
// result codes, enumerations and the table of entry points the rest of the
// module calls through.
//
// Nothing outside this package touches the native library directly. Callers
// hold a DispatchTable, which is either a Module resolved from the loader
// shared library or a deterministic fake in tests.
package ur

// Opaque native handles. The zero value is the null handle.
type (
	LoaderConfig   uintptr
	AdapterHandle  uintptr
	PlatformHandle uintptr
	DeviceHandle   uintptr
)

// DeviceInitFlags is the bit set passed to the loader at initialization.
type DeviceInitFlags uint32

// Backend is the loader's raw backend enumeration.
type Backend uint32

const (
	BackendUnknown   Backend = 0
	BackendLevelZero Backend = 1
	BackendOpenCL    Backend = 2
	BackendCUDA      Backend = 3
	BackendHIP       Backend = 4
	BackendNativeCPU Backend = 5
)

func (b Backend) String() string {
	switch b {
	case BackendLevelZero:
		return "UR_BACKEND_LEVEL_ZERO"
	case BackendOpenCL:
		return "UR_BACKEND_OPENCL"
	case BackendCUDA:
		return "UR_BACKEND_CUDA"
	case BackendHIP:
		return "UR_BACKEND_HIP"
	case BackendNativeCPU:
		return "UR_BACKEND_NATIVE_CPU"
	default:
		return "UR_BACKEND_UNKNOWN"
	}
}

// AdapterInfo selects an adapter property for urAdapterGetInfo.
type AdapterInfo uint32

const (
	AdapterInfoBackend        AdapterInfo = 0
	AdapterInfoReferenceCount AdapterInfo = 1
	AdapterInfoVersion        AdapterInfo = 2
)

// PlatformInfo selects a platform property for urPlatformGetInfo.
type PlatformInfo uint32

const (
	PlatformInfoName       PlatformInfo = 1
	PlatformInfoVendorName PlatformInfo = 2
	PlatformInfoVersion    PlatformInfo = 3
	PlatformInfoExtensions PlatformInfo = 4
	PlatformInfoProfile    PlatformInfo = 5
	PlatformInfoBackend    PlatformInfo = 6
)

// DeviceType filters devices in urDeviceGet.
type DeviceType uint32

const (
	DeviceTypeDefault DeviceType = 1
	DeviceTypeAll     DeviceType = 2
	DeviceTypeGPU     DeviceType = 3
	DeviceTypeCPU     DeviceType = 4
)
