package backend

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ekisa-team/synadapt/internal/ur"
)

// Error definitions for the backend package.
var (
	ErrUnknownKind       = errors.New("unknown backend kind")
	ErrLoaderInit        = errors.New("native loader failed to initialize")
	ErrNotFound          = errors.New("no adapter serves the requested backend")
	ErrAlreadyRegistered = errors.New("adapter is already registered in the registry")
	ErrAdapterRelease    = errors.New("adapter failed to release")
)

// Errc is the error category attached to an Error.
type Errc int

const (
	ErrcSuccess             Errc = 0
	ErrcRuntime             Errc = 1
	ErrcInvalid             Errc = 8
	ErrcPlatform            Errc = 10
	ErrcFeatureNotSupported Errc = 12
	ErrcBackendMismatch     Errc = 14
)

func (e Errc) String() string {
	switch e {
	case ErrcSuccess:
		return "success"
	case ErrcRuntime:
		return "runtime"
	case ErrcInvalid:
		return "invalid"
	case ErrcPlatform:
		return "platform"
	case ErrcFeatureNotSupported:
		return "feature_not_supported"
	case ErrcBackendMismatch:
		return "backend_mismatch"
	default:
		return fmt.Sprintf("errc(%d)", int(e))
	}
}

// Error is a failed native call translated into the runtime's error model.
type Error struct {
	Errc Errc
	Kind Kind
	API  ur.API
	Code ur.Result

	// Message and AdapterCode carry the detail retrieved through
	// urAdapterGetLastError, when the backend supplied any.
	Message     string
	AdapterCode int32
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s backend failed with error: %s", e.Kind, e.Code)
	if e.API != "" {
		fmt.Fprintf(&b, " (%s)", e.API)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, "\n%s (adapter error %d)", e.Message, e.AdapterCode)
	}
	return b.String()
}

// CodeOf returns the native result code carried by err, if any.
func CodeOf(err error) (ur.Result, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return ur.Success, false
}

// ErrcOf returns the category of err. Errors not produced by this package
// are reported as ErrcRuntime.
func ErrcOf(err error) Errc {
	if err == nil {
		return ErrcSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Errc
	}
	return ErrcRuntime
}
