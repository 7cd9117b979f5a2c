// Package backend connects to the native compute backends exposed by the
// loader. Each connected backend is represented by an Adapter that owns the
// dispatch table, enumerates the backend's platforms and translates native
// result codes into Errors.
package backend

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ekisa-team/synadapt/internal/ur"
)

// Kind identifies a backend technology.
type Kind int8

const (
	KindOpenCL    Kind = 1
	KindLevelZero Kind = 2
	KindCUDA      Kind = 3
	KindAll       Kind = 4
	KindHIP       Kind = 6
)

// Kinds lists every concrete backend kind, excluding KindAll.
var Kinds = []Kind{KindOpenCL, KindLevelZero, KindCUDA, KindHIP}

// String returns the backend name used in configuration and output.
func (k Kind) String() string {
	switch k {
	case KindOpenCL:
		return "opencl"
	case KindLevelZero:
		return "level_zero"
	case KindCUDA:
		return "cuda"
	case KindAll:
		return "all"
	case KindHIP:
		return "hip"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind by name, accepting the aliases of ParseKind.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind parses a backend name. Matching is case-insensitive and accepts
// "levelzero" and "ze" as aliases for level_zero.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "opencl":
		return KindOpenCL, nil
	case "level_zero", "levelzero", "ze":
		return KindLevelZero, nil
	case "cuda":
		return KindCUDA, nil
	case "hip":
		return KindHIP, nil
	case "all", "*":
		return KindAll, nil
	default:
		return 0, errors.Wrapf(ErrUnknownKind, "%q", s)
	}
}

// KindFromNative maps the loader's raw backend onto a Kind. Raw kinds with
// no counterpart fail with ur.ErrorInvalidEnumeration.
func KindFromNative(b ur.Backend) (Kind, error) {
	switch b {
	case ur.BackendLevelZero:
		return KindLevelZero, nil
	case ur.BackendOpenCL:
		return KindOpenCL, nil
	case ur.BackendCUDA:
		return KindCUDA, nil
	case ur.BackendHIP:
		return KindHIP, nil
	default:
		return 0, &Error{
			Errc:    ErrcInvalid,
			Kind:    KindAll,
			API:     ur.APIAdapterGetInfo,
			Code:    ur.ErrorInvalidEnumeration,
			Message: "unmapped native backend " + b.String(),
		}
	}
}
