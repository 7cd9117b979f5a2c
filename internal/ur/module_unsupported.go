//go:build !(darwin || freebsd || linux)

package ur

import "github.com/cockroachdb/errors"

// Module is unavailable on platforms without dlopen.
type Module struct {
	DispatchTable
}

// Open always fails with ErrUnsupported.
func Open(path string) (*Module, error) {
	return nil, errors.Wrapf(ErrUnsupported, "ur: cannot open %s", path)
}

// Close is a no-op.
func (m *Module) Close() error {
	return nil
}
