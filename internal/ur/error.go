package ur

import "github.com/cockroachdb/errors"

// Error definitions for the ur package.
var (
	ErrUnsupported   = errors.New("dynamic loading is not supported on this platform")
	ErrMissingSymbol = errors.New("loader library does not export a required symbol")
)
