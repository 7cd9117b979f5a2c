package registry

import "github.com/cockroachdb/errors"

// Error definitions for the registry package.
var (
	ErrAlreadyActive = errors.New("registry is already active")
	ErrTornDown      = errors.New("registry has been torn down")
)
