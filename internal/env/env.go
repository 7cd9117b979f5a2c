// Package env resolves the deployment environment of the process.
package env

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ekisa-team/synadapt/internal/envvar"
)

// Environment is the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// ErrUnknownEnvironment is returned by Parse for unrecognized names.
var ErrUnknownEnvironment = errors.New("unknown environment")

// Parse parses an environment name. "dev" and "prod" are accepted as
// short forms.
func Parse(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "development", "dev":
		return Development, nil
	case "production", "prod":
		return Production, nil
	default:
		return "", errors.Wrapf(ErrUnknownEnvironment, "%q", s)
	}
}

// FromEnv reads the environment from SYNADAPT_ENV, defaulting to
// Development when it is unset or invalid.
func FromEnv() Environment {
	v, ok := os.LookupEnv(envvar.SynadaptEnv)
	if !ok {
		return Development
	}

	e, err := Parse(v)
	if err != nil {
		return Development
	}
	return e
}

// IsProduction reports whether e is Production.
func (e Environment) IsProduction() bool {
	return e == Production
}

func (e Environment) String() string {
	return string(e)
}
