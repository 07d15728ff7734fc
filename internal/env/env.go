package env

import (
	"os"
	"strings"

	"github.com/irepack/irepack/internal/envvar"
)

// Environment selects logging and diagnostics behavior.
type Environment string

const (
	// Development enables human-readable, colored log output.
	Development Environment = "development"

	// Production enables structured JSON log output.
	Production Environment = "production"
)

// FromEnv reads the environment from IREPACK_ENV. Unknown or empty values
// default to Development.
func FromEnv() Environment {
	switch strings.ToLower(os.Getenv(envvar.IrepackEnv)) {
	case "production", "prod":
		return Production
	default:
		return Development
	}
}
