package secrets

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
)

// EnvLoader reads values from the process environment. It is registered
// under DefaultPrefix at init time.
//
//	file: ${DEVENV_FILE}      # implicit
//	file: ${env:DEVENV_FILE}  # explicit
type EnvLoader struct{}

// NewEnvLoader creates an environment loader
func NewEnvLoader() *EnvLoader {
	return &EnvLoader{}
}

// Resolve returns the variable's value. A missing variable resolves to the
// empty string, matching os.Expand.
func (e *EnvLoader) Resolve(_ context.Context, key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		log.Warn().
			Str("env_var", key).
			Msg("Environment variable not set or empty - using empty string")
	} else {
		log.Debug().
			Str("env_var", key).
			Msg("Retrieved value from environment variable")
	}
	return value, nil
}

// Name returns the loader name
func (e *EnvLoader) Name() string {
	return "Environment"
}
