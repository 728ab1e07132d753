package devenv

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// DefaultProtocol is the scheme of generated base URLs.
const DefaultProtocol = "http"

// BaseURLFallback builds the server base URL.
//
// By default the result references the HOSTNAME and PORT variables by name
// ("http://$HOSTNAME:$PORT") instead of their resolved values, which is what
// existing .env files contain and what dotenv loaders with variable expansion
// rely on. With interpolate set, the values resolved earlier in the pipeline
// are substituted instead.
func BaseURLFallback(protocol string, interpolate bool) Fallback {
	if protocol == "" {
		protocol = DefaultProtocol
	}
	return func(_ context.Context, resolved *ResolvedEnv) (string, error) {
		if !interpolate {
			return fmt.Sprintf("%s://$%s:$%s", protocol, KeyHostname, KeyPort), nil
		}

		hostname, ok := resolved.Get(KeyHostname)
		if !ok {
			return "", errors.Errorf("%s must be resolved before the base URL", KeyHostname)
		}
		port, ok := resolved.Get(KeyPort)
		if !ok {
			return "", errors.Errorf("%s must be resolved before the base URL", KeyPort)
		}
		return fmt.Sprintf("%s://%s:%s", protocol, hostname, port), nil
	}
}
