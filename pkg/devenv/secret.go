package devenv

import (
	"context"

	"github.com/animalet/devenv/pkg/config/secrets"
	"github.com/pkg/errors"
)

// SecretFallback resolves ref ("vault:AUTH_SECRET", "file:auth_secret", ...)
// through the secrets registry. An empty result is an error.
func SecretFallback(ref string) Fallback {
	return func(ctx context.Context, _ *ResolvedEnv) (string, error) {
		value, err := secrets.Resolve(ctx, ref)
		if err != nil {
			return "", err
		}
		if value == "" {
			return "", errors.Errorf("secret %q resolved to an empty value", ref)
		}
		return value, nil
	}
}

// StaticFallback always returns value.
func StaticFallback(value string) Fallback {
	return func(context.Context, *ResolvedEnv) (string, error) {
		return value, nil
	}
}
