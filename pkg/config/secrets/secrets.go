// Package secrets resolves "prefix:key" references through a registry of
// pluggable loaders. It backs both ${...} expansion in config files and the
// "secret" fallback of the dev-env pipelines.
package secrets

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultPrefix is used for references that carry no "prefix:" part.
const DefaultPrefix = "env"

// SecretLoader retrieves a single value by key from some backing store.
//
// Implementations shipped with this package:
//   - EnvLoader: process environment
//   - FileSecretLoader: one file per secret inside a directory
//   - VaultSecretLoader: HashiCorp Vault KV v1/v2
//   - AWSSecretLoader: AWS Secrets Manager
type SecretLoader interface {
	// Resolve returns the value stored under key (the part after the prefix).
	Resolve(ctx context.Context, key string) (string, error)

	// Name is a human readable label used in logs and errors.
	Name() string
}

var (
	mu      sync.RWMutex
	loaders = map[string]SecretLoader{}
)

func init() {
	Register(DefaultPrefix, NewEnvLoader())
}

// Register binds loader to prefix (without the trailing colon), replacing
// any loader already registered for it.
func Register(prefix string, loader SecretLoader) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := loaders[prefix]; exists {
		log.Warn().Str("prefix", prefix).Msg("Overriding existing secret loader")
	}
	loaders[prefix] = loader
}

// Unregister removes the loader bound to prefix.
func Unregister(prefix string) {
	mu.Lock()
	defer mu.Unlock()
	delete(loaders, prefix)
}

// Lookup returns the loader bound to prefix, or nil.
func Lookup(prefix string) SecretLoader {
	mu.RLock()
	defer mu.RUnlock()
	return loaders[prefix]
}

// Prefixes lists the registered prefixes in lexical order.
func Prefixes() []string {
	mu.RLock()
	defer mu.RUnlock()
	prefixes := make([]string, 0, len(loaders))
	for prefix := range loaders {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	return prefixes
}

// Resolve resolves a reference of the form "prefix:key" or plain "key"
// (which goes to the env loader).
//
//	vault:AUTH_SECRET  -> Vault
//	file:db_password   -> secrets directory
//	PORT               -> environment
func Resolve(ctx context.Context, ref string) (string, error) {
	prefix, key := ParseRef(ref)

	loader := Lookup(prefix)
	if loader == nil {
		return "", errors.Errorf("no secret loader registered for prefix %q", prefix)
	}

	value, err := loader.Resolve(ctx, key)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve %q using %s loader", ref, loader.Name())
	}
	return value, nil
}

// ParseRef splits ref at its first colon. A ref without colon is routed to
// DefaultPrefix.
//
//	"custom:db:password" -> ("custom", "db:password")
func ParseRef(ref string) (prefix string, key string) {
	prefix, key, found := strings.Cut(ref, ":")
	if !found {
		return DefaultPrefix, ref
	}
	return prefix, key
}
