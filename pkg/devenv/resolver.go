// Package devenv resolves development environment variables through ordered
// fallback pipelines.
//
// A pipeline is a list of entries. For each entry the resolver keeps a
// non-empty value already present in the environment, otherwise it runs the
// entry's fallback. Entries run one at a time, in order, and every fallback
// sees the values resolved before it.
package devenv

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Fallback produces a value for an unset variable. resolved holds the
// values of the entries before it and is a private copy.
type Fallback func(ctx context.Context, resolved *ResolvedEnv) (string, error)

// Entry pairs a key with the fallback used when the environment has no value.
type Entry struct {
	Key      Key
	Fallback Fallback
}

// LookupEnv has the signature of os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// Resolver runs pipelines against an environment.
type Resolver struct {
	lookupEnv LookupEnv
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLookupEnv replaces the environment source (os.LookupEnv by default).
func WithLookupEnv(lookup LookupEnv) ResolverOption {
	return func(r *Resolver) {
		if lookup != nil {
			r.lookupEnv = lookup
		}
	}
}

// NewResolver creates a resolver reading the process environment.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs entries in order. source labels the pipeline in logs and
// errors. The first failing fallback aborts the whole batch and no partial
// result is returned.
func (r *Resolver) Resolve(ctx context.Context, entries []Entry, source string) (*ResolvedEnv, error) {
	if err := validateEntries(entries); err != nil {
		return nil, errors.Wrapf(err, "invalid dev env pipeline from %s", source)
	}

	resolved := newResolvedEnv(len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "resolving dev env from %s", source)
		}

		if value, ok := r.lookupEnv(entry.Key.String()); ok && value != "" {
			resolved.set(Var{Key: entry.Key, Value: value, Origin: FromEnvironment})
			log.Debug().Str("source", source).Str("key", entry.Key.String()).Stringer("origin", FromEnvironment).Msg("Resolved dev env variable")
			continue
		}

		view, err := resolved.snapshot()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to snapshot dev env before %s", entry.Key)
		}
		value, err := entry.Fallback(ctx, view)
		if err != nil {
			return nil, errors.Wrapf(err, "fallback for %s from %s failed", entry.Key, source)
		}
		resolved.set(Var{Key: entry.Key, Value: value, Origin: FromFallback})
		log.Debug().Str("source", source).Str("key", entry.Key.String()).Stringer("origin", FromFallback).Msg("Resolved dev env variable")
	}
	return resolved, nil
}

func validateEntries(entries []Entry) error {
	seen := make(map[Key]bool, len(entries))
	for i, entry := range entries {
		if err := entry.Key.Validate(); err != nil {
			return errors.Wrapf(err, "entry %d", i)
		}
		if seen[entry.Key] {
			return errors.Errorf("entry %d: duplicate key %s", i, entry.Key)
		}
		if entry.Fallback == nil {
			return errors.Errorf("entry %d: %s has no fallback", i, entry.Key)
		}
		seen[entry.Key] = true
	}
	return nil
}
