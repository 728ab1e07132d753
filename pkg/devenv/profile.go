package devenv

import (
	"strings"

	"github.com/animalet/devenv/pkg/config"
	"github.com/animalet/devenv/pkg/ports"
	"github.com/animalet/devenv/pkg/services"
	"github.com/pkg/errors"
)

// FallbackKind names a fallback in the config file.
type FallbackKind string

const (
	KindHostname  FallbackKind = "hostname"
	KindPort      FallbackKind = "port"
	KindBaseURL   FallbackKind = "base_url"
	KindSecret    FallbackKind = "secret"
	KindStatic    FallbackKind = "static"
	KindPostgres  FallbackKind = "postgres"
	KindRedis     FallbackKind = "redis"
	KindMongoDB   FallbackKind = "mongodb"
	KindMemcached FallbackKind = "memcached"
)

var fallbackKinds = map[FallbackKind]bool{
	KindHostname:  true,
	KindPort:      true,
	KindBaseURL:   true,
	KindSecret:    true,
	KindStatic:    true,
	KindPostgres:  true,
	KindRedis:     true,
	KindMongoDB:   true,
	KindMemcached: true,
}

// EntrySpec is one pipeline step as written in the config file.
type EntrySpec struct {
	Key      string       `yaml:"key" toml:"key"`
	Fallback FallbackKind `yaml:"fallback" toml:"fallback"`
	Ref      string       `yaml:"ref,omitempty" toml:"ref"`     // secret kind
	Value    string       `yaml:"value,omitempty" toml:"value"` // static kind
}

// Validate checks the key, the kind and the kind's required fields
func (e EntrySpec) Validate() error {
	if _, err := ParseKey(e.Key); err != nil {
		return err
	}
	if !fallbackKinds[e.Fallback] {
		return errors.Errorf("unknown fallback %q for %s", e.Fallback, e.Key)
	}
	switch e.Fallback {
	case KindSecret:
		if e.Ref == "" {
			return errors.Errorf("secret fallback for %s requires ref", e.Key)
		}
	case KindStatic:
		if e.Value == "" {
			return errors.Errorf("static fallback for %s requires value", e.Key)
		}
	default:
	}
	return nil
}

// Profile is the "devenv" config module.
type Profile struct {
	File               string          `yaml:"file,omitempty" toml:"file"`
	Source             string          `yaml:"source,omitempty" toml:"source"`
	Readme             string          `yaml:"readme,omitempty" toml:"readme"`
	Protocol           string          `yaml:"protocol,omitempty" toml:"protocol"`
	InitialHostname    string          `yaml:"initial_hostname,omitempty" toml:"initial_hostname"`
	InitialPort        string          `yaml:"initial_port,omitempty" toml:"initial_port"`
	InterpolateBaseURL bool            `yaml:"interpolate_base_url,omitempty" toml:"interpolate_base_url"`
	ProbeTimeout       config.Duration `yaml:"probe_timeout,omitempty" toml:"probe_timeout"`
	Entries            []EntrySpec     `yaml:"entries,omitempty" toml:"entries"`
}

// Validate checks the profile and every entry
func (p Profile) Validate() error {
	if p.Protocol != "" && strings.ContainsAny(p.Protocol, ":/") {
		return errors.Errorf("protocol %q must be a bare scheme such as http", p.Protocol)
	}
	if p.InitialPort != "" {
		if _, ok := ports.SanitisePort(p.InitialPort); !ok {
			return errors.Errorf("initial_port %q is not a valid port", p.InitialPort)
		}
	}
	if p.ProbeTimeout < 0 {
		return errors.New("probe_timeout cannot be negative")
	}

	seen := make(map[string]bool, len(p.Entries))
	for i, entry := range p.Entries {
		if err := entry.Validate(); err != nil {
			return errors.Wrapf(err, "entries[%d]", i)
		}
		if seen[entry.Key] {
			return errors.Errorf("entries[%d]: duplicate key %s", i, entry.Key)
		}
		seen[entry.Key] = true
	}
	return nil
}

// Options merges the profile over base.
func (p Profile) Options(base Options) Options {
	opts := base
	if p.Protocol != "" {
		opts.Protocol = p.Protocol
	}
	if p.InitialHostname != "" {
		opts.InitialHostname = p.InitialHostname
	}
	if port, ok := ports.SanitisePort(p.InitialPort); ok {
		opts.InitialPort = port
	}
	if p.InterpolateBaseURL {
		opts.InterpolateBaseURL = true
	}
	if p.ProbeTimeout > 0 {
		opts.ProbeTimeout = p.ProbeTimeout.Std()
	}
	return opts
}

// BuildEntries turns the profile into a pipeline. A profile without entries
// yields AuthEntries. Service kinds read their settings from the matching
// module of cfg.
func (p Profile) BuildEntries(cfg *config.Config, opts Options) ([]Entry, error) {
	if len(p.Entries) == 0 {
		return AuthEntries(opts), nil
	}

	entries := make([]Entry, 0, len(p.Entries))
	for i, spec := range p.Entries {
		key, err := ParseKey(spec.Key)
		if err != nil {
			return nil, errors.Wrapf(err, "entries[%d]", i)
		}
		fallback, err := buildFallback(cfg, spec, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "entries[%d] (%s)", i, key)
		}
		entries = append(entries, Entry{Key: key, Fallback: fallback})
	}
	return entries, nil
}

func buildFallback(cfg *config.Config, spec EntrySpec, opts Options) (Fallback, error) {
	switch spec.Fallback {
	case KindHostname:
		return HostnameFallback(opts.Addresses, opts.InitialHostname), nil
	case KindPort:
		return PortFallback(opts.Ports, opts.InitialPort), nil
	case KindBaseURL:
		return BaseURLFallback(opts.Protocol, opts.InterpolateBaseURL), nil
	case KindSecret:
		return SecretFallback(spec.Ref), nil
	case KindStatic:
		return StaticFallback(spec.Value), nil
	case KindPostgres:
		return serviceFallback[services.PostgresConfig](cfg, string(spec.Fallback), opts)
	case KindRedis:
		return serviceFallback[services.RedisConfig](cfg, string(spec.Fallback), opts)
	case KindMongoDB:
		return serviceFallback[services.MongoDBConfig](cfg, string(spec.Fallback), opts)
	case KindMemcached:
		return serviceFallback[services.MemcachedConfig](cfg, string(spec.Fallback), opts)
	default:
		return nil, errors.Errorf("unknown fallback %q", spec.Fallback)
	}
}

type serviceModule interface {
	config.Validatable
	services.Service
}

func serviceFallback[T serviceModule](cfg *config.Config, module string, opts Options) (Fallback, error) {
	svc, err := config.Get[T](cfg, module)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, errors.Errorf("fallback %q requires a %q module in the config file", module, module)
	}
	return ServiceFallback(*svc, opts.ProbeTimeout), nil
}
