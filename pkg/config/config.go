// Package config loads devenv's modular configuration file.
//
// Every top-level key of the file is a module (devenv, vault, aws,
// file_resolver, postgres, ...). Modules are decoded lazily into their own
// types with Get or GetClient; string fields go through ${prefix:key}
// expansion before validation.
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/animalet/devenv/internal/expansion"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file syntax.
type Format string

const (
	YAML Format = "yaml"
	TOML Format = "toml"
)

// Validatable is implemented by every module type.
type Validatable interface {
	Validate() error
}

// ClientFactory is a module that can build a client of type T, e.g.
//
//	VaultConfig     implements ClientFactory[*api.Client]
//	AWSConfig       implements ClientFactory[*secretsmanager.Client]
//	RedisConfig     implements ClientFactory[*redis.Pool]
type ClientFactory[T any] interface {
	Validatable
	CreateClient() (T, error)
}

// Config holds the undecoded modules of one configuration file.
type Config struct {
	format  Format
	modules map[string]any
}

// NewConfig reads the file at path. The format is picked from the extension:
// .toml is TOML, anything else YAML.
func NewConfig(path string) (*Config, error) {
	// #nosec G304 -- the path is an operator supplied CLI flag
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read configuration file %q", path)
	}
	return Parse(data, FormatOf(path))
}

// FormatOf infers the syntax of a configuration file from its name.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return TOML
	}
	return YAML
}

// Parse decodes raw configuration data in the given format.
func Parse(data []byte, format Format) (*Config, error) {
	modules := map[string]any{}
	var err error
	switch format {
	case TOML:
		err = toml.Unmarshal(data, &modules)
	case YAML:
		err = yaml.Unmarshal(data, &modules)
	default:
		return nil, errors.Errorf("unsupported configuration format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s configuration", format)
	}
	if modules == nil {
		modules = map[string]any{}
	}
	return &Config{format: format, modules: modules}, nil
}

// Has reports whether the module is present.
func (c *Config) Has(name string) bool {
	_, ok := c.modules[name]
	return ok
}

// Get decodes module name into T, expands its references and validates it.
// It returns (nil, nil) when the module is absent.
func Get[T Validatable](cfg *Config, name string) (*T, error) {
	if cfg == nil {
		return nil, nil
	}
	raw, ok := cfg.modules[name]
	if !ok || raw == nil {
		return nil, nil
	}

	data, err := cfg.encode(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to re-encode module %q", name)
	}
	module, err := Unmarshal[T](data, cfg.format)
	if err != nil {
		return nil, errors.Wrapf(err, "module %q", name)
	}
	return module, nil
}

// GetClient loads module name and builds its client. It returns (nil, nil)
// when the module is absent.
func GetClient[T ClientFactory[C], C any](cfg *Config, name string) (*C, error) {
	module, err := Get[T](cfg, name)
	if err != nil || module == nil {
		return nil, err
	}
	client, err := (*module).CreateClient()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create client for module %q", name)
	}
	return &client, nil
}

// Unmarshal decodes data into a new T, expands ${...} references in its
// string fields and validates the result.
func Unmarshal[T Validatable](data []byte, format Format) (*T, error) {
	var result T
	var err error
	switch format {
	case TOML:
		err = toml.Unmarshal(data, &result)
	default:
		err = yaml.Unmarshal(data, &result)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode configuration")
	}

	if err = expansion.ExpandVariables(context.Background(), &result); err != nil {
		return nil, errors.Wrap(err, "failed to expand configuration")
	}
	if err = result.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration is invalid")
	}
	return &result, nil
}

func (c *Config) encode(raw any) ([]byte, error) {
	if c.format == TOML {
		return toml.Marshal(raw)
	}
	return yaml.Marshal(raw)
}

// Duration is a time.Duration written as a Go duration string ("2s", "150ms")
// in both YAML and TOML.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", string(text))
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
