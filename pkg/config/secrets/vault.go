package secrets

import (
	"context"

	"github.com/hashicorp/vault/api"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// VaultConfig configures the "vault" loader.
type VaultConfig struct {
	Address   string `yaml:"address" toml:"address"`
	Token     string `yaml:"token" toml:"token"`
	Path      string `yaml:"path" toml:"path"`
	Namespace string `yaml:"namespace" toml:"namespace"`
}

// Validate checks that address, token and path are set
func (v VaultConfig) Validate() error {
	if v.Address == "" {
		return errors.New("Vault address is required")
	}
	if v.Token == "" {
		return errors.New("Vault token is required")
	}
	if v.Path == "" {
		return errors.New("Vault path is required")
	}
	return nil
}

// CreateClient implements config.ClientFactory[*api.Client].
func (v VaultConfig) CreateClient() (*api.Client, error) {
	if err := v.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid Vault configuration")
	}

	cfg := api.DefaultConfig()
	cfg.Address = v.Address

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Vault client")
	}

	client.SetToken(v.Token)
	if v.Namespace != "" {
		client.SetNamespace(v.Namespace)
	}
	return client, nil
}

// VaultSecretLoader reads keys from a single Vault path. Both KV v1 and KV v2
// engines are supported.
//
//	ref: vault:AUTH_SECRET
type VaultSecretLoader struct {
	logical *api.Logical
	path    string
}

// NewVaultSecretLoader creates a loader reading from path (e.g. "secret/data/myapp")
func NewVaultSecretLoader(client *api.Client, path string) *VaultSecretLoader {
	return &VaultSecretLoader{
		logical: client.Logical(),
		path:    path,
	}
}

// Resolve reads the configured path and extracts key
func (v *VaultSecretLoader) Resolve(ctx context.Context, key string) (string, error) {
	secret, err := v.logical.ReadWithContext(ctx, v.path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read secret from Vault path %q", v.path)
	}
	if secret == nil || secret.Data == nil {
		return "", errors.Errorf("no secret found at Vault path %q", v.path)
	}

	data := secret.Data
	if nested, present := secret.Data["data"]; present && nested != nil {
		// KV v2 wraps the payload in "data"
		dataMap, ok := nested.(map[string]interface{})
		if !ok {
			return "", errors.New("unexpected data format in KV v2 secret")
		}
		data = dataMap
	}

	value, ok := data[key].(string)
	if !ok {
		return "", errors.Errorf("secret %q not found in Vault at path %q", key, v.path)
	}

	log.Debug().
		Str("secret_name", key).
		Str("vault_path", v.path).
		Msg("Retrieved secret from Vault")
	return value, nil
}

// Name returns the loader name
func (v *VaultSecretLoader) Name() string {
	return "Vault"
}
