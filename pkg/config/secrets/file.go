package secrets

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// FileSecretConfig configures the "file" loader (config module "file_resolver").
type FileSecretConfig struct {
	SecretsDir string `yaml:"secrets_dir" toml:"secrets_dir"`
}

// Validate checks that SecretsDir points at an existing directory
func (f FileSecretConfig) Validate() error {
	if f.SecretsDir == "" {
		return errors.New("secrets_dir is required for file resolver")
	}

	info, err := os.Stat(f.SecretsDir)
	if os.IsNotExist(err) {
		return errors.Errorf("secrets_dir %q does not exist", f.SecretsDir)
	}
	if err != nil {
		return errors.Wrapf(err, "error accessing secrets_dir %q", f.SecretsDir)
	}
	if !info.IsDir() {
		return errors.Errorf("secrets_dir %q is not a directory", f.SecretsDir)
	}
	return nil
}

// CreateClient implements config.ClientFactory[*FileSecretLoader].
func (f FileSecretConfig) CreateClient() (*FileSecretLoader, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return NewFileSecretLoader(f.SecretsDir), nil
}

// FileSecretLoader reads one secret per file from a directory, the layout
// used by Docker and Kubernetes secret mounts.
//
//	- key: AUTH_SECRET
//	  fallback: secret
//	  ref: file:auth_secret   # <secrets_dir>/auth_secret
//
// File contents are trimmed of surrounding whitespace.
type FileSecretLoader struct {
	secretsDir string
}

// NewFileSecretLoader creates a loader rooted at secretsDir
func NewFileSecretLoader(secretsDir string) *FileSecretLoader {
	return &FileSecretLoader{secretsDir: secretsDir}
}

// Resolve reads <secretsDir>/<key>. Keys escaping the directory are rejected.
func (f *FileSecretLoader) Resolve(_ context.Context, key string) (string, error) {
	if f.secretsDir == "" {
		return "", errors.New("no secrets directory configured")
	}
	if key == "" {
		return "", errors.New("no file specified for file secret")
	}
	if filepath.IsAbs(key) {
		return "", errors.New("invalid secret key: absolute paths not allowed")
	}

	cleanKey := filepath.Clean(key)
	if strings.Contains(cleanKey, "..") {
		return "", errors.New("invalid secret key: path traversal detected")
	}

	absSecretsDir, err := filepath.Abs(f.secretsDir)
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve secrets directory")
	}
	absFilePath, err := filepath.Abs(filepath.Join(f.secretsDir, cleanKey))
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve secret file path")
	}
	if !strings.HasPrefix(absFilePath, absSecretsDir+string(filepath.Separator)) {
		return "", errors.New("invalid secret key: outside secrets directory")
	}

	// #nosec G304 -- path is confined to secretsDir above
	content, err := os.ReadFile(absFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Errorf("secret %q not found", cleanKey)
		}
		return "", errors.Wrapf(err, "failed to read secret %q", cleanKey)
	}

	log.Debug().Str("file", absFilePath).Msg("Retrieved secret from file")
	return strings.TrimSpace(string(content)), nil
}

// Name returns the loader name
func (f *FileSecretLoader) Name() string {
	return "File"
}
