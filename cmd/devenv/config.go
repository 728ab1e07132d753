package main

import (
	"github.com/animalet/devenv/pkg/config"
	"github.com/animalet/devenv/pkg/config/secrets"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/hashicorp/vault/api"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// loadConfig reads the configuration file and registers the secret providers
// it configures, so that ${vault:...} style references in the devenv module
// and "secret" entries can be resolved.
func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration file")
	}

	registered, err := registerSecretProviders(cfg)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("config", configPath).
		Strs("configured", registered).
		Strs("prefixes", secrets.Prefixes()).
		Msg("Secret providers ready")

	return cfg, nil
}

// registerSecretProviders registers the vault, file and aws providers found
// in cfg and returns the prefixes it registered. The env provider is always
// present.
func registerSecretProviders(cfg *config.Config) ([]string, error) {
	var registered []string
	register := func(prefix string, loader secrets.SecretLoader) {
		secrets.Register(prefix, loader)
		registered = append(registered, prefix)
	}

	vaultClient, err := config.GetClient[secrets.VaultConfig, *api.Client](cfg, "vault")
	if err != nil {
		return nil, errors.Wrap(err, "failed to load or create Vault client")
	}
	if vaultClient != nil {
		// the client does not keep the KV path
		vaultCfg, err := config.Get[secrets.VaultConfig](cfg, "vault")
		if err != nil {
			return nil, errors.Wrap(err, "failed to load Vault configuration")
		}
		register("vault", secrets.NewVaultSecretLoader(*vaultClient, vaultCfg.Path))
	}

	fileResolver, err := config.GetClient[secrets.FileSecretConfig, *secrets.FileSecretLoader](cfg, "file_resolver")
	if err != nil {
		return nil, errors.Wrap(err, "failed to load or create file secret provider")
	}
	if fileResolver != nil {
		register("file", *fileResolver)
	}

	awsClient, err := config.GetClient[secrets.AWSConfig, *secretsmanager.Client](cfg, "aws")
	if err != nil {
		return nil, errors.Wrap(err, "failed to load or create AWS Secrets Manager client")
	}
	if awsClient != nil {
		awsCfg, err := config.Get[secrets.AWSConfig](cfg, "aws")
		if err != nil {
			return nil, errors.Wrap(err, "failed to load AWS Secrets Manager configuration")
		}
		register("aws", secrets.NewAWSSecretLoader(*awsClient, awsCfg.SecretName))
	}

	return registered, nil
}
