package secrets

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// AWSConfig configures the "aws" loader backed by AWS Secrets Manager.
type AWSConfig struct {
	Region          string `yaml:"region" toml:"region"`
	AccessKeyID     string `yaml:"access_key_id" toml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" toml:"secret_access_key"`
	SecretName      string `yaml:"secret_name" toml:"secret_name"`
	Endpoint        string `yaml:"endpoint" toml:"endpoint"` // LocalStack or other custom endpoint
}

// Validate checks that region and secret name are set. Credentials are
// optional; without them the default AWS credential chain applies.
func (a AWSConfig) Validate() error {
	if a.Region == "" {
		return errors.New("AWS region is required")
	}
	if a.SecretName == "" {
		return errors.New("AWS secret name is required")
	}
	return nil
}

// CreateClient implements config.ClientFactory[*secretsmanager.Client].
func (a AWSConfig) CreateClient() (*secretsmanager.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(a.Region),
	}
	if a.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(a.Endpoint))
	}
	if a.AccessKeyID != "" && a.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(a.AccessKeyID, a.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS configuration")
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// secretValueGetter is the subset of *secretsmanager.Client used by the loader.
type secretValueGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretLoader reads keys out of one Secrets Manager secret. A JSON object
// secret is indexed by key; a plain string secret is returned whole.
//
//	ref: aws:AUTH_SECRET
type AWSSecretLoader struct {
	client     secretValueGetter
	secretName string
}

// NewAWSSecretLoader creates a loader for secretName
func NewAWSSecretLoader(client *secretsmanager.Client, secretName string) *AWSSecretLoader {
	return &AWSSecretLoader{
		client:     client,
		secretName: secretName,
	}
}

// Resolve fetches the secret and extracts key
func (a *AWSSecretLoader) Resolve(ctx context.Context, key string) (string, error) {
	result, err := a.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(a.secretName),
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to read secret from AWS Secrets Manager: %q", a.secretName)
	}
	if result.SecretString == nil {
		return "", errors.Errorf("secret %q has no string value", a.secretName)
	}

	secretString := *result.SecretString

	var secretData map[string]interface{}
	if err := json.Unmarshal([]byte(secretString), &secretData); err == nil {
		value, ok := secretData[key].(string)
		if !ok {
			return "", errors.Errorf("key %q not found in AWS secret %q", key, a.secretName)
		}
		log.Debug().
			Str("secret_name", a.secretName).
			Str("key", key).
			Msg("Retrieved secret from AWS Secrets Manager")
		return value, nil
	}

	log.Debug().
		Str("secret_name", a.secretName).
		Msg("Retrieved secret from AWS Secrets Manager (plain text)")
	return secretString, nil
}

// Name returns the loader name
func (a *AWSSecretLoader) Name() string {
	return "AWS Secrets Manager"
}
