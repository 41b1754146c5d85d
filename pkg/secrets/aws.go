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

// AWSConfig configures the "aws" resolver.
type AWSConfig struct {
	Region          string `yaml:"region" toml:"region" json:"region"`
	AccessKeyID     string `yaml:"access_key_id" toml:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" toml:"secret_access_key" json:"secret_access_key"`
	SecretName      string `yaml:"secret_name" toml:"secret_name" json:"secret_name"`
	// Endpoint overrides the service endpoint, e.g. for LocalStack.
	Endpoint string `yaml:"endpoint" toml:"endpoint" json:"endpoint"`
}

func (a AWSConfig) Validate() error {
	if a.Region == "" {
		return errors.New("AWS region is required")
	}
	if a.SecretName == "" {
		return errors.New("AWS secret name is required")
	}
	return nil
}

// CreateClient builds a Secrets Manager client. Without static keys the default
// credential chain (environment, shared config, IAM role) is used.
func (a AWSConfig) CreateClient() (*secretsmanager.Client, error) {
	if err := a.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid AWS configuration")
	}

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

// SecretValueGetter is the part of the Secrets Manager API the resolver uses.
type SecretValueGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSResolver reads one Secrets Manager secret. A JSON object secret is indexed by
// key; any other secret string is returned whole and the key is ignored.
//
//	host: ${aws:docker_host}
type AWSResolver struct {
	client     SecretValueGetter
	secretName string
}

func NewAWSResolver(client SecretValueGetter, secretName string) *AWSResolver {
	return &AWSResolver{
		client:     client,
		secretName: secretName,
	}
}

func (a *AWSResolver) Resolve(key string) (string, error) {
	result, err := a.client.GetSecretValue(context.Background(), &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(a.secretName),
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to read secret %q from AWS Secrets Manager", a.secretName)
	}
	if result.SecretString == nil {
		return "", errors.Errorf("secret %q has no string value", a.secretName)
	}

	secretString := *result.SecretString
	var fields map[string]any
	if err := json.Unmarshal([]byte(secretString), &fields); err == nil {
		value, ok := fields[key].(string)
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
		Msg("Retrieved plain text secret from AWS Secrets Manager")
	return secretString, nil
}

func (a *AWSResolver) Name() string {
	return "AWS Secrets Manager"
}
