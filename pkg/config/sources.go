package config

import (
	"github.com/animalet/dockerhost-go/pkg/secrets"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/hashicorp/vault/api"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Modules configuring secret sources.
const (
	VaultModule = "vault"
	AWSModule   = "aws"
	FileModule  = "file_resolver"
)

// RegisterSecretSources registers a resolver in the Config's registry for each of the
// vault, aws and file_resolver modules present in the file. Source modules themselves
// can only reference the environment and sources registered before them, in the
// order file_resolver, vault, aws.
func RegisterSecretSources(c *Config) error {
	registry := c.Registry()

	fileResolver, err := GetClient[secrets.FileConfig, *secrets.FileResolver](c, FileModule)
	if err != nil {
		return errors.Wrap(err, "failed to load or create file secret resolver")
	}
	if fileResolver != nil {
		registry.Register("file", *fileResolver)
		log.Debug().Msg("Registered file secret resolver")
	}

	vaultCfg, err := Get[secrets.VaultConfig](c, VaultModule)
	if err != nil {
		return errors.Wrap(err, "failed to load Vault configuration")
	}
	if vaultCfg != nil {
		var client *api.Client
		if client, err = vaultCfg.CreateClient(); err != nil {
			return errors.Wrap(err, "failed to create Vault client")
		}
		registry.Register("vault", secrets.NewVaultResolver(client, vaultCfg.Path))
		log.Debug().Str("vault_path", vaultCfg.Path).Msg("Registered Vault secret resolver")
	}

	awsCfg, err := Get[secrets.AWSConfig](c, AWSModule)
	if err != nil {
		return errors.Wrap(err, "failed to load AWS Secrets Manager configuration")
	}
	if awsCfg != nil {
		var client *secretsmanager.Client
		if client, err = awsCfg.CreateClient(); err != nil {
			return errors.Wrap(err, "failed to create AWS Secrets Manager client")
		}
		registry.Register("aws", secrets.NewAWSResolver(client, awsCfg.SecretName))
		log.Debug().Str("secret_name", awsCfg.SecretName).Msg("Registered AWS Secrets Manager resolver")
	}

	return nil
}

// Settings reads the docker module. A file without one yields empty Settings.
func (c *Config) Settings() (Settings, error) {
	s, err := Get[Settings](c, DockerModule)
	if err != nil || s == nil {
		return Settings{}, err
	}
	return *s, nil
}
