package secrets

import (
	"github.com/hashicorp/vault/api"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// VaultConfig configures the "vault" resolver.
type VaultConfig struct {
	Address   string `yaml:"address" toml:"address" json:"address"`
	Token     string `yaml:"token" toml:"token" json:"token"`
	Path      string `yaml:"path" toml:"path" json:"path"`
	Namespace string `yaml:"namespace" toml:"namespace" json:"namespace"`
}

func (v VaultConfig) Validate() error {
	switch {
	case v.Address == "":
		return errors.New("vault: address must be set")
	case v.Token == "":
		return errors.New("vault: token must be set")
	case v.Path == "":
		return errors.New("vault: path must be set")
	}
	return nil
}

// CreateClient builds a Vault API client authenticated with the configured token.
func (v VaultConfig) CreateClient() (*api.Client, error) {
	if err := v.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid Vault configuration")
	}

	apiConfig := api.DefaultConfig()
	apiConfig.Address = v.Address

	client, err := api.NewClient(apiConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot build Vault client for %s", v.Address)
	}

	client.SetToken(v.Token)
	if v.Namespace != "" {
		client.SetNamespace(v.Namespace)
	}
	return client, nil
}

// VaultResolver reads keys from a single Vault path. KV v1 and KV v2 engines are supported.
//
//	cert_path: ${vault:docker_cert_path}
type VaultResolver struct {
	logical *api.Logical
	path    string
}

func NewVaultResolver(client *api.Client, path string) *VaultResolver {
	return &VaultResolver{
		logical: client.Logical(),
		path:    path,
	}
}

// Resolve reads the path on every call so rotated values are picked up.
func (v *VaultResolver) Resolve(key string) (string, error) {
	data, err := v.data()
	if err != nil {
		return "", err
	}

	value, ok := data[key].(string)
	if !ok {
		return "", errors.Errorf("secret %q not found in Vault at path %q", key, v.path)
	}

	log.Debug().Str("key", key).Str("vault_path", v.path).Msg("Secret read from Vault")
	return value, nil
}

// data returns the key/value pairs at the path, unwrapping the KV v2 envelope.
func (v *VaultResolver) data() (map[string]any, error) {
	secret, err := v.logical.Read(v.path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read Vault path %q", v.path)
	}
	if secret == nil || secret.Data == nil {
		return nil, errors.Errorf("no secret found at Vault path %q", v.path)
	}
	if kv2, ok := secret.Data["data"].(map[string]any); ok {
		return kv2, nil
	}
	return secret.Data, nil
}

func (v *VaultResolver) Name() string {
	return "Vault"
}
