// Package config loads endpoint settings from the process environment and from
// YAML, TOML or JSON configuration files.
//
// A configuration file is a set of modules keyed by their top-level name:
//
//	docker:
//	  host: ${DOCKER_HOST}
//	  cert_path: ${vault:docker_cert_path}
//	  port: ${DOCKER_PORT}
//	vault:
//	  address: https://vault.internal:8200
//	  token: ${VAULT_TOKEN}
//	  path: secret/data/docker
//
// Module values are expanded through a secrets.Registry when they are read, so a
// module is only resolved against Vault or AWS when something asks for it.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/animalet/dockerhost-go/internal/expansion"
	"github.com/animalet/dockerhost-go/internal/snapshot"
	"github.com/animalet/dockerhost-go/pkg/secrets"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file encoding.
type Format string

const (
	YamlFormat Format = "yaml"
	TomlFormat Format = "toml"
	JsonFormat Format = "json"
)

// Validatable is implemented by every module type.
type Validatable interface {
	Validate() error
}

// ClientFactory is a module that knows how to build a client of type T, such as
// secrets.VaultConfig building an *api.Client.
type ClientFactory[T any] interface {
	Validatable
	CreateClient() (T, error)
}

// ModuleRawConfig is the encoded body of one module, in the format of its file.
type ModuleRawConfig []byte

// Config is a parsed configuration file.
type Config struct {
	format   Format
	modules  map[string]ModuleRawConfig
	registry *secrets.Registry
}

// Option customises NewConfig and Parse.
type Option func(*Config)

// WithRegistry expands module values through registry instead of secrets.Global.
func WithRegistry(registry *secrets.Registry) Option {
	return func(c *Config) {
		c.registry = registry
	}
}

// FormatOf picks the format from the file extension. Unknown extensions are YAML.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TomlFormat
	case ".json":
		return JsonFormat
	default:
		return YamlFormat
	}
}

// NewConfig reads and parses the configuration file at path.
func NewConfig(path string, opts ...Option) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read configuration file %q", path)
	}

	cfg, err := Parse(data, FormatOf(path), opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse configuration file %q", path)
	}

	log.Debug().Str("file", path).Strs("modules", cfg.Keys()).Msg("Configuration file loaded")
	return cfg, nil
}

// Parse splits data into modules.
func Parse(data []byte, format Format, opts ...Option) (*Config, error) {
	var top map[string]any
	if err := decode(format, data, &top); err != nil {
		return nil, err
	}

	cfg := &Config{
		format:   format,
		modules:  make(map[string]ModuleRawConfig, len(top)),
		registry: secrets.Global,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	for key, value := range top {
		raw, err := encode(format, value)
		if err != nil {
			return nil, errors.Wrapf(err, "module %q", key)
		}
		cfg.modules[key] = raw
	}
	return cfg, nil
}

// Keys lists the modules present in the file, sorted.
func (c *Config) Keys() []string {
	keys := make([]string, 0, len(c.modules))
	for key := range c.modules {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (c *Config) Format() Format {
	return c.format
}

func (c *Config) Registry() *secrets.Registry {
	return c.registry
}

// Get decodes, expands and validates module key. A missing module yields (nil, nil).
// Every call returns a fresh value that shares nothing with the Config.
func Get[T Validatable](c *Config, key string) (*T, error) {
	raw, exists := c.modules[key]
	if !exists {
		return nil, nil
	}

	module, err := Unmarshal[T](c.format, raw, c.registry)
	if err != nil {
		return nil, errors.Wrapf(err, "module %q", key)
	}
	return snapshot.Copy(module)
}

// GetClient builds the client of module key. A missing module yields (nil, nil).
func GetClient[T ClientFactory[C], C any](c *Config, key string) (*C, error) {
	module, err := Get[T](c, key)
	if err != nil || module == nil {
		return nil, err
	}

	client, err := (*module).CreateClient()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create client for module %q", key)
	}
	return &client, nil
}

// Unmarshal decodes raw as T, expands its references through registry and validates it.
func Unmarshal[T Validatable](format Format, raw ModuleRawConfig, registry *secrets.Registry) (*T, error) {
	var module T
	if err := decode(format, raw, &module); err != nil {
		return nil, err
	}
	if err := expansion.Expand(registry, &module); err != nil {
		return nil, err
	}
	if err := module.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration is invalid")
	}
	return &module, nil
}

func decode(format Format, data []byte, out any) error {
	var err error
	switch format {
	case YamlFormat:
		err = yaml.Unmarshal(data, out)
	case TomlFormat:
		err = toml.NewDecoder(bytes.NewReader(data)).EnableUnmarshalerInterface().Decode(out)
	case JsonFormat:
		err = json.Unmarshal(data, out)
	default:
		return errors.Errorf("unsupported format %q", format)
	}
	return errors.Wrapf(err, "failed to decode %s", format)
}

func encode(format Format, value any) ([]byte, error) {
	switch format {
	case YamlFormat:
		return yaml.Marshal(value)
	case TomlFormat:
		if _, ok := value.(map[string]any); !ok {
			return nil, errors.Errorf("a TOML module must be a table, got %T", value)
		}
		return toml.Marshal(value)
	case JsonFormat:
		return json.Marshal(value)
	default:
		return nil, errors.Errorf("unsupported format %q", format)
	}
}
