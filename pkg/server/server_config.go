package server

import (
	"github.com/animalet/dockerhost-go/pkg/endpoint"
	"github.com/pkg/errors"
)

// ServerModule is the configuration file module holding Config.
const ServerModule = "server"

// Config configures the advertise server.
type Config struct {
	// Listen is the endpoint the server binds to, in any form endpoint.Resolve accepts:
	// "localhost:8080", "tcp://0.0.0.0:8080" or "unix:///run/dockerhost.sock".
	Listen string `yaml:"listen" toml:"listen" json:"listen"`
	// ContentSecurityPolicy replaces the default policy header.
	ContentSecurityPolicy string `yaml:"content_security_policy" toml:"content_security_policy" json:"content_security_policy"`
	Debug                 bool   `yaml:"debug" toml:"debug" json:"debug"`
}

func (c Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen must be set and non-empty")
	}
	if _, err := c.Bind(); err != nil {
		return errors.Wrap(err, "listen")
	}
	return nil
}

// Bind resolves Listen. Only its bind URI is used.
func (c Config) Bind() (*endpoint.Descriptor, error) {
	return endpoint.Resolve(c.Listen, "")
}
