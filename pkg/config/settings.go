package config

import (
	"os"

	"github.com/animalet/dockerhost-go/pkg/endpoint"
	"github.com/pkg/errors"
)

// DockerModule is the configuration file module holding Settings.
const DockerModule = "docker"

// Settings are the raw inputs of endpoint resolution. Empty fields are absent.
type Settings struct {
	// Host is the daemon endpoint, e.g. unix:///var/run/docker.sock or tcp://10.0.0.2:2376.
	Host string `yaml:"host" toml:"host" json:"host"`
	// CertPath is the TLS client material location. Setting it switches REST calls to https.
	CertPath string `yaml:"cert_path" toml:"cert_path" json:"cert_path"`
	// Port overrides endpoint.DefaultPort for hosts given without a port.
	Port Port `yaml:"port" toml:"port" json:"port"`
}

// EnvVars names the environment variables Settings are read from.
type EnvVars struct {
	Host     string
	CertPath string
	Port     string
}

// DefaultEnvVars are the variables understood by the docker CLI.
var DefaultEnvVars = EnvVars{
	Host:     "DOCKER_HOST",
	CertPath: "DOCKER_CERT_PATH",
	Port:     "DOCKER_PORT",
}

// LookupFunc reads one environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// FromEnvironment samples each of vars once through lookup.
func FromEnvironment(lookup LookupFunc, vars EnvVars) Settings {
	get := func(key string) string {
		value, _ := lookup(key)
		return value
	}
	return Settings{
		Host:     get(vars.Host),
		CertPath: get(vars.CertPath),
		Port:     Port(get(vars.Port)),
	}
}

// ResolveFromEnvironment resolves DOCKER_HOST, DOCKER_CERT_PATH and DOCKER_PORT from the
// process environment, defaulting the endpoint for the platform this binary runs on.
func ResolveFromEnvironment() (*endpoint.Descriptor, error) {
	return FromEnvironment(os.LookupEnv, DefaultEnvVars).Resolve(endpoint.CurrentPlatform())
}

// Validate rejects a Host that cannot be resolved. Port is never rejected: a
// malformed override falls back to the default port.
func (s Settings) Validate() error {
	if s.Host == "" {
		return nil
	}
	if _, err := (endpoint.Input{Endpoint: s.Host, CertPath: s.CertPath, PortOverride: string(s.Port)}).Resolve(); err != nil {
		return errors.Wrap(err, "host")
	}
	return nil
}

// Merge layers over on top of s: every non-empty field of over wins.
func (s Settings) Merge(over Settings) Settings {
	if over.Host != "" {
		s.Host = over.Host
	}
	if over.CertPath != "" {
		s.CertPath = over.CertPath
	}
	if over.Port != "" {
		s.Port = over.Port
	}
	return s
}

// Input turns the settings into resolver input, substituting the platform default
// endpoint when Host is absent.
func (s Settings) Input(p endpoint.Platform) endpoint.Input {
	host := s.Host
	if host == "" {
		host = endpoint.DefaultEndpoint(p, string(s.Port))
	}
	return endpoint.Input{
		Endpoint:     host,
		CertPath:     s.CertPath,
		PortOverride: string(s.Port),
	}
}

// Resolve resolves the settings on platform p.
func (s Settings) Resolve(p endpoint.Platform) (*endpoint.Descriptor, error) {
	return s.Input(p).Resolve()
}

// Environ renders d as VAR=value pairs that make the docker CLI reach the same daemon.
// The host variable carries the bind URI, which never depends on TLS.
func Environ(d *endpoint.Descriptor, vars EnvVars) []string {
	env := []string{vars.Host + "=" + d.BindURI().String()}
	if d.CertPath() != "" {
		env = append(env, vars.CertPath+"="+d.CertPath())
	}
	return env
}
