package secrets

import (
	"os"

	"github.com/rs/zerolog/log"
)

// EnvResolver reads environment variables. Unset variables resolve to an empty
// string, which endpoint settings treat as absent.
//
//	host: ${DOCKER_HOST}
//	cert_path: ${env:DOCKER_CERT_PATH}
type EnvResolver struct {
	lookup func(string) (string, bool)
}

func NewEnvResolver() *EnvResolver {
	return &EnvResolver{lookup: os.LookupEnv}
}

// NewEnvResolverFrom reads variables through lookup instead of the process environment.
func NewEnvResolverFrom(lookup func(string) (string, bool)) *EnvResolver {
	return &EnvResolver{lookup: lookup}
}

func (e *EnvResolver) Resolve(key string) (string, error) {
	value, ok := e.lookup(key)
	if !ok {
		log.Debug().Str("env_var", key).Msg("Environment variable not set, using empty string")
		return "", nil
	}

	log.Debug().Str("env_var", key).Msg("Retrieved value from environment variable")
	return value, nil
}

func (e *EnvResolver) Name() string {
	return "Environment"
}
