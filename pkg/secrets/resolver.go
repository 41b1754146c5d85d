// Package secrets expands "${prefix:key}" references found in endpoint settings.
// A daemon certificate path or endpoint can live in the environment, in a secrets
// directory, in HashiCorp Vault or in AWS Secrets Manager; each of those is a
// PropertyResolver registered under a prefix.
package secrets

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultPrefix is used for references without a prefix, so ${DOCKER_HOST} reads the environment.
const DefaultPrefix = "env"

// PropertyResolver retrieves the value stored under a key.
type PropertyResolver interface {
	// Resolve returns the value for key. The key comes without its prefix.
	Resolve(key string) (string, error)

	// Name is a human-readable name used in logs and errors.
	Name() string
}

// Registry maps prefixes to resolvers. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[string]PropertyResolver
}

// Global is the registry used by configuration loading. It starts with the env resolver.
var Global = NewRegistry()

// NewRegistry returns a registry holding only the env resolver.
func NewRegistry() *Registry {
	r := &Registry{resolvers: make(map[string]PropertyResolver)}
	r.resolvers[DefaultPrefix] = NewEnvResolver()
	return r
}

// Register binds a resolver to prefix, given without the trailing colon.
// An existing registration is replaced with a warning.
func (r *Registry) Register(prefix string, resolver PropertyResolver) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.resolvers[prefix]; exists {
		log.Warn().
			Str("prefix", prefix).
			Str("previous", existing.Name()).
			Str("resolver", resolver.Name()).
			Msg("Overriding registered property resolver")
	}
	r.resolvers[prefix] = resolver
}

func (r *Registry) Unregister(prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.resolvers, prefix)
}

// Resolver returns the resolver registered for prefix, or nil.
func (r *Registry) Resolver(prefix string) PropertyResolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolvers[prefix]
}

// Prefixes lists the registered prefixes in sorted order.
func (r *Registry) Prefixes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefixes := make([]string, 0, len(r.resolvers))
	for prefix := range r.resolvers {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	return prefixes
}

// Resolve looks up a "prefix:key" property. A property without a colon uses DefaultPrefix.
//
// Examples:
//   - "DOCKER_HOST" reads the DOCKER_HOST environment variable
//   - "file:docker_cert_path" reads <secrets_dir>/docker_cert_path
//   - "vault:docker/cert_path" reads the key "docker/cert_path" from the configured Vault path
func (r *Registry) Resolve(property string) (string, error) {
	prefix, key := parseProperty(property)

	resolver := r.Resolver(prefix)
	if resolver == nil {
		return "", errors.Errorf("no resolver registered for prefix %q", prefix)
	}

	value, err := resolver.Resolve(key)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve %q using %s resolver", property, resolver.Name())
	}
	return value, nil
}

// parseProperty splits at the first colon only, so "vault:a:b" has key "a:b".
func parseProperty(property string) (prefix, key string) {
	prefix, key, found := strings.Cut(property, ":")
	if !found {
		return DefaultPrefix, property
	}
	return prefix, key
}
