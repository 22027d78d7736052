// Package config holds the registry client configuration for wkg.
//
// Configuration is resolved once per invocation and passed into the pipeline
// by parameter; nothing here is consulted as ambient state after Load.
package config

// Config represents the wkg client configuration
type Config struct {
	// DefaultRegistry is the domain used for any namespace without an
	// explicit mapping (default: bytecodealliance.org)
	DefaultRegistry string `mapstructure:"default_registry"`

	// Registries maps a package namespace to the registry domain serving it,
	// e.g. wasi = "registry.example.com"
	Registries map[string]string `mapstructure:"registries"`

	HTTP HTTPConfig `mapstructure:"http"`
}

// HTTPConfig configures outbound registry HTTP traffic
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"` // per-request timeout (default: 60)
}

// DefaultRegistryDomain is the fallback registry when no configuration
// overrides it.
const DefaultRegistryDomain = "bytecodealliance.org"

// RegistryFor returns the registry domain serving the given namespace.
func (c *Config) RegistryFor(namespace string) string {
	if domain, ok := c.Registries[namespace]; ok && domain != "" {
		return domain
	}
	if c.DefaultRegistry != "" {
		return c.DefaultRegistry
	}
	return DefaultRegistryDomain
}

// SetNamespaceRegistry maps a namespace to a registry domain for this
// invocation only. Used by the --registry flag.
func (c *Config) SetNamespaceRegistry(namespace, domain string) {
	if c.Registries == nil {
		c.Registries = make(map[string]string)
	}
	c.Registries[namespace] = domain
}
