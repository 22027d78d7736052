package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/componentry/wkg/errors"
)

// Load reads the wkg configuration using Viper. Sources in precedence order:
// defaults, then ~/.config/wkg/config.toml (if present), then WKG_* env vars.
func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("WKG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	// defaultConfigPath only reports files that exist, so a read failure
	// here means a malformed file, not a missing one
	if path := defaultConfigPath(); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %s", configPath)
	}
	return &config, nil
}

// SetDefaults applies default configuration values to a Viper instance
func SetDefaults(v *viper.Viper) {
	v.SetDefault("default_registry", DefaultRegistryDomain)
	v.SetDefault("http.timeout_seconds", 60)
}

// defaultConfigPath returns ~/.config/wkg/config.toml if it exists, honoring
// XDG_CONFIG_HOME. Empty string when no config file is present.
func defaultConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(home, ".config")
	}

	path := filepath.Join(configDir, "wkg", "config.toml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
