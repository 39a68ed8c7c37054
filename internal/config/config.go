// Package config loads the plugmate configuration from plugmate.yml and the
// PLUGMATE_* environment.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// CatalogConfig declares one catalog source, in priority order.
type CatalogConfig struct {
	// Type is "local" (a directory of repository files) or "http" (a remote
	// index).
	Type string `mapstructure:"type"`
	// Path is the directory for local sources.
	Path string `mapstructure:"path"`
	// URL is the endpoint for http sources.
	URL string `mapstructure:"url"`
}

// Config is the resolved plugmate configuration.
type Config struct {
	ServerDir       string          `mapstructure:"server_dir"`
	PluginsDir      string          `mapstructure:"plugins_dir"`
	StateDir        string          `mapstructure:"state_dir"`
	ManifestPath    string          `mapstructure:"manifest_path"`
	DownloadTimeout time.Duration   `mapstructure:"download_timeout"`
	LogLevel        string          `mapstructure:"log_level"`
	Catalogs        []CatalogConfig `mapstructure:"catalogs"`
}

// DefaultConfig returns the defaults for a server rooted at the working
// directory.
func DefaultConfig() *Config {
	return &Config{
		ServerDir:       ".",
		PluginsDir:      "plugins",
		StateDir:        ".plugmate",
		ManifestPath:    "plugins.yml",
		DownloadTimeout: 5 * time.Minute,
		LogLevel:        "info",
	}
}

// Load reads the configuration. With an empty path, plugmate.yml is searched
// in the working directory and $HOME/.plugmate/; a missing file leaves the
// defaults in place.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("plugmate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.plugmate/")
	}

	v.SetEnvPrefix("PLUGMATE")
	v.AutomaticEnv()

	v.SetDefault("server_dir", config.ServerDir)
	v.SetDefault("plugins_dir", config.PluginsDir)
	v.SetDefault("state_dir", config.StateDir)
	v.SetDefault("manifest_path", config.ManifestPath)
	v.SetDefault("download_timeout", config.DownloadTimeout)
	v.SetDefault("log_level", config.LogLevel)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func validate(config *Config) error {
	if config.DownloadTimeout <= 0 {
		return fmt.Errorf("the download timeout must be positive")
	}
	for i, c := range config.Catalogs {
		switch c.Type {
		case "local":
			if c.Path == "" {
				return fmt.Errorf("catalog %d: a local catalog needs a path", i)
			}
		case "http":
			if c.URL == "" {
				return fmt.Errorf("catalog %d: an http catalog needs a url", i)
			}
		default:
			return fmt.Errorf("catalog %d: unknown type %q", i, c.Type)
		}
	}
	return nil
}

// PluginsPath returns the plugin directory relative to the server dir.
func (c *Config) PluginsPath() string {
	return filepath.Join(c.ServerDir, c.PluginsDir)
}

// StatePath returns the state directory relative to the server dir.
func (c *Config) StatePath() string {
	return filepath.Join(c.ServerDir, c.StateDir)
}

// MetadataPath returns the metadata record directory.
func (c *Config) MetadataPath() string {
	return filepath.Join(c.StatePath(), "metadata")
}

// ManifestFile returns the declared manifest path.
func (c *Config) ManifestFile() string {
	return filepath.Join(c.ServerDir, c.ManifestPath)
}
