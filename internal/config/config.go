// Package config loads and persists the process-wide configuration (spec.md §6).
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config is the on-disk configuration (config.toml), unmarshalled via viper.
type Config struct {
	DeviceName string `mapstructure:"device_name"`
	ListenPort int    `mapstructure:"listen_port"`

	DefaultFPS     int `mapstructure:"default_fps"`
	DefaultQuality int `mapstructure:"default_quality"`

	IdleTimeoutSeconds     int `mapstructure:"idle_timeout_seconds"`
	KeepAliveIntervalSecs  int `mapstructure:"keepalive_interval_seconds"`
	MaxConcurrentStreams   int `mapstructure:"max_concurrent_streams"`
	DiscoveryTTLSeconds    int `mapstructure:"discovery_ttl_seconds"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// DefaultPort is the default QUIC listen port (spec.md §6).
const DefaultPort = 7070

// Default returns the baked-in defaults, applied before any config.toml is read.
func Default() *Config {
	return &Config{
		ListenPort:            DefaultPort,
		DefaultFPS:            30,
		DefaultQuality:        80,
		IdleTimeoutSeconds:    30,
		KeepAliveIntervalSecs: 5,
		MaxConcurrentStreams:  10,
		DiscoveryTTLSeconds:   120,
		LogLevel:              "info",
		LogFormat:             "text",
	}
}

// Load reads config.toml from cfgFile (or the default config dir when empty),
// falling back to Default() for any unset field. A missing file is not an error.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(Dir())
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("REMOTEDESK")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to config.toml under Dir(), creating the directory if needed.
func Save(cfg *Config) error {
	if err := os.MkdirAll(Dir(), 0700); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("device_name", cfg.DeviceName)
	v.Set("listen_port", cfg.ListenPort)
	v.Set("default_fps", cfg.DefaultFPS)
	v.Set("default_quality", cfg.DefaultQuality)
	v.Set("idle_timeout_seconds", cfg.IdleTimeoutSeconds)
	v.Set("keepalive_interval_seconds", cfg.KeepAliveIntervalSecs)
	v.Set("max_concurrent_streams", cfg.MaxConcurrentStreams)
	v.Set("discovery_ttl_seconds", cfg.DiscoveryTTLSeconds)
	v.Set("log_level", cfg.LogLevel)
	v.Set("log_format", cfg.LogFormat)

	return v.WriteConfigAs(filepath.Join(Dir(), "config.toml"))
}

// Dir returns the per-user config directory (spec.md §6 on-disk layout).
func Dir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "remotedesk")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "remotedesk")
	default:
		home, _ := os.UserHomeDir()
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "remotedesk")
		}
		return filepath.Join(home, ".config", "remotedesk")
	}
}
