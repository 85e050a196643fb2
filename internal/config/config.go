package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig tunes password hashing and session lifetime.
type AuthConfig struct {
	BcryptCost        int `yaml:"bcrypt_cost"`
	SessionTTLMinutes int `yaml:"session_ttl_minutes"`
}

// Default returns the configuration written by `tally init`.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "tally.db"},
		Auth:     AuthConfig{BcryptCost: 12, SessionTTLMinutes: 12 * 60},
	}
}

// Load reads a tally.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
