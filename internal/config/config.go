// Package config loads and saves the CLI configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/osesov/gerrit-cli/internal/logging"
)

// Server describes one named Gerrit endpoint.
type Server struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	// CookieFile points at a git cookie file (~/.gitcookies) used when
	// no username is set.
	CookieFile string `yaml:"cookie_file,omitempty"`
}

// Config is the root configuration document.
type Config struct {
	Version       string          `yaml:"version"`
	DefaultServer string          `yaml:"default_server,omitempty"`
	Servers       []Server        `yaml:"servers,omitempty"`
	SquadDB       string          `yaml:"squad_db,omitempty"`
	Logging       *logging.Config `yaml:"logging,omitempty"`
}

// DefaultConfigPath returns the standard location of the config file.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "gerrit-cli", "config.yaml"), nil
}

// DefaultSquadDBPath returns the standard location of the squad database.
func DefaultSquadDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "gerrit-cli", "squads.db"), nil
}

// DefaultConfig returns a config with sane defaults and no servers.
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Logging: &logging.Config{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads the config from path. A missing file is materialized with
// DefaultConfig on first run, so the user has a file to fill in.
// Environment variables in credential fields are expanded, so passwords
// can be kept out of the file itself.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			if err := Save(cfg, path); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	for i := range cfg.Servers {
		cfg.Servers[i].Username = os.ExpandEnv(cfg.Servers[i].Username)
		cfg.Servers[i].Password = os.ExpandEnv(cfg.Servers[i].Password)
		cfg.Servers[i].CookieFile = os.ExpandEnv(cfg.Servers[i].CookieFile)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.Servers))
	for _, s := range c.Servers {
		if s.Name == "" {
			return fmt.Errorf("server entry missing name")
		}
		if s.URL == "" {
			return fmt.Errorf("server %q missing url", s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate server name %q", s.Name)
		}
		seen[s.Name] = true
	}
	if c.DefaultServer != "" {
		if _, err := c.Server(c.DefaultServer); err != nil {
			return fmt.Errorf("default_server: %w", err)
		}
	}
	return nil
}

// Server returns the named server entry. An empty name selects the
// default server, falling back to a sole configured entry.
func (c *Config) Server(name string) (*Server, error) {
	if name == "" {
		name = c.DefaultServer
	}
	if name == "" {
		if len(c.Servers) == 1 {
			return &c.Servers[0], nil
		}
		return nil, fmt.Errorf("no server selected and no default_server configured")
	}
	for i := range c.Servers {
		if c.Servers[i].Name == name {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("unknown server %q", name)
}

// SquadDBPath returns the configured squad database path, or the
// standard default when unset.
func (c *Config) SquadDBPath() (string, error) {
	if c.SquadDB != "" {
		return os.ExpandEnv(c.SquadDB), nil
	}
	return DefaultSquadDBPath()
}
