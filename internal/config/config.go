// Package config provides YAML-based configuration loading for Waybill.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Waybill configuration, loaded from
// .kanban/config.yaml inside the tracked repository.
type Config struct {
	Theme     string          `yaml:"theme"`
	Paths     PathsConfig     `yaml:"paths"`
	Notify    NotifyConfig    `yaml:"notify"`
	GitHub    GitHubConfig    `yaml:"github"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// PathsConfig controls where work item files are discovered.
type PathsConfig struct {
	Root      string   `yaml:"root"`
	ScanPaths []string `yaml:"scan_paths"`
	Ignore    []string `yaml:"ignore"`

	// Optional per-type directories; items of that type are created
	// there instead of under Root.
	Features string `yaml:"features"`
	Bugs     string `yaml:"bugs"`
	Epics    string `yaml:"epics"`
	Tasks    string `yaml:"tasks"`
}

// NotifyConfig controls transition notification delivery.
type NotifyConfig struct {
	Command        string        `yaml:"command"` // shell command template
	SlackWebhook   string        `yaml:"slack_webhook"`
	DiscordWebhook DiscordConfig `yaml:"discord_webhook"`
}

// DiscordConfig identifies a Discord incoming webhook.
type DiscordConfig struct {
	ID    string `yaml:"id"`
	Token string `yaml:"token"`
}

// GitHubConfig controls issue mirroring.
type GitHubConfig struct {
	Owner    string `yaml:"owner"`
	Repo     string `yaml:"repo"`
	TokenEnv string `yaml:"token_env"`
}

// DashboardConfig controls the board HTTP server.
type DashboardConfig struct {
	Port        int    `yaml:"port"`
	ReindexCron string `yaml:"reindex_cron"`
}

// Load reads a YAML config file from path and returns a validated
// Config. A missing file yields the defaults: configuration is
// optional for read-only use.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := &Config{}
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config. The config may
// be a bare document or nested under a top-level "kanban" key.
func Parse(data []byte) (*Config, error) {
	var wrapper struct {
		Kanban *Config `yaml:"kanban"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	cfg := wrapper.Kanban
	if cfg == nil {
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Theme == "" {
		c.Theme = "software"
	}
	if c.Paths.Root == "" {
		c.Paths.Root = "work/"
	}
	if len(c.Paths.Ignore) == 0 {
		c.Paths.Ignore = []string{"**/archive/**", "**/templates/**"}
	}
	if c.GitHub.TokenEnv == "" {
		c.GitHub.TokenEnv = "GITHUB_TOKEN"
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
}

// validate checks that all provided fields are consistent.
func (c *Config) validate() error {
	var errs []string
	if c.GitHub.Owner != "" && c.GitHub.Repo == "" {
		errs = append(errs, "github.repo is required when github.owner is set")
	}
	if c.GitHub.Repo != "" && c.GitHub.Owner == "" {
		errs = append(errs, "github.owner is required when github.repo is set")
	}
	if c.Dashboard.Port < 0 {
		errs = append(errs, "dashboard.port must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// WorkPaths returns every relative path where work items may live.
func (c *Config) WorkPaths() []string {
	var paths []string
	if len(c.Paths.ScanPaths) > 0 {
		paths = append(paths, c.Paths.ScanPaths...)
	} else if c.Paths.Root != "" {
		paths = append(paths, c.Paths.Root)
	}
	for _, p := range []string{c.Paths.Features, c.Paths.Bugs, c.Paths.Epics, c.Paths.Tasks} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// TypeDir returns the creation directory for an item type, falling
// back to the root work path.
func (c *Config) TypeDir(itemType string) string {
	switch itemType {
	case "feature":
		if c.Paths.Features != "" {
			return c.Paths.Features
		}
	case "bug":
		if c.Paths.Bugs != "" {
			return c.Paths.Bugs
		}
	case "epic":
		if c.Paths.Epics != "" {
			return c.Paths.Epics
		}
	case "task":
		if c.Paths.Tasks != "" {
			return c.Paths.Tasks
		}
	}
	return c.Paths.Root
}

// Save writes the configuration back to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(map[string]*Config{"kanban": c})
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
