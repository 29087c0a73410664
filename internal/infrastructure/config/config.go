// Package config loads golem settings from .golem/config.yaml and the environment.
// Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/felixgeelhaar/golem/pkg/application"
	"github.com/felixgeelhaar/golem/pkg/domain/ticket"
	"github.com/felixgeelhaar/golem/pkg/infrastructure/git"
	"github.com/felixgeelhaar/golem/pkg/storage"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FreshConfig configures the helpdesk client and ticket routing.
type FreshConfig struct {
	Domain          string `yaml:"domain"`
	APIKey          string `yaml:"apiKey,omitempty"`
	DefaultGroupID  int64  `yaml:"defaultGroupId"`
	DefaultCategory string `yaml:"defaultCategory"`
	DefaultEmail    string `yaml:"defaultEmail"`
	SourceID        int    `yaml:"sourceId"`
}

// GiteaConfig configures the forge client.
type GiteaConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token,omitempty"`
	Org   string `yaml:"org"`
	Repo  string `yaml:"repo"`
}

// GitConfig configures the worktree manager.
type GitConfig struct {
	Remote     string        `yaml:"remote"`
	BaseBranch string        `yaml:"baseBranch,omitempty"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Config is the full project configuration.
type Config struct {
	Fresh FreshConfig `yaml:"fresh"`
	Gitea GiteaConfig `yaml:"gitea"`
	Git   GitConfig   `yaml:"git"`
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"fresh.domain":          "FRESH_DOMAIN",
	"fresh.apiKey":          "FRESH_API_KEY",
	"fresh.defaultGroupId":  "FRESH_DEFAULT_GROUP_ID",
	"fresh.defaultCategory": "FRESH_DEFAULT_CATEGORY",
	"fresh.defaultEmail":    "FRESH_DEFAULT_EMAIL",
	"fresh.sourceId":        "FRESH_SOURCE_ID",
	"gitea.url":             "GITEA_URL",
	"gitea.token":           "GITEA_TOKEN",
	"gitea.org":             "GITEA_ORG",
	"gitea.repo":            "GITEA_REPO",
	"git.remote":            "GOLEM_GIT_REMOTE",
	"git.baseBranch":        "GOLEM_BASE_BRANCH",
	"git.timeout":           "GOLEM_GIT_TIMEOUT",
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	sync := application.DefaultSyncConfig()
	return &Config{
		Fresh: FreshConfig{
			DefaultGroupID:  sync.DefaultGroupID,
			DefaultCategory: sync.DefaultCategory,
			DefaultEmail:    sync.DefaultEmail,
			SourceID:        sync.DefaultSourceChannel,
		},
		Git: GitConfig{
			Remote:  "origin",
			Timeout: git.DefaultTimeout,
		},
	}
}

func newViper(root string) (*viper.Viper, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("fresh.defaultGroupId", def.Fresh.DefaultGroupID)
	v.SetDefault("fresh.defaultCategory", def.Fresh.DefaultCategory)
	v.SetDefault("fresh.defaultEmail", def.Fresh.DefaultEmail)
	v.SetDefault("fresh.sourceId", def.Fresh.SourceID)
	v.SetDefault("git.remote", def.Git.Remote)
	v.SetDefault("git.timeout", def.Git.Timeout)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	path, err := Path(root)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		return nil, fmt.Errorf("failed to access config: %w", err)
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return v, nil
}

// Path returns the location of the project config file.
func Path(root string) (string, error) {
	return storage.NewFilesystemRepository(root).ResolvePath(storage.ConfigFile)
}

// Load merges defaults, the optional config file and the environment.
// A missing file is not an error.
func Load(root string) (*Config, error) {
	v, err := newViper(root)
	if err != nil {
		return nil, err
	}

	return &Config{
		Fresh: FreshConfig{
			Domain:          v.GetString("fresh.domain"),
			APIKey:          v.GetString("fresh.apiKey"),
			DefaultGroupID:  v.GetInt64("fresh.defaultGroupId"),
			DefaultCategory: v.GetString("fresh.defaultCategory"),
			DefaultEmail:    v.GetString("fresh.defaultEmail"),
			SourceID:        v.GetInt("fresh.sourceId"),
		},
		Gitea: GiteaConfig{
			URL:   v.GetString("gitea.url"),
			Token: v.GetString("gitea.token"),
			Org:   v.GetString("gitea.org"),
			Repo:  v.GetString("gitea.repo"),
		},
		Git: GitConfig{
			Remote:     v.GetString("git.remote"),
			BaseBranch: v.GetString("git.baseBranch"),
			Timeout:    v.GetDuration("git.timeout"),
		},
	}, nil
}

// Save writes the config file. Credentials are never written; they belong
// in FRESH_API_KEY and GITEA_TOKEN.
func Save(root string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	repo := storage.NewFilesystemRepository(root)
	path, err := repo.ResolvePath(storage.ConfigFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(repo.Dir(), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Redacted returns a copy with credentials removed.
func (c *Config) Redacted() *Config {
	out := *c
	out.Fresh.APIKey = ""
	out.Gitea.Token = ""
	return &out
}

// MissingFresh lists the unset helpdesk settings by environment name.
func (c *Config) MissingFresh() []string {
	var missing []string
	if c.Fresh.Domain == "" {
		missing = append(missing, "FRESH_DOMAIN")
	}
	if c.Fresh.APIKey == "" {
		missing = append(missing, "FRESH_API_KEY")
	}
	return missing
}

// MissingGitea lists the unset forge settings by environment name.
func (c *Config) MissingGitea() []string {
	var missing []string
	if c.Gitea.URL == "" {
		missing = append(missing, "GITEA_URL")
	}
	if c.Gitea.Token == "" {
		missing = append(missing, "GITEA_TOKEN")
	}
	if c.Gitea.Org == "" {
		missing = append(missing, "GITEA_ORG")
	}
	return missing
}

// ValidateSync reports every setting the sync engine needs that is unset.
func (c *Config) ValidateSync() error {
	missing := append(c.MissingFresh(), c.MissingGitea()...)
	if c.Gitea.Repo == "" {
		missing = append(missing, "GITEA_REPO")
	}
	if len(missing) > 0 {
		return &ticket.ConfigError{Component: "golem", Missing: missing}
	}
	return nil
}

// SyncConfig derives the sync engine configuration.
func (c *Config) SyncConfig() application.SyncConfig {
	sync := application.DefaultSyncConfig()
	sync.DefaultGroupID = c.Fresh.DefaultGroupID
	sync.DefaultCategory = c.Fresh.DefaultCategory
	sync.DefaultEmail = c.Fresh.DefaultEmail
	sync.DefaultSourceChannel = c.Fresh.SourceID
	sync.HelpdeskDomain = c.Fresh.Domain
	sync.Repo = c.Gitea.Repo
	return sync
}
