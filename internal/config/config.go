// Package config loads configuration in three layers: struct defaults,
// an optional yaml file, then POSTPILOT_* environment variables. The
// original deployment's flat env names (VAULT_PATH, DRY_RUN, ...) are
// honored as a final override for .env compatibility.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"

	"postpilot/internal/logging"
)

// envPrefix namespaces this tool's environment variables.
const envPrefix = "POSTPILOT_"

// Config is the full runtime configuration.
type Config struct {
	Vault     VaultConfig     `koanf:"vault"`
	LinkedIn  LinkedInConfig  `koanf:"linkedin"`
	Posting   PostingConfig   `koanf:"posting"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Log       logging.Config  `koanf:"log"`
}

// VaultConfig points at the content vault root. All pipeline directories
// hang off it.
type VaultConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// ApprovedDir is the inbox watched for approved submissions.
func (v VaultConfig) ApprovedDir() string { return filepath.Join(v.Path, "Approved") }

// PublishedDir receives successfully published submissions.
func (v VaultConfig) PublishedDir() string { return filepath.Join(v.Path, "Published") }

// NeedsActionDir receives failed submissions with their error notes.
func (v VaultConfig) NeedsActionDir() string { return filepath.Join(v.Path, "Needs_Action") }

// LogsDir holds the daily action ledger files.
func (v VaultConfig) LogsDir() string { return filepath.Join(v.Path, "Logs") }

// AnalyticsDir receives weekly reports.
func (v VaultConfig) AnalyticsDir() string { return filepath.Join(v.Path, "Analytics") }

// DashboardFile is the shared status board document.
func (v VaultConfig) DashboardFile() string { return filepath.Join(v.Path, "Dashboard.md") }

// LinkedInConfig holds credentials and endpoint settings.
type LinkedInConfig struct {
	AccessToken string        `koanf:"access_token"`
	PersonURN   string        `koanf:"person_urn"`
	BaseURL     string        `koanf:"base_url" validate:"omitempty,url"`
	Timeout     time.Duration `koanf:"timeout"`
}

// PostingConfig controls the publishing policy.
type PostingConfig struct {
	// DryRun selects simulated mode: no network calls, placeholder ids.
	DryRun bool `koanf:"dry_run"`

	// MaxPostsPerDay is the daily publish quota.
	MaxPostsPerDay int `koanf:"max_posts_per_day" validate:"min=0"`
}

// AnalyticsConfig controls the weekly report job.
type AnalyticsConfig struct {
	Enabled bool `koanf:"enabled"`

	// Schedule is a standard 5-field cron expression.
	Schedule string `koanf:"schedule" validate:"required"`
}

func defaultConfig() Config {
	return Config{
		Vault: VaultConfig{Path: "vault"},
		LinkedIn: LinkedInConfig{
			Timeout: 15 * time.Second,
		},
		Posting: PostingConfig{
			DryRun:         true,
			MaxPostsPerDay: 3,
		},
		Analytics: AnalyticsConfig{
			Enabled:  true,
			Schedule: "0 20 * * 0", // Sunday 20:00
		},
		Log: logging.Config{Level: "info", Format: "console"},
	}
}

// Load builds the configuration. path may be empty to skip the file layer.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// POSTPILOT_POSTING_MAX_POSTS_PER_DAY -> posting.max_posts_per_day
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.Replace(s, "_", ".", 1)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	applyLegacyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration invalid: %w", err)
	}
	return cfg, nil
}

// applyLegacyEnv honors the flat env names from the original deployment.
func applyLegacyEnv(cfg *Config) {
	if v := os.Getenv("VAULT_PATH"); v != "" {
		cfg.Vault.Path = v
	}
	if v := os.Getenv("LINKEDIN_ACCESS_TOKEN"); v != "" {
		cfg.LinkedIn.AccessToken = v
	}
	if v := os.Getenv("LINKEDIN_PERSON_URN"); v != "" {
		cfg.LinkedIn.PersonURN = v
	}
	if v := os.Getenv("DRY_RUN"); v != "" {
		cfg.Posting.DryRun = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("MAX_POSTS_PER_DAY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Posting.MaxPostsPerDay = n
		}
	}
}

// Validate checks struct constraints plus the cross-field rules the
// tags cannot express.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return err
	}

	if !c.Posting.DryRun && c.LinkedIn.AccessToken == "" {
		return fmt.Errorf("live mode requires linkedin.access_token")
	}
	if c.Analytics.Enabled {
		if _, err := cron.ParseStandard(c.Analytics.Schedule); err != nil {
			return fmt.Errorf("analytics.schedule: %w", err)
		}
	}
	return nil
}
