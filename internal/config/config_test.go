package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "vault", cfg.Vault.Path)
	assert.True(t, cfg.Posting.DryRun)
	assert.Equal(t, 3, cfg.Posting.MaxPostsPerDay)
	assert.Equal(t, 15*time.Second, cfg.LinkedIn.Timeout)
	assert.True(t, cfg.Analytics.Enabled)
	assert.Equal(t, "0 20 * * 0", cfg.Analytics.Schedule)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestVaultConfig_DerivedPaths(t *testing.T) {
	v := VaultConfig{Path: "/data/vault"}

	assert.Equal(t, filepath.Join("/data/vault", "Approved"), v.ApprovedDir())
	assert.Equal(t, filepath.Join("/data/vault", "Published"), v.PublishedDir())
	assert.Equal(t, filepath.Join("/data/vault", "Needs_Action"), v.NeedsActionDir())
	assert.Equal(t, filepath.Join("/data/vault", "Logs"), v.LogsDir())
	assert.Equal(t, filepath.Join("/data/vault", "Analytics"), v.AnalyticsDir())
	assert.Equal(t, filepath.Join("/data/vault", "Dashboard.md"), v.DashboardFile())
}

func TestLoad_YAMLFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
vault:
  path: /srv/content
posting:
  max_posts_per_day: 10
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/content", cfg.Vault.Path)
	assert.Equal(t, 10, cfg.Posting.MaxPostsPerDay)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Posting.DryRun, "untouched keys keep their defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("posting:\n  max_posts_per_day: 10\n"), 0o644))

	t.Setenv("POSTPILOT_POSTING_MAX_POSTS_PER_DAY", "5")
	t.Setenv("POSTPILOT_VAULT_PATH", "/env/vault")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Posting.MaxPostsPerDay)
	assert.Equal(t, "/env/vault", cfg.Vault.Path)
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	t.Setenv("VAULT_PATH", "/legacy/vault")
	t.Setenv("LINKEDIN_ACCESS_TOKEN", "legacy-token")
	t.Setenv("LINKEDIN_PERSON_URN", "urn:li:person:legacy")
	t.Setenv("DRY_RUN", "false")
	t.Setenv("MAX_POSTS_PER_DAY", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/legacy/vault", cfg.Vault.Path)
	assert.Equal(t, "legacy-token", cfg.LinkedIn.AccessToken)
	assert.Equal(t, "urn:li:person:legacy", cfg.LinkedIn.PersonURN)
	assert.False(t, cfg.Posting.DryRun)
	assert.Equal(t, 7, cfg.Posting.MaxPostsPerDay)
}

func TestLoad_LiveModeRequiresToken(t *testing.T) {
	t.Setenv("POSTPILOT_POSTING_DRY_RUN", "false")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_token")
}

func TestValidate_BadCronSchedule(t *testing.T) {
	cfg := defaultConfig()
	cfg.Analytics.Schedule = "not a cron spec"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analytics.schedule")

	cfg.Analytics.Enabled = false
	assert.NoError(t, cfg.Validate(), "schedule is not checked when the job is disabled")
}

func TestValidate_StructConstraints(t *testing.T) {
	cfg := defaultConfig()
	cfg.Vault.Path = ""
	assert.Error(t, cfg.Validate(), "vault path is required")

	cfg = defaultConfig()
	cfg.Posting.MaxPostsPerDay = -1
	assert.Error(t, cfg.Validate(), "negative daily limit is rejected")
}

func TestValidate_BadBaseURL(t *testing.T) {
	cfg := defaultConfig()
	cfg.LinkedIn.BaseURL = "not-a-url"
	assert.Error(t, cfg.Validate())
}
