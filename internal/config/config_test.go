package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/tasksync/internal/notion"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, notion.DefaultAPIVersion, cfg.Notion.APIVersion)
	assert.Equal(t, notion.DefaultBaseURL, cfg.Notion.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Notion.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, "/data/tasksync/tasks.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadReadsYAML(t *testing.T) {
	path := writeConfig(t, `
notion:
  database_id: db-123
  token: from-file
  api_version: "2025-09-03"
  timeout: 10s
store:
  path: /tmp/cache.db
sync:
  interval: 90s
log:
  level: debug
  file: /tmp/tasksync.log
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "db-123", cfg.Notion.DatabaseID)
	assert.Equal(t, "from-file", cfg.Notion.Token)
	assert.Equal(t, "2025-09-03", cfg.Notion.APIVersion)
	assert.Equal(t, 10*time.Second, cfg.Notion.Timeout)
	assert.Equal(t, notion.DefaultBaseURL, cfg.Notion.BaseURL)
	assert.Equal(t, "/tmp/cache.db", cfg.Store.Path)
	assert.Equal(t, 90*time.Second, cfg.Sync.Interval)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/tasksync.log", cfg.Log.File)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := writeConfig(t, "notion:\n  database_id: from-file\n")
	t.Setenv("TASKSYNC_DATABASE_ID", "from-env")
	t.Setenv("TASKSYNC_TIMEOUT_SECONDS", "45")
	t.Setenv("TASKSYNC_SYNC_INTERVAL_MINUTES", "15")
	t.Setenv("TASKSYNC_STORE_PATH", "/var/tasks.db")
	t.Setenv("TASKSYNC_LOG_LEVEL", "warn")
	t.Setenv("TASKSYNC_BASE_URL", "http://localhost:9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Notion.DatabaseID)
	assert.Equal(t, 45*time.Second, cfg.Notion.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, "/var/tasks.db", cfg.Store.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "http://localhost:9999", cfg.Notion.BaseURL)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("TASKSYNC_TIMEOUT_SECONDS", "soon")
	t.Setenv("TASKSYNC_SYNC_INTERVAL_MINUTES", "-3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, notion.DefaultTimeout, cfg.Notion.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	_, err := Load(writeConfig(t, "notion: [unclosed"))
	assert.ErrorContains(t, err, "parse config file")

	_, err = Load(writeConfig(t, "sync:\n  interval: -1m\n"))
	assert.ErrorContains(t, err, "sync.interval must be positive")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "blank api version", mutate: func(c *Config) { c.Notion.APIVersion = " " }, wantErr: "notion.api_version is required"},
		{name: "zero timeout", mutate: func(c *Config) { c.Notion.Timeout = 0 }, wantErr: "notion.timeout must be positive"},
		{name: "zero interval", mutate: func(c *Config) { c.Sync.Interval = 0 }, wantErr: "sync.interval must be positive"},
		{name: "no store", mutate: func(c *Config) { c.Store.Path = "" }, wantErr: "store.path is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestCredentialSourcePrecedence(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token  \nignored\n"), 0o600))

	cfg := Default()
	cfg.Notion.DatabaseID = "db-1"
	cfg.Notion.TokenFile = tokenFile
	src := cfg.CredentialSource()

	creds, ok := src.Credentials()
	require.True(t, ok)
	assert.Equal(t, "file-token", creds.Token)
	assert.Equal(t, notion.DefaultAPIVersion, creds.APIVersion)

	cfg.Notion.Token = "config-token"
	creds, _ = cfg.CredentialSource().Credentials()
	assert.Equal(t, "config-token", creds.Token)

	t.Setenv(envToken, "env-token")
	creds, _ = src.Credentials()
	assert.Equal(t, "env-token", creds.Token, "environment is re-read on every call")
}

func TestCredentialSourceUnusable(t *testing.T) {
	cfg := Default()
	cfg.Notion.Token = "tok"
	_, ok := cfg.CredentialSource().Credentials()
	assert.False(t, ok, "database id is required")

	cfg = Default()
	cfg.Notion.DatabaseID = "db"
	cfg.Notion.TokenFile = filepath.Join(t.TempDir(), "missing")
	_, ok = cfg.CredentialSource().Credentials()
	assert.False(t, ok)
}
