package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/tasksync/internal/notion"
)

const appName = "tasksync"

type Config struct {
	Notion NotionConfig `yaml:"notion"`
	Store  StoreConfig  `yaml:"store"`
	Sync   SyncConfig   `yaml:"sync"`
	Log    LogConfig    `yaml:"log"`
}

type NotionConfig struct {
	DatabaseID string        `yaml:"database_id"`
	Token      string        `yaml:"token"`
	TokenFile  string        `yaml:"token_file"` // first line holds the integration token
	APIVersion string        `yaml:"api_version"`
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type SyncConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func Default() Config {
	return Config{
		Notion: NotionConfig{
			APIVersion: notion.DefaultAPIVersion,
			BaseURL:    notion.DefaultBaseURL,
			Timeout:    notion.DefaultTimeout,
		},
		Store: StoreConfig{Path: filepath.Join(DataDir(), "tasks.db")},
		Sync:  SyncConfig{Interval: 5 * time.Minute},
		Log:   LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path, then applies environment overrides. A
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// applyDefaults fills keys the file set to empty values.
func (c *Config) applyDefaults() {
	defaults := Default()
	if c.Notion.APIVersion == "" {
		c.Notion.APIVersion = defaults.Notion.APIVersion
	}
	if c.Notion.BaseURL == "" {
		c.Notion.BaseURL = defaults.Notion.BaseURL
	}
	if c.Notion.Timeout == 0 {
		c.Notion.Timeout = defaults.Notion.Timeout
	}
	if c.Store.Path == "" {
		c.Store.Path = defaults.Store.Path
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = defaults.Sync.Interval
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// applyEnv overrides file values with TASKSYNC_* variables. The token is
// read by CredentialSource on every call instead.
func (c *Config) applyEnv() {
	if v, ok := getEnvString("TASKSYNC_DATABASE_ID"); ok {
		c.Notion.DatabaseID = v
	}
	if v, ok := getEnvString("TASKSYNC_API_VERSION"); ok {
		c.Notion.APIVersion = v
	}
	if v, ok := getEnvString("TASKSYNC_BASE_URL"); ok {
		c.Notion.BaseURL = v
	}
	if v, ok := getEnvInt("TASKSYNC_TIMEOUT_SECONDS"); ok && v > 0 {
		c.Notion.Timeout = time.Duration(v) * time.Second
	}
	if v, ok := getEnvString("TASKSYNC_STORE_PATH"); ok {
		c.Store.Path = v
	}
	if v, ok := getEnvInt("TASKSYNC_SYNC_INTERVAL_MINUTES"); ok && v > 0 {
		c.Sync.Interval = time.Duration(v) * time.Minute
	}
	if v, ok := getEnvString("TASKSYNC_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
}

// Validate checks structural settings. Missing credentials are reported at
// call time, not here.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Notion.APIVersion) == "" {
		errs = append(errs, errors.New("notion.api_version is required"))
	}
	if c.Notion.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("notion.timeout must be positive, got %s", c.Notion.Timeout))
	}
	if c.Sync.Interval <= 0 {
		errs = append(errs, fmt.Errorf("sync.interval must be positive, got %s", c.Sync.Interval))
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		errs = append(errs, errors.New("store.path is required"))
	}
	return errors.Join(errs...)
}

// DefaultPath returns the config file path under XDG_CONFIG_HOME.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, appName, "config.yaml")
}

// DataDir returns the data directory under XDG_DATA_HOME.
func DataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, appName)
}

func getEnvString(name string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	return v, v != ""
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
