// Package config loads weekgrid settings: built-in defaults, then an
// optional YAML file, then WEEKGRID_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// DB is the SQLite file holding the local cache, login and sync status.
	DB          string       `yaml:"db"`
	Remote      RemoteConfig `yaml:"remote"`
	Sync        SyncConfig   `yaml:"sync"`
	AdminEmails []string     `yaml:"admin_emails"`
	Serve       ServeConfig  `yaml:"serve"`
	Log         LogConfig    `yaml:"log"`
}

// RemoteConfig points at the document service. An empty URL keeps sync
// local to this machine.
type RemoteConfig struct {
	URL        string `yaml:"url"`
	Token      string `yaml:"token"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	MaxRetries int    `yaml:"max_retries"`
}

type SyncConfig struct {
	DebounceMs       int `yaml:"debounce_ms"`
	RequestTimeoutMs int `yaml:"request_timeout_ms"`
}

type ServeConfig struct {
	Addr  string `yaml:"addr"`
	Token string `yaml:"token"`
	// DB is the server's document database. Empty reuses the client DB.
	DB string `yaml:"db"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		DB: filepath.Join("~", ".weekgrid", "weekgrid.db"),
		Remote: RemoteConfig{
			TimeoutMs:  10000,
			MaxRetries: 2,
		},
		Sync: SyncConfig{
			DebounceMs:       600,
			RequestTimeoutMs: 15000,
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8737",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load builds the configuration. path names a YAML file; when empty,
// WEEKGRID_CONFIG is consulted and a missing variable means no file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv("WEEKGRID_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(expandHome(path)); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()
	cfg.DB = expandHome(cfg.DB)
	cfg.Serve.DB = expandHome(cfg.Serve.DB)
	cfg.AdminEmails = normalizeEmails(cfg.AdminEmails)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides file values. Unparseable numbers are ignored.
func (c *Config) applyEnv() {
	if v := os.Getenv("WEEKGRID_DB"); v != "" {
		c.DB = v
	}
	if v := os.Getenv("WEEKGRID_REMOTE_URL"); v != "" {
		c.Remote.URL = v
	}
	if v := os.Getenv("WEEKGRID_REMOTE_TOKEN"); v != "" {
		c.Remote.Token = v
	}
	applyIntEnv(&c.Sync.DebounceMs, "WEEKGRID_DEBOUNCE_MS", 0)
	applyIntEnv(&c.Sync.RequestTimeoutMs, "WEEKGRID_REQUEST_TIMEOUT_MS", 1)
	applyIntEnv(&c.Remote.MaxRetries, "WEEKGRID_MAX_RETRIES", 0)
	if v := os.Getenv("WEEKGRID_ADMIN_EMAILS"); v != "" {
		c.AdminEmails = strings.Split(v, ",")
	}
	if v := os.Getenv("WEEKGRID_SERVE_ADDR"); v != "" {
		c.Serve.Addr = v
	}
	if v := os.Getenv("WEEKGRID_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("WEEKGRID_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
}

func applyIntEnv(dst *int, name string, minimum int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < minimum {
		return
	}
	*dst = n
}

// Validate reports settings that cannot be used.
func (c Config) Validate() error {
	if c.DB == "" {
		return fmt.Errorf("config: db path is empty")
	}
	if c.Sync.DebounceMs < 0 {
		return fmt.Errorf("config: sync.debounce_ms must not be negative")
	}
	if c.Sync.RequestTimeoutMs <= 0 || c.Remote.TimeoutMs <= 0 {
		return fmt.Errorf("config: timeouts must be positive")
	}
	if c.Remote.MaxRetries < 0 {
		return fmt.Errorf("config: remote.max_retries must not be negative")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q (use text or json)", c.Log.Format)
	}
	return nil
}

func (c Config) Debounce() time.Duration {
	return time.Duration(c.Sync.DebounceMs) * time.Millisecond
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Sync.RequestTimeoutMs) * time.Millisecond
}

func (c Config) RemoteTimeout() time.Duration {
	return time.Duration(c.Remote.TimeoutMs) * time.Millisecond
}

// ServerDB returns the database the document service stores into.
func (c Config) ServerDB() string {
	if c.Serve.DB != "" {
		return c.Serve.DB
	}
	return c.DB
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func normalizeEmails(emails []string) []string {
	var out []string
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
