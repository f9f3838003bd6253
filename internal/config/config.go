// Package config loads tasktree settings.
//
// Values come from, in increasing precedence: built-in defaults, a TOML
// file (.tasktree/config.toml unless --config says otherwise), and
// TASKTREE_* environment variables, where the key path is upper-cased and
// dots become underscores (storage.busy_timeout -> TASKTREE_STORAGE_BUSY_TIMEOUT).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/mschirtzinger/tasktree/internal/store/db"
)

const (
	// Dir is the per-project state directory.
	Dir = ".tasktree"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "TASKTREE"
)

// DefaultPath is where the config file is looked up when none is given.
var DefaultPath = filepath.Join(Dir, "config.toml")

// Config holds all tasktree settings.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Legacy  LegacyConfig  `mapstructure:"legacy"`
	Log     LogConfig     `mapstructure:"log"`
	Server  ServerConfig  `mapstructure:"server"`

	// File is the config file that was read, empty if none was.
	File string `mapstructure:"-"`
}

// StorageConfig configures the database file.
type StorageConfig struct {
	Path         string        `mapstructure:"path"`
	BusyTimeout  time.Duration `mapstructure:"busy_timeout"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
}

// LegacyConfig locates the flat-file task list to import on startup.
type LegacyConfig struct {
	Path       string `mapstructure:"path"`
	AutoImport bool   `mapstructure:"auto_import"`
}

// LogConfig configures log output. An empty File logs to stderr.
type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Name string `mapstructure:"name"`
}

// defaults is keyed by viper path. Every key must appear here so that
// environment overrides are picked up by Unmarshal.
var defaults = map[string]any{
	"storage.path":           filepath.Join(Dir, "tasks.db"),
	"storage.busy_timeout":   5 * time.Second,
	"storage.max_open_conns": 8,
	"legacy.path":            "tasks.json",
	"legacy.auto_import":     true,
	"log.file":               "",
	"log.max_size_mb":        10,
	"log.max_backups":        3,
	"log.max_age_days":       28,
	"log.compress":           false,
	"server.name":            "tasktree",
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		// defaults are static; failing to decode them is a programming error
		panic(err)
	}
	return cfg
}

// Load reads the config file at path (DefaultPath if empty) and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	v := newViper()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	file := path
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		file = ""
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	cfg.File = file

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.Storage.BusyTimeout <= 0 {
		return fmt.Errorf("storage.busy_timeout must be positive (got %s)", c.Storage.BusyTimeout)
	}
	if c.Storage.MaxOpenConns < 0 {
		return fmt.Errorf("storage.max_open_conns must not be negative (got %d)", c.Storage.MaxOpenConns)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation limits must not be negative")
	}
	return nil
}

// StorageOptions converts the storage section for db.OpenWithOptions.
func (c *Config) StorageOptions() db.Options {
	return db.Options{
		BusyTimeout:  c.Storage.BusyTimeout,
		MaxOpenConns: c.Storage.MaxOpenConns,
	}
}

// fileLayout is the on-disk shape written by WriteDefault. Durations are
// spelled as strings ("5s") so the file stays hand-editable.
type fileLayout struct {
	Storage struct {
		Path         string `toml:"path"`
		BusyTimeout  string `toml:"busy_timeout"`
		MaxOpenConns int    `toml:"max_open_conns"`
	} `toml:"storage"`
	Legacy struct {
		Path       string `toml:"path"`
		AutoImport bool   `toml:"auto_import"`
	} `toml:"legacy"`
	Log struct {
		File       string `toml:"file"`
		MaxSizeMB  int    `toml:"max_size_mb"`
		MaxBackups int    `toml:"max_backups"`
		MaxAgeDays int    `toml:"max_age_days"`
		Compress   bool   `toml:"compress"`
	} `toml:"log"`
	Server struct {
		Name string `toml:"name"`
	} `toml:"server"`
}

func (c *Config) layout() fileLayout {
	var f fileLayout
	f.Storage.Path = c.Storage.Path
	f.Storage.BusyTimeout = c.Storage.BusyTimeout.String()
	f.Storage.MaxOpenConns = c.Storage.MaxOpenConns
	f.Legacy.Path = c.Legacy.Path
	f.Legacy.AutoImport = c.Legacy.AutoImport
	f.Log.File = c.Log.File
	f.Log.MaxSizeMB = c.Log.MaxSizeMB
	f.Log.MaxBackups = c.Log.MaxBackups
	f.Log.MaxAgeDays = c.Log.MaxAgeDays
	f.Log.Compress = c.Log.Compress
	f.Server.Name = c.Server.Name
	return f
}

// Write saves c as TOML at path, creating parent directories. An existing
// file is only replaced when overwrite is set.
func (c *Config) Write(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# tasktree configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(c.layout()); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// WriteDefault writes the built-in configuration to path.
func WriteDefault(path string) error {
	return Default().Write(path, false)
}
