// Package config loads settings from ~/.todosync/config.toml, TODOSYNC_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/idilsaglam/todosync/internal/remote"
)

const (
	dirName   = ".todosync"
	fileName  = "config"
	envPrefix = "TODOSYNC"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

type Config struct {
	API   API   `mapstructure:"api" toml:"api"`
	Store Store `mapstructure:"store" toml:"store"`
	Log   Log   `mapstructure:"log" toml:"log"`
	UI    UI    `mapstructure:"ui" toml:"ui"`
}

type API struct {
	BaseURL string `mapstructure:"base_url" toml:"base_url"`
}

type Store struct {
	Backend string `mapstructure:"backend" toml:"backend"` // sqlite | json
	Path    string `mapstructure:"path" toml:"path"`
}

type Log struct {
	File       string `mapstructure:"file" toml:"file"`
	Level      string `mapstructure:"level" toml:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups"`
}

type UI struct {
	Theme string `mapstructure:"theme" toml:"theme"` // classic | neon | mono
}

// Dir is where the config, cache and log live by default.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return dirName
	}
	return filepath.Join(home, dirName)
}

// New returns a viper instance with defaults and env binding in place.
// Flags can be bound on it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	dir := Dir()
	v.SetDefault("api.base_url", remote.DefaultBaseURL)
	v.SetDefault("store.backend", BackendSQLite)
	v.SetDefault("store.path", "")
	v.SetDefault("log.file", filepath.Join(dir, "todosync.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 5)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("ui.theme", "classic")
	return v
}

// Load reads file (or config.toml in Dir when empty; a missing default file
// is fine) and returns the validated result.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(fileName)
		v.SetConfigType("toml")
		v.AddConfigPath(Dir())
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = defaultStorePath(cfg.Store.Backend)
	}
	cfg.Store.Path = expandHome(cfg.Store.Path)
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultStorePath(backend string) string {
	if backend == BackendJSON {
		return filepath.Join(Dir(), "todos.json")
	}
	return filepath.Join(Dir(), "todos.db")
}

// Validate checks enumerations and required values.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.API.BaseURL) == "" {
		errs = append(errs, errors.New("api.base_url is empty"))
	}
	switch c.Store.Backend {
	case BackendSQLite, BackendJSON:
	default:
		errs = append(errs, fmt.Errorf("store.backend %q: want %q or %q", c.Store.Backend, BackendSQLite, BackendJSON))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.UI.Theme) {
	case "classic", "neon", "mono":
	default:
		errs = append(errs, fmt.Errorf("ui.theme %q: want classic, neon or mono", c.UI.Theme))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// SlogLevel parses Level.
func (l Log) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", l.Level, err)
	}
	return lvl, nil
}

// WriteTOML prints the effective configuration.
func (c *Config) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
