// Package config loads the vql configuration from a YAML file, the
// environment and an optional .env file.
//
// Precedence, highest first: VQL_* environment variables, VQL_* entries of
// .env in the working directory, the config file, defaults. Paths may start
// with ~, which expands to the user's home directory.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the configuration reads.
const EnvPrefix = "VQL"

// Configuration keys.
const (
	KeyViewsDir       = "views_dir"
	KeyDatabase       = "database"
	KeyRoot           = "root"
	KeyLogLevel       = "log_level"
	KeyColor          = "color"
	KeyParseCacheSize = "parse_cache_size"
	KeySuggestLimit   = "suggest.limit"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var defaults = map[string]any{
	KeyViewsDir:       "~/.config/vql/views",
	KeyDatabase:       "~/.config/vql/attributes.db",
	KeyRoot:           ".",
	KeyLogLevel:       "info",
	KeyColor:          ColorAuto,
	KeyParseCacheSize: 256,
	KeySuggestLimit:   20,
}

// Config holds the application configuration.
type Config struct {
	ViewsDir       string        `mapstructure:"views_dir"`
	Database       string        `mapstructure:"database"`
	Root           string        `mapstructure:"root"`
	LogLevel       string        `mapstructure:"log_level"`
	Color          string        `mapstructure:"color"`
	ParseCacheSize int           `mapstructure:"parse_cache_size"`
	Suggest        SuggestConfig `mapstructure:"suggest"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// SuggestConfig configures the suggestion engine.
type SuggestConfig struct {
	Limit int `mapstructure:"limit"`
}

// Default returns the configuration used when nothing is configured, with
// paths expanded.
func Default() (*Config, error) {
	return Load(afero.NewMemMapFs(), "")
}

// Load reads the configuration through fs. With an explicit file the file
// must exist; otherwise vql.yaml is searched in the working directory and in
// ~/.config/vql, and a missing file is not an error.
func Load(fs afero.Fs, file string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if file != "" {
		path, err := homedir.Expand(file)
		if err != nil {
			return nil, fmt.Errorf("config file %s: %w", file, err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("vql")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "vql"))
		}
		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := applyDotEnv(v, fs, ".env"); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	for _, p := range []*string{&cfg.ViewsDir, &cfg.Database, &cfg.Root} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return nil, fmt.Errorf("expand %s: %w", *p, err)
		}
		*p = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDotEnv overlays VQL_* entries of a .env file that the process
// environment does not already set. A missing file is ignored.
func applyDotEnv(v *viper.Viper, fs afero.Fs, name string) error {
	data, err := afero.ReadFile(fs, name)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	env, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	for key := range defaults {
		envName := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		val, ok := env[envName]
		if !ok {
			continue
		}
		if _, set := os.LookupEnv(envName); set {
			continue
		}
		v.Set(key, val)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.ParseCacheSize < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %d", KeyParseCacheSize, c.ParseCacheSize))
	}
	if c.Suggest.Limit < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %d", KeySuggestLimit, c.Suggest.Limit))
	}
	if !slices.Contains([]string{ColorAuto, ColorAlways, ColorNever}, c.Color) {
		errs = append(errs, fmt.Errorf("%s must be auto, always or never, got %q", KeyColor, c.Color))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%s: %w", KeyLogLevel, err)
	}
	return l, nil
}
