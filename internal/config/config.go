// Package config loads client settings from defaults, TOML files and the
// environment. Flags are applied on top by the cli package.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL   = "https://jsonplaceholder.typicode.com"
	DefaultLimit    = 10
	DefaultTimeout  = 10 * time.Second
	DefaultTheme    = "classic"
	DefaultLogLevel = "info"

	userDirName     = ".tada"
	userConfigName  = "config.toml"
	projectFileName = ".tada.toml"
)

// Duration decodes TOML strings such as "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	APIURL          string   `toml:"api_url"`
	Limit           int      `toml:"limit"`
	Timeout         Duration `toml:"timeout"`
	RefetchOnMutate bool     `toml:"refetch_on_mutate"`
	Theme           string   `toml:"theme"`
	LogLevel        string   `toml:"log_level"`
	LogFile         string   `toml:"log_file"`

	// Files lists the config files that were read, in order.
	Files []string `toml:"-"`
}

func Defaults() *Config {
	return &Config{
		APIURL:   DefaultAPIURL,
		Limit:    DefaultLimit,
		Timeout:  Duration{DefaultTimeout},
		Theme:    DefaultTheme,
		LogLevel: DefaultLogLevel,
	}
}

// Load builds a Config in priority order:
//  1. defaults
//  2. ~/.tada/config.toml
//  3. ./.tada.toml
//  4. TADA_* environment variables
//
// A non-empty explicit path replaces 2 and 3 and must exist.
func Load(explicit string) (*Config, error) {
	cfg := Defaults()

	if explicit != "" {
		if err := loadFile(cfg, explicit); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", explicit, err)
		}
	} else {
		for _, p := range []string{userConfigFile(), projectConfigFile()} {
			if p == "" {
				continue
			}
			if err := loadFile(cfg, p); err != nil {
				return nil, fmt.Errorf("loading config file %s: %w", p, err)
			}
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	cfg.Files = append(cfg.Files, path)
	return nil
}

func userConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(home, userDirName, userConfigName)
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func projectConfigFile() string {
	if _, err := os.Stat(projectFileName); err != nil {
		return ""
	}
	return projectFileName
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("TADA_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("TADA_LIMIT"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("TADA_LIMIT: %w", err)
		}
		cfg.Limit = n
	}
	if v := os.Getenv("TADA_TIMEOUT"); v != "" {
		if err := cfg.Timeout.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("TADA_TIMEOUT: %w", err)
		}
	}
	if v := os.Getenv("TADA_REFETCH"); v != "" {
		cfg.RefetchOnMutate = boolFromString(v)
	}
	if v := os.Getenv("TADA_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("TADA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TADA_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	return nil
}

func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// Validate checks values after all layers, flags included, are applied.
func (c *Config) Validate() error {
	var errs []error
	if c.Limit < 1 {
		errs = append(errs, fmt.Errorf("limit must be at least 1, got %d", c.Limit))
	}
	if c.Timeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api_url must be an absolute http(s) URL, got %q", c.APIURL))
	}
	return errors.Join(errs...)
}
