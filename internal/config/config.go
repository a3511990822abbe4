// Package config loads kvbrowse settings from defaults, an optional YAML
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/oakwood-commons/kvbrowse/internal/kvstore"
	"github.com/oakwood-commons/kvbrowse/internal/paginator"
	"github.com/oakwood-commons/kvbrowse/pkg/settings"
)

// EnvPrefix prefixes every environment override, e.g. KVBROWSE_PAGE_SIZE.
const EnvPrefix = "KVBROWSE"

// Defaults.
const (
	DefaultConcurrency = 8
	DefaultListenAddr  = ":8787"
	DefaultTimeout     = 30 * time.Second
)

// Config is the resolved configuration.
type Config struct {
	AccountID         string        `mapstructure:"account_id" yaml:"account_id"`
	APIToken          string        `mapstructure:"api_token" yaml:"api_token"`
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
	PageSize          int           `mapstructure:"page_size" yaml:"page_size"`
	Concurrency       int           `mapstructure:"concurrency" yaml:"concurrency"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	ListenAddr        string        `mapstructure:"listen_addr" yaml:"listen_addr"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Load reads the configuration. An empty path falls back to
// DefaultPath; a missing default file is not an error, a missing explicit
// file is.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("account_id", "")
	v.SetDefault("api_token", "")
	v.SetDefault("base_url", kvstore.DefaultBaseURL)
	v.SetDefault("page_size", paginator.DefaultPageSize)
	v.SetDefault("concurrency", DefaultConcurrency)
	v.SetDefault("requests_per_second", 0)
	v.SetDefault("listen_addr", DefaultListenAddr)
	v.SetDefault("timeout", DefaultTimeout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api_token", EnvPrefix+"_API_TOKEN", "CLOUDFLARE_API_TOKEN"); err != nil {
		return Config{}, err
	}
	if err := v.BindEnv("account_id", EnvPrefix+"_ACCOUNT_ID", "CLOUDFLARE_ACCOUNT_ID"); err != nil {
		return Config{}, err
	}

	if path == "" {
		path = DefaultPath()
	} else if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("config file: %w", err)
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/kvbrowse/config.yaml (or the
// ~/.config equivalent) when that file exists, else "".
func DefaultPath() string {
	candidate := ""
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidate = filepath.Join(xdg, settings.CliBinaryName, "config.yaml")
	} else if home, err := os.UserHomeDir(); err == nil {
		candidate = filepath.Join(home, ".config", settings.CliBinaryName, "config.yaml")
	}
	if candidate == "" {
		return ""
	}
	if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
		return candidate
	}
	return ""
}

// Validate checks the settings every command relies on.
func (c Config) Validate() error {
	var errs []error
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page_size must be positive, got %d", c.PageSize))
	}
	if c.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("concurrency must be positive, got %d", c.Concurrency))
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("requests_per_second must not be negative, got %g", c.RequestsPerSecond))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	return errors.Join(errs...)
}

// ValidateCredentials reports ErrMissingCredentials when the account id or
// token is empty.
func (c Config) ValidateCredentials() error {
	if c.AccountID == "" || c.APIToken == "" {
		return fmt.Errorf("%w: set CLOUDFLARE_ACCOUNT_ID and CLOUDFLARE_API_TOKEN or the config file", kvstore.ErrMissingCredentials)
	}
	return nil
}

// NewStore builds the Cloudflare client described by the configuration.
func (c Config) NewStore() (*kvstore.Client, error) {
	if err := c.ValidateCredentials(); err != nil {
		return nil, err
	}
	return kvstore.NewClient(c.AccountID, c.APIToken,
		kvstore.WithBaseURL(c.BaseURL),
		kvstore.WithTimeout(c.Timeout),
	)
}
