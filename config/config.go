// Package config loads the harness configuration from the environment and an optional env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config of a harness run.
type Config struct {
	// BaseURL of the application under test.
	BaseURL  string `mapstructure:"base_url"`
	Headless bool   `mapstructure:"headless"`
	// WaitTimeout bounds every wait and assertion.
	WaitTimeout  time.Duration `mapstructure:"wait_timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	ClickTimeout time.Duration `mapstructure:"click_timeout"`
	SlowMo       time.Duration `mapstructure:"slow_mo"`

	// AdminEmail and AdminPassword override the administrator fixture when set.
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
	// Fixtures is the path of a YAML fixtures file merged over the built-in values.
	Fixtures string `mapstructure:"fixtures"`

	// PlaywrightInstall downloads the browser before the first launch.
	PlaywrightInstall bool `mapstructure:"playwright_install"`
	// Preflight checks that BaseURL answers before any browser is started.
	Preflight bool `mapstructure:"preflight"`
}

// env variable names per key; the first name wins when several are set.
var envBindings = map[string][]string{
	"base_url":           {"BASE_URL", "REACT_APP_URL"},
	"headless":           {"HEADLESS"},
	"wait_timeout":       {"WAIT_TIMEOUT"},
	"poll_interval":      {"POLL_INTERVAL"},
	"click_timeout":      {"CLICK_TIMEOUT"},
	"slow_mo":            {"SLOW_MO"},
	"admin_email":        {"ADMIN_EMAIL"},
	"admin_password":     {"ADMIN_PASSWORD"},
	"fixtures":           {"FIXTURES"},
	"playwright_install": {"PLAYWRIGHT_INSTALL"},
	"preflight":          {"PREFLIGHT"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "http://localhost:3000")
	v.SetDefault("headless", true)
	v.SetDefault("wait_timeout", 10*time.Second)
	v.SetDefault("poll_interval", 100*time.Millisecond)
	v.SetDefault("click_timeout", 2*time.Second)
	v.SetDefault("slow_mo", time.Duration(0))
	v.SetDefault("fixtures", "")
	v.SetDefault("admin_email", "")
	v.SetDefault("admin_password", "")
	v.SetDefault("playwright_install", false)
	v.SetDefault("preflight", false)
}

// flagBindings maps command line flag names to keys.
var flagBindings = map[string]string{
	"base-url":           "base_url",
	"headless":           "headless",
	"wait-timeout":       "wait_timeout",
	"poll-interval":      "poll_interval",
	"slow-mo":            "slow_mo",
	"fixtures":           "fixtures",
	"playwright-install": "playwright_install",
	"preflight":          "preflight",
}

// Load reads the configuration. envFile is optional: a missing file is
// ignored, values from the environment take precedence over it and changed
// flags take precedence over both. flags may be nil.
func Load(envFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", envFile, err)
		}
		// Env file keys are lowercased variable names, so only aliases need mapping
		for key, names := range envBindings {
			if v.InConfig(key) {
				continue
			}
			for _, name := range names[1:] {
				if alias := strings.ToLower(name); v.InConfig(alias) {
					v.SetDefault(key, v.Get(alias))
					break
				}
			}
		}
	}

	for key, names := range envBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if flags != nil {
		for name, key := range flagBindings {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", name, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would only fail later during a run.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base URL %q", c.BaseURL)
	}
	if c.WaitTimeout <= 0 {
		return fmt.Errorf("wait timeout must be positive, got %s", c.WaitTimeout)
	}
	if c.PollInterval <= 0 || c.PollInterval > c.WaitTimeout {
		return fmt.Errorf("poll interval must be positive and below the wait timeout, got %s", c.PollInterval)
	}
	return nil
}
