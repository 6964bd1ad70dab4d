package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"tasksync/internal/consts"
)

// Config is the client configuration, loaded from a YAML file with
// TASKSYNC_* environment overrides.
type Config struct {
	// APIBaseURL is the REST endpoint root.
	APIBaseURL string `mapstructure:"api_base_url"`

	// WSURL is the WebSocket endpoint root.
	WSURL string `mapstructure:"ws_url"`

	// UserID identifies the authenticated user. When empty it is
	// derived from the token's subject.
	UserID string `mapstructure:"user_id"`

	// BackoffBase is the first reconnect delay; it doubles per
	// consecutive failure.
	BackoffBase time.Duration `mapstructure:"backoff_base"`

	// BackoffMaxAttempts caps automatic reconnection attempts.
	BackoffMaxAttempts int `mapstructure:"backoff_max_attempts"`

	// Debug enables debug-level logging.
	Debug bool `mapstructure:"debug"`
}

// DefaultPath returns the default configuration file location,
// ~/.config/tasksync/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "tasksync", "config.yaml")
}

func defaults() *Config {
	return &Config{
		APIBaseURL:         consts.DefaultAPIBaseURL,
		WSURL:              consts.DefaultWSURL,
		BackoffBase:        time.Second,
		BackoffMaxAttempts: 5,
	}
}

// Load reads the configuration from the given YAML file. A missing
// file yields the defaults; environment variables such as
// TASKSYNC_USER_ID override either.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("api_base_url", consts.DefaultAPIBaseURL)
	v.SetDefault("ws_url", consts.DefaultWSURL)
	v.SetDefault("backoff_base", time.Second)
	v.SetDefault("backoff_max_attempts", 5)

	v.SetEnvPrefix("tasksync")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return bindEnv(v, defaults()), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return bindEnv(v, defaults()), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return bindEnv(v, cfg), nil
}

// bindEnv applies env overrides on top of cfg. AutomaticEnv only kicks
// in through v.Get, so the known keys are pulled explicitly.
func bindEnv(v *viper.Viper, cfg *Config) *Config {
	if s := v.GetString("api_base_url"); s != "" {
		cfg.APIBaseURL = s
	}
	if s := v.GetString("ws_url"); s != "" {
		cfg.WSURL = s
	}
	if s := v.GetString("user_id"); s != "" {
		cfg.UserID = s
	}
	if d := v.GetDuration("backoff_base"); d > 0 {
		cfg.BackoffBase = d
	}
	if n := v.GetInt("backoff_max_attempts"); n > 0 {
		cfg.BackoffMaxAttempts = n
	}
	if v.GetBool("debug") {
		cfg.Debug = true
	}
	return cfg
}
