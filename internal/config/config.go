// Package config loads runtime settings from file, environment, and
// defaults, in that order of increasing precedence for the environment.
// Files are optional; every setting has a usable default except the
// credentials.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Model selects the LLM endpoint.
type Model struct {
	// Provider is one of openai, groq, gemini, ollama.
	Provider string `mapstructure:"provider"`
	Name     string `mapstructure:"name"`
	APIKey   string `mapstructure:"api_key"`
	// BaseURL overrides the provider default endpoint.
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
}

// Platform addresses the chat platform API.
type Platform struct {
	BaseURL string `mapstructure:"base_url"`
	Token   string `mapstructure:"token"`
}

// Server configures the remote tool server.
type Server struct {
	Addr string `mapstructure:"addr"`
	// TokenFile holds the bearer credentials accepted at /ws.
	TokenFile   string        `mapstructure:"token_file"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// Limits carries the per-identity rate budget.
type Limits struct {
	Calls  int           `mapstructure:"calls"`
	Window time.Duration `mapstructure:"window"`
}

// Loop bounds the orchestration loop.
type Loop struct {
	MaxRounds    int           `mapstructure:"max_rounds"`
	RoundTimeout time.Duration `mapstructure:"round_timeout"`
}

// Audit selects the audit backend. An empty DSN means in-memory.
type Audit struct {
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

type Config struct {
	Model    Model    `mapstructure:"model"`
	Platform Platform `mapstructure:"platform"`
	Server   Server   `mapstructure:"server"`
	Limits   Limits   `mapstructure:"limits"`
	Loop     Loop     `mapstructure:"loop"`
	Audit    Audit    `mapstructure:"audit"`

	LogLevel string `mapstructure:"log_level"`
}

// Load reads configuration. path may be empty, in which case only the
// default search locations and CONCORD_* environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("model.provider", "openai")
	v.SetDefault("model.name", "gpt-4o-mini")
	v.SetDefault("model.temperature", 0.2)
	v.SetDefault("server.addr", ":8765")
	v.SetDefault("server.idle_timeout", 5*time.Minute)
	v.SetDefault("limits.calls", 10)
	v.SetDefault("limits.window", time.Minute)
	v.SetDefault("loop.max_rounds", 5)
	v.SetDefault("loop.round_timeout", 120*time.Second)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("CONCORD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("concord")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.concord")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings a running mode cannot default.
func (c *Config) Validate(serverMode bool) error {
	if c.Platform.Token == "" {
		return errors.New("platform.token is required")
	}
	if c.Platform.BaseURL == "" {
		return errors.New("platform.base_url is required")
	}
	if serverMode && c.Server.TokenFile == "" {
		return errors.New("server.token_file is required in server mode")
	}
	if !serverMode && c.Model.Provider != "ollama" && c.Model.APIKey == "" {
		return errors.New("model.api_key is required")
	}
	return nil
}
