package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the complete broker configuration
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Quotes  QuotesConfig  `json:"quotes" yaml:"quotes"`
	Account AccountConfig `json:"account" yaml:"account"`
	Auth    AuthConfig    `json:"auth" yaml:"auth"`
	Feed    FeedConfig    `json:"feed" yaml:"feed"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

// ServerConfig contains HTTP listener parameters
type ServerConfig struct {
	Addr        string `json:"addr" yaml:"addr" env:"PAPERBROKER_ADDR"`
	FrontendURL string `json:"frontend_url" yaml:"frontend_url" env:"FRONTEND_URL"`
}

// StoreConfig selects and configures the ledger backend
type StoreConfig struct {
	Driver string `json:"driver" yaml:"driver" env:"STORE_DRIVER"` // "sqlite" or "postgres"
	DSN    string `json:"dsn" yaml:"dsn" env:"DATABASE_URL"`
}

// QuotesConfig contains market data parameters
type QuotesConfig struct {
	BaseURL    string   `json:"base_url,omitempty" yaml:"base_url,omitempty" env:"FINNHUB_BASE_URL"`
	APIKey     string   `json:"api_key" yaml:"api_key" env:"FINNHUB_API_KEY"`
	Timeout    Duration `json:"timeout" yaml:"timeout" env:"FINNHUB_TIMEOUT"`
	PriceTTL   Duration `json:"price_ttl" yaml:"price_ttl" env:"PRICE_TTL"`
	ProfileTTL Duration `json:"profile_ttl" yaml:"profile_ttl" env:"PROFILE_TTL"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	StartingCash int64 `json:"starting_cash" yaml:"starting_cash" env:"STARTING_CASH"` // cents
}

// AuthConfig contains the OAuth and session parameters
type AuthConfig struct {
	GoogleClientID     string   `json:"google_client_id" yaml:"google_client_id" env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string   `json:"google_client_secret" yaml:"google_client_secret" env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL        string   `json:"redirect_url" yaml:"redirect_url" env:"GOOGLE_REDIRECT_URI"`
	SessionTTL         Duration `json:"session_ttl" yaml:"session_ttl" env:"SESSION_TTL"`
	SweepInterval      Duration `json:"sweep_interval" yaml:"sweep_interval" env:"SESSION_SWEEP_INTERVAL"`
}

// FeedConfig contains transaction feed parameters
type FeedConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled" env:"KAFKA_ENABLED"`
	Brokers []string `json:"brokers,omitempty" yaml:"brokers,omitempty" env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `json:"topic,omitempty" yaml:"topic,omitempty" env:"KAFKA_TOPIC"`
}

// LogConfig contains logging parameters
type LogConfig struct {
	Level string `json:"level" yaml:"level" env:"LOG_LEVEL"`
}

// Duration wraps time.Duration so "5m" style strings work in YAML, JSON,
// and environment variables.
type Duration time.Duration

// Std returns the wrapped time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load builds the configuration in three layers: defaults, then the config
// file when path is non-empty, then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		// Try YAML first, fall back to JSON
		err = yaml.Unmarshal(data, cfg)
		if err != nil {
			err = json.Unmarshal(data, cfg)
			if err != nil {
				return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	// Determine format by extension
	if (len(path) > 5 && path[len(path)-5:] == ".yaml") || (len(path) > 4 && path[len(path)-4:] == ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.FrontendURL == "" {
		return fmt.Errorf("server.frontend_url is required")
	}
	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		return fmt.Errorf("store.driver must be 'sqlite' or 'postgres'")
	}
	if c.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required")
	}
	if c.Quotes.APIKey == "" {
		return fmt.Errorf("quotes.api_key is required")
	}
	if c.Quotes.PriceTTL <= 0 || c.Quotes.ProfileTTL <= 0 {
		return fmt.Errorf("quotes TTLs must be positive")
	}
	if c.Account.StartingCash <= 0 {
		return fmt.Errorf("account.starting_cash must be positive")
	}
	if c.Auth.GoogleClientID == "" || c.Auth.GoogleClientSecret == "" {
		return fmt.Errorf("auth google client credentials are required")
	}
	if c.Auth.RedirectURL == "" {
		return fmt.Errorf("auth.redirect_url is required")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive")
	}
	if c.Feed.Enabled {
		if len(c.Feed.Brokers) == 0 {
			return fmt.Errorf("feed.brokers required when the feed is enabled")
		}
		if c.Feed.Topic == "" {
			return fmt.Errorf("feed.topic required when the feed is enabled")
		}
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":3000",
			FrontendURL: "http://localhost:5173",
		},
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    "./paperbroker.db",
		},
		Quotes: QuotesConfig{
			Timeout:    Duration(10 * time.Second),
			PriceTTL:   Duration(5 * time.Minute),
			ProfileTTL: Duration(24 * time.Hour),
		},
		Account: AccountConfig{
			StartingCash: 10_000_000,
		},
		Auth: AuthConfig{
			RedirectURL:   "http://localhost:3000/callback",
			SessionTTL:    Duration(7 * 24 * time.Hour),
			SweepInterval: Duration(5 * time.Minute),
		},
		Feed: FeedConfig{
			Topic: "paperbroker.transactions",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
