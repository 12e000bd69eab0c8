package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

const (
	CatalogStatic   = "static"
	CatalogOneClick = "oneclick"
)

// Config holds the application configuration
type Config struct {
	RelayURL        string
	IntentsContract string
	AccountID       string
	PrivateKey      string
	KeyFile         string
	Catalog         string
	OneClickURL     string
	JWTToken        string
	CatalogTTL      time.Duration
	RequestTimeout  time.Duration
	RateLimit       float64
	RateBurst       int
	MinDeadlineMs   int64
	LogLevel        string
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".runesdex")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	viper.SetDefault("relay_url", "https://solver-relay-v2.chaindefuser.com/rpc")
	viper.SetDefault("intents_contract", "intents.near")
	viper.SetDefault("catalog", CatalogStatic)
	viper.SetDefault("oneclick_url", "https://1click.chaindefuser.com")
	viper.SetDefault("catalog_ttl", "5m")
	viper.SetDefault("request_timeout", "30s")
	viper.SetDefault("rate_limit", 5.0)
	viper.SetDefault("rate_burst", 2)
	viper.SetDefault("min_deadline_ms", 60000)
	viper.SetDefault("log_level", "info")

	viper.SetEnvPrefix("RUNESDEX")
	viper.AutomaticEnv()

	// Config file is optional
	_ = viper.ReadInConfig()

	cfg := &Config{
		RelayURL:        viper.GetString("relay_url"),
		IntentsContract: viper.GetString("intents_contract"),
		AccountID:       viper.GetString("account_id"),
		PrivateKey:      viper.GetString("private_key"),
		KeyFile:         viper.GetString("key_file"),
		Catalog:         viper.GetString("catalog"),
		OneClickURL:     viper.GetString("oneclick_url"),
		JWTToken:        viper.GetString("jwt_token"),
		CatalogTTL:      viper.GetDuration("catalog_ttl"),
		RequestTimeout:  viper.GetDuration("request_timeout"),
		RateLimit:       viper.GetFloat64("rate_limit"),
		RateBurst:       viper.GetInt("rate_burst"),
		MinDeadlineMs:   viper.GetInt64("min_deadline_ms"),
		LogLevel:        viper.GetString("log_level"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

// Validate checks settings every command needs
func (c *Config) Validate() error {
	if c.RelayURL == "" {
		return fmt.Errorf("relay URL not set. Please set RUNESDEX_RELAY_URL or relay_url in .runesdex.yaml")
	}
	if c.IntentsContract == "" {
		return fmt.Errorf("intents contract not set. Please set RUNESDEX_INTENTS_CONTRACT or intents_contract in .runesdex.yaml")
	}
	if c.Catalog != CatalogStatic && c.Catalog != CatalogOneClick {
		return fmt.Errorf("unknown catalog %q, expected %q or %q", c.Catalog, CatalogStatic, CatalogOneClick)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.MinDeadlineMs < 0 {
		return fmt.Errorf("min deadline must not be negative")
	}
	return nil
}

// ValidateSigner checks settings needed by commands that sign intents
func (c *Config) ValidateSigner() error {
	if c.PrivateKey == "" && c.KeyFile == "" {
		return fmt.Errorf("signing key not found. Please set RUNESDEX_PRIVATE_KEY (ed25519:<base58>) or RUNESDEX_KEY_FILE")
	}
	if c.PrivateKey != "" && c.KeyFile != "" {
		return fmt.Errorf("both private_key and key_file are set, use only one")
	}
	return nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
