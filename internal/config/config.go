package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Target selects which downstream API the pipeline forwards to.
const (
	TargetConversion = "conversion"
	TargetOrder      = "order"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type RelayConfig struct {
	// Target selects the composer/client pair: "conversion" or "order".
	Target string `mapstructure:"target"`
	// ConversionEndpoint is the conversion API events URL (pixel id
	// included); the credential is appended as a query parameter.
	ConversionEndpoint string `mapstructure:"conversion_endpoint"`
	// OrderEndpoint is the order-registration API URL; the credential is
	// sent in the x-api-token header.
	OrderEndpoint string        `mapstructure:"order_endpoint"`
	APICredential string        `mapstructure:"api_credential"`
	CurrencyCode  string        `mapstructure:"currency_code"`
	Platform      string        `mapstructure:"platform"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type PipelineConfig struct {
	// IdentityStrategy: "composite" or "externalReference". Fixed per
	// deployment; changing it against an existing ledger breaks dedup.
	IdentityStrategy string `mapstructure:"identity_strategy"`
	// LedgerFailurePolicy: "fatal" or "bestEffort".
	LedgerFailurePolicy string `mapstructure:"ledger_failure_policy"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional YAML file with environment
// variable overrides (prefix RELAY, e.g. RELAY_DATABASE_URL).
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("relay.target", TargetConversion)
	v.SetDefault("relay.currency_code", "BRL")
	v.SetDefault("relay.platform", "saletrack")
	v.SetDefault("relay.timeout", "10s")
	v.SetDefault("pipeline.identity_strategy", "composite")
	v.SetDefault("pipeline.ledger_failure_policy", "fatal")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/conversion-relay")
	}

	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults and environment.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}

	switch c.Relay.Target {
	case TargetConversion:
		if c.Relay.ConversionEndpoint == "" {
			return fmt.Errorf("relay.conversion_endpoint is required for target %q", TargetConversion)
		}
	case TargetOrder:
		if c.Relay.OrderEndpoint == "" {
			return fmt.Errorf("relay.order_endpoint is required for target %q", TargetOrder)
		}
	default:
		return fmt.Errorf("relay.target must be %q or %q", TargetConversion, TargetOrder)
	}

	switch c.Pipeline.IdentityStrategy {
	case "composite", "externalReference":
	default:
		return fmt.Errorf(`pipeline.identity_strategy must be "composite" or "externalReference"`)
	}

	switch c.Pipeline.LedgerFailurePolicy {
	case "fatal", "bestEffort":
	default:
		return fmt.Errorf(`pipeline.ledger_failure_policy must be "fatal" or "bestEffort"`)
	}

	return nil
}
