package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"moneta/internal/core"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP (optional; empty URL disables the rate-batch pipeline)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Rate feed worker
	RateFeedURL      string
	RateFeedBases    []core.Currency
	RateFeedInterval time.Duration

	// Recurring worker
	RecurringInterval time.Duration

	// Dashboard
	DefaultCurrency core.Currency
	TrendMonths     int
	SummaryCacheTTL time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/moneta.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "moneta"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "rate_batches"),

		RateFeedURL:      getEnv("RATE_FEED_URL", ""),
		RateFeedBases:    getEnvCurrencies("RATE_FEED_BASES", []core.Currency{"USD", "EUR"}),
		RateFeedInterval: getEnvDuration("RATE_FEED_INTERVAL", 6*time.Hour),

		RecurringInterval: getEnvDuration("RECURRING_INTERVAL", time.Hour),

		DefaultCurrency: core.Currency(getEnv("DEFAULT_CURRENCY", "USD")),
		TrendMonths:     getEnvInt("TREND_MONTHS", 6),
		SummaryCacheTTL: getEnvDuration("SUMMARY_CACHE_TTL", time.Minute),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if err := core.ValidateCurrency(c.DefaultCurrency); err != nil {
		errors = append(errors, fmt.Sprintf("invalid default currency '%s': must be a three-letter ISO code", c.DefaultCurrency))
	}
	for _, base := range c.RateFeedBases {
		if err := core.ValidateCurrency(base); err != nil {
			errors = append(errors, fmt.Sprintf("invalid rate feed base '%s': must be a three-letter ISO code", base))
		}
	}

	if c.TrendMonths < 1 {
		errors = append(errors, fmt.Sprintf("invalid trend months %d: must be at least 1", c.TrendMonths))
	} else if c.TrendMonths > 60 {
		errors = append(errors, fmt.Sprintf("invalid trend months %d: must be at most 60", c.TrendMonths))
	}

	if c.RateFeedInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid rate feed interval %v: must be at least 1 minute", c.RateFeedInterval))
	}
	if c.RecurringInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid recurring interval %v: must be at least 1 minute", c.RecurringInterval))
	}
	if c.SummaryCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid summary cache TTL %v: must not be negative", c.SummaryCacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvCurrencies(key string, defaultValue []core.Currency) []core.Currency {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []core.Currency
	for _, part := range strings.Split(value, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			out = append(out, core.Currency(part))
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
