package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process configuration, read from the environment once at start-up.
type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string
	LogFile     string
	LogLevel    string

	DBDriver string
	DBDSN    string

	JWTSecret string

	Payment Payment

	KafkaBrokers []string
	KafkaTopic   string

	OTLPEndpoint    string
	ShutdownTimeout time.Duration
}

// Payment configures the gateway adapter. An empty KeyID or KeySecret selects the mock gateway.
type Payment struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Currency  string
	Timeout   time.Duration
}

// Mock reports whether the mock gateway should be used.
func (p Payment) Mock() bool { return p.KeyID == "" || p.KeySecret == "" }

// Load reads the configuration using getenv, which is os.Getenv in production.
func Load(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		ServiceName: env("SERVICE_NAME", "storefront"),
		Env:         env("ENV", "dev"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		LogFile:     env("LOG_FILE", ""),
		LogLevel:    env("LOG_LEVEL", "info"),
		DBDriver:    env("DB_DRIVER", "sqlite3"),
		DBDSN:       env("DB_DSN", "storefront.db"),
		JWTSecret:   env("JWT_SECRET", ""),
		Payment: Payment{
			KeyID:     env("PAYMENT_KEY_ID", ""),
			KeySecret: env("PAYMENT_KEY_SECRET", ""),
			BaseURL:   env("PAYMENT_BASE_URL", "https://api.razorpay.com"),
			Currency:  env("PAYMENT_CURRENCY", "INR"),
		},
		KafkaTopic:   env("KAFKA_TOPIC", "order_events"),
		OTLPEndpoint: env("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	var err error
	if cfg.Payment.Timeout, err = duration(env("PAYMENT_TIMEOUT", "10s")); err != nil {
		return Config{}, fmt.Errorf("config: PAYMENT_TIMEOUT: %w", err)
	}
	if cfg.ShutdownTimeout, err = duration(env("SHUTDOWN_TIMEOUT", "10s")); err != nil {
		return Config{}, fmt.Errorf("config: SHUTDOWN_TIMEOUT: %w", err)
	}

	if brokers := env("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	switch cfg.DBDriver {
	case "sqlite3", "postgres", "pgx":
	default:
		return Config{}, fmt.Errorf("config: unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("config: JWT_SECRET is required")
	}
	return cfg, nil
}

// duration accepts Go duration strings and bare seconds.
func duration(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}
