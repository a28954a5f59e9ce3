package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration. Keep infra values here and
// pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	// Marketplace case API.
	MarketplaceBaseURL string
	MarketplaceToken   string

	// Filing throttles.
	MaxFilingsPerRun       int
	MaxFilingsPerHour      int
	MaxFilingsPerSellerDay int
	MaxRetries             int

	// Gate cutoffs.
	MinFilingThreshold float64
	HighValueThreshold float64
	AmountVariance     float64

	// Pass cadence. Jitter between individual submissions/polls is owned by
	// the pacers, not by these tickers.
	FilingPassInterval time.Duration
	PollPassInterval   time.Duration
	OutboxInterval     time.Duration

	// AutofileOverride forces the kill switch on for local runs without a
	// feature_flags row. Leave unset in production.
	AutofileOverride bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "recoup"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		MarketplaceBaseURL: os.Getenv("MARKETPLACE_BASE_URL"),
		MarketplaceToken:   os.Getenv("MARKETPLACE_API_TOKEN"),

		MaxFilingsPerRun:       envInt("MAX_FILINGS_PER_RUN", 10),
		MaxFilingsPerHour:      envInt("MAX_FILINGS_PER_HOUR", 12),
		MaxFilingsPerSellerDay: envInt("MAX_FILINGS_PER_SELLER_DAY", 5),
		MaxRetries:             envInt("MAX_FILING_RETRIES", 3),

		MinFilingThreshold: envFloat("MIN_FILING_THRESHOLD", 25),
		HighValueThreshold: envFloat("HIGH_VALUE_THRESHOLD", 500),
		AmountVariance:     envFloat("AMOUNT_VARIANCE", 0.15),

		FilingPassInterval: envDuration("FILING_PASS_INTERVAL", 15*time.Minute),
		PollPassInterval:   envDuration("POLL_PASS_INTERVAL", 5*time.Minute),
		OutboxInterval:     envDuration("OUTBOX_INTERVAL", 2*time.Second),

		AutofileOverride: envBool("AUTOFILE_OVERRIDE", false),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envFloat(name string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}
