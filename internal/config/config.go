package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jafarshop/gopiorder/internal/pricing"
	"github.com/jafarshop/gopiorder/internal/region"
)

const (
	BackendCart       = "cart"
	BackendDraftOrder = "draft_order"

	StockStorefront = "storefront"
	StockAdmin      = "admin"

	labelPrefix = "LABEL_"

	// maxFingerprintKey is the BLAKE2b key limit
	maxFingerprintKey = 64
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Shopify     ShopifyConfig
	Order       OrderConfig
	LogLevel    string
	// SessionTTL is how long an untouched session lives before it is swept
	SessionTTL time.Duration
	// AdminToken guards /v1/admin. Empty disables the admin routes.
	AdminToken string
	// FingerprintKey keys phone fingerprints on stored order events
	FingerprintKey string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Enabled reports whether an order event store is configured
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

type ShopifyConfig struct {
	ShopDomain  string
	AccessToken string
	Timeout     time.Duration
}

// OrderConfig is read once at startup and shared read-only by every session
type OrderConfig struct {
	Backend               string
	StockSource           string
	CommissionRate        pricing.Rate
	StockFallbackCeiling  int
	MetroPrefixes         []string
	UnserviceablePrefixes []string
	CODBlockedPrefixes    []string
	UnitLabel             string
	// Labels holds LABEL_* overrides keyed by the name after the prefix, e.g. SUBMIT_READY
	Labels map[string]string
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	timeout, err := time.ParseDuration(getEnvOrViper("SHOPIFY_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHOPIFY_TIMEOUT: %w", err)
	}

	sessionTTL, err := time.ParseDuration(getEnvOrViper("SESSION_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", ""),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "gopiorder"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Shopify: ShopifyConfig{
			ShopDomain:  getEnvOrViper("SHOPIFY_SHOP_DOMAIN", ""),
			AccessToken: getEnvOrViper("SHOPIFY_ACCESS_TOKEN", ""),
			Timeout:     timeout,
		},
		Order: OrderConfig{
			Backend:               strings.ToLower(getEnvOrViper("ORDER_BACKEND", BackendCart)),
			StockSource:           strings.ToLower(getEnvOrViper("STOCK_SOURCE", StockStorefront)),
			CommissionRate:        pricing.ParseRatePercent(getEnvOrViper("COMMISSION_RATE", "")),
			StockFallbackCeiling:  positiveInt(getEnvOrViper("STOCK_FALLBACK_CEILING", ""), 25),
			MetroPrefixes:         region.ParsePrefixes(getEnvOrViper("METRO_PIN_PREFIXES", strings.Join(region.DefaultMetroPrefixes, ","))),
			UnserviceablePrefixes: region.ParsePrefixes(getEnvOrViper("UNSERVICEABLE_PIN_PREFIXES", "")),
			CODBlockedPrefixes:    region.ParsePrefixes(getEnvOrViper("COD_BLOCKED_PIN_PREFIXES", "")),
			UnitLabel:             getEnvOrViper("UNIT_LABEL", "kg"),
			Labels:                labelOverrides(),
		},
		LogLevel:   getEnvOrViper("LOG_LEVEL", "info"),
		SessionTTL: sessionTTL,
		AdminToken: getEnvOrViper("ADMIN_TOKEN", ""),

		FingerprintKey: getEnvOrViper("FINGERPRINT_KEY", ""),
	}

	// Validate required fields
	if cfg.Shopify.ShopDomain == "" {
		return nil, fmt.Errorf("SHOPIFY_SHOP_DOMAIN is required")
	}
	switch cfg.Order.Backend {
	case BackendCart:
	case BackendDraftOrder:
		if cfg.Shopify.AccessToken == "" {
			return nil, fmt.Errorf("SHOPIFY_ACCESS_TOKEN is required when ORDER_BACKEND=%s", BackendDraftOrder)
		}
	default:
		return nil, fmt.Errorf("unknown ORDER_BACKEND %q", cfg.Order.Backend)
	}
	switch cfg.Order.StockSource {
	case StockStorefront:
	case StockAdmin:
		if cfg.Shopify.AccessToken == "" {
			return nil, fmt.Errorf("SHOPIFY_ACCESS_TOKEN is required when STOCK_SOURCE=%s", StockAdmin)
		}
	default:
		return nil, fmt.Errorf("unknown STOCK_SOURCE %q", cfg.Order.StockSource)
	}
	if len(cfg.FingerprintKey) > maxFingerprintKey {
		return nil, fmt.Errorf("FINGERPRINT_KEY must be at most %d bytes", maxFingerprintKey)
	}
	if cfg.Database.Enabled() && cfg.FingerprintKey == "" {
		return nil, fmt.Errorf("FINGERPRINT_KEY is required when DB_HOST is set")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

// positiveInt parses raw as a whole number of at least 1, else returns fallback
func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// labelOverrides collects LABEL_* keys from the .env file and the environment.
// The environment wins.
func labelOverrides() map[string]string {
	labels := make(map[string]string)
	for _, key := range viper.AllKeys() {
		upper := strings.ToUpper(key)
		if strings.HasPrefix(upper, labelPrefix) {
			if v := viper.GetString(key); v != "" {
				labels[strings.TrimPrefix(upper, labelPrefix)] = v
			}
		}
	}
	for _, kv := range os.Environ() {
		key, val, ok := strings.Cut(kv, "=")
		if ok && val != "" && strings.HasPrefix(key, labelPrefix) {
			labels[strings.TrimPrefix(key, labelPrefix)] = val
		}
	}
	return labels
}
