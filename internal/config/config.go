// Package config loads the service configuration from environment
// variables, optionally primed from a .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// S3-compatible object storage for post images
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	// Outbound webhooks; an empty URL disables the hook.
	NotifyWebhookURL    string
	SubscribeWebhookURL string
	WebhookTimeout      time.Duration

	// Listings
	PageSize        int
	AdminPageSize   int
	ListingCacheTTL time.Duration
	SearchDebounce  time.Duration

	CORSOrigins            []string
	MaxImageBytes          int64
	SubscribeRatePerMinute int
	// TrustedProxies are the reverse proxies whose X-Forwarded-For is used
	// to identify clients for rate limiting.
	TrustedProxies []netip.Prefix

	// First admin account, created when the users table is empty.
	AdminEmail    string
	AdminPassword string
}

// LoadDotEnv reads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	slog.Info("environment loaded from file", "path", path)
	return nil
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if a value is
// malformed or a critical value is missing in production mode.
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "aslipolitik"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "aslipolitik"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "aslipolitik"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		NotifyWebhookURL:    os.Getenv("NOTIFY_WEBHOOK_URL"),
		SubscribeWebhookURL: os.Getenv("SUBSCRIBE_WEBHOOK_URL"),

		CORSOrigins: splitList(envOrDefault("CORS_ORIGINS", "http://localhost:5173")),

		AdminEmail:    envOrDefault("ADMIN_EMAIL", "admin@aslipolitik.local"),
		AdminPassword: envOrDefault("ADMIN_PASSWORD", "admin"),
	}

	cfg.WebhookTimeout = durationOrDefault("WEBHOOK_TIMEOUT", 10*time.Second, &errs)
	cfg.ListingCacheTTL = durationOrDefault("LISTING_CACHE_TTL", time.Minute, &errs)
	cfg.SearchDebounce = durationOrDefault("SEARCH_DEBOUNCE", 0, &errs)
	cfg.PageSize = intOrDefault("PAGE_SIZE", 9, &errs)
	cfg.AdminPageSize = intOrDefault("ADMIN_PAGE_SIZE", 10, &errs)
	cfg.MaxImageBytes = int64(intOrDefault("MAX_IMAGE_BYTES", 5<<20, &errs))
	cfg.SubscribeRatePerMinute = intOrDefault("SUBSCRIBE_RATE_PER_MINUTE", 5, &errs)
	cfg.TrustedProxies = prefixList("TRUSTED_PROXIES", &errs)

	if cfg.PageSize < 1 || cfg.PageSize > 100 {
		errs = append(errs, fmt.Errorf("PAGE_SIZE must be between 1 and 100, got %d", cfg.PageSize))
	}
	if cfg.AdminPageSize < 1 || cfg.AdminPageSize > 100 {
		errs = append(errs, fmt.Errorf("ADMIN_PAGE_SIZE must be between 1 and 100, got %d", cfg.AdminPageSize))
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			errs = append(errs, errors.New("POSTGRES_PASSWORD must be set in production"))
		}
		if cfg.AdminPassword == "admin" {
			errs = append(errs, errors.New("ADMIN_PASSWORD must be set in production"))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intOrDefault(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func durationOrDefault(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

// prefixList parses a comma separated list of CIDRs or single addresses.
func prefixList(key string, errs *[]error) []netip.Prefix {
	var out []netip.Prefix
	for _, item := range splitList(os.Getenv(key)) {
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
				continue
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out
}

// splitList parses a comma separated list, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
