package config

import (
	"context"
	"time"
)

// ListenerConfig holds the network/TLS settings for a single listener (main or management).
type ListenerConfig struct {
	Port              int
	EnablePlainText   bool
	EnableTLS         bool
	TLSCertFile       string
	TLSKeyFile        string
	ReadHeaderTimeout time.Duration
}

type contextKey struct{}

// WithContext returns a new context carrying the given Config.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext retrieves the Config from the context.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(contextKey{}).(*Config)
	return cfg
}

const (
	ModeProd    = "prod"
	ModeTesting = "testing"
)

// Config holds all configuration for the memory bridge.
type Config struct {
	// Mode controls security behavior: "prod" (default) or "testing".
	// In testing mode, the X-Org-ID header is accepted and API key
	// validation is relaxed.
	Mode string

	// Database
	DBURL string

	// Run datastore migrations on startup.
	DatastoreMigrateAtStart bool

	// Datastore backend type
	DatastoreType string // "postgres", "sqlite", or "memory"

	// Cache backend type
	CacheType string // "redis", "memory", or "none"

	// Redis
	RedisURL string

	// Query cache TTL.
	QueryCacheTTL time.Duration

	// Content limits
	MaxContentLength int

	// Keyword extraction cap per text.
	MaxKeywords int

	// Query defaults
	DefaultQueryLimit   int
	DefaultQueryDays    int
	DefaultTimelineDays int

	// Per-call timeouts
	StoreTimeout time.Duration
	CacheTimeout time.Duration

	// Background enrichment
	EnrichmentEnabled   bool
	EnrichmentQueueSize int

	// Prometheus
	// MetricsLabels is a comma-separated list of key=value pairs added as
	// constant labels to all Prometheus metrics. Values support ${VAR} expansion.
	// Defaults to "service=memory-bridge".
	MetricsLabels string

	// Server
	Listener           ListenerConfig
	ManagementListener ListenerConfig
	// ManagementListenerEnabled is true when --management-port (or
	// MEMORY_BRIDGE_MANAGEMENT_PORT) was explicitly provided. When false,
	// management endpoints are served on the main port.
	ManagementListenerEnabled bool
	// ManagementAccessLog enables HTTP access logging for management endpoints
	// (/health, /ready, /metrics). Disabled by default to suppress
	// high-frequency probe noise from the access log.
	ManagementAccessLog bool

	// Security
	// APIKeys maps API key values to org IDs (MEMORY_BRIDGE_API_KEYS_<ORG_ID>=<key>).
	APIKeys map[string]string // key value → orgId

	// Body size limit (bytes)
	MaxBodySize int64

	// Graceful shutdown drain timeout (seconds)
	DrainTimeout int

	// DB pool
	DBMaxOpenConns int
	DBMaxIdleConns int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Mode:                    ModeProd,
		DatastoreType:           "postgres",
		DatastoreMigrateAtStart: true,
		CacheType:               "none",
		QueryCacheTTL:           5 * time.Minute,
		MaxContentLength:        10000,
		MaxKeywords:             15,
		DefaultQueryLimit:       5,
		DefaultQueryDays:        30,
		DefaultTimelineDays:     7,
		StoreTimeout:            5 * time.Second,
		CacheTimeout:            500 * time.Millisecond,
		EnrichmentEnabled:       true,
		EnrichmentQueueSize:     256,
		Listener: ListenerConfig{
			Port:              8080,
			EnablePlainText:   true,
			EnableTLS:         true,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ManagementListener: ListenerConfig{
			EnablePlainText: true,
			EnableTLS:       true,
		},
		MaxBodySize:    1024 * 1024,
		DrainTimeout:   30,
		DBMaxOpenConns: 25,
		DBMaxIdleConns: 5,
	}
}
