// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout (default 10s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "scilit/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// EnrichConfig holds settings for the metadata reconciliation stage.
type EnrichConfig struct {
	HTTPConfig `yaml:",inline"`

	// SRUTimeout is the request timeout for the SRU union-catalog
	// provider, which is slower than the REST providers (default 15s).
	SRUTimeout time.Duration `json:"sru_timeout" yaml:"sru_timeout"`

	// MaxRetries is the retry budget per request (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryBaseDelay is the base duration for exponential backoff
	// (default 1s).
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay"`

	// MaxCandidates is how many raw hits a query-lookup requests and
	// ranks per provider (default 5).
	MaxCandidates int `json:"max_candidates" yaml:"max_candidates"`

	// FullAdoptThreshold is the score above which the best provider's
	// record is adopted wholesale (default 70).
	FullAdoptThreshold float64 `json:"full_adopt_threshold" yaml:"full_adopt_threshold"`

	// FieldTrustThreshold is the score a provider must exceed for its
	// individual field values to override existing ones (default 30).
	FieldTrustThreshold float64 `json:"field_trust_threshold" yaml:"field_trust_threshold"`

	// MinAcceptScore is the minimum candidate score for a query-lookup
	// hit to count as found (default 10).
	MinAcceptScore float64 `json:"min_accept_score" yaml:"min_accept_score"`

	// Providers flags which providers are enabled by name
	// (crossref, openalex, googlebooks, openlib, k10plus). Nil enables
	// all of them; in a non-nil map a provider runs only when its name
	// maps to true.
	Providers map[string]bool `json:"providers" yaml:"providers"`

	// GoogleBooksAPIKey is an optional API key for higher quota.
	GoogleBooksAPIKey string `json:"google_books_api_key,omitempty" yaml:"google_books_api_key,omitempty"`

	// Mailto identifies the caller to the polite pools of CrossRef and
	// OpenAlex.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty"`
}

// CacheBackend identifies the result-cache store.
type CacheBackend string

const (
	CacheSQLite CacheBackend = "sqlite"
	CacheRedis  CacheBackend = "redis"
)

// RedisConfig holds connection settings for the Redis cache backend.
type RedisConfig struct {
	// Address is the Redis server address (default "localhost:6379").
	Address string `json:"address" yaml:"address"`

	// Password authenticates against the server, if set.
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	// DB is the Redis database number.
	DB int `json:"db" yaml:"db"`

	// PoolSize is the connection pool size (default 10).
	PoolSize int `json:"pool_size" yaml:"pool_size"`
}

// CacheConfig holds settings for the provider result cache.
type CacheConfig struct {
	// Backend selects the store: sqlite (default) or redis.
	Backend CacheBackend `json:"backend" yaml:"backend"`

	// Dir is the directory holding the SQLite cache database.
	Dir string `json:"dir" yaml:"dir"`

	// TTL is how long a cached provider response stays valid
	// (default 24h).
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// Redis configures the redis backend.
	Redis RedisConfig `json:"redis" yaml:"redis"`
}

// Config groups all stage configurations.
type Config struct {
	Enrich EnrichConfig `json:"enrich" yaml:"enrich"`
	Cache  CacheConfig  `json:"cache" yaml:"cache"`
}
