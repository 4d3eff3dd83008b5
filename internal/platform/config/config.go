// Package config builds runtime configuration for the server.
package config

import (
	"time"
)

// Config is the full runtime configuration.
type Config struct {
	Addr        string `koanf:"addr"`
	DatabaseURL string `koanf:"database_url"`
	RedisURL    string `koanf:"redis_url"`

	JWTSigningKey string        `koanf:"jwt_signing_key"`
	TokenTTL      time.Duration `koanf:"token_ttl"`

	Verification VerificationConfig `koanf:"verification"`
	Audit        AuditConfig        `koanf:"audit"`
}

// VerificationConfig carries the tunables of the verification gate.
// These were module-level globals in earlier iterations; they are now
// injected at construction.
type VerificationConfig struct {
	// BiometricThreshold is the minimum cosine similarity accepted as a
	// match, in [0,1].
	BiometricThreshold float64 `koanf:"biometric_threshold"`

	// DefaultRadiusMeters applies when a session is created with a
	// reference coordinate but no explicit radius.
	DefaultRadiusMeters int `koanf:"default_radius_meters"`

	// NetworkProbeURL is the reputation endpoint queried per client
	// address. The probe appends the address as a path segment.
	NetworkProbeURL string `koanf:"network_probe_url"`

	// NetworkProbeTimeout bounds the reputation lookup. Lookups that
	// exceed it are treated as trusted (fail-open).
	NetworkProbeTimeout time.Duration `koanf:"network_probe_timeout"`

	// NetworkCacheTTL bounds how long a reputation verdict is cached.
	NetworkCacheTTL time.Duration `koanf:"network_cache_ttl"`
}

// AuditConfig configures the audit event pipeline.
type AuditConfig struct {
	// KafkaBrokers enables the Kafka sink when non-empty.
	KafkaBrokers []string `koanf:"kafka_brokers"`
	KafkaTopic   string   `koanf:"kafka_topic"`
	AsyncBuffer  int      `koanf:"async_buffer"`
}

// Defaults returns the baseline configuration before file and env
// layering.
func Defaults() *Config {
	return &Config{
		Addr:          ":8080",
		JWTSigningKey: "dev-secret-key-change-in-production",
		TokenTTL:      time.Hour,
		Verification: VerificationConfig{
			BiometricThreshold:  0.6,
			DefaultRadiusMeters: 100,
			NetworkProbeURL:     "http://ip-api.com/json",
			NetworkProbeTimeout: 5 * time.Second,
			NetworkCacheTTL:     10 * time.Minute,
		},
		Audit: AuditConfig{
			KafkaTopic:  "attendly.audit",
			AsyncBuffer: 256,
		},
	}
}
