// Package config loads process configuration from the environment, with an
// optional YAML file overlay for the rule-heavy surfaces (rate limits,
// channel specs, brand palette) that are awkward to express as env vars.
package config

import (
	"os"
	"strconv"
	"time"
)

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// Config is the common configuration shared by every service binary.
type Config struct {
	Port        int
	Version     string
	Environment string // "development" | "production"
	DatabaseURL string
	RedisURL    string

	ObjectStoreBucket string
	ObjectStoreRegion string

	JWTSecret     string
	JWTAlgorithm  string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	CORSOrigins []string

	IdentityServiceURL   string
	CampaignsServiceURL  string
	ValidationServiceURL string
	BriefingServiceURL   string

	Telemetry TelemetryConfig
}

// Load reads configuration from the environment, falling back to the
// defaults below. It matches the env-var-first-then-default pattern used
// throughout the teacher's control plane.
func Load() *Config {
	return &Config{
		Port:        envInt("PORT", 8080),
		Version:     envStr("SERVICE_VERSION", "0.1.0"),
		Environment: envStr("ENVIRONMENT", "development"),
		DatabaseURL: envStr("DATABASE_URL", ""),
		RedisURL:    envStr("REDIS_URL", ""),

		ObjectStoreBucket: envStr("CREATIVE_CONTENT_BUCKET", ""),
		ObjectStoreRegion: envStr("AWS_REGION", "us-east-1"),

		JWTSecret:    envStr("SECRET_KEY", ""),
		JWTAlgorithm: envStr("JWT_ALGORITHM", "HS256"),
		AccessTTL:    envDuration("ACCESS_TOKEN_EXPIRE_MINUTES_AS_DURATION", 30*time.Minute),
		RefreshTTL:   envDuration("REFRESH_TOKEN_EXPIRE_DAYS_AS_DURATION", 7*24*time.Hour),

		CORSOrigins: envStringList("CORS_ORIGINS", []string{"http://localhost:3000"}),

		IdentityServiceURL:   envStr("AUTH_SERVICE_URL", "http://identity:8001"),
		CampaignsServiceURL:  envStr("CAMPAIGNS_SERVICE_URL", "http://campaigns:8002"),
		ValidationServiceURL: envStr("CONTENT_VALIDATION_SERVICE_URL", "http://validator:8003"),
		BriefingServiceURL:   envStr("BRIEFING_ENHANCER_SERVICE_URL", "http://briefing:8004"),

		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName:  envStr("SERVICE_NAME", "orqestra-service"),
		},
	}
}

// IsProduction reports whether Secure cookies and similar production-only
// behavior should be enabled.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// envStringList parses a JSON-array-or-comma-separated env var, matching
// the original gateway's get_cors_origins() flexibility.
func envStringList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v[0] == '[' {
		items, err := parseJSONStringArray(v)
		if err == nil {
			return items
		}
	}
	return splitAndTrim(v, ',')
}
