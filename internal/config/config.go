// Package config provides application configuration loaded from the
// environment (and an optional .env file) with defaults and validation. It
// centralizes server timeouts, logging, storage backends, event relays,
// simulated latency, rate limiting and observability settings.
package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// KV backends accepted by KV_BACKEND.
const (
	KVSQLite = "sqlite"
	KVRedis  = "redis"
	KVMemory = "memory"
)

// LatencyConfig is the simulated round trip applied to every facade call.
type LatencyConfig struct {
	Min time.Duration // LATENCY_MIN
	Max time.Duration // LATENCY_MAX
}

// EventsConfig controls where bus events are relayed outside the process.
type EventsConfig struct {
	RedisURL string // REDIS_URL; shared with the redis KV backend
	NATSURL  string // NATS_URL; empty disables the NATS relay
	Channel  string // EVENTS_CHANNEL (redis channel / NATS subject)
	Relay    bool   // EVENTS_RELAY
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s; SSE streams ignore it
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DBPath    string // SQLite path
	KVBackend string // sqlite|redis|memory

	// Domain
	SeedMockData            bool   // load the demo users and challenges at boot
	SessionUserID           string // user signed in at boot ("" = nobody)
	EnforceCreatorDecisions bool   // only a challenge's creator may approve/reject
	Latency                 LatencyConfig

	// Events
	Events EventsConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from a .env file (when present) and environment
// variables, applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := Config{
		// Server
		Port:              getenv(v, "PORT", "8080"),
		ReadTimeout:       getdur(v, "READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur(v, "READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur(v, "WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur(v, "IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint(v, "MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv(v, "GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv(v, "LOG_LEVEL", "info")),
		LogPretty:      getbool(v, "LOG_PRETTY", false),
		SwaggerEnabled: getbool(v, "SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv(v, "API_BASE_PATH", "/api/v1")),

		// Storage
		DBPath:    getenv(v, "DB_PATH", "app.db"),
		KVBackend: strings.ToLower(getenv(v, "KV_BACKEND", KVSQLite)),

		// Domain
		SeedMockData:            getbool(v, "SEED_MOCK_DATA", true),
		SessionUserID:           strings.TrimSpace(getenv(v, "SESSION_USER_ID", "")),
		EnforceCreatorDecisions: getbool(v, "ENFORCE_CREATOR_DECISIONS", false),
		Latency: LatencyConfig{
			Min: getdur(v, "LATENCY_MIN", 100*time.Millisecond),
			Max: getdur(v, "LATENCY_MAX", 800*time.Millisecond),
		},

		// Events
		Events: EventsConfig{
			RedisURL: getenv(v, "REDIS_URL", ""),
			NATSURL:  getenv(v, "NATS_URL", ""),
			Channel:  getenv(v, "EVENTS_CHANNEL", "challenge.events"),
			Relay:    getbool(v, "EVENTS_RELAY", false),
		},

		// Rate limiting
		RateRPS:   getfloat(v, "RATE_RPS", 5.0),
		RateBurst: getint(v, "RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv(v, "CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool(v, "ENABLE_HSTS", false),
			HSTSMaxAge: getdur(v, "HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur(v, "IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool(v, "OTEL_ENABLED", false),
			Endpoint:    getenv(v, "OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool(v, "OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv(v, "OTEL_SERVICE_NAME", "go-challenge-backend"),
			SampleRatio: getfloat(v, "OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.KVBackend {
	case KVSQLite, KVMemory:
	case KVRedis:
		if cfg.Events.RedisURL == "" {
			return cfg, errors.New("REDIS_URL is required when KV_BACKEND=redis")
		}
	default:
		return cfg, errors.New("KV_BACKEND must be one of: sqlite, redis, memory")
	}
	if cfg.KVBackend == KVSQLite && strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.Latency.Min < 0 || cfg.Latency.Max < cfg.Latency.Min {
		return cfg, errors.New("LATENCY_MIN must be >= 0 and <= LATENCY_MAX")
	}
	if cfg.Events.Relay && cfg.Events.RedisURL == "" && cfg.Events.NATSURL == "" {
		return cfg, errors.New("EVENTS_RELAY needs REDIS_URL or NATS_URL")
	}
	if cfg.Events.Relay && strings.TrimSpace(cfg.Events.Channel) == "" {
		return cfg, errors.New("EVENTS_CHANNEL must not be empty")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// ---- helpers ----
// Values are read as raw strings so unparsable input falls back to the
// default instead of viper's zero value.

func getenv(v *viper.Viper, k, def string) string {
	if s := v.GetString(k); s != "" {
		return s
	}
	return def
}

func getfloat(v *viper.Viper, k string, def float64) float64 {
	if s := v.GetString(k); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(v *viper.Viper, k string, def int) int {
	if s := v.GetString(k); s != "" {
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
	}
	return def
}

func getbool(v *viper.Viper, k string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(v.GetString(k))) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return def
}

func getdur(v *viper.Viper, k string, def time.Duration) time.Duration {
	if s := v.GetString(k); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
