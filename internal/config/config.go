// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, abuse limits, and
// observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// PlaceholderSalt is the well-known default value for IP_HASH_SALT shipped in
// example env files. Running production with it (or with no salt at all) would
// let an attacker precompute identity hashes, so Load refuses it outright.
const PlaceholderSalt = "default-salt-replace-me"

// PlaceholderCaptchaSecret is the sample value for HCAPTCHA_SECRET_KEY.
// Treated the same as an unset secret.
const PlaceholderCaptchaSecret = "REPLACE_WITH_HCAPTCHA_SECRET_KEY"

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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "justzappit-api")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// AbuseConfig groups the anti-abuse knobs for the moderation surface:
// the durable per-identity action budget, the flag cooldown, and the
// minimum form fill time.
type AbuseConfig struct {
	IPHashSalt      string        // IP_HASH_SALT; mandatory in production
	MaxActions      int           // RATE_LIMIT_MAX_ACTIONS per window (default 10)
	Window          time.Duration // RATE_LIMIT_WINDOW (default 24h)
	FlagCooldownMax int           // FLAG_COOLDOWN_MAX flags per cooldown window (default 3)
	FlagCooldown    time.Duration // FLAG_COOLDOWN_WINDOW (default 1h)
	MinSubmitTime   time.Duration // MIN_SUBMIT_TIME form time trap (default 3s)
}

// CaptchaConfig holds hCaptcha verification settings.
type CaptchaConfig struct {
	Secret    string        // HCAPTCHA_SECRET_KEY
	VerifyURL string        // HCAPTCHA_VERIFY_URL
	Timeout   time.Duration // HCAPTCHA_TIMEOUT
}

// GeocodeConfig holds Nominatim geocoding settings.
type GeocodeConfig struct {
	BaseURL   string        // GEOCODE_BASE_URL
	UserAgent string        // GEOCODE_USER_AGENT (Nominatim policy requires one)
	Timeout   time.Duration // GEOCODE_TIMEOUT
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Environment
	Env string // APP_ENV: development|production

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath string // SQLite path

	// Abuse prevention
	Abuse   AbuseConfig
	Captcha CaptchaConfig
	Geocode GeocodeConfig

	// Edge rate limiting (token bucket, process-local; the durable
	// per-identity budget lives in the rate_limits table)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// IsProduction reports whether the app runs in production mode.
func (c Config) IsProduction() bool { return c.Env == "production" }

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Environment
		Env: strings.ToLower(getenv("APP_ENV", "development")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath: getenv("DB_PATH", "app.db"),

		// Abuse prevention
		Abuse: AbuseConfig{
			IPHashSalt:      getenv("IP_HASH_SALT", ""),
			MaxActions:      getint("RATE_LIMIT_MAX_ACTIONS", 10),
			Window:          getdur("RATE_LIMIT_WINDOW", 24*time.Hour),
			FlagCooldownMax: getint("FLAG_COOLDOWN_MAX", 3),
			FlagCooldown:    getdur("FLAG_COOLDOWN_WINDOW", time.Hour),
			MinSubmitTime:   getdur("MIN_SUBMIT_TIME", 3*time.Second),
		},
		Captcha: CaptchaConfig{
			Secret:    getenv("HCAPTCHA_SECRET_KEY", ""),
			VerifyURL: getenv("HCAPTCHA_VERIFY_URL", "https://hcaptcha.com/siteverify"),
			Timeout:   getdur("HCAPTCHA_TIMEOUT", 10*time.Second),
		},
		Geocode: GeocodeConfig{
			BaseURL:   getenv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent: getenv("GEOCODE_USER_AGENT", "JustZappIt/1.0 (justzappit.xyz)"),
			Timeout:   getdur("GEOCODE_TIMEOUT", 10*time.Second),
		},

		// Edge rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "justzappit-api"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
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
	switch cfg.Env {
	case "development", "production":
	default:
		cfg.Env = "development"
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
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.IsProduction() {
		salt := strings.TrimSpace(cfg.Abuse.IPHashSalt)
		if salt == "" || salt == PlaceholderSalt {
			return cfg, errors.New("IP_HASH_SALT must be set to a real secret in production")
		}
	}
	if cfg.Abuse.MaxActions < 1 {
		return cfg, errors.New("RATE_LIMIT_MAX_ACTIONS must be >= 1")
	}
	if cfg.Abuse.Window <= 0 {
		return cfg, errors.New("RATE_LIMIT_WINDOW must be > 0")
	}
	if cfg.Abuse.FlagCooldownMax < 1 {
		return cfg, errors.New("FLAG_COOLDOWN_MAX must be >= 1")
	}
	if cfg.Abuse.FlagCooldown <= 0 {
		return cfg, errors.New("FLAG_COOLDOWN_WINDOW must be > 0")
	}
	if cfg.Abuse.MinSubmitTime < 0 {
		return cfg, errors.New("MIN_SUBMIT_TIME must be >= 0")
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
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
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
