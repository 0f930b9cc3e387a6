package config

import (
	"reflect"
	"testing"
	"time"
)

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	// Server timeouts / sizes (valid)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Environment
	t.Setenv("APP_ENV", "staging") // unknown -> normalizes to "development"

	// Logging / Docs
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "api/v1/") // no leading slash + trailing slash -> "/api/v1"

	// App
	t.Setenv("DB_PATH", "db.sqlite")

	// Abuse prevention
	t.Setenv("IP_HASH_SALT", "s3cr3t")
	t.Setenv("RATE_LIMIT_MAX_ACTIONS", "7")
	t.Setenv("RATE_LIMIT_WINDOW", "12h")
	t.Setenv("FLAG_COOLDOWN_MAX", "2")
	t.Setenv("FLAG_COOLDOWN_WINDOW", "30m")
	t.Setenv("MIN_SUBMIT_TIME", "5s")

	// Captcha / Geocode
	t.Setenv("HCAPTCHA_SECRET_KEY", "hc-secret")
	t.Setenv("HCAPTCHA_TIMEOUT", "4s")
	t.Setenv("GEOCODE_BASE_URL", "https://geo.example")
	t.Setenv("GEOCODE_USER_AGENT", "TestAgent/1.0")

	// Edge rate limiting (use invalids for parse to fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 5.0
	t.Setenv("RATE_BURST", "nope") // -> default 10

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Server
	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}

	// Environment normalization
	if cfg.Env != "development" || cfg.IsProduction() {
		t.Fatalf("env unexpected: %q", cfg.Env)
	}

	// Logging / Docs
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}

	// App
	if cfg.DBPath != "db.sqlite" {
		t.Fatalf("db path unexpected: %q", cfg.DBPath)
	}

	// Abuse prevention
	if cfg.Abuse.IPHashSalt != "s3cr3t" ||
		cfg.Abuse.MaxActions != 7 ||
		cfg.Abuse.Window != 12*time.Hour ||
		cfg.Abuse.FlagCooldownMax != 2 ||
		cfg.Abuse.FlagCooldown != 30*time.Minute ||
		cfg.Abuse.MinSubmitTime != 5*time.Second {
		t.Fatalf("abuse fields unexpected: %+v", cfg.Abuse)
	}

	// Captcha / Geocode
	if cfg.Captcha.Secret != "hc-secret" || cfg.Captcha.Timeout != 4*time.Second {
		t.Fatalf("captcha unexpected: %+v", cfg.Captcha)
	}
	if cfg.Geocode.BaseURL != "https://geo.example" || cfg.Geocode.UserAgent != "TestAgent/1.0" {
		t.Fatalf("geocode unexpected: %+v", cfg.Geocode)
	}

	// Edge rate limiting (parse fallback to defaults)
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}

	// Web protection
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}

	// OTEL
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

// --- Load validations (each case triggers exactly one validation error) ---

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		k, v string
	}{
		{"invalid LOG_LEVEL", "LOG_LEVEL", "verbose"},
		{"empty PORT", "PORT", "   "},
		{"non-positive READ_TIMEOUT", "READ_TIMEOUT", "-1s"},
		{"non-positive MAX_HEADER_BYTES", "MAX_HEADER_BYTES", "0"},
		{"empty DB_PATH", "DB_PATH", "  "},
		{"zero RATE_LIMIT_MAX_ACTIONS", "RATE_LIMIT_MAX_ACTIONS", "0"},
		{"negative RATE_LIMIT_WINDOW", "RATE_LIMIT_WINDOW", "-1h"},
		{"zero FLAG_COOLDOWN_MAX", "FLAG_COOLDOWN_MAX", "0"},
		{"negative FLAG_COOLDOWN_WINDOW", "FLAG_COOLDOWN_WINDOW", "-1m"},
		{"negative MIN_SUBMIT_TIME", "MIN_SUBMIT_TIME", "-1s"},
		{"negative RATE_RPS", "RATE_RPS", "-0.5"},
		{"zero RATE_BURST", "RATE_BURST", "0"},
		{"negative HSTS_MAX_AGE", "HSTS_MAX_AGE", "-1h"},
		{"sampler out of range", "OTEL_TRACES_SAMPLER_ARG", "1.5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.k, tc.v)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() should fail when %s=%q", tc.k, tc.v)
			}
		})
	}
}

func TestLoad_ProductionRequiresRealSalt(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	t.Run("missing salt", func(t *testing.T) {
		t.Setenv("IP_HASH_SALT", "")
		if _, err := Load(); err == nil {
			t.Fatal("Load() should fail in production without IP_HASH_SALT")
		}
	})
	t.Run("placeholder salt", func(t *testing.T) {
		t.Setenv("IP_HASH_SALT", PlaceholderSalt)
		if _, err := Load(); err == nil {
			t.Fatal("Load() should fail in production with the placeholder salt")
		}
	})
	t.Run("real salt", func(t *testing.T) {
		t.Setenv("IP_HASH_SALT", "genuinely-random-secret")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if !cfg.IsProduction() {
			t.Fatalf("env unexpected: %q", cfg.Env)
		}
	})
}

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":        "/",
		"/":       "/",
		"api":     "/api",
		"/api/":   "/api",
		"api/v2/": "/api/v2",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q; want %q", in, got, want)
		}
	}
}
