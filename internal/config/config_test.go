package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123"

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("LOG_LEVEL", "verbose")
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestMustLoad_Success_NoPanic(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("MustLoad should not panic on valid defaults, got: %v", r)
		}
	}()
	cfg := MustLoad()
	if cfg.APIBasePath != "/api" {
		t.Fatalf("API_BASE_PATH default expected '/api', got %q", cfg.APIBasePath)
	}
	if cfg.DB.Driver != "sqlite" || cfg.MaxWishes != 10 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // normalizes to "release"

	t.Setenv("LOG_LEVEL", "warning") // normalizes to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "api/v2/")

	t.Setenv("DB_DRIVER", "pg")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/gifiti")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("UNREAD_CACHE_TTL", "30s")

	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("MAX_WISHES", "7")

	t.Setenv("RATE_RPS", "x")      // parse failure -> default
	t.Setenv("RATE_BURST", "nope") // parse failure -> default

	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")
	t.Setenv("IDEMPOTENCY_TTL", "48h")

	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v2" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}
	if cfg.DB.Driver != "postgres" || cfg.DB.URL != "postgres://u:p@localhost/gifiti" {
		t.Fatalf("db unexpected: %+v", cfg.DB)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 2 || cfg.Redis.TTL != 30*time.Second {
		t.Fatalf("redis unexpected: %+v", cfg.Redis)
	}
	if cfg.Auth.JWTSecret != testSecret || cfg.Auth.TokenTTL != time.Hour || cfg.MaxWishes != 7 {
		t.Fatalf("auth/limits unexpected: %+v", cfg)
	}
	if cfg.RateRPS != 10.0 || cfg.RateBurst != 20 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}
	if cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("idempotency ttl unexpected: %v", cfg.IdempotencyTTL)
	}
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_YAMLFileOverlay_EnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gifiti.yaml")
	doc := `
PORT: 9090
JWT_SECRET: from-file-secret-1234
MAX_WISHES: 5
LOG_PRETTY: true
CORS_ALLOWED_ORIGINS:
  - https://one.example
  - https://two.example
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MAX_WISHES", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "9090" || cfg.Auth.JWTSecret != "from-file-secret-1234" || !cfg.LogPretty {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.MaxWishes != 8 {
		t.Fatalf("env should override file, got MaxWishes=%d", cfg.MaxWishes)
	}
	want := []string{"https://one.example", "https://two.example"}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, want) {
		t.Fatalf("origins from file: got %#v want %#v", cfg.CORS.AllowedOrigins, want)
	}
}

func TestLoad_YAMLFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
		if _, err := Load(); err == nil || !containsErr(err, "read config file") {
			t.Fatalf("expected read error, got %v", err)
		}
	})
	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("PORT: [unterminated"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		t.Setenv("CONFIG_FILE", path)
		if _, err := Load(); err == nil || !containsErr(err, "parse config file") {
			t.Fatalf("expected parse error, got %v", err)
		}
	})
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"invalid log level", "LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"blank port", "PORT", "   ", "PORT must not be empty"},
		{"zero timeout", "READ_TIMEOUT", "0s", "timeouts must be positive"},
		{"header bytes", "MAX_HEADER_BYTES", "0", "MAX_HEADER_BYTES"},
		{"blank db path", "DB_PATH", "   ", "DB_PATH must not be empty"},
		{"unknown driver", "DB_DRIVER", "mysql", "DB_DRIVER"},
		{"postgres without url", "DB_DRIVER", "postgres", "DATABASE_URL"},
		{"short secret", "JWT_SECRET", "short", "JWT_SECRET"},
		{"ttl zero", "JWT_TTL", "0s", "JWT_TTL"},
		{"cache ttl zero", "UNREAD_CACHE_TTL", "0s", "UNREAD_CACHE_TTL"},
		{"max wishes too high", "MAX_WISHES", "11", "MAX_WISHES"},
		{"rate rps negative", "RATE_RPS", "-1", "RATE_RPS"},
		{"burst zero", "RATE_BURST", "0", "RATE_BURST"},
		{"hsts negative", "HSTS_MAX_AGE", "-1s", "HSTS_MAX_AGE"},
		{"idempotency ttl", "IDEMPOTENCY_TTL", "0s", "IDEMPOTENCY_TTL"},
		{"otel ratio", "OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", testSecret)
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil || !containsErr(err, tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestSource_Parsers(t *testing.T) {
	s := source{file: map[string]string{"FROM_FILE": "file"}}

	t.Setenv("X_EMPTY", "")
	if s.str("X_EMPTY", "d") != "d" {
		t.Fatalf("str should fall back to default on empty var")
	}
	if s.str("FROM_FILE", "d") != "file" {
		t.Fatalf("str should read file value")
	}
	t.Setenv("F_BAD", "nope")
	if s.float("F_BAD", 1.23) != 1.23 {
		t.Fatalf("float default on bad parse failed")
	}
	t.Setenv("I_VALID", "42")
	if s.int("I_VALID", 0) != 42 {
		t.Fatalf("int parse failed")
	}
	t.Setenv("D_VALID", "150ms")
	if s.dur("D_VALID", time.Second) != 150*time.Millisecond {
		t.Fatalf("dur parse failed")
	}
	for _, v := range []string{"1", "TRUE", " yes ", "on"} {
		t.Setenv("B", v)
		if !s.bool("B", false) {
			t.Fatalf("bool(%q) = false; want true", v)
		}
	}
	for _, v := range []string{"0", "false", " no ", "off"} {
		t.Setenv("B", v)
		if s.bool("B", true) {
			t.Fatalf("bool(%q) = true; want false", v)
		}
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	if got := splitCSV(" a, ,b ,  c  ,"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("splitCSV mismatch: %#v", got)
	}
	cases := map[string]string{"": "/", "api": "/api", "/api/": "/api", " / ": "/"}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestMain(m *testing.M) {
	os.Unsetenv("PORT")
	os.Unsetenv("CONFIG_FILE")
	os.Exit(m.Run())
}

func containsErr(err error, want string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), want)
}
