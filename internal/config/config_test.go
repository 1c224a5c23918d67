package config

import (
	"strings"
	"testing"
	"time"
)

func baseConfig() Config {
	c := Config{
		App:       AppConfig{Env: "local", Host: "0.0.0.0", Port: 5000, Profile: "demo", LogFormat: "json"},
		Journal:   JournalConfig{Backend: BackendNone, MemoryLimit: 1000},
		CallState: CallStateConfig{Backend: BackendNone, TTL: 24 * time.Hour},
	}
	c.ApplyDefaults()
	return c
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "APP_HOST", "APP_PORT", "APP_PROFILE", "LOG_FORMAT", "PUBLIC_BASE_URL",
		"JOURNAL_BACKEND", "JOURNAL_MEMORY_LIMIT", "CALL_STATE_BACKEND", "CALL_STATE_TTL",
		"DB_PORT", "REDIS_PORT", "JWT_ACCESS_TTL",
		"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_BareEnvUsesDefaults(t *testing.T) {
	clearEnv(t)

	c, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.HTTPAddr() != "0.0.0.0:5000" {
		t.Fatalf("unexpected addr %q", c.HTTPAddr())
	}
	if c.App.Profile != "demo" || c.App.LogFormat != "json" {
		t.Fatalf("unexpected app config: %+v", c.App)
	}
	if c.OperatorAPIEnabled() {
		t.Fatalf("expected operator api disabled by default")
	}
	if c.Auth.AccessTokenTTL != time.Hour {
		t.Fatalf("expected default token ttl, got %s", c.Auth.AccessTokenTTL)
	}
}

func TestLoad_ReportsParseErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "abc")
	t.Setenv("CALL_STATE_TTL", "soon")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected parse errors")
	}
	if !strings.Contains(err.Error(), "APP_PORT") || !strings.Contains(err.Error(), "CALL_STATE_TTL") {
		t.Fatalf("expected both keys reported, got %v", err)
	}
}

func TestLoad_ProfileIsCaseInsensitive(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PROFILE", "Silent")
	c, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.App.Profile != "silent" {
		t.Fatalf("expected silent, got %q", c.App.Profile)
	}
}

func TestValidate_RejectsUnknownProfileAndFormat(t *testing.T) {
	c := baseConfig()
	c.App.Profile = "advanced"
	c.App.LogFormat = "xml"
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "APP_PROFILE") || !strings.Contains(err.Error(), "LOG_FORMAT") {
		t.Fatalf("expected both errors, got %v", err)
	}
}

func TestValidate_PostgresJournalRequiresDB(t *testing.T) {
	c := baseConfig()
	c.Journal.Backend = BackendPostgres
	c.Auth.JWTSecret = "secret"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected DB errors")
	}

	c.DB = DBConfig{Host: "localhost", Port: 5432, User: "postgres", Name: "amd"}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
}

func TestLoad_DBPoolSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_MAX_OPEN_CONNS", "8")
	t.Setenv("DB_MAX_IDLE_CONNS", "2")
	t.Setenv("DB_CONN_MAX_LIFETIME", "10m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "90s")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.DB.MaxOpenConns != 8 || c.DB.MaxIdleConns != 2 {
		t.Fatalf("unexpected pool sizes: %+v", c.DB)
	}
	if c.DB.ConnMaxLifetime != 10*time.Minute || c.DB.ConnMaxIdleTime != 90*time.Second {
		t.Fatalf("unexpected pool durations: %+v", c.DB)
	}

	t.Setenv("DB_CONN_MAX_LIFETIME", "soon")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "DB_CONN_MAX_LIFETIME") {
		t.Fatalf("expected DB_CONN_MAX_LIFETIME parse error, got %v", err)
	}
}

func TestValidate_RejectsNegativePoolSettings(t *testing.T) {
	c := baseConfig()
	c.Journal.Backend = BackendPostgres
	c.Auth.JWTSecret = "secret"
	c.DB = DBConfig{Host: "localhost", Port: 5432, User: "postgres", Name: "amd", SSLMode: "disable", MaxOpenConns: -1}
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "DB_MAX_OPEN_CONNS") {
		t.Fatalf("expected pool size error, got %v", err)
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := baseConfig()
	c.App.Env = "production"
	c.Journal.Backend = BackendPostgres
	c.DB = DBConfig{Host: "localhost", Port: 5432, User: "postgres", Name: "amd"}
	c.Auth = AuthConfig{JWTSecret: "secret", JWTIssuer: "amd", JWTAudience: "ops"}
	c.ApplyDefaults()
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "DB_SSLMODE") {
		t.Fatalf("expected DB_SSLMODE error, got %v", err)
	}
}

func TestValidate_BackendRequiresJWTSecret(t *testing.T) {
	c := baseConfig()
	c.CallState.Backend = BackendMemory
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
	c.Auth.JWTSecret = "secret"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_RedisCallStateRequiresHost(t *testing.T) {
	c := baseConfig()
	c.CallState.Backend = BackendRedis
	c.Redis.Port = 6379
	c.Auth.JWTSecret = "secret"
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "REDIS_HOST") {
		t.Fatalf("expected REDIS_HOST error, got %v", err)
	}
	c.Redis.Host = "localhost"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.RedisAddr() != "localhost:6379" {
		t.Fatalf("unexpected redis addr %q", c.RedisAddr())
	}
}

func TestValidate_PublicBaseURLMustBeAbsolute(t *testing.T) {
	c := baseConfig()
	c.Twilio.PublicBaseURL = "example.ngrok.io"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for relative PUBLIC_BASE_URL")
	}
	c.Twilio.PublicBaseURL = "https://example.ngrok.io"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
