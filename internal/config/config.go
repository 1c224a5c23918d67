package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"amd-webhook/internal/profile"
)

// Config holds all configuration required by the API process.
// All values come from env (optionally seeded from a .env file by main).
// Every key has a default so a bare start serves the demo profile.
type Config struct {
	App       AppConfig
	Twilio    TwilioConfig
	Journal   JournalConfig
	CallState CallStateConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
}

type AppConfig struct {
	Env     string
	Host    string
	Port    int
	Profile string

	// LogFormat is json or text.
	LogFormat string

	// PromptsFile optionally overrides the spoken messages (YAML).
	PromptsFile string
}

type TwilioConfig struct {
	// AuthToken enables X-Twilio-Signature validation when set.
	AuthToken string

	// PublicBaseURL is the externally visible base URL (for example a tunnel URL).
	// Signatures are computed over it instead of the request's Host.
	PublicBaseURL string
}

// Storage backends for the journal and call state.
const (
	BackendNone     = "none"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type JournalConfig struct {
	Backend     string
	MemoryLimit int
}

type CallStateConfig struct {
	Backend string
	TTL     time.Duration
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string

	// Pool sizing; zero keeps the pool defaults.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error
	intVar := func(key string, def int) int {
		n, err := intOr(key, def)
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		return n
	}
	durationVar := func(key string, def time.Duration) time.Duration {
		d, err := durationOr(key, def)
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		return d
	}

	c.App.Env = envOr("APP_ENV", "local")
	c.App.Host = envOr("APP_HOST", "0.0.0.0")
	c.App.Port = intVar("APP_PORT", 5000)
	c.App.Profile = strings.ToLower(envOr("APP_PROFILE", string(profile.Demo)))
	c.App.LogFormat = strings.ToLower(envOr("LOG_FORMAT", "json"))
	c.App.PromptsFile = strings.TrimSpace(os.Getenv("PROMPTS_FILE"))

	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.PublicBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/")

	c.Journal.Backend = strings.ToLower(envOr("JOURNAL_BACKEND", BackendNone))
	c.Journal.MemoryLimit = intVar("JOURNAL_MEMORY_LIMIT", 1000)

	c.CallState.Backend = strings.ToLower(envOr("CALL_STATE_BACKEND", BackendNone))
	c.CallState.TTL = durationVar("CALL_STATE_TTL", 24*time.Hour)

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	c.DB.Port = intVar("DB_PORT", 5432)
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))
	c.DB.MaxOpenConns = intVar("DB_MAX_OPEN_CONNS", 0)
	c.DB.MaxIdleConns = intVar("DB_MAX_IDLE_CONNS", 0)
	c.DB.ConnMaxLifetime = durationVar("DB_CONN_MAX_LIFETIME", 0)
	c.DB.ConnMaxIdleTime = durationVar("DB_CONN_MAX_IDLE_TIME", 0)

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	c.Redis.Port = intVar("REDIS_PORT", 6379)

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Zero means "use the default"; see ApplyDefaults.
	c.Auth.AccessTokenTTL = durationVar("JWT_ACCESS_TTL", 0)

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ApplyDefaults fills env-dependent defaults. Production values must be explicit.
func (c *Config) ApplyDefaults() {
	if c.DB.SSLMode == "" && !c.IsProduction() {
		c.DB.SSLMode = "disable"
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = time.Hour
	}
}

func (c Config) Validate() error {
	var errs []error

	if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Host == "" {
		errs = append(errs, errors.New("APP_HOST is required"))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if _, err := profile.Lookup(c.App.Profile); err != nil {
		errs = append(errs, fmt.Errorf("APP_PROFILE must be demo or silent, got %q", c.App.Profile))
	}
	if c.App.LogFormat != "json" && c.App.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.App.LogFormat))
	}

	if c.Twilio.PublicBaseURL != "" {
		u, err := url.Parse(c.Twilio.PublicBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("PUBLIC_BASE_URL must be an absolute URL, got %q", c.Twilio.PublicBaseURL))
		}
	}

	switch c.Journal.Backend {
	case BackendNone:
	case BackendMemory:
		if c.Journal.MemoryLimit <= 0 {
			errs = append(errs, fmt.Errorf("JOURNAL_MEMORY_LIMIT must be > 0, got %d", c.Journal.MemoryLimit))
		}
	case BackendPostgres:
		errs = append(errs, c.validateDB()...)
	default:
		errs = append(errs, fmt.Errorf("JOURNAL_BACKEND must be one of none, memory, postgres, got %q", c.Journal.Backend))
	}

	switch c.CallState.Backend {
	case BackendNone, BackendMemory:
	case BackendRedis:
		if c.Redis.Host == "" {
			errs = append(errs, errors.New("REDIS_HOST is required"))
		}
		if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
		}
	default:
		errs = append(errs, fmt.Errorf("CALL_STATE_BACKEND must be one of none, memory, redis, got %q", c.CallState.Backend))
	}
	if c.CallState.TTL <= 0 {
		errs = append(errs, fmt.Errorf("CALL_STATE_TTL must be > 0, got %s", c.CallState.TTL))
	}

	if c.OperatorAPIEnabled() {
		if c.Auth.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required when a journal or call-state backend is enabled"))
		}
		if c.IsProduction() {
			if c.Auth.JWTIssuer == "" {
				errs = append(errs, errors.New("JWT_ISSUER is required in production"))
			}
			if c.Auth.JWTAudience == "" {
				errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
			}
		}
	}

	return joinErrors(errs)
}

func (c Config) validateDB() []error {
	var errs []error
	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.DB.SSLMode == "" {
		errs = append(errs, errors.New("DB_SSLMODE is required in production"))
	} else if !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}
	if c.DB.MaxOpenConns < 0 || c.DB.MaxIdleConns < 0 {
		errs = append(errs, errors.New("DB_MAX_OPEN_CONNS and DB_MAX_IDLE_CONNS must not be negative"))
	}
	if c.DB.ConnMaxLifetime < 0 || c.DB.ConnMaxIdleTime < 0 {
		errs = append(errs, errors.New("DB_CONN_MAX_LIFETIME and DB_CONN_MAX_IDLE_TIME must not be negative"))
	}
	return errs
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

// OperatorAPIEnabled reports whether there is stored state worth serving on /v1.
func (c Config) OperatorAPIEnabled() bool {
	return c.Journal.Backend != BackendNone || c.CallState.Backend != BackendNone
}

func (c Config) HTTPAddr() string {
	return net.JoinHostPort(c.App.Host, strconv.Itoa(c.App.Port))
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return net.JoinHostPort(c.Redis.Host, strconv.Itoa(c.Redis.Port))
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intOr(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration, got %q", key, v)
	}
	return d, nil
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
