package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Principal resolution policies accepted in AUTH_PRINCIPAL_POLICY.
const (
	PrincipalPolicyRefetch    = "refetch"
	PrincipalPolicyTrustToken = "trust_token"
)

const devSigningSecret = "dev-secret"

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	AdminPort             string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
}

// SigningSecret is the process-wide HMAC key for access tokens. It is read
// once at startup and never mutated.
type SigningSecret struct {
	key []byte
}

// NewSigningSecret copies raw into an immutable secret.
func NewSigningSecret(raw string) SigningSecret {
	return SigningSecret{key: []byte(raw)}
}

// Bytes returns a copy of the key material.
func (s SigningSecret) Bytes() []byte {
	out := make([]byte, len(s.key))
	copy(out, s.key)
	return out
}

// Empty reports whether no key material was configured.
func (s SigningSecret) Empty() bool {
	return len(s.key) == 0
}

// String redacts the secret so it never leaks through logs or fmt.
func (s SigningSecret) String() string {
	return "[REDACTED]"
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	SigningSecret      SigningSecret
	TokenTTLMinutes    int
	BcryptCost         int
	PrincipalPolicy    string
	LoginMaxAttempts   int
	LoginWindowSeconds int
	PublicRPS          float64
	PublicBurst        int
}

// TokenTTL returns the access token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	if a.TokenTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

// LoginWindow returns the sign-in throttling window.
func (a AuthConfig) LoginWindow() time.Duration {
	if a.LoginWindowSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(a.LoginWindowSeconds) * time.Second
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "reservation-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			AdminPort:             getEnv("APP_ADMIN_PORT", "8081"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
		Auth: AuthConfig{
			SigningSecret:      NewSigningSecret(os.Getenv("AUTH_JWT_SECRET")),
			TokenTTLMinutes:    getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:         getEnvAsInt("AUTH_BCRYPT_COST", 12),
			PrincipalPolicy:    strings.ToLower(getEnv("AUTH_PRINCIPAL_POLICY", PrincipalPolicyRefetch)),
			LoginMaxAttempts:   getEnvAsInt("AUTH_LOGIN_MAX_ATTEMPTS", 10),
			LoginWindowSeconds: getEnvAsInt("AUTH_LOGIN_WINDOW_SECONDS", 300),
			PublicRPS:          getEnvAsFloat("AUTH_PUBLIC_RPS", 5),
			PublicBurst:        getEnvAsInt("AUTH_PUBLIC_BURST", 10),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.SigningSecret.Empty() {
		if c.App.Env != "development" {
			return errors.New("AUTH_JWT_SECRET is required outside development")
		}
		c.Auth.SigningSecret = NewSigningSecret(devSigningSecret)
	}
	switch c.Auth.PrincipalPolicy {
	case PrincipalPolicyRefetch, PrincipalPolicyTrustToken:
	default:
		return fmt.Errorf("invalid AUTH_PRINCIPAL_POLICY %q", c.Auth.PrincipalPolicy)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// AdminAddr returns the bind address of the health and metrics listener.
func (a AppConfig) AdminAddr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.AdminPort)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
