package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/IdentityGo/pkg/config"
)

// devEncryptionKey is the default AES-256 key used only in development.
const devEncryptionKey = "0123456789abcdef0123456789abcdef"

// devJWTSecret is the default signing secret used only in development.
const devJWTSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the identity service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"IDENTITY_HTTP_PORT" envDefault:"8007"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"identity"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"identity_secret"`
	PostgresDB   string `env:"IDENTITY_DB_NAME" envDefault:"identity_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Tokens
	JWTSecret       string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTAccessExpiry time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	RefreshExpiry   time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"168h"`

	// Field encryption. AUTH_ENC_KEY wins; ENCRYPTION_KEY is a legacy alias.
	AuthEncKey    string `env:"AUTH_ENC_KEY"`
	EncryptionKey string `env:"ENCRYPTION_KEY"`

	// PIIStrictDecrypt makes profile reads fail on undecryptable fields
	// instead of degrading them to empty.
	PIIStrictDecrypt bool `env:"PII_STRICT_DECRYPT" envDefault:"false"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Tracing
	TracingEnabled  bool    `env:"OTEL_TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TraceSampleRate float64 `env:"OTEL_TRACE_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load identity config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}

	if cfg.AuthEncKey == "" {
		cfg.AuthEncKey = cfg.EncryptionKey
	}
	if cfg.AuthEncKey == "" {
		if cfg.Environment != "development" {
			return nil, fmt.Errorf("AUTH_ENC_KEY must be explicitly set in %q mode", cfg.Environment)
		}
		cfg.AuthEncKey = devEncryptionKey
	}
	switch len(cfg.AuthEncKey) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("AUTH_ENC_KEY must be 16, 24 or 32 bytes, got %d", len(cfg.AuthEncKey))
	}

	// In non-development environments, require an explicitly set, strong JWT secret.
	if cfg.Environment != "development" {
		if cfg.JWTSecret == devJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", cfg.Environment)
		}
		if len(cfg.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(cfg.JWTSecret))
		}
	}

	return cfg, nil
}

// EncryptionKeyBytes returns the raw AES key for field encryption.
func (c *Config) EncryptionKeyBytes() []byte {
	return []byte(c.AuthEncKey)
}
