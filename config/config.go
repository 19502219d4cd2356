package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Tenant   TenantConfig
	Auth     AuthConfig
	PII      PIIConfig
	AWS      AWSConfig
	Worker   WorkerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/fooder?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// TenantConfig identifies the tenant partition every request operates in.
type TenantConfig struct {
	ID string
}

// Auth modes.
const (
	AuthModeCognito = "cognito"
	AuthModeHMAC    = "hmac"
)

// AuthConfig selects how bearer tokens are verified.
type AuthConfig struct {
	Mode              string // "cognito" (RS256 via JWKS) or "hmac" (shared secret, local development)
	CognitoRegion     string
	CognitoUserPoolID string
	CognitoClientID   string // optional audience / client_id check
	HMACSecret        string
	HookSecret        string // shared secret for POST /hooks/identity/confirmed
}

// PIIConfig holds field-level encryption settings.
type PIIConfig struct {
	KeyARN           string // KMS key used for Seal; when empty the local key is used
	LocalKeyHex      string // 32-byte hex key for development sealing
	AdminEmailHashes string // comma-separated email fingerprints that provision as admin
}

// AWSConfig holds AWS credentials and S3 bucket names.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	MenuImagesBucket     string
	PresignExpireMinutes int
}

// WorkerConfig controls the provisioning worker embedded in the API server.
type WorkerConfig struct {
	InProcess bool
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// JWKSURL returns the Cognito user pool key set location.
func (c AuthConfig) JWKSURL() string {
	return c.Issuer() + "/.well-known/jwks.json"
}

// Issuer returns the Cognito user pool issuer (iss claim).
func (c AuthConfig) Issuer() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", c.CognitoRegion, c.CognitoUserPoolID)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "fooder"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
			MinConns: getEnvInt("DB_MIN_CONNS", 0),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 0),
		},
		Tenant: TenantConfig{
			ID: getEnv("TENANT_ID", "DEFAULT"),
		},
		Auth: AuthConfig{
			Mode:              strings.ToLower(getEnv("AUTH_MODE", AuthModeCognito)),
			CognitoRegion:     getEnv("COGNITO_REGION", getEnv("AWS_REGION", "us-east-1")),
			CognitoUserPoolID: getEnv("COGNITO_USER_POOL_ID", ""),
			CognitoClientID:   getEnv("COGNITO_APP_CLIENT_ID", ""),
			HMACSecret:        getEnv("AUTH_HMAC_SECRET", ""),
			HookSecret:        getEnv("IDENTITY_HOOK_SECRET", ""),
		},
		PII: PIIConfig{
			KeyARN:           getEnv("PII_KEY_ARN", ""),
			LocalKeyHex:      getEnv("PII_LOCAL_KEY", ""),
			AdminEmailHashes: getEnv("ADMIN_EMAIL_HASHES", ""),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			MenuImagesBucket:     getEnv("AWS_S3_MENU_IMAGES_BUCKET", ""),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Worker: WorkerConfig{
			InProcess: getEnvBool("PROVISIONING_WORKER_IN_PROCESS", true),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Tenant.ID) == "" {
		return fmt.Errorf("config: TENANT_ID must not be empty")
	}
	switch c.Auth.Mode {
	case AuthModeCognito:
		if c.Auth.CognitoUserPoolID == "" {
			return fmt.Errorf("config: COGNITO_USER_POOL_ID is required when AUTH_MODE=cognito")
		}
	case AuthModeHMAC:
		if c.Auth.HMACSecret == "" {
			return fmt.Errorf("config: AUTH_HMAC_SECRET is required when AUTH_MODE=hmac")
		}
	default:
		return fmt.Errorf("config: AUTH_MODE must be %q or %q, got %q", AuthModeCognito, AuthModeHMAC, c.Auth.Mode)
	}
	if c.PII.KeyARN == "" && c.PII.LocalKeyHex == "" {
		return fmt.Errorf("config: one of PII_KEY_ARN or PII_LOCAL_KEY must be set")
	}
	return nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
