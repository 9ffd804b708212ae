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

// Config holds all configuration for the application
type Config struct {
	Environment string

	Log struct {
		Level  string
		Format string
	}

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string

		MaxOpenConns    int
		MaxIdleConns    int
		ConnMaxLifetime time.Duration
		ConnectRetries  int
	}

	Storage struct {
		Backend  string
		MongoURI string
		MongoDB  string
	}

	Server struct {
		Port            string
		GinMode         string
		RequestTimeout  time.Duration
		ShutdownTimeout time.Duration
		// TrustedProxies lists proxy IPs or CIDRs whose forwarding headers
		// are believed. Empty trusts none.
		TrustedProxies string
	}

	Auth struct {
		JWTSecret     string
		JWTPublicKeys map[string]string
		JWTIssuer     string
		JWTAudience   string
		// OpenSelfServiceRoles lets any user switch themselves to organizer
		OpenSelfServiceRoles bool
	}

	Blob struct {
		Backend        string
		MinioEndpoint  string
		MinioAccessKey string
		MinioSecretKey string
		MinioBucket    string
		MinioUseSSL    bool
	}

	Upload struct {
		MaxAudioSize int64
		MaxFileSize  int64
	}

	CORS struct {
		AllowOrigins string
		AllowMethods string
		AllowHeaders string
	}

	RateLimit struct {
		JoinPerMinute int
		Burst         int
	}
}

// Load loads configuration from environment variables
func Load() *Config {
	_ = godotenv.Load()

	config := &Config{}

	config.Environment = getEnv("ENVIRONMENT", "development")
	config.Log.Level = getEnv("LOG_LEVEL", "info")
	config.Log.Format = getEnv("LOG_FORMAT", "text")

	config.DB.Host = getEnv("DB_HOST", "localhost")
	config.DB.Port = getEnv("DB_PORT", "5432")
	config.DB.User = getEnv("DB_USER", "eventhub")
	config.DB.Password = getEnv("DB_PASSWORD", "eventhub_password")
	config.DB.Name = getEnv("DB_NAME", "eventhub_db")
	config.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	config.DB.MaxOpenConns = int(getEnvAsInt64("DB_MAX_OPEN_CONNS", 25))
	config.DB.MaxIdleConns = int(getEnvAsInt64("DB_MAX_IDLE_CONNS", 10))
	config.DB.ConnMaxLifetime = getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour)
	config.DB.ConnectRetries = int(getEnvAsInt64("DB_CONNECT_RETRIES", 3))

	config.Storage.Backend = strings.ToLower(getEnv("STORAGE_BACKEND", "postgres"))
	config.Storage.MongoURI = getEnv("MONGO_URI", "mongodb://localhost:27017")
	config.Storage.MongoDB = getEnv("MONGO_DB", "eventhub")

	config.Server.Port = getEnv("PORT", "8080")
	config.Server.GinMode = getEnv("GIN_MODE", "debug")
	config.Server.RequestTimeout = getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second)
	config.Server.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second)
	config.Server.TrustedProxies = getEnv("TRUSTED_PROXIES", "")

	config.Auth.JWTSecret = getEnv("AUTH_JWT_SECRET", "")
	config.Auth.JWTPublicKeys = parseKeyList(getEnv("AUTH_JWT_PUBLIC_KEYS", ""))
	config.Auth.JWTIssuer = getEnv("AUTH_JWT_ISSUER", "")
	config.Auth.JWTAudience = getEnv("AUTH_JWT_AUDIENCE", "")
	config.Auth.OpenSelfServiceRoles = getEnvAsBool("OPEN_SELF_SERVICE_ROLES", true)

	config.Blob.Backend = strings.ToLower(getEnv("BLOB_BACKEND", "minio"))
	config.Blob.MinioEndpoint = getEnv("MINIO_ENDPOINT", "localhost:9000")
	config.Blob.MinioAccessKey = getEnv("MINIO_ACCESS_KEY", "")
	config.Blob.MinioSecretKey = getEnv("MINIO_SECRET_KEY", "")
	config.Blob.MinioBucket = getEnv("MINIO_BUCKET", "eventhub-media")
	config.Blob.MinioUseSSL = getEnvAsBool("MINIO_USE_SSL", false)

	config.Upload.MaxAudioSize = getEnvAsInt64("UPLOAD_MAX_AUDIO_SIZE", 10485760)
	config.Upload.MaxFileSize = getEnvAsInt64("UPLOAD_MAX_FILE_SIZE", 10485760)

	config.CORS.AllowOrigins = getEnv("CORS_ALLOW_ORIGINS", "*")
	config.CORS.AllowMethods = getEnv("CORS_ALLOW_METHODS", "GET,POST,PUT,PATCH,DELETE,HEAD,OPTIONS")
	config.CORS.AllowHeaders = getEnv("CORS_ALLOW_HEADERS", "Origin,Content-Length,Content-Type,Authorization,X-Request-ID")

	config.RateLimit.JoinPerMinute = int(getEnvAsInt64("JOIN_RATE_PER_MINUTE", 30))
	config.RateLimit.Burst = int(getEnvAsInt64("JOIN_RATE_BURST", 10))

	return config
}

// Validate reports every misconfiguration at once
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Backend {
	case "postgres":
		if c.DB.Host == "" || c.DB.Name == "" || c.DB.User == "" {
			errs = append(errs, errors.New("DB_HOST, DB_NAME and DB_USER are required for the postgres backend"))
		}
	case "mongo":
		if c.Storage.MongoURI == "" || c.Storage.MongoDB == "" {
			errs = append(errs, errors.New("MONGO_URI and MONGO_DB are required for the mongo backend"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unsupported STORAGE_BACKEND %q", c.Storage.Backend))
	}

	switch c.Blob.Backend {
	case "minio":
		if c.Blob.MinioEndpoint == "" || c.Blob.MinioBucket == "" {
			errs = append(errs, errors.New("MINIO_ENDPOINT and MINIO_BUCKET are required for the minio blob backend"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unsupported BLOB_BACKEND %q", c.Blob.Backend))
	}

	if c.Auth.JWTSecret == "" && len(c.Auth.JWTPublicKeys) == 0 {
		errs = append(errs, errors.New("AUTH_JWT_SECRET or AUTH_JWT_PUBLIC_KEYS must be set"))
	}
	if c.Upload.MaxAudioSize <= 0 || c.Upload.MaxFileSize <= 0 {
		errs = append(errs, errors.New("upload size limits must be positive"))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.RateLimit.JoinPerMinute <= 0 {
		errs = append(errs, errors.New("JOIN_RATE_PER_MINUTE must be positive"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// GetDatabaseURL returns the database connection URL
func (c *Config) GetDatabaseURL() string {
	return "postgres://" + c.DB.User + ":" + c.DB.Password + "@" + c.DB.Host + ":" + c.DB.Port + "/" + c.DB.Name + "?sslmode=" + c.DB.SSLMode
}

// parseKeyList parses "kid1=/path/a.pem,kid2=/path/b.pem"
func parseKeyList(value string) map[string]string {
	keys := make(map[string]string)
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		kid, path, found := strings.Cut(item, "=")
		if !found {
			keys["default"] = item
			continue
		}
		keys[strings.TrimSpace(kid)] = strings.TrimSpace(path)
	}
	return keys
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 gets an environment variable as int64 or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
