package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	Server struct {
		Port          string
		GinMode       string
		Environment   string
		PublicBaseURL string
		LogLevel      string
	}

	Upload struct {
		MaxFileSize  int64
		ImageMaxSide int
		JPEGQuality  int
	}

	CORS struct {
		AllowOrigins string
		AllowMethods string
		AllowHeaders string
	}

	Auth struct {
		JWTSecret string
		Issuer    string
		TokenTTL  time.Duration
	}

	Storage struct {
		Backend       string
		Endpoint      string
		AccessKey     string
		SecretKey     string
		Bucket        string
		UseSSL        bool
		PublicBaseURL string
	}

	AI struct {
		GeminiAPIKey string
		Model        string
		BaseURL      string
		Timeout      time.Duration
	}

	Redis struct {
		Addr     string
		Password string
		LockTTL  time.Duration
	}

	Rabbit struct {
		URL      string
		Exchange string
	}
}

// Load loads configuration from environment variables
func Load() *Config {
	_ = godotenv.Load()

	config := &Config{}

	config.DB.Host = getEnv("DB_HOST", "localhost")
	config.DB.Port = getEnv("DB_PORT", "5432")
	config.DB.User = getEnv("DB_USER", "eventmaster")
	config.DB.Password = getEnv("DB_PASSWORD", "eventmaster_password")
	config.DB.Name = getEnv("DB_NAME", "eventmaster_db")
	config.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	config.Server.Port = getEnv("PORT", "8080")
	config.Server.GinMode = getEnv("GIN_MODE", "debug")
	config.Server.Environment = getEnv("ENVIRONMENT", "development")
	config.Server.PublicBaseURL = getEnv("PUBLIC_BASE_URL", "http://localhost:8080")
	config.Server.LogLevel = getEnv("LOG_LEVEL", "info")

	config.Upload.MaxFileSize = getEnvAsInt64("MAX_FILE_SIZE", 10485760)
	config.Upload.ImageMaxSide = int(getEnvAsInt64("IMAGE_MAX_SIDE", 1024))
	config.Upload.JPEGQuality = int(getEnvAsInt64("IMAGE_JPEG_QUALITY", 70))

	config.CORS.AllowOrigins = getEnv("CORS_ALLOW_ORIGINS", "*")
	config.CORS.AllowMethods = getEnv("CORS_ALLOW_METHODS", "GET,POST,PUT,PATCH,DELETE,HEAD,OPTIONS")
	config.CORS.AllowHeaders = getEnv("CORS_ALLOW_HEADERS", "Origin,Content-Length,Content-Type,Authorization")

	config.Auth.JWTSecret = getEnv("JWT_SECRET", "change-me-in-production")
	config.Auth.Issuer = getEnv("JWT_ISSUER", "eventmaster-api")
	config.Auth.TokenTTL = getEnvAsDuration("JWT_TTL", 24*time.Hour)

	config.Storage.Backend = getEnv("STORAGE_BACKEND", "postgres")
	config.Storage.Endpoint = getEnv("MINIO_ENDPOINT", "")
	config.Storage.AccessKey = getEnv("MINIO_ACCESS_KEY", "")
	config.Storage.SecretKey = getEnv("MINIO_SECRET_KEY", "")
	config.Storage.Bucket = getEnv("MINIO_BUCKET", "event-images")
	config.Storage.UseSSL = getEnvAsBool("MINIO_USE_SSL", false)
	config.Storage.PublicBaseURL = getEnv("MINIO_PUBLIC_BASE_URL", "")

	config.AI.GeminiAPIKey = getEnv("GEMINI_API_KEY", "")
	config.AI.Model = getEnv("GEMINI_MODEL", "gemini-2.5-flash")
	config.AI.BaseURL = getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	config.AI.Timeout = getEnvAsDuration("GEMINI_TIMEOUT", 10*time.Second)

	config.Redis.Addr = getEnv("REDIS_ADDR", "")
	config.Redis.Password = getEnv("REDIS_PASSWORD", "")
	config.Redis.LockTTL = getEnvAsDuration("IMPORT_LOCK_TTL", 2*time.Minute)

	config.Rabbit.URL = getEnv("RABBITMQ_URL", "")
	config.Rabbit.Exchange = getEnv("RABBITMQ_EXCHANGE", "eventmaster.checkins")

	return config
}

// GetDatabaseURL returns the database connection URL
func (c *Config) GetDatabaseURL() string {
	return "postgres://" + c.DB.User + ":" + c.DB.Password + "@" + c.DB.Host + ":" + c.DB.Port + "/" + c.DB.Name + "?sslmode=" + c.DB.SSLMode
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
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

// getEnvAsBool gets an environment variable as bool or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration gets an environment variable as time.Duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
