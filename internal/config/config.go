package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string
	Debug      bool
	LogLevel   string

	// PublicBaseURL is the externally reachable origin of this server. Upload
	// links handed to clients are built on it.
	PublicBaseURL string

	// Remote video API
	APIBaseURL      string
	DefaultUserID   string
	UpstreamTimeout time.Duration

	// Browser-facing values
	AllowedOrigins []string
	PlayerOrigin   string
	FacebookAppID  string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr string
	CacheTTL  time.Duration

	// MinIO/S3 configuration
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	PresignExpiry  time.Duration

	S3Endpoint string
	S3Region   string

	MaxUploadMB int64
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() *Config {
	debug, _ := strconv.ParseBool(getEnvOrDefault("DEBUG", "false"))
	minioUseSSL, _ := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", "false"))

	logLevel := getEnvOrDefault("LOG_LEVEL", "info")
	if debug {
		logLevel = "debug"
	}

	cfg := &Config{
		ServerAddr:      getEnvOrDefault("SERVER_ADDR", ":8080"),
		PublicBaseURL:   strings.TrimRight(getEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		Debug:           debug,
		LogLevel:        logLevel,
		APIBaseURL:      strings.TrimRight(getEnvOrDefault("API_BASE_URL", "https://take-home-assessment-423502.uc.r.appspot.com/api"), "/"),
		DefaultUserID:   getEnvOrDefault("DEFAULT_USER_ID", "mehyar_alkhouri"),
		UpstreamTimeout: getEnvAsDurationOrDefault("UPSTREAM_TIMEOUT", 15*time.Second),
		AllowedOrigins:  splitList(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000")),
		PlayerOrigin:    getEnvOrDefault("PLAYER_ORIGIN", "http://localhost:3000"),
		FacebookAppID:   getEnvOrDefault("FACEBOOK_APP_ID", ""),
		DBHost:          getEnvOrDefault("DB_HOST", "localhost"),
		DBPort:          getEnvOrDefault("DB_PORT", "5432"),
		DBUser:          getEnvOrDefault("DB_USER", "videohub"),
		DBPassword:      getEnvOrDefault("DB_PASSWORD", "videohub_dev_password"),
		DBName:          getEnvOrDefault("DB_NAME", "videohub"),
		RedisAddr:       getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		CacheTTL:        getEnvAsDurationOrDefault("CACHE_TTL", time.Minute),
		MinioEndpoint:   getEnvOrDefault("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:  getEnvOrDefault("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey:  getEnvOrDefault("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:     getEnvOrDefault("MINIO_BUCKET", "video-files"),
		MinioUseSSL:     minioUseSSL,
		PresignExpiry:   getEnvAsDurationOrDefault("PRESIGN_EXPIRY", 15*time.Minute),
		S3Endpoint:      getEnvOrDefault("S3_ENDPOINT", ""),
		S3Region:        getEnvOrDefault("S3_REGION", "us-east-1"),
		MaxUploadMB:     getEnvAsInt64OrDefault("MAX_UPLOAD_MB", 200),
	}

	if cfg.S3Endpoint == "" {
		scheme := "http://"
		if cfg.MinioUseSSL {
			scheme = "https://"
		}
		cfg.S3Endpoint = scheme + cfg.MinioEndpoint
	}

	return cfg
}

// PlayerHostname is the host part of PlayerOrigin, used where embedded
// players need the embedding page's hostname.
func (c *Config) PlayerHostname() string {
	host := c.PlayerOrigin
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, ":/"); i >= 0 {
		host = host[:i]
	}
	return host
}

// MaxUploadBytes returns the upload limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	value, err := strconv.ParseInt(getEnvOrDefault(key, ""), 10, 64)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnvOrDefault(key, ""))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
