package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds server process configuration. Display settings (sort mode,
// pairing, timings) are not here; those live in the settings store and can
// change at runtime.
type Config struct {
	// Server
	Port string
	Env  string

	// Catalog
	DatabasePath string
	PhotosDir    string
	SettingsPath string
	ReleasesDir  string
	MaxUploadMB  int64

	// Redis (optional, client presence)
	RedisURL string

	// Storage backend: "local" or "s3"
	StorageBackend string
	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3Prefix       string

	// Admin auth
	AdminPasswordHash string
	JWTSecret         string
	JWTTTL            time.Duration

	// CORS
	AllowedOrigins []string

	// Client power listener port (agents listen here for relayed commands)
	ClientPowerPort string

	// Logging
	LogLevel string
}

// Load reads configuration from the environment, with a .env file in
// development.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		DatabasePath: getEnv("DATABASE_PATH", "data/catalog.db"),
		PhotosDir:    getEnv("PHOTOS_DIR", "data/photos"),
		SettingsPath: getEnv("SETTINGS_PATH", "data/settings.json"),
		ReleasesDir:  getEnv("RELEASES_DIR", "data/releases"),
		MaxUploadMB:  int64(parseInt(getEnv("MAX_UPLOAD_MB", "50"), 50)),

		RedisURL: getEnv("REDIS_URL", ""),

		StorageBackend: getEnv("STORAGE_BACKEND", "local"),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("S3_SECRET_KEY", ""),
		S3Bucket:       getEnv("S3_BUCKET", "framelight-photos"),
		S3Prefix:       getEnv("S3_PREFIX", "photos"),

		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:         getEnv("JWT_SECRET", "super-secret-key-change-me"),
		JWTTTL:            parseDuration(getEnv("JWT_TTL", "24h")),

		AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		ClientPowerPort: getEnv("CLIENT_POWER_PORT", "5050"),

		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

func parseInt(s string, defaultValue int) int {
	value, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseStringSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if start < i {
				result = append(result, s[start:i])
			}
			start = i + 1
		}
	}
	return result
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
