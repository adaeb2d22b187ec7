package config

import (
	"os"
)

// Config holds application configuration
type Config struct {
	APIBaseURL string

	// Local store backend: sqlite (default), postgres, or mysql.
	StorageType string
	StoragePath string
	StorageURL  string

	// DeviceSecret seals the bearer credential at rest.
	DeviceSecret string

	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string

	// Backup sync target. Empty bucket disables S3 sync.
	S3Bucket   string
	S3Region   string
	S3Endpoint string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		APIBaseURL:         getEnv("API_BASE_URL", "http://localhost:8080/api"),
		StorageType:        getEnv("STORAGE_TYPE", "sqlite"),
		StoragePath:        getEnv("STORAGE_PATH", "./brewcart.db"),
		StorageURL:         getEnv("STORAGE_URL", ""),
		DeviceSecret:       getEnv("DEVICE_SECRET", "brewcart-dev-secret"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectURL:   getEnv("OAUTH_REDIRECT_URL", "http://localhost:8181/auth/google/callback"),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Region:           getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
