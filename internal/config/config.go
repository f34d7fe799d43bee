package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds runtime settings for the API server.
type Config struct {
	Port string

	StoreDriver string // file | postgres
	DataFile    string
	DatabaseURL string

	MediaDriver string // disk | minio
	UploadDir   string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSecure    bool

	AdminUsername     string
	AdminPasswordHash string
	JWTSecret         string

	LogLevel  string
	LogFormat string
	LogOutput string
}

// Load reads a .env file when one exists and then the process
// environment. A missing .env is not an error.
func Load() (Config, bool) {
	loaded := godotenv.Load() == nil

	return Config{
		Port: getEnv("APP_PORT", "3000"),

		StoreDriver: getEnv("STORE_DRIVER", "file"),
		DataFile:    getEnv("DATA_FILE", "./data.json"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		MediaDriver: getEnv("MEDIA_DRIVER", "disk"),
		UploadDir:   getEnv("UPLOAD_DIR", "./uploads"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "deswita-uploads"),
		MinioSecure:    os.Getenv("MINIO_SECURE") == "true",

		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		JWTSecret:         os.Getenv("JWT_SECRET"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogOutput: getEnv("LOG_OUTPUT", "stdout"),
	}, loaded
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
