package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string
	LogLevel string

	StoreBackend string
	DataFile     string
	DatabaseURL  string
	MongoURI     string
	MongoDB      string

	GeminiAPIKey       string
	TranscriptionModel string
	TranscribeTimeout  time.Duration
	StagingDir         string

	JWTSecret          string
	CORSAllowedOrigins []string
	MaxUploadBytes     int64
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = FromEnv()
}

// FromEnv reads the configuration from the process environment without touching
// AppConfig.
func FromEnv() Config {
	return Config{
		HTTPPort: getEnv("HTTP_PORT", "8000"),
		LogLevel: getEnv("LOG_LEVEL", "INFO"),

		StoreBackend: getEnv("STORE_BACKEND", "file"),
		DataFile:     getEnv("DATA_FILE", "data/feedback.json"),
		DatabaseURL:  getEnv("DATABASE_URL", "civicpulse.db"),
		MongoURI:     getEnv("MONGODB_URI", ""),
		MongoDB:      getEnv("DB_NAME", "civicpulse"),

		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		TranscriptionModel: getEnv("TRANSCRIPTION_MODEL", "gemini-1.5-flash-latest"),
		TranscribeTimeout:  getEnvAsDuration("TRANSCRIBE_TIMEOUT", 120*time.Second),
		StagingDir:         getEnv("STAGING_DIR", os.TempDir()),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		MaxUploadBytes:     int64(getEnvAsInt("MAX_UPLOAD_BYTES", 25<<20)),
	}
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case "file":
		if c.DataFile == "" {
			return fmt.Errorf("DATA_FILE is required for the file store backend")
		}
	case "sqlite":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the sqlite store backend")
		}
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required for the mongo store backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want file, sqlite or mongo)", c.StoreBackend)
	}

	if c.TranscribeTimeout <= 0 {
		return fmt.Errorf("TRANSCRIBE_TIMEOUT must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func (c Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "DEBUG")
}

// Debugf logs only when LOG_LEVEL is DEBUG.
func Debugf(format string, args ...any) {
	if AppConfig.Debug() {
		log.Output(2, fmt.Sprintf("DEBUG "+format, args...))
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
