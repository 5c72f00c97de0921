package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                    string
	Env                     string
	APIPrefix               string
	DBDriver                string
	DatabaseURL             string
	JWTSecret               string
	JWTIssuer               string
	JWTAudience             string
	UploadDir               string
	UploadURLPrefix         string
	UploadMaxBytes          int64
	MongoURI                string
	MongoDatabase           string
	RedisURL                string
	AuthRateLimit           int
	FirebaseCredentialsPath string
	CORSOrigins             []string
}

// Load reads the environment (and a .env file when present) into a Config.
// JWT_SECRET has no default: the service refuses to start without one.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		APIPrefix:               getEnv("API_PREFIX", "/api"),
		DBDriver:                getEnv("DB_DRIVER", "postgres"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		JWTIssuer:               getEnv("JWT_ISSUER", "bsg-marketplace"),
		JWTAudience:             getEnv("JWT_AUDIENCE", "bsg-users"),
		UploadDir:               getEnv("UPLOAD_DIR", "./uploads"),
		UploadURLPrefix:         getEnv("UPLOAD_URL_PREFIX", "/uploads"),
		UploadMaxBytes:          int64(getEnvInt("UPLOAD_MAX_BYTES", 5*1024*1024)),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "marketplace"),
		RedisURL:                getEnv("REDIS_URL", ""),
		AuthRateLimit:           getEnvInt("AUTH_RATE_LIMIT", 20),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		CORSOrigins:             splitList(getEnv("CORS_ORIGINS", "*")),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	switch cfg.DBDriver {
	case "postgres", "mysql":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Ignoring invalid %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
