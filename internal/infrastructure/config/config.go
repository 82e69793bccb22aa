package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress   string
	ShutdownTimeout time.Duration
	DBPath          string

	// Auth
	JWTSecret string
	JWTExpiry time.Duration

	// AI assistant (OpenAI-compatible endpoint). An empty API key puts the
	// assistant into fallback-only mode; the rest of the system keeps working.
	AIAPIKey string
	AIURL    string
	AIModel  string

	// Email delivery. An empty API key switches to the console mailer, which
	// logs codes instead of sending them (development mode).
	EmailAPIKey string
	EmailAPIURL string
	EmailFrom   string

	// Optional admin account seeded on first run.
	AdminEmail string

	Env string // "production" or anything else
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()
	return &Config{
		ServerAddress:   getenvDefault("SERVER_ADDRESS", ":8080"),
		ShutdownTimeout: getDurationDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
		DBPath:          getenvDefault("DB_PATH", "quizlearner.db"),
		JWTSecret:       mustGetenv("JWT_SECRET"),
		JWTExpiry:       getDurationDefault("JWT_EXPIRY", 168*time.Hour),
		AIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		AIURL:           getenvDefault("OPENAI_URL", "https://api.openai.com"),
		AIModel:         getenvDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		EmailAPIKey:     os.Getenv("EMAIL_API_KEY"),
		EmailAPIURL:     getenvDefault("EMAIL_API_URL", "https://api.sendgrid.com"),
		EmailFrom:       getenvDefault("EMAIL_FROM", "noreply@quizlearner.local"),
		AdminEmail:      os.Getenv("ADMIN_EMAIL"),
		Env:             getenvDefault("APP_ENV", "development"),
	}
}

// Production reports whether the service runs in production mode, where
// degraded email delivery is an error instead of a console fallback.
func (c *Config) Production() bool {
	return c.Env == "production"
}

func mustGetenv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("config: required environment variable %s is not set", k)
	}
	return v
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func getDurationDefault(k string, fallback time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid duration: %v", k, v, err)
	}
	return d
}
