package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env               string
	HTTPPort          string
	BackendURL        string
	LoginPath         string
	RecordsPath       string
	ReportPath        string
	SessionIssuer     string
	SessionSigningKey string
	SessionTTL        time.Duration
	SessionStore      string
	SessionCookie     string
	RedisAddr         string
	RateLimitPerMin   int
	ExportFilename    string
}

// Load returns application config populated from environment variables with
// sensible defaults. A .env file in the working directory is honoured when
// present.
func Load() App {
	_ = godotenv.Load()

	return App{
		Env:               getEnv("APP_ENV", "dev"),
		HTTPPort:          getEnv("HTTP_PORT", "5000"),
		BackendURL:        getEnv("BACKEND_URL", "http://localhost:8000"),
		LoginPath:         getEnv("BACKEND_LOGIN_PATH", "/admin/login"),
		RecordsPath:       getEnv("BACKEND_RECORDS_PATH", "/attendance/records"),
		ReportPath:        getEnv("BACKEND_REPORT_PATH", "/attendance/report"),
		SessionIssuer:     getEnv("SESSION_ISSUER", "attendance-dashboard"),
		SessionSigningKey: getEnv("SESSION_SIGNING_KEY", "dev-signing-secret-change"),
		SessionTTL:        durationEnv("SESSION_TTL", 8*time.Hour),
		SessionStore:      getEnv("SESSION_STORE", "memory"),
		SessionCookie:     getEnv("SESSION_COOKIE", "dashboard_session"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RateLimitPerMin:   intEnv("RATE_LIMIT_PER_MIN", 120),
		ExportFilename:    getEnv("EXPORT_FILENAME", "attendance_report.csv"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
