package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Client is what cmd/revise needs.
type Client struct {
	APIURL      string
	HTTPTimeout time.Duration

	StoreDriver string // sqlite|postgres|file
	StoreDSN    string
	StoreDir    string // for file
	StoreKey    string // sealing key: 64 hex chars or a passphrase

	LogLevel string
	LogFile  string
}

// DevAPI is what cmd/devapi needs.
type DevAPI struct {
	HTTPAddr string

	DBDriver string // sqlite|postgres
	DBDSN    string

	AuthSecret string
	TokenTTL   time.Duration
	OTPTTL     time.Duration

	AIDailyLimit int
	MaxResets    int

	CORSOrigins []string

	LogLevel string
}

// LoadDotEnv loads .env files if present. Variables already set in the
// environment win.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
}

func ClientFromEnv() Client {
	return Client{
		APIURL:      strings.TrimSuffix(envOr("API_URL", "http://localhost:8000/api/v1"), "/"),
		HTTPTimeout: envDuration("HTTP_TIMEOUT", 15*time.Second),
		StoreDriver: envOr("STORE_DRIVER", "sqlite"),
		StoreDSN:    envOr("STORE_DSN", ""),
		StoreDir:    envOr("STORE_DIR", "./.revise"),
		StoreKey:    envOr("STORE_KEY", "revise-dev-store-key"),
		LogLevel:    envOr("LOG_LEVEL", "info"),
		LogFile:     envOr("LOG_FILE", "revise.log"),
	}
}

func DevAPIFromEnv() DevAPI {
	return DevAPI{
		HTTPAddr:     envOr("HTTP_ADDR", ":8000"),
		DBDriver:     envOr("DB_DRIVER", "sqlite"),
		DBDSN:        envOr("DB_DSN", ""),
		AuthSecret:   envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		TokenTTL:     envDuration("TOKEN_TTL", 7*24*time.Hour),
		OTPTTL:       envDuration("OTP_TTL", 10*time.Minute),
		AIDailyLimit: envInt("AI_DAILY_LIMIT", 5),
		MaxResets:    envInt("MAX_RESETS", 2),
		CORSOrigins:  csvOr("CORS_ORIGINS", "http://localhost:8081,http://localhost:19006"),
		LogLevel:     envOr("LOG_LEVEL", "info"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return n
}

func envDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
