package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration values for the application.
type Config struct {
	Environment string
	ListenPort  string
	DatabaseURL string
	SecretKey   string
	// SessionLifetime bounds the validity of the session cookie.
	SessionLifetime time.Duration
	RedisURL        string
	ViaCEPURL       string
	CORSOrigins     []string
	LogLevel        string
	LogFormat       string

	Client ClientConfig
}

// ClientConfig configures the reception terminal client.
type ClientConfig struct {
	APIURL         string
	StateDir       string
	SearchDebounce time.Duration
	LoginRedirect  time.Duration
}

// LoadConfig loads configuration from environment variables or uses default values.
// A .env file in the working directory is read first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "development")

	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		secret = "dev-key-change-in-production"
	}

	return &Config{
		Environment:     env,
		ListenPort:      getEnv("LISTEN_PORT", "8080"),
		DatabaseURL:     normalizeDatabaseURL(getEnv("DATABASE_URL", "hospital.db")),
		SecretKey:       secret,
		SessionLifetime: time.Duration(getEnvInt("SESSION_LIFETIME_MINUTES", 30)) * time.Minute,
		RedisURL:        os.Getenv("REDIS_URL"),
		ViaCEPURL:       getEnv("VIACEP_URL", "https://viacep.com.br"),
		CORSOrigins:     getEnvSlice("CORS_ORIGINS", []string{"*"}),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", defaultLogFormat(env)),
		Client: ClientConfig{
			APIURL:         getEnv("HOSPITAL_API_URL", "http://localhost:8080"),
			StateDir:       getEnv("RECEPTION_STATE_DIR", defaultStateDir()),
			SearchDebounce: time.Duration(getEnvInt("SEARCH_DEBOUNCE_MS", 300)) * time.Millisecond,
			LoginRedirect:  time.Duration(getEnvInt("LOGIN_REDIRECT_MS", 3000)) * time.Millisecond,
		},
	}, nil
}

// IsPostgres reports whether DatabaseURL points at a PostgreSQL server.
func (c *Config) IsPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgresql://") || strings.HasPrefix(c.DatabaseURL, "postgres://")
}

// normalizeDatabaseURL accepts the sqlite:/// and postgres:// spellings used by the
// primary system's configuration.
func normalizeDatabaseURL(url string) string {
	if strings.HasPrefix(url, "postgres://") {
		return "postgresql://" + strings.TrimPrefix(url, "postgres://")
	}
	return strings.TrimPrefix(url, "sqlite:///")
}

func defaultLogFormat(env string) string {
	if env == "production" {
		return "json"
	}
	return "console"
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/hospital-reception"
	}
	return ".reception"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvSlice(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
