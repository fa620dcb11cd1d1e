package cfg

import (
	"time"

	"github.com/joho/godotenv"
)

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// StorageBackend selects where the session and cached profile persist.
type StorageBackend string

const (
	StorageFile   StorageBackend = "file"
	StorageRedis  StorageBackend = "redis"
	StorageMemory StorageBackend = "memory"
)

type StorageConfig struct {
	Backend       StorageBackend
	Dir           string
	RedisAddr     string
	RedisPassword string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type PollingConfig struct {
	Interval time.Duration
}

type Config struct {
	AppEnv  string
	API     APIConfig
	Storage StorageConfig
	Google  GoogleConfig
	Polling PollingConfig
}

// Load reads configuration from the environment, with a .env file honored
// for local development. Google settings are optional; the OAuth flow is
// disabled when they are absent.
func Load() (*Config, error) {
	_ = godotenv.Load() // ignore if .env missing (local only)

	l := NewLoader()

	config := &Config{
		AppEnv: l.getEnvWithDefault("APP_ENV", "development"),
		API: APIConfig{
			BaseURL: l.requireEnv("API_BASE_URL"),
			Timeout: l.getEnvDurationWithDefault("API_TIMEOUT", 10*time.Second),
		},
		Storage: StorageConfig{
			Backend:       StorageBackend(l.getEnvWithDefault("STORAGE_BACKEND", string(StorageFile))),
			Dir:           l.getEnvWithDefault("STORAGE_DIR", ".medcare"),
			RedisAddr:     l.getEnvWithDefault("REDIS_ADDR", "localhost:6379"),
			RedisPassword: l.getEnvWithDefault("REDIS_PASSWORD", ""),
		},
		Google: GoogleConfig{
			ClientID:     l.getEnvWithDefault("GOOGLE_CLIENT_ID", ""),
			ClientSecret: l.getEnvWithDefault("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  l.getEnvWithDefault("GOOGLE_REDIRECT_URL", "http://127.0.0.1:8913/callback"),
		},
		Polling: PollingConfig{
			Interval: l.getEnvDurationWithDefault("POLL_INTERVAL", 30*time.Second),
		},
	}

	if err := l.Error(); err != nil {
		return nil, err
	}
	return config, nil
}
