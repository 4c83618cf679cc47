package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Proxy     ProxyConfig
	Discord   DiscordConfig
	Extractor ExtractorConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig is optional; an empty URL disables the in-flight URL lock.
type RedisConfig struct {
	URL     string
	LockTTL time.Duration
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// ProxyConfig points at the scraping proxy that renders job pages.
type ProxyConfig struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
}

type DiscordConfig struct {
	DefaultWebhook string
	RateLimitMs    int
}

type ExtractorConfig struct {
	CatalogPath    string
	ExtractTimeout time.Duration
	ImportDelayMs  int
	RetentionDays  int // execution history and url cache
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:  time.Duration(getEnvAsInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvAsInt("SERVER_WRITE_TIMEOUT", 120)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "requill"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			URL:     getEnv("REDIS_URL", ""),
			LockTTL: time.Duration(getEnvAsInt("REDIS_LOCK_TTL_SECONDS", 120)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me-in-production-please"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 72),
		},
		Proxy: ProxyConfig{
			APIKey:         getEnv("SCRAPING_PROXY_API_KEY", ""),
			BaseURL:        getEnv("SCRAPING_PROXY_URL", "https://app.scrapingbee.com/api/v1/"),
			RequestTimeout: time.Duration(getEnvAsInt("SCRAPING_PROXY_TIMEOUT", 60)) * time.Second,
		},
		Discord: DiscordConfig{
			DefaultWebhook: getEnv("DISCORD_DEFAULT_WEBHOOK", ""),
			RateLimitMs:    getEnvAsInt("DISCORD_RATE_LIMIT_MS", 1000),
		},
		Extractor: ExtractorConfig{
			CatalogPath:    getEnv("CATALOG_PATH", ""),
			ExtractTimeout: time.Duration(getEnvAsInt("EXTRACT_TIMEOUT", 90)) * time.Second,
			ImportDelayMs:  getEnvAsInt("IMPORT_DELAY_MS", 2000),
			RetentionDays:  getEnvAsInt("HISTORY_RETENTION_DAYS", 30),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Database +
		" sslmode=" + c.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
