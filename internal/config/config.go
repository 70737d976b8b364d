package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hitoshi/cinelist/internal/database"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Session
	SessionMaxAge          int
	SessionCleanupInterval time.Duration

	// Rate Limit（req/min）
	RateLimitGeneral int
	RateLimitWrite   int

	// Catalog
	CatalogAPIURL      string
	CatalogAccessToken string
	CatalogTimeout     time.Duration
	CatalogRatePerSec  float64

	// Logging
	LogLevel string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.CatalogAccessToken = os.Getenv("CATALOG_ACCESS_TOKEN")
	if cfg.CatalogAccessToken == "" {
		missing = append(missing, "CATALOG_ACCESS_TOKEN")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	cfg.DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 5)
	cfg.DBConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 604800)
	cfg.SessionCleanupInterval = getEnvDuration("SESSION_CLEANUP_INTERVAL", time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitWrite = getEnvInt("RATE_LIMIT_WRITE", 30)
	cfg.CatalogAPIURL = getEnvString("CATALOG_API_URL", "https://api.themoviedb.org/3")
	cfg.CatalogTimeout = getEnvDuration("CATALOG_TIMEOUT", 10*time.Second)
	cfg.CatalogRatePerSec = getEnvFloat("CATALOG_RATE_PER_SEC", 20)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

	return cfg, nil
}

// DatabasePool はコネクションプール設定を返す。
func (c *Config) DatabasePool() database.PoolConfig {
	return database.PoolConfig{
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: c.DBConnMaxLifetime,
	}
}

// ClientConfig はbrowseサブコマンド（APIクライアント側）の設定。
type ClientConfig struct {
	APIURL   string
	APIToken string
	Timeout  time.Duration
}

// LoadClient はクライアント用の設定を環境変数から読み込む。
// サーバー用の必須変数は要求しない。
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{
		APIURL:   getEnvString("API_URL", "http://localhost:8080"),
		APIToken: os.Getenv("API_TOKEN"),
		Timeout:  getEnvDuration("API_TIMEOUT", 15*time.Second),
	}
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("required environment variables are not set: [API_TOKEN]")
	}
	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
