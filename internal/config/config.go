package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

const defaultAppSecret = "your-secret-key-change-in-production"

// Config 应用配置
type Config struct {
	Env         string `validate:"oneof=development test production"`
	AppSecret   string `validate:"required,min=16"`
	DatabaseURL string `validate:"required"`
	AutoMigrate bool
	JWTExpiry   time.Duration `validate:"gt=0"`
	Port        string        `validate:"required,numeric"`
	SiteName    string
	SiteUrl     string `validate:"omitempty,url"`

	Identity  IdentityConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Log       LogConfig

	CountCacheTTL  time.Duration `validate:"gte=0"`
	CatalogRefresh time.Duration `validate:"gte=0"`
}

// IdentityConfig 身份服务配置
type IdentityConfig struct {
	URL      string `validate:"omitempty,url"`
	AnonKey  string
	Provider string
}

// RedisConfig Redis 配置，Addr 为空时不启用
type RedisConfig struct {
	Addr     string
	Password string
	DB       int `validate:"gte=0"`
}

// RateLimitConfig 接口限流配置
type RateLimitConfig struct {
	RPS   float64 `validate:"gte=0"`
	Burst int     `validate:"gte=0"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `validate:"omitempty,oneof=trace debug info warn error fatal disabled"`
	Format string `validate:"omitempty,oneof=json console"`
	File   string
}

// Load 加载配置
func Load() (*Config, error) {
	expiryHours, _ := strconv.Atoi(getEnv("JWT_EXPIRY_HOURS", "72"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	cacheSeconds, _ := strconv.Atoi(getEnv("COUNT_CACHE_TTL_SECONDS", "30"))
	refreshSeconds, _ := strconv.Atoi(getEnv("CATALOG_REFRESH_SECONDS", "300"))
	rps, _ := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "5"), 64)
	burst, _ := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "10"))

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbUser := getEnv("DB_USER", "postgres")
		dbPass := getEnv("DB_PASSWORD", "postgres")
		dbHost := getEnv("DB_HOST", "localhost")
		dbPort := getEnv("DB_PORT", "5432")
		dbName := getEnv("DB_NAME", "moviescroll")
		dbSSL := getEnv("DB_SSLMODE", "disable")

		dbURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)
	}

	cfg := &Config{
		Env:         getEnv("APP_ENV", "development"),
		AppSecret:   getEnv("APP_SECRET", getEnv("JWT_SECRET", defaultAppSecret)),
		DatabaseURL: dbURL,
		AutoMigrate: getEnv("DB_AUTO_MIGRATE", "false") == "true",
		JWTExpiry:   time.Duration(expiryHours) * time.Hour,
		Port:        getEnv("PORT", "5005"),
		SiteName:    getEnv("SITE_NAME", "MovieScroll"),
		// 不设默认值：回调跳转依赖它是否被显式配置
		SiteUrl: os.Getenv("SITE_URL"),
		Identity: IdentityConfig{
			URL:      os.Getenv("IDENTITY_URL"),
			AnonKey:  os.Getenv("IDENTITY_ANON_KEY"),
			Provider: getEnv("IDENTITY_PROVIDER", "github"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		RateLimit: RateLimitConfig{
			RPS:   rps,
			Burst: burst,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   os.Getenv("LOG_FILE"),
		},
		CountCacheTTL:  time.Duration(cacheSeconds) * time.Second,
		CatalogRefresh: time.Duration(refreshSeconds) * time.Second,
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return nil, fmt.Errorf("配置校验失败: %w", err)
	}

	if cfg.IsProduction() && cfg.AppSecret == defaultAppSecret {
		return nil, fmt.Errorf("生产环境禁止使用默认密钥，请设置 APP_SECRET")
	}

	return cfg, nil
}

// IsLocal 本地开发环境（回调直接跳回请求来源）
func (c *Config) IsLocal() bool {
	return c.Env == "development"
}

// IsProduction 生产环境（错误响应不带 detail）
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
