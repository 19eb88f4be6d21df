package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port                   string
	AllowedOrigin          string
	DatabaseURL            string
	DBMaxOpenConns         int
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	PricingCacheTTLSeconds int
	LogLevel               string
	CostCurrency           string
	LocalCurrency          string
	CrossBatchCodes        bool
}

func Load() Config {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOWED_ORIGIN", "http://127.0.0.1:3000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_OPEN_CONNS", 30)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("PRICING_CACHE_TTL_SECONDS", 60)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("COST_CURRENCY", "USD")
	v.SetDefault("LOCAL_CURRENCY", "ARS")
	v.SetDefault("CROSS_BATCH_CODES", false)
	v.AutomaticEnv()

	ttl := v.GetInt("PRICING_CACHE_TTL_SECONDS")
	if ttl < 1 {
		ttl = 60
	}
	maxOpen := v.GetInt("DB_MAX_OPEN_CONNS")
	if maxOpen < 1 {
		maxOpen = 30
	}

	return Config{
		Port:                   v.GetString("PORT"),
		AllowedOrigin:          v.GetString("ALLOWED_ORIGIN"),
		DatabaseURL:            strings.TrimSpace(v.GetString("DATABASE_URL")),
		DBMaxOpenConns:         maxOpen,
		RedisAddr:              strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:          v.GetString("REDIS_PASSWORD"),
		RedisDB:                v.GetInt("REDIS_DB"),
		PricingCacheTTLSeconds: ttl,
		LogLevel:               strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		CostCurrency:           currencyCode(v.GetString("COST_CURRENCY"), "USD"),
		LocalCurrency:          currencyCode(v.GetString("LOCAL_CURRENCY"), "ARS"),
		CrossBatchCodes:        v.GetBool("CROSS_BATCH_CODES"),
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func currencyCode(raw string, fallback string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != 3 {
		return fallback
	}
	return code
}
