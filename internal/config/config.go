package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	TelegramToken string `env:"TELEGRAM_TOKEN,required,notEmpty"`
	APIURL        string `env:"API_URL,required,notEmpty"`
	CDNURL        string `env:"CDN_URL,required,notEmpty"`

	// An empty RedisAddr disables the catalog cache and the order rate limit.
	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"10m"`

	HTTPRequestTimeout     time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
	CatalogRetryMaxElapsed time.Duration `env:"CATALOG_RETRY_MAX_ELAPSED" envDefault:"1m"`

	OrderRateLimit  int64         `env:"ORDER_RATE_LIMIT" envDefault:"3"`
	OrderRateWindow time.Duration `env:"ORDER_RATE_WINDOW" envDefault:"1m"`

	// An empty ReceiptsDir disables receipt export.
	ReceiptsDir string `env:"RECEIPTS_DIR"`

	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	DebugEvents bool   `env:"DEBUG_EVENTS" envDefault:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.OrderRateLimit < 0 {
		return nil, fmt.Errorf("ORDER_RATE_LIMIT must not be negative, got %d", cfg.OrderRateLimit)
	}
	if cfg.RedisAddr != "" && cfg.OrderRateLimit > 0 && cfg.OrderRateWindow <= 0 {
		return nil, fmt.Errorf("ORDER_RATE_WINDOW must be positive when the rate limit is on")
	}

	return &cfg, nil
}

// CacheEnabled reports whether a Redis server is configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}
