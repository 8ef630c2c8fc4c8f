package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"web-larek/internal/bot"
	"web-larek/internal/config"
	"web-larek/internal/storage/receipts"
	storage "web-larek/internal/storage/redis"
	"web-larek/internal/storefront"
	"web-larek/pkg/api"
	"web-larek/pkg/logger"
	"web-larek/pkg/redis"
)

// ENTRY POINT

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	apiClient := api.NewClient(cfg.APIURL, cfg.CDNURL, zapLogger,
		api.WithTimeout(cfg.HTTPRequestTimeout),
		api.WithRetryMaxElapsed(cfg.CatalogRetryMaxElapsed),
	)

	var (
		catalog storefront.CatalogSource = apiClient
		limiter storefront.OrderLimiter
	)
	if cfg.CacheEnabled() {
		redisClient := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx); err != nil {
			zapLogger.Warn("Redis is unreachable, cache calls will fall back to the API", zap.Error(err))
		}

		catalog = storage.NewCatalogCache(apiClient, redisClient, cfg.CatalogCacheTTL, zapLogger)
		limiter = storage.NewOrderLimiter(redisClient, cfg.OrderRateLimit, cfg.OrderRateWindow)
	}

	var exporter storefront.ReceiptExporter
	if cfg.ReceiptsDir != "" {
		exporter = receipts.NewExporter(cfg.ReceiptsDir)
	}

	newSession := func(chatID int64, view storefront.View) *storefront.Session {
		return storefront.NewSession(view, storefront.Options{
			ChatID:         chatID,
			Catalog:        catalog,
			Items:          apiClient,
			Orders:         apiClient,
			Limiter:        limiter,
			Receipts:       exporter,
			RequestTimeout: cfg.HTTPRequestTimeout,
			DebugEvents:    cfg.DebugEvents,
			Logger:         zapLogger,
		})
	}

	tgBot, err := bot.New(cfg.TelegramToken, newSession, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create bot", zap.Error(err))
	}

	if err := tgBot.Start(ctx); err != nil {
		zapLogger.Fatal("Bot stopped with error", zap.Error(err))
	}

	zapLogger.Info("Bot shutdown gracefully")
}
