package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"

	"market-pulse/internal/cache"
	"market-pulse/internal/config"
	"market-pulse/internal/notify"
	"market-pulse/internal/provider"
	"market-pulse/internal/repository"
	"market-pulse/internal/snapshot"
	"market-pulse/pkg/tracing"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initTracerFunc = tracing.InitTracer
	initRedisFunc  = cache.InitRedis

	newCNNProviderFunc = func(baseURL string, timeout time.Duration, tracer trace.Tracer) snapshot.FearGreedReader {
		return provider.NewCNNFearGreedProvider(baseURL, timeout, tracer)
	}
	newAlternativeProviderFunc = func(baseURL string, timeout time.Duration, tracer trace.Tracer) snapshot.FearGreedReader {
		return provider.NewAlternativeFearGreedProvider(baseURL, timeout, tracer)
	}
	newVIXProviderFunc = func(baseURL string, timeout time.Duration, tracer trace.Tracer) snapshot.VIXReader {
		return provider.NewCBOEVIXProvider(baseURL, timeout, tracer)
	}
	newTelegramSenderFunc = notify.NewTelegramSender
	nowFunc               = time.Now
)

// main runs one snapshot cycle and exits 0 regardless of what the sources
// did; failed fetches end up as notes in the snapshot, not exit codes.
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx := context.Background()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Printf("Warning: failed to initialize tracer, continuing without: %v", err)
		tracer = trace.NewNoopTracerProvider().Tracer("market-pulse")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Printf("error shutting down tracer provider: %v", err)
			}
		}()
	}

	var mirror snapshot.RedisClient
	if client := initRedisFunc(ctx, cfg.RedisURL); client != nil {
		mirror = client
	}

	var notifier snapshot.Notifier
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		sender, err := newTelegramSenderFunc(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("Warning: telegram alerts unavailable: %v", err)
		} else {
			notifier = sender
		}
	}

	timeout := time.Duration(cfg.HTTPTimeoutSecs) * time.Second
	svc := snapshot.NewService(
		tracer,
		newCNNProviderFunc(cfg.FearGreedURL, timeout, tracer),
		newAlternativeProviderFunc(cfg.FearGreedFallbackURL, timeout, tracer),
		newVIXProviderFunc(cfg.VIXURL, timeout, tracer),
		repository.NewSnapshotRepository(cfg.OutPath, tracer),
		mirror,
		notifier,
		snapshot.Config{
			MaxNotes:      cfg.MaxNotes,
			CacheTTL:      time.Duration(cfg.RedisTTLSecs) * time.Second,
			VIXAlertLevel: cfg.VIXAlertLevel,
		},
	)

	result, err := svc.Run(ctx, nowFunc())
	if err != nil {
		log.Printf("snapshot run failed: %v", err)
		return
	}

	log.Printf(
		"snapshot written to %s (fear greed refreshed=%t, vix refreshed=%t, notes=%d)",
		cfg.OutPath, result.FearGreedRefreshed, result.VIXRefreshed, len(result.Errors),
	)
}
