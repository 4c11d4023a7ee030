package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	OutPath              string
	FearGreedURL         string
	FearGreedFallbackURL string
	VIXURL               string
	HTTPTimeoutSecs      int
	MaxNotes             int

	RedisURL     string
	RedisTTLSecs int

	TelegramBotToken string
	TelegramChatID   int64
	VIXAlertLevel    float64
}

func Load() *Config {
	cfg := &Config{
		RedisURL:         os.Getenv("REDIS_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	cfg.OutPath = strings.TrimSpace(os.Getenv("MARKET_OUT_PATH"))
	if cfg.OutPath == "" {
		cfg.OutPath = "data/market.json"
	}

	cfg.FearGreedURL = strings.TrimSpace(os.Getenv("FEAR_GREED_URL"))
	if cfg.FearGreedURL == "" {
		cfg.FearGreedURL = "https://production.dataviz.cnn.io/index/fearandgreed/graphdata"
	}

	cfg.FearGreedFallbackURL = strings.TrimSpace(os.Getenv("FEAR_GREED_FALLBACK_URL"))
	if cfg.FearGreedFallbackURL == "" {
		cfg.FearGreedFallbackURL = "https://api.alternative.me"
	}

	cfg.VIXURL = strings.TrimSpace(os.Getenv("VIX_URL"))
	if cfg.VIXURL == "" {
		cfg.VIXURL = "https://cdn.cboe.com/api/global/us_indices/daily_prices/VIX_History.csv"
	}

	cfg.HTTPTimeoutSecs = 30
	if v := strings.TrimSpace(os.Getenv("HTTP_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPTimeoutSecs = n
		}
	}

	cfg.MaxNotes = 20
	if v := strings.TrimSpace(os.Getenv("MARKET_MAX_NOTES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxNotes = n
		}
	}

	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, snapshot mirror disabled")
	}

	cfg.RedisTTLSecs = 0
	if v := strings.TrimSpace(os.Getenv("MARKET_REDIS_TTL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RedisTTLSecs = n
		}
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, alerts disabled")
	}

	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = n
		} else {
			log.Printf("Warning: invalid TELEGRAM_CHAT_ID=%q, alerts disabled", v)
		}
	}

	cfg.VIXAlertLevel = 30
	if v := strings.TrimSpace(os.Getenv("VIX_ALERT_LEVEL")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.VIXAlertLevel = n
		}
	}

	return cfg
}
