package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dnldd/scout/database"
	"github.com/dnldd/scout/fetch"
	"github.com/dnldd/scout/indicator"
	"github.com/dnldd/scout/notify"
	"github.com/dnldd/scout/risk"
	"github.com/dnldd/scout/sentiment"
	"github.com/dnldd/scout/service"
	"github.com/dnldd/scout/shared"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		stdlog.Printf("loading config: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopPolicy, err := risk.ParseStopPolicy(cfg.StopPolicy)
	if err != nil {
		stdlog.Printf("parsing stop policy: %v", err)
		return
	}

	binance := fetch.NewBinanceClient(&fetch.BinanceConfig{
		APIKey:    cfg.BinanceAPIKey,
		SecretKey: cfg.BinanceSecretKey,
	})
	gate := fetch.NewGateClient(&fetch.GateConfig{BaseURL: fetch.BaseURL})

	sourceLogger := log.With().Str("component", "fetchsource").Logger()
	source, err := fetch.NewSource(&fetch.SourceConfig{
		Providers: []shared.MarketSource{binance, gate},
		Logger:    &sourceLogger,
	})
	if err != nil {
		stdlog.Printf("creating market data source: %v", err)
		return
	}

	var sentimentSource shared.SentimentSource
	if cfg.SentimentURL != "" {
		client, err := sentiment.NewClient(&sentiment.ClientConfig{
			BaseURL: cfg.SentimentURL,
			APIKey:  cfg.SentimentAPIKey,
		})
		if err != nil {
			stdlog.Printf("creating sentiment client: %v", err)
			return
		}
		sentimentSource = client
	}

	var notifier shared.Notifier
	if cfg.TelegramToken != "" {
		notifierLogger := log.With().Str("component", "notifier").Logger()
		bot, err := notify.NewTelegramBot(&notify.TelegramConfig{
			Token:  cfg.TelegramToken,
			ChatID: int64(cfg.TelegramChatID),
			Logger: &notifierLogger,
		})
		if err != nil {
			stdlog.Printf("creating telegram notifier: %v", err)
			return
		}
		notifier = bot
	}

	storeLogger := log.With().Str("component", "signalstore").Logger()
	store, err := database.NewSignalStore(ctx, &database.StoreConfig{
		Endpoint: cfg.RQLiteEndpoint,
		User:     cfg.RQLiteUser,
		Pass:     cfg.RQLitePass,
		Logger:   &storeLogger,
	})
	if err != nil {
		stdlog.Printf("creating signal store: %v", err)
		return
	}

	scoutCfg := service.ScoutConfig{
		Markets:          cfg.Markets,
		Source:           source,
		Indicators:       indicator.NewEngine(),
		Sentiment:        sentimentSource,
		InsertSignal:     store.InsertSignal,
		FetchOpenSignals: store.FetchOpenSignals,
		CloseSignal:      store.CloseSignal,
		Notifier:         notifier,
		StopPolicy:       stopPolicy,
		StopMultiplier:   cfg.StopMultiplier,
		RewardRatio:      cfg.RewardRatio,
		ScanInterval:     time.Duration(cfg.ScanIntervalMinutes) * time.Minute,
		MonitorInterval:  time.Duration(cfg.MonitorIntervalMinutes) * time.Minute,
		Cancel:           cancel,
	}
	scout, err := service.NewScout(&scoutCfg)
	if err != nil {
		stdlog.Printf("creating scout service: %v", err)
		return
	}

	go handleTermination(ctx, cancel)
	err = scout.Run(ctx)
	if err != nil {
		stdlog.Printf("running scout service: %v", err)
	}
}
