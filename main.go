package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wfdlt/pulse/service"
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
		log.Error().Msgf("loading config: %v", err)
		os.Exit(1)
	}

	// The log level is validated with the rest of the config.
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	zerolog.SetGlobalLevel(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pulseCfg := service.PulseConfig{
		Symbols:        cfg.Symbols,
		FeedURL:        cfg.FeedURL,
		HistoryURL:     cfg.HistoryURL,
		HistoryAPIKey:  cfg.HistoryAPIKey,
		DBEndpoint:     cfg.DBURL,
		DBUser:         cfg.DBUser,
		DBPass:         cfg.DBPass,
		RefreshMinutes: cfg.RefreshMinutes,
		Cancel:         cancel,
	}
	pulse, err := service.NewPulse(ctx, &pulseCfg)
	if err != nil {
		log.Error().Msgf("creating pulse service: %v", err)
		os.Exit(1)
	}

	go handleTermination(ctx, cancel)
	pulse.Run(ctx)
}
