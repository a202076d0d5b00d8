package main

import (
	"flag"
	"os"
	"strings"
	"testing"

	"github.com/wfdlt/pulse/fetch"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr []string
	}{
		{
			name: "valid config",
			cfg: Config{
				Symbols:        []string{"AAPL", "GOOG"},
				FeedURL:        "wss://feed.marketpulse.io/v1/stream",
				HistoryAPIKey:  "apikey",
				RefreshMinutes: 5,
				LogLevel:       "info",
			},
			wantErr: nil,
		},
		{
			name: "missing symbols",
			cfg: Config{
				Symbols:        []string{},
				FeedURL:        "wss://feed.marketpulse.io/v1/stream",
				HistoryAPIKey:  "apikey",
				RefreshMinutes: 5,
			},
			wantErr: []string{"no symbols provided for pulse service"},
		},
		{
			name: "missing feed url",
			cfg: Config{
				Symbols:        []string{"AAPL"},
				HistoryAPIKey:  "apikey",
				RefreshMinutes: 5,
			},
			wantErr: []string{"feed url cannot be an empty string"},
		},
		{
			name: "missing history api key",
			cfg: Config{
				Symbols:        []string{"AAPL"},
				FeedURL:        "wss://feed.marketpulse.io/v1/stream",
				RefreshMinutes: 5,
			},
			wantErr: []string{"history api key cannot be an empty string"},
		},
		{
			name: "insane refresh interval",
			cfg: Config{
				Symbols:       []string{"AAPL"},
				FeedURL:       "wss://feed.marketpulse.io/v1/stream",
				HistoryAPIKey: "apikey",
			},
			wantErr: []string{"refresh interval cannot be less than a minute"},
		},
		{
			name: "unknown log level",
			cfg: Config{
				Symbols:        []string{"AAPL"},
				FeedURL:        "wss://feed.marketpulse.io/v1/stream",
				HistoryAPIKey:  "apikey",
				RefreshMinutes: 5,
				LogLevel:       "verbose",
			},
			wantErr: []string{"parsing log level"},
		},
		{
			name: "multiple missing fields",
			cfg:  Config{},
			wantErr: []string{
				"no symbols provided for pulse service",
				"feed url cannot be an empty string",
				"history api key cannot be an empty string",
				"refresh interval cannot be less than a minute",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("expected error(s) %v, got none", tt.wantErr)
					return
				}
				for _, want := range tt.wantErr {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("expected error to contain %q, got %v", want, err)
					}
				}
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	// Save and restore original os.Args and environment
	origArgs := os.Args
	origEnv := os.Environ()
	defer func() {
		os.Args = origArgs
		for _, kv := range origEnv {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) == 2 {
				os.Setenv(parts[0], parts[1])
			}
		}
	}()

	tests := []struct {
		name        string
		env         map[string]string
		args        []string
		expectErr   bool
		expectInErr []string
		expectCfg   Config
	}{
		{
			name: "all from env",
			env: map[string]string{
				"symbols":       "AAPL,GOOG",
				"feedurl":       "wss://feed.marketpulse.io/v1/stream",
				"historyapikey": "apikey",
			},
			args:      []string{"cmd"},
			expectErr: false,
			expectCfg: Config{
				Symbols:        []string{"AAPL", "GOOG"},
				FeedURL:        "wss://feed.marketpulse.io/v1/stream",
				HistoryURL:     fetch.BaseURL,
				HistoryAPIKey:  "apikey",
				RefreshMinutes: defaultRefreshMinutes,
				LogLevel:       "info",
			},
		},
		{
			name:      "all from flags",
			env:       map[string]string{},
			args:      []string{"cmd", "-symbols=AAPL,GOOG", "-feedurl=wss://feed.marketpulse.io/v1/stream", "-historyapikey=apikey", "-refreshminutes=10", "-loglevel=debug"},
			expectErr: false,
			expectCfg: Config{
				Symbols:        []string{"AAPL", "GOOG"},
				FeedURL:        "wss://feed.marketpulse.io/v1/stream",
				HistoryURL:     fetch.BaseURL,
				HistoryAPIKey:  "apikey",
				RefreshMinutes: 10,
				LogLevel:       "debug",
			},
		},
		{
			name:      "missing required settings",
			env:       map[string]string{},
			args:      []string{"cmd"},
			expectErr: true,
			expectInErr: []string{
				"no symbols provided for pulse service",
				"feed url cannot be an empty string",
				"history api key cannot be an empty string",
			},
		},
		{
			name: "unknown log level",
			env: map[string]string{
				"symbols":       "AAPL",
				"feedurl":       "wss://feed.marketpulse.io/v1/stream",
				"historyapikey": "apikey",
				"loglevel":      "verbose",
			},
			args:        []string{"cmd"},
			expectErr:   true,
			expectInErr: []string{"parsing log level"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset flags for each test
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

			// Set environment variables
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			// Set command-line arguments
			os.Args = tt.args

			var cfg Config
			err := loadConfig(&cfg, "") // don't load .env file

			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				for _, want := range tt.expectInErr {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("expected error to contain %q, got %v", want, err)
					}
				}
			} else {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if len(tt.expectCfg.Symbols) != len(cfg.Symbols) {
					t.Errorf("Symbols: got %v, want %v", cfg.Symbols, tt.expectCfg.Symbols)
				}
				if cfg.FeedURL != tt.expectCfg.FeedURL {
					t.Errorf("FeedURL: got %v, want %v", cfg.FeedURL, tt.expectCfg.FeedURL)
				}
				if cfg.HistoryURL != tt.expectCfg.HistoryURL {
					t.Errorf("HistoryURL: got %v, want %v", cfg.HistoryURL, tt.expectCfg.HistoryURL)
				}
				if cfg.HistoryAPIKey != tt.expectCfg.HistoryAPIKey {
					t.Errorf("HistoryAPIKey: got %v, want %v", cfg.HistoryAPIKey, tt.expectCfg.HistoryAPIKey)
				}
				if cfg.RefreshMinutes != tt.expectCfg.RefreshMinutes {
					t.Errorf("RefreshMinutes: got %v, want %v", cfg.RefreshMinutes, tt.expectCfg.RefreshMinutes)
				}
				if cfg.LogLevel != tt.expectCfg.LogLevel {
					t.Errorf("LogLevel: got %v, want %v", cfg.LogLevel, tt.expectCfg.LogLevel)
				}
			}

			// Clean up env
			for k := range tt.env {
				os.Unsetenv(k)
			}
		})
	}
}
