package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/wfdlt/pulse/fetch"
)

// defaultRefreshMinutes is the default cadence of periodic candle refreshes.
const defaultRefreshMinutes = 5

// Config is the configuration struct for the service.
type Config struct {
	// Symbols represents the tracked symbols.
	Symbols []string
	// FeedURL is the websocket endpoint of the push price feed.
	FeedURL string
	// HistoryURL is the candle history API endpoint.
	HistoryURL string
	// HistoryAPIKey is the candle history API key.
	HistoryAPIKey string
	// DBURL is the candle archive endpoint. Archival is disabled when unset.
	DBURL string
	// DBUser is the candle archive user.
	DBUser string
	// DBPass is the candle archive user pass.
	DBPass string
	// RefreshMinutes is the cadence of periodic candle refreshes.
	RefreshMinutes int
	// LogLevel is the application log level.
	LogLevel string

	registeredFlags map[string]bool
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if len(cfg.Symbols) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no symbols provided for pulse service"))
	}
	if cfg.FeedURL == "" {
		errs = errors.Join(errs, fmt.Errorf("feed url cannot be an empty string"))
	}
	if cfg.HistoryAPIKey == "" {
		errs = errors.Join(errs, fmt.Errorf("history api key cannot be an empty string"))
	}
	if cfg.RefreshMinutes < 1 {
		errs = errors.Join(errs, fmt.Errorf("refresh interval cannot be less than a minute"))
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		errs = errors.Join(errs, fmt.Errorf("parsing log level: %w", err))
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	case reflect.Slice:
		// Only handle []string
		if val.Elem().Type().Elem().Kind() == reflect.String {
			var def []string
			if defValue != "" {
				def = strings.Split(defValue, ",")
			}
			flag.Func(name, usage, func(s string) error {
				*value.(*[]string) = strings.Split(s, ",")
				return nil
			})
			// Set default if not provided via flag
			if len(def) > 0 {
				*value.(*[]string) = def
			}
		} else {
			return fmt.Errorf("%s: unsupported slice type", name)
		}
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Register command line arguments using loaded environment variables as defaults.
	err = cfg.registerFlag("symbols", &cfg.Symbols, "the tracked symbols")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("feedurl", &cfg.FeedURL, "the price feed websocket url")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("historyurl", &cfg.HistoryURL, "the candle history api url")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("historyapikey", &cfg.HistoryAPIKey, "the candle history api key")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("dburl", &cfg.DBURL, "the candle archive url")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("dbuser", &cfg.DBUser, "the candle archive user")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("dbpass", &cfg.DBPass, "the candle archive user pass")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("refreshminutes", &cfg.RefreshMinutes, "the candle refresh cadence in minutes")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("loglevel", &cfg.LogLevel, "the application log level")
	if err != nil {
		return err
	}

	// Parse command-line flags.
	flag.Parse()

	// Apply defaults for optional settings.
	if cfg.HistoryURL == "" {
		cfg.HistoryURL = fetch.BaseURL
	}
	if cfg.RefreshMinutes == 0 {
		cfg.RefreshMinutes = defaultRefreshMinutes
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = zerolog.LevelInfoValue
	}

	return cfg.Validate()
}
