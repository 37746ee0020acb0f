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
)

// Config is the configuration struct for the service.
type Config struct {
	// Markets represents the tracked markets.
	Markets []string
	// BinanceAPIKey is the binance API key.
	BinanceAPIKey string
	// BinanceSecretKey is the binance API secret.
	BinanceSecretKey string
	// SentimentURL is the sentiment scoring service endpoint.
	SentimentURL string
	// SentimentAPIKey is the sentiment scoring service API key.
	SentimentAPIKey string
	// TelegramToken is the telegram bot token.
	TelegramToken string
	// TelegramChatID is the destination telegram chat.
	TelegramChatID int
	// RQLiteEndpoint is the rqlite connection endpoint.
	RQLiteEndpoint string
	// RQLiteUser is the rqlite connection user.
	RQLiteUser string
	// RQLitePass is the rqlite connection password.
	RQLitePass string
	// ScanIntervalMinutes is the cadence of full market scans, in minutes.
	ScanIntervalMinutes int
	// MonitorIntervalMinutes is the cadence of open signal checks, in minutes.
	MonitorIntervalMinutes int
	// StopPolicy selects the stop placement policy (volatility or swing).
	StopPolicy string
	// StopMultiplier scales volatility based stops.
	StopMultiplier float64
	// RewardRatio is the reward multiple per unit of risk.
	RewardRatio float64

	registeredFlags map[string]bool
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if len(cfg.Markets) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no markets provided for scout service"))
	}
	if cfg.RQLiteEndpoint == "" {
		errs = errors.Join(errs, fmt.Errorf("rqlite endpoint cannot be an empty string"))
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID == 0 {
		errs = errors.Join(errs, fmt.Errorf("telegram chat id required when a bot token is set"))
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
	case reflect.Float64:
		var def float64
		if defValue != "" {
			def, _ = strconv.ParseFloat(defValue, 64)
		}
		flag.Float64Var(value.(*float64), name, def, usage)
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
	err = cfg.registerFlag("markets", &cfg.Markets, "the tracked markets")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("binanceapikey", &cfg.BinanceAPIKey, "the binance api key")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("binancesecretkey", &cfg.BinanceSecretKey, "the binance api secret")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("sentimenturl", &cfg.SentimentURL, "the sentiment scoring service url")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("sentimentapikey", &cfg.SentimentAPIKey, "the sentiment scoring service api key")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("telegramtoken", &cfg.TelegramToken, "the telegram bot token")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("telegramchatid", &cfg.TelegramChatID, "the destination telegram chat id")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("rqliteendpoint", &cfg.RQLiteEndpoint, "the rqlite connection endpoint")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("rqliteuser", &cfg.RQLiteUser, "the rqlite connection user")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("rqlitepass", &cfg.RQLitePass, "the rqlite connection password")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("scanintervalminutes", &cfg.ScanIntervalMinutes, "the market scan cadence in minutes")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("monitorintervalminutes", &cfg.MonitorIntervalMinutes, "the open signal check cadence in minutes")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("stoppolicy", &cfg.StopPolicy, "the stop placement policy (volatility or swing)")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("stopmultiplier", &cfg.StopMultiplier, "the volatility stop multiplier")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("rewardratio", &cfg.RewardRatio, "the reward multiple per unit of risk")
	if err != nil {
		return err
	}

	// Parse command-line flags.
	flag.Parse()

	return cfg.Validate()
}
