package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"portfolioEngine/internal/adapters/logger" // Import the logger package for LogLevel
)

// PriceSourceKind selects which price-feed adapter the engine uses.
type PriceSourceKind string

const (
	SourceCoinGecko PriceSourceKind = "coingecko"
	SourceBinance   PriceSourceKind = "binance"
)

// Config holds all application configuration.
type Config struct {
	// Price Feed
	PriceSource      PriceSourceKind
	CoinGeckoBaseURL string
	SymbolMapPath    string // Optional YAML file overriding the symbol -> feed-id table

	// Binance API (only needed when PriceSource is "binance")
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Polling
	PollInterval        time.Duration // Refresh cadence for a full open-position list
	FocusedPollInterval time.Duration // Refresh cadence when tracking a single position
	RequestTimeout      time.Duration // Hard timeout for one price fetch
	TradeReload         time.Duration // How often the service re-reads the trade list

	// Valuation
	StartingEquity float64 // Equity baseline for the curve (0 if unset)

	// Database
	DBPath string

	// Logging
	LogLevel logger.LogLevel
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Price Feed
	source := strings.ToLower(getEnv("PRICE_SOURCE", string(SourceCoinGecko)))
	switch PriceSourceKind(source) {
	case SourceCoinGecko, SourceBinance:
		cfg.PriceSource = PriceSourceKind(source)
	default:
		errs = append(errs, fmt.Sprintf("PRICE_SOURCE must be %q or %q, got %q", SourceCoinGecko, SourceBinance, source))
	}

	cfg.CoinGeckoBaseURL = getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3")
	if cfg.CoinGeckoBaseURL == "" {
		errs = append(errs, "COINGECKO_BASE_URL must not be empty")
	}
	cfg.SymbolMapPath = getEnv("SYMBOL_MAP_PATH", "")

	// Binance API (keys are optional: the ticker endpoint is public)
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", false)

	// Polling
	pollSeconds := getEnvAsInt("POLL_INTERVAL_SECONDS", 3)
	if pollSeconds <= 0 {
		errs = append(errs, "POLL_INTERVAL_SECONDS must be positive")
	}
	cfg.PollInterval = time.Duration(pollSeconds) * time.Second

	focusedSeconds := getEnvAsInt("FOCUSED_POLL_INTERVAL_SECONDS", 1)
	if focusedSeconds <= 0 {
		errs = append(errs, "FOCUSED_POLL_INTERVAL_SECONDS must be positive")
	}
	cfg.FocusedPollInterval = time.Duration(focusedSeconds) * time.Second

	timeoutSeconds := getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 5)
	if timeoutSeconds <= 0 {
		errs = append(errs, "REQUEST_TIMEOUT_SECONDS must be positive")
	}
	cfg.RequestTimeout = time.Duration(timeoutSeconds) * time.Second

	reloadSeconds := getEnvAsInt("TRADE_RELOAD_SECONDS", 30)
	if reloadSeconds <= 0 {
		errs = append(errs, "TRADE_RELOAD_SECONDS must be positive")
	}
	cfg.TradeReload = time.Duration(reloadSeconds) * time.Second

	// Keep one poll's worth of headroom: a hung fetch must never outlive the
	// tick that issued it.
	if len(errs) == 0 && cfg.RequestTimeout > cfg.PollInterval*3 {
		errs = append(errs, "REQUEST_TIMEOUT_SECONDS must not exceed three poll intervals")
	}

	// Valuation
	cfg.StartingEquity, err = getEnvAsFloatRequired("STARTING_EQUITY", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid STARTING_EQUITY: %v", err))
	} else if cfg.StartingEquity < 0 {
		errs = append(errs, "STARTING_EQUITY cannot be negative")
	}

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/portfolio.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr)

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
