package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration.
type Config struct {
	// Portfolio Parameters
	StartingBalance   decimal.Decimal // cash a fresh portfolio starts with
	EmergencyFund     decimal.Decimal // one-shot recovery amount after bankruptcy
	TradeHistoryLimit int             // capped trade ledger size
	DefaultSymbol     string          // instrument selected at startup

	// Quote Feed
	QuoteBaseURL    string
	QuoteTimeout    time.Duration
	RefreshInterval time.Duration

	// Database
	DBPath string

	// Logging
	LogLevel string
	LogFile  string // empty disables file output
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	cfg.StartingBalance, err = getEnvAsDecimal("STARTING_BALANCE", "10000")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid STARTING_BALANCE: %v", err))
	} else if !cfg.StartingBalance.IsPositive() {
		errs = append(errs, "STARTING_BALANCE must be positive")
	}

	cfg.EmergencyFund, err = getEnvAsDecimal("EMERGENCY_FUND", "5000")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid EMERGENCY_FUND: %v", err))
	} else if !cfg.EmergencyFund.IsPositive() {
		errs = append(errs, "EMERGENCY_FUND must be positive")
	}

	cfg.TradeHistoryLimit = getEnvAsInt("TRADE_HISTORY_LIMIT", 100)
	if cfg.TradeHistoryLimit <= 0 {
		errs = append(errs, "TRADE_HISTORY_LIMIT must be positive")
	}

	cfg.DefaultSymbol = getEnv("DEFAULT_SYMBOL", "AAPL")
	if cfg.DefaultSymbol == "" {
		errs = append(errs, "DEFAULT_SYMBOL must be set")
	}

	cfg.QuoteBaseURL = getEnv("QUOTE_BASE_URL", "https://query1.finance.yahoo.com")
	if cfg.QuoteBaseURL == "" {
		errs = append(errs, "QUOTE_BASE_URL must be set")
	}

	quoteTimeoutSeconds := getEnvAsInt("QUOTE_TIMEOUT_SECONDS", 8)
	if quoteTimeoutSeconds <= 0 {
		errs = append(errs, "QUOTE_TIMEOUT_SECONDS must be positive")
	}
	cfg.QuoteTimeout = time.Duration(quoteTimeoutSeconds) * time.Second

	refreshIntervalSeconds := getEnvAsInt("REFRESH_INTERVAL_SECONDS", 8)
	if refreshIntervalSeconds <= 0 {
		errs = append(errs, "REFRESH_INTERVAL_SECONDS must be positive")
	}
	cfg.RefreshInterval = time.Duration(refreshIntervalSeconds) * time.Second

	cfg.DBPath = getEnv("DB_PATH", "./data/stocksim.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFile = getEnv("LOG_FILE", "")

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

func getEnvAsDecimal(key, defaultValue string) (decimal.Decimal, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}
