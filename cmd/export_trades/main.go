package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"stocksim/config"
	"stocksim/internal/adapters/logger"
	"stocksim/internal/adapters/sqlite"
	"stocksim/internal/utils"
)

func main() {
	output := flag.String("o", "", "output CSV file (default data/trades_YYYYMMDD.csv)")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	appLogger := logger.New(logCfg)

	// 3. Open the portfolio store read-only for export purposes
	store, err := sqlite.NewStore(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to open portfolio store")
		log.Fatalf("FATAL: Failed to open portfolio store: %v", err)
	}
	defer store.Close()

	snap, err := store.Load(context.Background(), cfg.StartingBalance)
	if err != nil {
		appLogger.Error(context.Background(), err, "Error loading portfolio")
		log.Fatalf("Error loading portfolio: %v", err)
	}

	filename := *output
	if filename == "" {
		filename = fmt.Sprintf("data/trades_%s.csv", time.Now().Format("20060102"))
	}
	if err := utils.WriteTradesToCSV(snap.Trades, filename); err != nil {
		appLogger.Error(context.Background(), err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(context.Background(), "Saved trades", map[string]interface{}{"count": len(snap.Trades), "filename": filename})
}
