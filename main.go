package main

import (
	"bufio"
	"context"
	"fmt"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"stocksim/config"
	"stocksim/internal/adapters/logger"
	"stocksim/internal/adapters/marketdata"
	"stocksim/internal/adapters/sqlite"
	"stocksim/internal/analytics"
	"stocksim/internal/app"
	"stocksim/internal/catalog"
	"stocksim/internal/domain"
	"stocksim/internal/ports"
	"stocksim/internal/utils"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.FilePath = cfg.LogFile
	appLogger := logger.New(logCfg)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel})

	// 3. Initialize Portfolio Store (Database Adapter)
	store, err := sqlite.NewStore(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize portfolio store")
		log.Fatalf("FATAL: Failed to initialize portfolio store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing portfolio store")
		}
	}()
	appLogger.Info(context.Background(), "Portfolio store initialized")

	// 4. Initialize Quote Source (Market Data Adapter)
	quotes, err := marketdata.New(marketdata.Config{
		BaseURL: cfg.QuoteBaseURL,
		Timeout: cfg.QuoteTimeout,
		Logger:  appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize market data client")
		log.Fatalf("FATAL: Failed to initialize market data client: %v", err)
	}
	appLogger.Info(context.Background(), "Market data client initialized")

	// 5. Initialize Portfolio Engine
	engine, err := app.NewEngine(cfg, appLogger, store)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize portfolio engine")
		log.Fatalf("FATAL: Failed to initialize portfolio engine: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.Initialize(ctx); err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to load portfolio state")
		log.Fatalf("FATAL: Failed to load portfolio state: %v", err)
	}

	// 6. Start the quote refresher in the background
	refresher := app.NewRefresher(engine, quotes, appLogger, cfg.RefreshInterval, cfg.DefaultSymbol)
	go refresher.Run(ctx)

	// 7. Run the interactive shell until EOF or signal
	shell := &shell{engine: engine, quotes: quotes, refresher: refresher}
	shell.run(ctx)

	// Final flush so the last refresh cycle's prices are durable.
	if err := engine.Flush(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Failed to flush portfolio on shutdown")
	}
	appLogger.Info(context.Background(), "Application finished gracefully.")
}

type shell struct {
	engine    *app.Engine
	quotes    ports.QuoteSource
	refresher *app.Refresher
}

func (s *shell) run(ctx context.Context) {
	fmt.Println("stocksim paper trading shell. Type 'help' for commands.")
	scanner := bufio.NewScanner(os.Stdin)
	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	s.printStatus()
	for {
		fmt.Print("> ")
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if s.dispatch(ctx, line) {
				return
			}
		}
	}
}

// dispatch executes one shell command; returns true on quit.
func (s *shell) dispatch(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case "help":
		s.printHelp()
	case "status":
		s.printStatus()
	case "buy":
		s.submit(ctx, domain.Buy, fields[1:])
	case "sell":
		s.submit(ctx, domain.Sell, fields[1:])
	case "select":
		if len(fields) < 2 {
			fmt.Println("usage: select SYMBOL")
			return false
		}
		s.selectSymbol(ctx, fields[1])
	case "positions":
		s.printPositions()
	case "trades":
		s.printTrades()
	case "stats":
		s.printStats()
	case "list":
		s.printCatalog(fields[1:])
	case "recover":
		s.recover(ctx)
	case "reset":
		s.reset(ctx)
	case "export":
		if len(fields) < 2 {
			fmt.Println("usage: export FILE.csv")
			return false
		}
		s.export(fields[1])
	case "quit", "exit":
		return true
	default:
		fmt.Printf("unknown command %q, type 'help'\n", fields[0])
	}
	return false
}

func (s *shell) printHelp() {
	fmt.Println(`commands:
  status              show cash, net worth, PnL and engine state
  select SYMBOL       switch the live-refreshed symbol
  buy SYMBOL QTY      buy at the latest quote
  sell SYMBOL QTY     sell at the latest quote
  positions           list held positions
  trades              list recent trades
  stats               trade activity summary
  list [REGION] [CAP] browse the instrument catalog
  recover             activate emergency funds (once, while halted)
  reset               wipe the portfolio back to the starting state
  export FILE.csv     write the trade history to CSV
  quit                exit`)
}

func (s *shell) submit(ctx context.Context, side domain.TradeSide, args []string) {
	if len(args) < 2 {
		fmt.Printf("usage: %s SYMBOL QTY\n", strings.ToLower(string(side)))
		return
	}
	symbol := args[0]
	quantity, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		fmt.Printf("invalid quantity %q\n", args[1])
		return
	}

	price, ok := s.engine.LatestPrice(symbol)
	if !ok {
		// No cached price yet; fetch one synchronously.
		quote, qerr := s.quotes.GetQuote(ctx, symbol)
		if qerr != nil || !quote.Usable() {
			fmt.Printf("no quote available for %s\n", domain.CanonicalSymbol(symbol))
			return
		}
		price = quote.Price
	}

	if err := s.engine.SubmitOrder(ctx, side, symbol, quantity, price); err != nil {
		fmt.Printf("order rejected: %v\n", err)
		return
	}
	fmt.Printf("%s %d %s @ %s, cash %s\n",
		side, quantity, domain.CanonicalSymbol(symbol), price.StringFixed(2), s.engine.Cash().StringFixed(2))
}

func (s *shell) selectSymbol(ctx context.Context, symbol string) {
	canon := domain.CanonicalSymbol(symbol)
	if inst, ok := catalog.Find(canon); ok {
		fmt.Printf("selected %s\n", inst.DisplayName())
	} else {
		fmt.Printf("selected %s (not in catalog)\n", canon)
	}
	s.refresher.SetSelected(canon)
	quote, err := s.quotes.GetQuote(ctx, canon)
	if err == nil && quote.Usable() {
		_ = s.engine.ApplyPriceUpdate(ctx, quote.Symbol, quote.Price)
		fmt.Printf("%s %s (%s%%)\n", quote.Symbol, quote.Price.StringFixed(2), quote.ChangePercent.StringFixed(2))
	}
}

func (s *shell) printStatus() {
	fmt.Printf("state: %s  cash: %s  net worth: %s\n",
		s.engine.State(), s.engine.Cash().StringFixed(2), s.engine.NetWorth().StringFixed(2))
	fmt.Printf("realized PnL: %s  unrealized PnL: %s  total: %s\n",
		s.engine.RealizedPnL().StringFixed(2), s.engine.UnrealizedPnL().StringFixed(2), s.engine.TotalPnL().StringFixed(2))
	if s.engine.CanRecover() {
		fmt.Println("portfolio is bankrupt: type 'recover' to activate emergency funds")
	} else if s.engine.State() == domain.StateHaltedExhausted {
		fmt.Println("portfolio is bankrupt and emergency funds are spent: 'reset' to start over")
	}
}

func (s *shell) printPositions() {
	positions := s.engine.Positions()
	if len(positions) == 0 {
		fmt.Println("no open positions")
		return
	}
	fmt.Printf("%-12s %8s %12s %12s %12s %12s\n", "symbol", "qty", "avg cost", "market", "value", "unreal PnL")
	for _, p := range positions {
		fmt.Printf("%-12s %8d %12s %12s %12s %12s\n",
			p.Symbol, p.Quantity, p.AverageCost.StringFixed(2), p.MarketPrice.StringFixed(2),
			p.MarketValue().StringFixed(2), p.UnrealizedPnL().StringFixed(2))
	}
}

func (s *shell) printTrades() {
	trades := s.engine.Trades()
	if len(trades) == 0 {
		fmt.Println("no trades yet")
		return
	}
	for _, t := range trades {
		fmt.Printf("%s  %-8s %-12s %6d @ %s\n",
			t.Timestamp.Local().Format("2006-01-02 15:04:05"), t.Side, t.Symbol, t.Quantity, t.Price.StringFixed(2))
	}
}

func (s *shell) printStats() {
	summary := analytics.Summarize(s.engine.Trades())
	fmt.Printf("trades: %d (%d buys, %d sells, %d recoveries)\n",
		summary.TotalTrades, summary.BuyCount, summary.SellCount, summary.RecoveryCount)
	fmt.Printf("bought %d shares for %s, sold %d shares for %s, net flow %s\n",
		summary.SharesBought, summary.BuyVolume.StringFixed(2),
		summary.SharesSold, summary.SellVolume.StringFixed(2), summary.NetFlow().StringFixed(2))
	for _, activity := range summary.MostActive() {
		fmt.Printf("  %-12s %3d trades  buys %s  sells %s\n",
			activity.Symbol, activity.Trades, activity.BuyVolume.StringFixed(2), activity.SellVolume.StringFixed(2))
	}
}

func (s *shell) printCatalog(args []string) {
	region, cap := "", ""
	if len(args) > 0 {
		if strings.EqualFold(args[0], "us") {
			region = "US"
		} else {
			region = capitalize(args[0])
		}
	}
	if len(args) > 1 {
		cap = capitalize(args[1])
	}
	for _, inst := range catalog.Filter(region, cap) {
		fmt.Printf("  %-12s %-18s %-6s %s\n", inst.Symbol, inst.Name, inst.Cap, inst.Region)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func (s *shell) recover(ctx context.Context) {
	if !s.engine.CanRecover() {
		fmt.Println("emergency recovery is not available")
		return
	}
	if err := s.engine.Recover(ctx); err != nil {
		fmt.Printf("recovery failed: %v\n", err)
		return
	}
	fmt.Printf("emergency funds activated, cash %s\n", s.engine.Cash().StringFixed(2))
}

func (s *shell) reset(ctx context.Context) {
	if err := s.engine.Reset(ctx); err != nil {
		fmt.Printf("reset failed: %v\n", err)
		return
	}
	fmt.Printf("portfolio reset, cash %s\n", s.engine.Cash().StringFixed(2))
}

func (s *shell) export(filename string) {
	trades := s.engine.Trades()
	if err := utils.WriteTradesToCSV(trades, filename); err != nil {
		fmt.Printf("export failed: %v\n", err)
		return
	}
	fmt.Printf("wrote %d trades to %s\n", len(trades), filename)
}
