package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"stocksim/internal/domain"
	"stocksim/internal/ports"
)

const (
	singletonID     = 1
	maxStoredTrades = 100
)

// Store implements ports.PortfolioStore using SQLite. A single mutex spans
// schema initialization, load, save and reset so concurrent callers queue
// rather than interleave partial snapshots.
type Store struct {
	db          *sql.DB
	logger      ports.Logger
	mu          sync.Mutex
	initialized bool
}

// Config holds configuration for the SQLite store.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewStore opens the database and returns a store. Schema creation is
// deferred to the first operation.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite store")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/stocksim.db"
	}

	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			err = fmt.Errorf("failed to create data directory '%s': %w", dir, err)
			cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("%w: failed to ping database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally; the Go driver benefits from a
	// single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	return &Store{db: db, logger: cfg.Logger}, nil
}

// ensureSchemaLocked creates tables on first use. Callers must hold s.mu.
func (s *Store) ensureSchemaLocked(ctx context.Context) error {
	if s.initialized {
		return nil
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS portfolio_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		cash TEXT NOT NULL,
		realized_pnl TEXT NOT NULL,
		recovery_used INTEGER NOT NULL DEFAULT 0,
		trading_halted INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS portfolio_positions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		average_cost TEXT NOT NULL,
		market_price TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS portfolio_trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		side TEXT NOT NULL,
		symbol TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price TEXT NOT NULL,
		ts_unix_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_portfolio_trades_ts ON portfolio_trades (ts_unix_ms);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	s.initialized = true
	s.logger.Info(ctx, "Portfolio schema initialized/verified")
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		s.logger.Info(context.Background(), "Closing SQLite database connection")
		return s.db.Close()
	}
	return nil
}

// Load returns the stored snapshot, synthesizing a default one when no state
// row exists. Monetary values round-trip as exact decimal strings.
func (s *Store) Load(ctx context.Context, defaultStartingCash decimal.Decimal) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureSchemaLocked(ctx); err != nil {
		return nil, err
	}

	snap := domain.DefaultSnapshot(defaultStartingCash)

	var cashStr, pnlStr string
	var recoveryUsed, tradingHalted bool
	err := s.db.QueryRowContext(ctx,
		`SELECT cash, realized_pnl, recovery_used, trading_halted FROM portfolio_state WHERE id = ?`,
		singletonID).Scan(&cashStr, &pnlStr, &recoveryUsed, &tradingHalted)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.Debug(ctx, "No stored portfolio state, using defaults")
	case err != nil:
		return nil, fmt.Errorf("%w: failed to query portfolio state: %v", ports.ErrQueryFailed, err)
	default:
		snap.Cash = parseDecimalOr(cashStr, defaultStartingCash)
		snap.RealizedPnL = parseDecimalOr(pnlStr, decimal.Zero)
		snap.RecoveryUsed = recoveryUsed
		snap.TradingHalted = tradingHalted
	}

	// Historical load-time sanitization: clamp cash rather than fail on
	// malformed persisted data.
	if snap.Cash.IsNegative() {
		s.logger.Warn(ctx, "Stored cash was negative, clamping to zero", map[string]interface{}{"cash": snap.Cash.String()})
		snap.Cash = decimal.Zero
	}

	positions, err := s.loadPositionsLocked(ctx)
	if err != nil {
		return nil, err
	}
	snap.Positions = positions

	trades, err := s.loadTradesLocked(ctx)
	if err != nil {
		return nil, err
	}
	snap.Trades = trades

	return snap, nil
}

// loadPositionsLocked reads position rows most-recently-inserted first,
// silently dropping invalid rows.
func (s *Store) loadPositionsLocked(ctx context.Context) ([]domain.Position, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, quantity, average_cost, market_price FROM portfolio_positions ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query positions: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	positions := make([]domain.Position, 0)
	for rows.Next() {
		var symbol, avgStr, mktStr string
		var quantity int64
		if err := rows.Scan(&symbol, &quantity, &avgStr, &mktStr); err != nil {
			return nil, fmt.Errorf("failed to scan position row: %w", err)
		}
		pos := domain.RestorePosition(symbol, quantity,
			parseDecimalOr(avgStr, decimal.Zero), parseDecimalOr(mktStr, decimal.Zero))
		if pos == nil {
			s.logger.Warn(ctx, "Dropping invalid stored position row", map[string]interface{}{"symbol": symbol, "quantity": quantity})
			continue
		}
		positions = append(positions, *pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position rows: %w", err)
	}
	return positions, nil
}

// loadTradesLocked reads trade rows most-recent-first (timestamp then
// insertion order), truncated to the ledger cap.
func (s *Store) loadTradesLocked(ctx context.Context) ([]domain.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT side, symbol, quantity, price, ts_unix_ms FROM portfolio_trades ORDER BY ts_unix_ms DESC, id DESC LIMIT ?`,
		maxStoredTrades)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query trades: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	trades := make([]domain.TradeRecord, 0)
	for rows.Next() {
		var side, symbol, priceStr string
		var quantity, tsMillis int64
		if err := rows.Scan(&side, &symbol, &quantity, &priceStr, &tsMillis); err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}
		price := parseDecimalOr(priceStr, decimal.Zero)
		if quantity <= 0 || domain.CanonicalSymbol(symbol) == "" || price.IsNegative() {
			s.logger.Warn(ctx, "Dropping invalid stored trade row", map[string]interface{}{"symbol": symbol, "quantity": quantity})
			continue
		}
		trades = append(trades, domain.TradeRecord{
			Side:      domain.TradeSide(side),
			Symbol:    domain.CanonicalSymbol(symbol),
			Quantity:  quantity,
			Price:     price,
			Timestamp: time.UnixMilli(tsMillis).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// Save replaces the stored snapshot in one transaction: the state record is
// upserted and the position/trade row sets are deleted and re-inserted.
// Rows are inserted oldest-first so the descending-id load order restores
// the snapshot's most-recent-first ordering.
func (s *Store) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("nil snapshot")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureSchemaLocked(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin save transaction: %v", ports.ErrTxFailed, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO portfolio_state (id, cash, realized_pnl, recovery_used, trading_halted) VALUES (?, ?, ?, ?, ?)`,
		singletonID, snapshot.Cash.String(), snapshot.RealizedPnL.String(), snapshot.RecoveryUsed, snapshot.TradingHalted); err != nil {
		return fmt.Errorf("%w: failed to upsert portfolio state: %v", ports.ErrTxFailed, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM portfolio_positions`); err != nil {
		return fmt.Errorf("%w: failed to clear positions: %v", ports.ErrTxFailed, err)
	}
	for i := len(snapshot.Positions) - 1; i >= 0; i-- {
		pos := snapshot.Positions[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO portfolio_positions (symbol, quantity, average_cost, market_price) VALUES (?, ?, ?, ?)`,
			pos.Symbol, pos.Quantity, pos.AverageCost.String(), pos.MarketPrice.String()); err != nil {
			return fmt.Errorf("%w: failed to insert position %s: %v", ports.ErrTxFailed, pos.Symbol, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM portfolio_trades`); err != nil {
		return fmt.Errorf("%w: failed to clear trades: %v", ports.ErrTxFailed, err)
	}
	trades := snapshot.Trades
	if len(trades) > maxStoredTrades {
		trades = trades[:maxStoredTrades]
	}
	for i := len(trades) - 1; i >= 0; i-- {
		trade := trades[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO portfolio_trades (side, symbol, quantity, price, ts_unix_ms) VALUES (?, ?, ?, ?, ?)`,
			string(trade.Side), trade.Symbol, trade.Quantity, trade.Price.String(), trade.Timestamp.UnixMilli()); err != nil {
			return fmt.Errorf("%w: failed to insert trade %s %s: %v", ports.ErrTxFailed, trade.Side, trade.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit save transaction: %v", ports.ErrTxFailed, err)
	}
	s.logger.Debug(ctx, "Portfolio snapshot saved", map[string]interface{}{
		"positions": len(snapshot.Positions),
		"trades":    len(trades),
	})
	return nil
}

// Reset deletes all rows across the three tables in one transaction.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureSchemaLocked(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin reset transaction: %v", ports.ErrTxFailed, err)
	}
	defer tx.Rollback()

	for _, table := range []string{"portfolio_positions", "portfolio_trades", "portfolio_state"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("%w: failed to clear %s: %v", ports.ErrTxFailed, table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit reset transaction: %v", ports.ErrTxFailed, err)
	}
	s.logger.Info(ctx, "Portfolio store reset, all rows deleted")
	return nil
}

// parseDecimalOr parses a stored decimal string, falling back on malformed
// data instead of failing the load.
func parseDecimalOr(s string, fallback decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fallback
	}
	return d
}
