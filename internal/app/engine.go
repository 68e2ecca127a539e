package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"stocksim/config"
	"stocksim/internal/domain"
	"stocksim/internal/ports"
)

// Engine is the portfolio accounting and lifecycle engine. It owns cash,
// realized PnL and the halted/recovery flags, validates and applies orders
// against the position book, evaluates solvency after every mutation, and
// persists a snapshot through the store after every mutating operation.
//
// All mutating operations are serialized by a single mutex; the engine does
// not support two concurrent order submissions racing against the same
// snapshot.
type Engine struct {
	cfg    *config.Config
	logger ports.Logger
	store  ports.PortfolioStore

	mu           sync.Mutex // Protects all state below
	ready        bool
	cash         decimal.Decimal
	realizedPnL  decimal.Decimal
	recoveryUsed bool
	halted       bool
	book         *domain.PositionBook
	trades       *domain.TradeLog
	latestPrices map[string]decimal.Decimal

	subMu       sync.Mutex
	subscribers []func(domain.Snapshot)

	now func() time.Time // injectable clock for tests
}

// NewEngine creates a portfolio engine. Quote fetching is not an engine
// concern; callers feed prices in via SubmitOrder and ApplyPriceUpdate.
func NewEngine(cfg *config.Config, logger ports.Logger, store ports.PortfolioStore) (*Engine, error) {
	if cfg == nil || logger == nil || store == nil {
		return nil, fmt.Errorf("missing required dependencies for Engine")
	}
	if !cfg.StartingBalance.IsPositive() {
		return nil, fmt.Errorf("configuration StartingBalance must be positive")
	}
	if !cfg.EmergencyFund.IsPositive() {
		return nil, fmt.Errorf("configuration EmergencyFund must be positive")
	}
	if cfg.TradeHistoryLimit <= 0 {
		return nil, fmt.Errorf("configuration TradeHistoryLimit must be positive")
	}

	return &Engine{
		cfg:          cfg,
		logger:       logger,
		store:        store,
		cash:         cfg.StartingBalance,
		realizedPnL:  decimal.Zero,
		book:         domain.NewPositionBook(),
		trades:       domain.NewTradeLog(cfg.TradeHistoryLimit),
		latestPrices: make(map[string]decimal.Decimal),
		now:          time.Now,
	}, nil
}

// Initialize loads the persisted snapshot and reconstructs in-memory state.
// On load failure the engine stays not-ready and every operation reports
// ErrEngineNotReady, rather than silently assuming an empty portfolio.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()

	snap, err := e.store.Load(ctx, e.cfg.StartingBalance)
	if err != nil {
		e.mu.Unlock()
		e.logger.Error(ctx, err, "Failed to load portfolio snapshot")
		return fmt.Errorf("failed to load portfolio: %w", err)
	}

	e.cash = snap.Cash
	if e.cash.IsNegative() {
		e.cash = decimal.Zero
	}
	e.realizedPnL = snap.RealizedPnL
	e.recoveryUsed = snap.RecoveryUsed
	e.halted = snap.TradingHalted

	restored := make([]*domain.Position, 0, len(snap.Positions))
	for i := range snap.Positions {
		p := snap.Positions[i]
		pos := domain.RestorePosition(p.Symbol, p.Quantity, p.AverageCost, p.MarketPrice)
		if pos == nil {
			e.logger.Warn(ctx, "Dropping invalid position from snapshot", map[string]interface{}{"symbol": p.Symbol, "quantity": p.Quantity})
			continue
		}
		restored = append(restored, pos)
		e.latestPrices[pos.Symbol] = pos.MarketPrice
	}
	e.book.Restore(restored)

	kept := make([]domain.TradeRecord, 0, len(snap.Trades))
	for _, trade := range snap.Trades {
		if trade.Quantity <= 0 || trade.Price.IsNegative() || domain.CanonicalSymbol(trade.Symbol) == "" {
			continue
		}
		kept = append(kept, trade)
	}
	e.trades.Restore(kept)

	e.ready = true
	e.logger.Info(ctx, "Portfolio loaded", map[string]interface{}{
		"cash":      e.cash.String(),
		"positions": e.book.Len(),
		"trades":    e.trades.Len(),
		"halted":    e.halted,
	})

	snapshot := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snapshot)
	return nil
}

// SubmitOrder validates and executes a market order at the given price. The
// price must be the most recently fetched quote for this exact symbol; the
// engine rejects non-positive prices as "no quote". Rejections return a
// sentinel error from ports and leave state untouched.
func (e *Engine) SubmitOrder(ctx context.Context, side domain.TradeSide, symbol string, quantity int64, price decimal.Decimal) error {
	canon := domain.CanonicalSymbol(symbol)

	e.mu.Lock()

	if err := e.validateOrderLocked(side, canon, quantity, price); err != nil {
		e.mu.Unlock()
		e.logger.Warn(ctx, "Order rejected", map[string]interface{}{
			"side": string(side), "symbol": canon, "quantity": quantity, "reason": err.Error(),
		})
		return err
	}

	cost := price.Mul(decimal.NewFromInt(quantity))
	switch side {
	case domain.Buy:
		e.cash = e.cash.Sub(cost)
		e.book.ApplyBuy(canon, quantity, price)
	case domain.Sell:
		pos := e.book.Get(canon)
		// Realized PnL uses the average cost before the ledger mutation.
		e.realizedPnL = e.realizedPnL.Add(price.Sub(pos.AverageCost).Mul(decimal.NewFromInt(quantity)))
		e.cash = e.cash.Add(cost)
		e.book.ApplySell(canon, quantity)
	}
	e.trades.Record(domain.TradeRecord{
		Side:      side,
		Symbol:    canon,
		Quantity:  quantity,
		Price:     price,
		Timestamp: e.now().UTC(),
	})

	e.latestPrices[canon] = price
	e.book.SetMarketPrice(canon, price)
	e.recomputeAndTransitionLocked(ctx)
	e.persistLocked(ctx)

	e.logger.Info(ctx, "Order executed", map[string]interface{}{
		"side": string(side), "symbol": canon, "quantity": quantity,
		"price": price.String(), "cash": e.cash.String(),
	})

	snapshot := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snapshot)
	return nil
}

// validateOrderLocked applies the rejection rules in order: readiness,
// halt, quantity, price, then side-specific funds/shares checks.
func (e *Engine) validateOrderLocked(side domain.TradeSide, canon string, quantity int64, price decimal.Decimal) error {
	if !e.ready {
		return ports.ErrEngineNotReady
	}
	if e.halted {
		return ports.ErrTradingHalted
	}
	if quantity <= 0 {
		return ports.ErrInvalidQuantity
	}
	if canon == "" || !price.IsPositive() {
		return ports.ErrNoQuote
	}

	switch side {
	case domain.Buy:
		if price.Mul(decimal.NewFromInt(quantity)).GreaterThan(e.cash) {
			return ports.ErrInsufficientCash
		}
	case domain.Sell:
		pos := e.book.Get(canon)
		if pos == nil || pos.Quantity < quantity {
			return ports.ErrInsufficientShares
		}
	default:
		return ports.ErrUnknownSide
	}
	return nil
}

// ApplyPriceUpdate feeds a fresh quote into the engine: the latest-price
// cache and any held position move to the new price, and the solvency state
// is re-evaluated. It does not persist; callers batch one Flush per refresh
// cycle. A zero price is a legitimate valuation (it is the only way a held
// position can drive net worth to zero); negative prices are ignored and the
// prior price is retained.
func (e *Engine) ApplyPriceUpdate(ctx context.Context, symbol string, price decimal.Decimal) error {
	canon := domain.CanonicalSymbol(symbol)

	e.mu.Lock()
	if !e.ready {
		e.mu.Unlock()
		return ports.ErrEngineNotReady
	}
	if canon == "" || price.IsNegative() {
		e.mu.Unlock()
		return nil
	}

	e.latestPrices[canon] = price
	e.book.SetMarketPrice(canon, price)
	e.recomputeAndTransitionLocked(ctx)

	snapshot := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snapshot)
	return nil
}

// Flush persists the current snapshot. Intended to run once per refresh
// cycle after a batch of price updates.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready {
		return ports.ErrEngineNotReady
	}
	return e.store.Save(ctx, e.snapshotPtrLocked())
}

// Recover performs the one-shot emergency recovery: all positions are
// cleared, cash is set to the emergency fund, and trading resumes. It is a
// no-op (not an error) when the portfolio is not halted or the recovery has
// already been spent.
func (e *Engine) Recover(ctx context.Context) error {
	e.mu.Lock()

	if !e.ready {
		e.mu.Unlock()
		return ports.ErrEngineNotReady
	}
	if !e.halted || e.recoveryUsed {
		e.mu.Unlock()
		return nil
	}

	e.book.Clear()
	e.cash = e.cfg.EmergencyFund
	e.recoveryUsed = true
	e.halted = false
	e.trades.Record(domain.TradeRecord{
		Side:      domain.Recovery,
		Symbol:    "CASH",
		Quantity:  1,
		Price:     e.cfg.EmergencyFund,
		Timestamp: e.now().UTC(),
	})

	e.recomputeAndTransitionLocked(ctx)
	e.persistLocked(ctx)
	e.logger.Info(ctx, "Emergency funds activated", map[string]interface{}{"cash": e.cash.String()})

	snapshot := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snapshot)
	return nil
}

// Reset erases all durable rows and returns the engine to the default
// starting state. The store is cleared first so a crash between the two
// steps cannot resurrect stale data.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()

	if !e.ready {
		e.mu.Unlock()
		return ports.ErrEngineNotReady
	}
	if err := e.store.Reset(ctx); err != nil {
		e.mu.Unlock()
		e.logger.Error(ctx, err, "Failed to reset portfolio store")
		return fmt.Errorf("failed to reset portfolio store: %w", err)
	}

	e.cash = e.cfg.StartingBalance
	e.realizedPnL = decimal.Zero
	e.recoveryUsed = false
	e.halted = false
	e.book.Clear()
	e.trades.Clear()
	e.latestPrices = make(map[string]decimal.Decimal)
	e.logger.Info(ctx, "Portfolio reset to starting state", map[string]interface{}{"cash": e.cash.String()})

	snapshot := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snapshot)
	return nil
}

// recomputeAndTransitionLocked is the single consolidation point for derived
// state: net worth is computed once and drives the halted/active transition.
// Bankruptcy is not sticky absent recovery; net worth climbing back above
// zero reactivates trading.
func (e *Engine) recomputeAndTransitionLocked(ctx context.Context) {
	netWorth := e.cash.Add(e.book.MarketValueTotal())
	if netWorth.IsPositive() {
		if e.halted {
			e.halted = false
			e.logger.Info(ctx, "Net worth recovered, trading resumed", map[string]interface{}{"netWorth": netWorth.String()})
		}
		return
	}
	if !e.halted {
		e.halted = true
		e.logger.Warn(ctx, "Portfolio bankrupt, trading halted", map[string]interface{}{"netWorth": netWorth.String()})
	}
}

// persistLocked saves the snapshot after a mutating operation. A save
// failure is logged but never rolls back in-memory state; memory is the
// source of truth until the next successful save.
func (e *Engine) persistLocked(ctx context.Context) {
	if err := e.store.Save(ctx, e.snapshotPtrLocked()); err != nil {
		e.logger.Error(ctx, err, "Failed to persist portfolio snapshot")
	}
}

func (e *Engine) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		Cash:          e.cash,
		RealizedPnL:   e.realizedPnL,
		RecoveryUsed:  e.recoveryUsed,
		TradingHalted: e.halted,
		Positions:     e.book.All(),
		Trades:        e.trades.All(),
	}
}

func (e *Engine) snapshotPtrLocked() *domain.Snapshot {
	snap := e.snapshotLocked()
	return &snap
}

// Subscribe registers a callback invoked with a fresh snapshot after every
// mutation. Callbacks run outside the engine mutex and must not block.
func (e *Engine) Subscribe(fn func(domain.Snapshot)) {
	if fn == nil {
		return
	}
	e.subMu.Lock()
	e.subscribers = append(e.subscribers, fn)
	e.subMu.Unlock()
}

func (e *Engine) notify(snapshot domain.Snapshot) {
	e.subMu.Lock()
	subs := make([]func(domain.Snapshot), len(e.subscribers))
	copy(subs, e.subscribers)
	e.subMu.Unlock()
	for _, fn := range subs {
		fn(snapshot)
	}
}

// --- Read accessors ---

// Ready reports whether the snapshot has been loaded.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// Cash returns the current cash balance.
func (e *Engine) Cash() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cash
}

// RealizedPnL returns the accumulated realized profit and loss.
func (e *Engine) RealizedPnL() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.realizedPnL
}

// UnrealizedPnL sums unrealized PnL across held positions.
func (e *Engine) UnrealizedPnL() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.UnrealizedPnLTotal()
}

// TotalPnL is realized plus unrealized PnL.
func (e *Engine) TotalPnL() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.realizedPnL.Add(e.book.UnrealizedPnLTotal())
}

// NetWorth is cash plus the market value of all positions.
func (e *Engine) NetWorth() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cash.Add(e.book.MarketValueTotal())
}

// State reports the lifecycle state of the engine.
func (e *Engine) State() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.halted && e.recoveryUsed:
		return domain.StateHaltedExhausted
	case e.halted:
		return domain.StateHalted
	default:
		return domain.StateActive
	}
}

// CanRecover reports whether the one-shot emergency recovery is available.
func (e *Engine) CanRecover() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.halted && !e.recoveryUsed
}

// RecoveryUsed reports whether the emergency recovery has been spent.
func (e *Engine) RecoveryUsed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recoveryUsed
}

// Positions returns a copy of the held positions, most-recently-opened first.
func (e *Engine) Positions() []domain.Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.All()
}

// Trades returns a copy of the trade history, most-recent-first.
func (e *Engine) Trades() []domain.TradeRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.trades.All()
}

// LatestPrice returns the most recently fetched price for the exact symbol.
// There is no fallback to a different symbol.
func (e *Engine) LatestPrice(symbol string) (decimal.Decimal, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	price, ok := e.latestPrices[domain.CanonicalSymbol(symbol)]
	return price, ok
}

// TrackedSymbols returns the symbols the engine cares about: every held
// position's symbol.
func (e *Engine) TrackedSymbols() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Symbols()
}

// Snapshot returns a copy of the full current state (the pull side of the
// change-notification interface).
func (e *Engine) Snapshot() domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}
