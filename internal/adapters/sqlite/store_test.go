package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksim/internal/domain"
)

type noopLogger struct{}

func (noopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (noopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (noopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (noopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewStore(Config{DBPath: dbPath, Logger: noopLogger{}})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	snap, err := store.Load(ctx, d("10000"))
	require.NoError(t, err)
	assert.True(t, snap.Cash.Equal(d("10000")))
	assert.True(t, snap.RealizedPnL.IsZero())
	assert.False(t, snap.RecoveryUsed)
	assert.False(t, snap.TradingHalted)
	assert.Empty(t, snap.Positions)
	assert.Empty(t, snap.Trades)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	in := &domain.Snapshot{
		Cash:          d("1234.5678901234567890"),
		RealizedPnL:   d("-42.42"),
		RecoveryUsed:  true,
		TradingHalted: true,
		Positions: []domain.Position{
			{Symbol: "MSFT", Quantity: 2, AverageCost: d("300.333333333333"), MarketPrice: d("310.01")},
			{Symbol: "AAPL", Quantity: 10, AverageCost: d("100.1"), MarketPrice: d("99.99")},
		},
		Trades: []domain.TradeRecord{
			{Side: domain.Sell, Symbol: "AAPL", Quantity: 5, Price: d("99.99"), Timestamp: ts.Add(time.Minute)},
			{Side: domain.Buy, Symbol: "AAPL", Quantity: 15, Price: d("100.1"), Timestamp: ts},
		},
	}
	require.NoError(t, store.Save(ctx, in))

	out, err := store.Load(ctx, d("10000"))
	require.NoError(t, err)

	assert.True(t, out.Cash.Equal(in.Cash), "cash must round-trip exactly, got %s", out.Cash)
	assert.True(t, out.RealizedPnL.Equal(in.RealizedPnL))
	assert.True(t, out.RecoveryUsed)
	assert.True(t, out.TradingHalted)

	require.Len(t, out.Positions, 2)
	assert.Equal(t, "MSFT", out.Positions[0].Symbol, "position order preserved")
	assert.True(t, out.Positions[0].AverageCost.Equal(d("300.333333333333")))
	assert.Equal(t, "AAPL", out.Positions[1].Symbol)

	require.Len(t, out.Trades, 2)
	assert.Equal(t, domain.Sell, out.Trades[0].Side, "most recent trade first")
	assert.Equal(t, ts.Add(time.Minute), out.Trades[0].Timestamp)
	assert.True(t, out.Trades[1].Price.Equal(d("100.1")))
}

func TestSaveLoadSaveIsStable(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := &domain.Snapshot{
		Cash:        d("9000"),
		RealizedPnL: d("0"),
		Positions: []domain.Position{
			{Symbol: "AAPL", Quantity: 10, AverageCost: d("100"), MarketPrice: d("100")},
		},
		Trades: []domain.TradeRecord{
			{Side: domain.Buy, Symbol: "AAPL", Quantity: 10, Price: d("100"), Timestamp: time.Now().UTC().Truncate(time.Millisecond)},
		},
	}
	require.NoError(t, store.Save(ctx, in))

	first, err := store.Load(ctx, d("10000"))
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, first))

	second, err := store.Load(ctx, d("10000"))
	require.NoError(t, err)
	assert.Equal(t, first, second, "save(load()) must be a no-op")
}

func TestSaveReplacesWholly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Snapshot{
		Cash: d("9000"),
		Positions: []domain.Position{
			{Symbol: "AAPL", Quantity: 10, AverageCost: d("100"), MarketPrice: d("100")},
			{Symbol: "MSFT", Quantity: 2, AverageCost: d("300"), MarketPrice: d("300")},
		},
	}))

	// Second save with fewer rows must not leave orphans behind.
	require.NoError(t, store.Save(ctx, &domain.Snapshot{
		Cash: d("9500"),
		Positions: []domain.Position{
			{Symbol: "MSFT", Quantity: 2, AverageCost: d("300"), MarketPrice: d("310")},
		},
	}))

	out, err := store.Load(ctx, d("10000"))
	require.NoError(t, err)
	require.Len(t, out.Positions, 1)
	assert.Equal(t, "MSFT", out.Positions[0].Symbol)
	assert.True(t, out.Cash.Equal(d("9500")))
}

func TestSaveTruncatesTrades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	trades := make([]domain.TradeRecord, 120)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range trades {
		// Most-recent-first input ordering.
		trades[i] = domain.TradeRecord{
			Side:      domain.Buy,
			Symbol:    "AAPL",
			Quantity:  int64(120 - i),
			Price:     d("1"),
			Timestamp: base.Add(time.Duration(120-i) * time.Second),
		}
	}
	require.NoError(t, store.Save(ctx, &domain.Snapshot{Cash: d("1"), Trades: trades}))

	out, err := store.Load(ctx, d("10000"))
	require.NoError(t, err)
	require.Len(t, out.Trades, 100)
	assert.Equal(t, int64(120), out.Trades[0].Quantity, "newest trade survives")
	assert.Equal(t, int64(21), out.Trades[99].Quantity, "oldest twenty dropped")
}

func TestLoadSanitization(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &domain.Snapshot{Cash: d("1")}))

	// Corrupt the tables directly, bypassing Save's well-formed input.
	_, err := store.db.ExecContext(ctx,
		`UPDATE portfolio_state SET cash = '-500', realized_pnl = 'garbage' WHERE id = 1`)
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx,
		`INSERT INTO portfolio_positions (symbol, quantity, average_cost, market_price) VALUES
		 ('AAPL', 10, '-5', '0'),
		 ('', 10, '1', '1'),
		 ('MSFT', 0, '1', '1'),
		 ('tsla', 3, '200', '0')`)
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx,
		`INSERT INTO portfolio_trades (side, symbol, quantity, price, ts_unix_ms) VALUES
		 ('BUY', 'AAPL', 10, '100', 1000),
		 ('BUY', '', 10, '100', 2000),
		 ('SELL', 'AAPL', 0, '100', 3000),
		 ('SELL', 'AAPL', 1, '-1', 4000)`)
	require.NoError(t, err)

	snap, err := store.Load(ctx, d("10000"))
	require.NoError(t, err)

	assert.True(t, snap.Cash.IsZero(), "negative stored cash clamps to zero")
	assert.True(t, snap.RealizedPnL.IsZero(), "unparseable PnL falls back to zero")

	require.Len(t, snap.Positions, 2, "blank-symbol and zero-quantity rows dropped")
	assert.Equal(t, "TSLA", snap.Positions[0].Symbol, "descending id order, symbol canonicalized")
	assert.True(t, snap.Positions[0].MarketPrice.Equal(d("200")), "market price falls back to average cost")
	assert.Equal(t, "AAPL", snap.Positions[1].Symbol)
	assert.True(t, snap.Positions[1].AverageCost.IsZero(), "negative average cost clamps to zero")
	assert.True(t, snap.Positions[1].MarketPrice.Equal(d("0.01")), "floor when no usable price")

	require.Len(t, snap.Trades, 1, "invalid trade rows dropped")
	assert.Equal(t, "AAPL", snap.Trades[0].Symbol)
}

func TestReset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Snapshot{
		Cash: d("9000"),
		Positions: []domain.Position{
			{Symbol: "AAPL", Quantity: 10, AverageCost: d("100"), MarketPrice: d("100")},
		},
		Trades: []domain.TradeRecord{
			{Side: domain.Buy, Symbol: "AAPL", Quantity: 10, Price: d("100"), Timestamp: time.Now()},
		},
	}))

	require.NoError(t, store.Reset(ctx))

	for _, table := range []string{"portfolio_state", "portfolio_positions", "portfolio_trades"} {
		var count int
		require.NoError(t, store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count))
		assert.Zero(t, count, "%s must hold no rows after reset", table)
	}

	snap, err := store.Load(ctx, d("10000"))
	require.NoError(t, err)
	assert.True(t, snap.Cash.Equal(d("10000")), "load after reset synthesizes defaults")
}

func TestSaveNilSnapshot(t *testing.T) {
	store := newTestStore(t)
	assert.Error(t, store.Save(context.Background(), nil))
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	store, err := NewStore(Config{DBPath: dbPath, Logger: noopLogger{}})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, &domain.Snapshot{Cash: d("7777.77")}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(Config{DBPath: dbPath, Logger: noopLogger{}})
	require.NoError(t, err)
	defer reopened.Close()

	snap, err := reopened.Load(ctx, d("10000"))
	require.NoError(t, err)
	assert.True(t, snap.Cash.Equal(d("7777.77")))
}
