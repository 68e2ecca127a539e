package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"stocksim/internal/domain"
)

// PortfolioStore defines the interface for durably persisting the single
// portfolio snapshot. The store holds exactly one portfolio.
//
// Implementations must serialize all operations against each other (single
// writer discipline), initialize their schema lazily and idempotently, and
// make Save atomic across the state record, position rows and trade rows so
// an interrupted process can never observe a partially replaced snapshot.
type PortfolioStore interface {
	// Load returns the stored snapshot, or a fresh default one with the
	// given starting cash when no prior state exists. Invalid rows
	// (non-positive quantity, blank symbol) are dropped, loaded cash is
	// clamped non-negative, and the trade history is truncated to the most
	// recent 100 entries.
	Load(ctx context.Context, defaultStartingCash decimal.Decimal) (*domain.Snapshot, error)
	// Save atomically replaces the stored snapshot: the singleton state
	// record is upserted and the position and trade row sets are wholly
	// replaced within one transaction.
	Save(ctx context.Context, snapshot *domain.Snapshot) error
	// Reset atomically deletes all rows across state, positions and trades,
	// so a later crash recovery cannot resurrect stale data.
	Reset(ctx context.Context) error
	// Close releases the underlying storage handle.
	Close() error
}
