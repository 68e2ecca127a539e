package domain

import "github.com/shopspring/decimal"

// Snapshot is the complete persistable state of the portfolio aggregate.
// It is both the persistence unit handed to the store and the payload pushed
// to change subscribers.
type Snapshot struct {
	Cash          decimal.Decimal
	RealizedPnL   decimal.Decimal
	RecoveryUsed  bool
	TradingHalted bool
	Positions     []Position    // most-recently-opened first
	Trades        []TradeRecord // most-recent-first, capped
}

// DefaultSnapshot is the starting state of a fresh portfolio.
func DefaultSnapshot(startingCash decimal.Decimal) *Snapshot {
	return &Snapshot{
		Cash:        startingCash,
		RealizedPnL: decimal.Zero,
		Positions:   make([]Position, 0),
		Trades:      make([]TradeRecord, 0),
	}
}

// NetWorth is cash plus the market value of all positions.
func (s *Snapshot) NetWorth() decimal.Decimal {
	total := s.Cash
	for i := range s.Positions {
		total = total.Add(s.Positions[i].MarketValue())
	}
	return total
}
