package domain

import "github.com/shopspring/decimal"

// PositionBook maintains the set of held positions, keyed case-insensitively
// by symbol and ordered most-recently-opened first. All accounting is pure
// and synchronous; callers are responsible for serialization.
type PositionBook struct {
	positions []*Position
}

// NewPositionBook returns an empty book.
func NewPositionBook() *PositionBook {
	return &PositionBook{positions: make([]*Position, 0)}
}

// Get returns the held position for a symbol, or nil.
func (b *PositionBook) Get(symbol string) *Position {
	canon := CanonicalSymbol(symbol)
	for _, pos := range b.positions {
		if pos.Symbol == canon {
			return pos
		}
	}
	return nil
}

// ApplyBuy creates a position on first buy of a symbol, or folds the new lot
// into the existing position's weighted average cost. The buy price becomes
// the position's market price either way. Input validation (positive
// quantity, usable price) is the caller's responsibility.
func (b *PositionBook) ApplyBuy(symbol string, quantity int64, price decimal.Decimal) {
	if pos := b.Get(symbol); pos != nil {
		pos.AddShares(quantity, price)
		return
	}
	b.positions = append([]*Position{NewPosition(symbol, quantity, price)}, b.positions...)
}

// ApplySell decrements the held quantity and removes the position entirely
// when it reaches exactly zero. The caller guarantees that a position exists
// and holds at least the requested quantity.
func (b *PositionBook) ApplySell(symbol string, quantity int64) {
	canon := CanonicalSymbol(symbol)
	for i, pos := range b.positions {
		if pos.Symbol != canon {
			continue
		}
		pos.RemoveShares(quantity)
		if pos.Quantity == 0 {
			b.positions = append(b.positions[:i], b.positions[i+1:]...)
		}
		return
	}
}

// SetMarketPrice updates the market price of a held position. It silently
// no-ops for unheld symbols and for negative prices.
func (b *PositionBook) SetMarketPrice(symbol string, price decimal.Decimal) {
	if pos := b.Get(symbol); pos != nil {
		pos.SetMarketPrice(price)
	}
}

// MarketValueTotal is the book's contribution to net worth.
func (b *PositionBook) MarketValueTotal() decimal.Decimal {
	total := decimal.Zero
	for _, pos := range b.positions {
		total = total.Add(pos.MarketValue())
	}
	return total
}

// UnrealizedPnLTotal sums unrealized PnL across held positions.
func (b *PositionBook) UnrealizedPnLTotal() decimal.Decimal {
	total := decimal.Zero
	for _, pos := range b.positions {
		total = total.Add(pos.UnrealizedPnL())
	}
	return total
}

// All returns a copy of the held positions, most-recently-opened first.
func (b *PositionBook) All() []Position {
	out := make([]Position, 0, len(b.positions))
	for _, pos := range b.positions {
		out = append(out, *pos)
	}
	return out
}

// Symbols returns the canonical symbols currently held.
func (b *PositionBook) Symbols() []string {
	out := make([]string, 0, len(b.positions))
	for _, pos := range b.positions {
		out = append(out, pos.Symbol)
	}
	return out
}

// Len reports the number of held positions.
func (b *PositionBook) Len() int {
	return len(b.positions)
}

// Clear drops every position.
func (b *PositionBook) Clear() {
	b.positions = b.positions[:0]
}

// Restore replaces the book's contents with already-sanitized positions,
// preserving the given order.
func (b *PositionBook) Restore(positions []*Position) {
	b.positions = b.positions[:0]
	for _, pos := range positions {
		if pos != nil {
			b.positions = append(b.positions, pos)
		}
	}
}
