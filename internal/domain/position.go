package domain

import "github.com/shopspring/decimal"

// minMarketPrice is the floor applied when a restored position has neither a
// usable market price nor a usable average cost, so a held position never
// carries an undefined value.
var minMarketPrice = decimal.NewFromFloat(0.01)

// Position represents the holding for a single symbol.
// A position only exists while Quantity > 0; selling down to zero removes it
// from the book entirely.
type Position struct {
	Symbol      string          // canonical (upper-case) symbol
	Quantity    int64           // strictly positive while the position exists
	AverageCost decimal.Decimal // volume-weighted average purchase price
	MarketPrice decimal.Decimal // last known quote for this symbol
}

// NewPosition creates a position from a first buy. The buy price seeds both
// the average cost and the market price.
func NewPosition(symbol string, quantity int64, price decimal.Decimal) *Position {
	return &Position{
		Symbol:      CanonicalSymbol(symbol),
		Quantity:    quantity,
		AverageCost: price,
		MarketPrice: price,
	}
}

// RestorePosition rebuilds a position from persisted state, applying the
// load-time sanitization rules: rows with non-positive quantity or a blank
// symbol are dropped (nil return), average cost is clamped non-negative, and
// the market price falls back to the average cost, floored at a minimal
// positive value so the position always has a defined value.
func RestorePosition(symbol string, quantity int64, averageCost, marketPrice decimal.Decimal) *Position {
	canon := CanonicalSymbol(symbol)
	if canon == "" || quantity <= 0 {
		return nil
	}
	if averageCost.IsNegative() {
		averageCost = decimal.Zero
	}
	if !marketPrice.IsPositive() {
		marketPrice = averageCost
	}
	if !marketPrice.IsPositive() {
		marketPrice = minMarketPrice
	}
	return &Position{
		Symbol:      canon,
		Quantity:    quantity,
		AverageCost: averageCost,
		MarketPrice: marketPrice,
	}
}

// AddShares applies a subsequent buy: the average cost is recomputed as the
// volume-weighted average of the existing lot and the new lot, and the market
// price moves to the buy price.
func (p *Position) AddShares(quantity int64, price decimal.Decimal) {
	oldQty := decimal.NewFromInt(p.Quantity)
	newQty := decimal.NewFromInt(quantity)
	totalCost := p.AverageCost.Mul(oldQty).Add(price.Mul(newQty))
	p.Quantity += quantity
	p.AverageCost = totalCost.Div(decimal.NewFromInt(p.Quantity))
	p.MarketPrice = price
}

// RemoveShares applies a sell. The average cost is untouched; realized PnL
// is the caller's concern and must be computed before this mutation.
func (p *Position) RemoveShares(quantity int64) {
	p.Quantity -= quantity
	if p.Quantity < 0 {
		p.Quantity = 0
	}
}

// SetMarketPrice updates the last known quote. A zero price is accepted
// (a worthless position is a real state the solvency check must see);
// negative prices are ignored.
func (p *Position) SetMarketPrice(price decimal.Decimal) {
	if !price.IsNegative() {
		p.MarketPrice = price
	}
}

// MarketValue is quantity times the last known market price.
func (p *Position) MarketValue() decimal.Decimal {
	return p.MarketPrice.Mul(decimal.NewFromInt(p.Quantity))
}

// UnrealizedPnL is (marketPrice - averageCost) * quantity.
func (p *Position) UnrealizedPnL() decimal.Decimal {
	return p.MarketPrice.Sub(p.AverageCost).Mul(decimal.NewFromInt(p.Quantity))
}
