package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeRecord is an immutable entry in the trade ledger, one per executed
// order or recovery event.
type TradeRecord struct {
	Side      TradeSide
	Symbol    string
	Quantity  int64
	Price     decimal.Decimal
	Timestamp time.Time
}

// Value is the cash value of the trade (price * quantity).
func (t TradeRecord) Value() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity))
}
