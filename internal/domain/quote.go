package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time price observation for a symbol. Live indicates an
// authoritative market quote; false means a synthetic fallback estimate.
type Quote struct {
	Symbol        string
	Price         decimal.Decimal
	ChangePercent decimal.Decimal
	Timestamp     time.Time
	Live          bool
}

// Usable reports whether the quote carries a price the engine can act on.
func (q *Quote) Usable() bool {
	return q != nil && q.Price.IsPositive()
}
