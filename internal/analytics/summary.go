// Package analytics derives summary statistics from the trade history.
package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"stocksim/internal/domain"
)

// ActivitySummary holds aggregate statistics over a slice of trades.
type ActivitySummary struct {
	TotalTrades    int
	BuyCount       int
	SellCount      int
	RecoveryCount  int
	BuyVolume      decimal.Decimal // cash spent on buys
	SellVolume     decimal.Decimal // cash received on sells
	SharesBought   int64
	SharesSold     int64
	SymbolActivity map[string]SymbolActivity
}

// SymbolActivity aggregates per-symbol trade counts and volumes.
type SymbolActivity struct {
	Symbol     string
	Trades     int
	BuyVolume  decimal.Decimal
	SellVolume decimal.Decimal
}

// Summarize computes aggregate statistics from a trade history. Recovery
// entries count toward TotalTrades but not toward volumes.
func Summarize(trades []domain.TradeRecord) *ActivitySummary {
	summary := &ActivitySummary{
		BuyVolume:      decimal.Zero,
		SellVolume:     decimal.Zero,
		SymbolActivity: make(map[string]SymbolActivity),
	}

	for _, trade := range trades {
		summary.TotalTrades++

		switch trade.Side {
		case domain.Buy:
			summary.BuyCount++
			summary.BuyVolume = summary.BuyVolume.Add(trade.Value())
			summary.SharesBought += trade.Quantity
		case domain.Sell:
			summary.SellCount++
			summary.SellVolume = summary.SellVolume.Add(trade.Value())
			summary.SharesSold += trade.Quantity
		case domain.Recovery:
			summary.RecoveryCount++
			continue
		default:
			continue
		}

		activity, ok := summary.SymbolActivity[trade.Symbol]
		if !ok {
			activity = SymbolActivity{
				Symbol:     trade.Symbol,
				BuyVolume:  decimal.Zero,
				SellVolume: decimal.Zero,
			}
		}
		activity.Trades++
		if trade.Side == domain.Buy {
			activity.BuyVolume = activity.BuyVolume.Add(trade.Value())
		} else {
			activity.SellVolume = activity.SellVolume.Add(trade.Value())
		}
		summary.SymbolActivity[trade.Symbol] = activity
	}

	return summary
}

// MostActive returns per-symbol activity sorted by trade count, busiest
// first, ties broken alphabetically.
func (s *ActivitySummary) MostActive() []SymbolActivity {
	out := make([]SymbolActivity, 0, len(s.SymbolActivity))
	for _, activity := range s.SymbolActivity {
		out = append(out, activity)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Trades != out[j].Trades {
			return out[i].Trades > out[j].Trades
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// NetFlow is sell volume minus buy volume: the net cash the trade history
// moved into the account.
func (s *ActivitySummary) NetFlow() decimal.Decimal {
	return s.SellVolume.Sub(s.BuyVolume)
}
