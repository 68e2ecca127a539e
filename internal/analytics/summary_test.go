package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksim/internal/domain"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func trade(side domain.TradeSide, symbol string, quantity int64, price string) domain.TradeRecord {
	return domain.TradeRecord{
		Side: side, Symbol: symbol, Quantity: quantity, Price: d(price), Timestamp: time.Now(),
	}
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	assert.Zero(t, summary.TotalTrades)
	assert.True(t, summary.BuyVolume.IsZero())
	assert.True(t, summary.NetFlow().IsZero())
	assert.Empty(t, summary.MostActive())
}

func TestSummarize(t *testing.T) {
	trades := []domain.TradeRecord{
		trade(domain.Buy, "AAPL", 10, "100"),
		trade(domain.Buy, "MSFT", 2, "300"),
		trade(domain.Sell, "AAPL", 5, "110"),
		trade(domain.Recovery, "CASH", 1, "5000"),
	}

	summary := Summarize(trades)
	assert.Equal(t, 4, summary.TotalTrades)
	assert.Equal(t, 2, summary.BuyCount)
	assert.Equal(t, 1, summary.SellCount)
	assert.Equal(t, 1, summary.RecoveryCount)
	assert.Equal(t, int64(12), summary.SharesBought)
	assert.Equal(t, int64(5), summary.SharesSold)
	assert.True(t, summary.BuyVolume.Equal(d("1600")), "10*100 + 2*300")
	assert.True(t, summary.SellVolume.Equal(d("550")))
	assert.True(t, summary.NetFlow().Equal(d("-1050")))

	require.Len(t, summary.SymbolActivity, 2, "recovery entries carry no symbol activity")
	aapl := summary.SymbolActivity["AAPL"]
	assert.Equal(t, 2, aapl.Trades)
	assert.True(t, aapl.BuyVolume.Equal(d("1000")))
	assert.True(t, aapl.SellVolume.Equal(d("550")))
}

func TestMostActiveOrdering(t *testing.T) {
	trades := []domain.TradeRecord{
		trade(domain.Buy, "MSFT", 1, "1"),
		trade(domain.Buy, "AAPL", 1, "1"),
		trade(domain.Buy, "AAPL", 1, "1"),
		trade(domain.Buy, "TSLA", 1, "1"),
	}

	active := Summarize(trades).MostActive()
	require.Len(t, active, 3)
	assert.Equal(t, "AAPL", active[0].Symbol, "busiest first")
	assert.Equal(t, "MSFT", active[1].Symbol, "ties alphabetical")
	assert.Equal(t, "TSLA", active[2].Symbol)
}
