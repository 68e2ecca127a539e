package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookApplyBuy(t *testing.T) {
	book := NewPositionBook()
	book.ApplyBuy("AAPL", 10, d("100"))
	book.ApplyBuy("msft", 5, d("300"))

	require.Equal(t, 2, book.Len())
	assert.Equal(t, []string{"MSFT", "AAPL"}, book.Symbols(), "most recently opened first")

	// Second buy of a held symbol folds into the existing position.
	book.ApplyBuy("AAPL", 10, d("200"))
	require.Equal(t, 2, book.Len())
	pos := book.Get("aapl")
	require.NotNil(t, pos)
	assert.Equal(t, int64(20), pos.Quantity)
	assert.True(t, pos.AverageCost.Equal(d("150")))
	assert.Equal(t, []string{"MSFT", "AAPL"}, book.Symbols(), "adding shares keeps original slot")
}

func TestBookApplySell(t *testing.T) {
	book := NewPositionBook()
	book.ApplyBuy("AAPL", 10, d("100"))

	book.ApplySell("AAPL", 4)
	pos := book.Get("AAPL")
	require.NotNil(t, pos)
	assert.Equal(t, int64(6), pos.Quantity)

	book.ApplySell("AAPL", 6)
	assert.Nil(t, book.Get("AAPL"), "selling down to zero removes the position")
	assert.Equal(t, 0, book.Len())
}

func TestBookSetMarketPrice(t *testing.T) {
	book := NewPositionBook()
	book.ApplyBuy("AAPL", 10, d("100"))

	book.SetMarketPrice("AAPL", d("120"))
	assert.True(t, book.Get("AAPL").MarketPrice.Equal(d("120")))

	// Unheld symbols and bad prices are ignored.
	book.SetMarketPrice("MSFT", d("300"))
	book.SetMarketPrice("AAPL", d("0"))
	assert.True(t, book.Get("AAPL").MarketPrice.Equal(d("120")))
	assert.Equal(t, 1, book.Len())
}

func TestBookTotals(t *testing.T) {
	book := NewPositionBook()
	assert.True(t, book.MarketValueTotal().IsZero())
	assert.True(t, book.UnrealizedPnLTotal().IsZero())

	book.ApplyBuy("AAPL", 10, d("100"))
	book.ApplyBuy("MSFT", 2, d("300"))
	book.SetMarketPrice("AAPL", d("50"))

	assert.True(t, book.MarketValueTotal().Equal(d("1100")), "10*50 + 2*300")
	assert.True(t, book.UnrealizedPnLTotal().Equal(d("-500")))
}

func TestBookAllReturnsCopies(t *testing.T) {
	book := NewPositionBook()
	book.ApplyBuy("AAPL", 10, d("100"))

	all := book.All()
	require.Len(t, all, 1)
	all[0].Quantity = 999
	assert.Equal(t, int64(10), book.Get("AAPL").Quantity)
}

func TestBookRestore(t *testing.T) {
	book := NewPositionBook()
	book.ApplyBuy("OLD", 1, d("1"))

	book.Restore([]*Position{
		RestorePosition("AAPL", 10, d("100"), d("110")),
		nil,
		RestorePosition("MSFT", 5, d("300"), d("310")),
	})
	assert.Equal(t, []string{"AAPL", "MSFT"}, book.Symbols())
}
