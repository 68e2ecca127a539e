package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksim/internal/domain"
)

func TestFind(t *testing.T) {
	inst, ok := Find("aapl")
	require.True(t, ok)
	assert.Equal(t, "AAPL", inst.Symbol)
	assert.Equal(t, "Apple", inst.Name)

	inst, ok = Find(" volv-b.st ")
	require.True(t, ok)
	assert.Equal(t, "VOLV-B.ST", inst.Symbol)

	_, ok = Find("NOPE")
	assert.False(t, ok)
}

func TestFilters(t *testing.T) {
	assert.Len(t, SwedenLarge(), 12)
	assert.Len(t, SwedenMid(), 9)
	assert.Len(t, SwedenSmall(), 7)
	assert.Len(t, SwedenAll(), 28)
	assert.Len(t, Filter("US", ""), 6)
	assert.Len(t, Filter("", ""), len(TradeUniverse))

	for _, inst := range SwedenAll() {
		assert.Equal(t, "Sweden", inst.Region)
	}
}

func TestUniverseSymbolsCanonical(t *testing.T) {
	seen := make(map[string]bool)
	for _, inst := range TradeUniverse {
		assert.Equal(t, domain.CanonicalSymbol(inst.Symbol), inst.Symbol,
			"catalog symbols must already be canonical")
		assert.False(t, seen[inst.Symbol], "duplicate symbol %s", inst.Symbol)
		seen[inst.Symbol] = true
	}
}
