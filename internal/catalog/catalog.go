// Package catalog holds the static universe of tradeable instruments.
// Symbols follow Yahoo Finance conventions; Stockholm listings carry the
// ".ST" suffix.
package catalog

import "stocksim/internal/domain"

// TradeUniverse lists every instrument the simulator knows about.
var TradeUniverse = []domain.Instrument{
	{Symbol: "AAPL", Name: "Apple", Cap: "Mega", Region: "US"},
	{Symbol: "MSFT", Name: "Microsoft", Cap: "Mega", Region: "US"},
	{Symbol: "NVDA", Name: "NVIDIA", Cap: "Mega", Region: "US"},
	{Symbol: "AMZN", Name: "Amazon", Cap: "Mega", Region: "US"},
	{Symbol: "GOOGL", Name: "Alphabet", Cap: "Mega", Region: "US"},
	{Symbol: "TSLA", Name: "Tesla", Cap: "Large", Region: "US"},

	{Symbol: "ATCO-A.ST", Name: "Atlas Copco A", Cap: "Large", Region: "Sweden"},
	{Symbol: "ATCO-B.ST", Name: "Atlas Copco B", Cap: "Large", Region: "Sweden"},
	{Symbol: "VOLV-B.ST", Name: "Volvo B", Cap: "Large", Region: "Sweden"},
	{Symbol: "ERIC-B.ST", Name: "Ericsson B", Cap: "Large", Region: "Sweden"},
	{Symbol: "INVE-B.ST", Name: "Investor B", Cap: "Large", Region: "Sweden"},
	{Symbol: "SEB-A.ST", Name: "SEB A", Cap: "Large", Region: "Sweden"},
	{Symbol: "SWED-A.ST", Name: "Swedbank A", Cap: "Large", Region: "Sweden"},
	{Symbol: "SHB-A.ST", Name: "Handelsbanken A", Cap: "Large", Region: "Sweden"},
	{Symbol: "ASSA-B.ST", Name: "Assa Abloy B", Cap: "Large", Region: "Sweden"},
	{Symbol: "SAND.ST", Name: "Sandvik", Cap: "Large", Region: "Sweden"},
	{Symbol: "SKF-B.ST", Name: "SKF B", Cap: "Large", Region: "Sweden"},
	{Symbol: "EVO.ST", Name: "Evolution", Cap: "Large", Region: "Sweden"},

	{Symbol: "NIBE-B.ST", Name: "Nibe B", Cap: "Mid", Region: "Sweden"},
	{Symbol: "LATO-B.ST", Name: "Latour B", Cap: "Mid", Region: "Sweden"},
	{Symbol: "ALFA.ST", Name: "Alfa Laval", Cap: "Mid", Region: "Sweden"},
	{Symbol: "HEXA-B.ST", Name: "Hexagon B", Cap: "Mid", Region: "Sweden"},
	{Symbol: "TEL2-B.ST", Name: "Tele2 B", Cap: "Mid", Region: "Sweden"},
	{Symbol: "BOL.ST", Name: "Boliden", Cap: "Mid", Region: "Sweden"},
	{Symbol: "SCA-B.ST", Name: "SCA B", Cap: "Mid", Region: "Sweden"},
	{Symbol: "ESSITY-B.ST", Name: "Essity B", Cap: "Mid", Region: "Sweden"},
	{Symbol: "SINCH.ST", Name: "Sinch", Cap: "Mid", Region: "Sweden"},

	{Symbol: "SBB-B.ST", Name: "SBB B", Cap: "Small", Region: "Sweden"},
	{Symbol: "JM.ST", Name: "JM", Cap: "Small", Region: "Sweden"},
	{Symbol: "MYCR.ST", Name: "Mycronic", Cap: "Small", Region: "Sweden"},
	{Symbol: "AAK.ST", Name: "AAK", Cap: "Small", Region: "Sweden"},
	{Symbol: "WIHL.ST", Name: "Wihlborgs", Cap: "Small", Region: "Sweden"},
	{Symbol: "BICO.ST", Name: "BICO Group", Cap: "Small", Region: "Sweden"},
	{Symbol: "CATE.ST", Name: "Catena", Cap: "Small", Region: "Sweden"},
}

// Find returns the instrument for a symbol, matched case-insensitively.
func Find(symbol string) (domain.Instrument, bool) {
	canon := domain.CanonicalSymbol(symbol)
	for _, inst := range TradeUniverse {
		if inst.Symbol == canon {
			return inst, true
		}
	}
	return domain.Instrument{}, false
}

// Filter returns instruments matching the given region and cap. An empty
// region or cap matches everything.
func Filter(region, cap string) []domain.Instrument {
	var out []domain.Instrument
	for _, inst := range TradeUniverse {
		if region != "" && inst.Region != region {
			continue
		}
		if cap != "" && inst.Cap != cap {
			continue
		}
		out = append(out, inst)
	}
	return out
}

// SwedenLarge returns the Stockholm large caps.
func SwedenLarge() []domain.Instrument { return Filter("Sweden", "Large") }

// SwedenMid returns the Stockholm mid caps.
func SwedenMid() []domain.Instrument { return Filter("Sweden", "Mid") }

// SwedenSmall returns the Stockholm small caps.
func SwedenSmall() []domain.Instrument { return Filter("Sweden", "Small") }

// SwedenAll returns every Stockholm listing.
func SwedenAll() []domain.Instrument { return Filter("Sweden", "") }
