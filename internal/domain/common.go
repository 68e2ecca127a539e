package domain

import "strings"

// TradeSide represents the side of an executed order.
type TradeSide string

const (
	Buy      TradeSide = "BUY"
	Sell     TradeSide = "SELL"
	Recovery TradeSide = "RECOVERY" // one-time emergency fund injection
)

// ParseSide converts a user-supplied string into a TradeSide.
// Only BUY and SELL are accepted; RECOVERY is engine-generated.
func ParseSide(s string) (TradeSide, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(Buy):
		return Buy, true
	case string(Sell):
		return Sell, true
	}
	return "", false
}

// EngineState represents the lifecycle state of the portfolio engine.
type EngineState string

const (
	// StateActive means trading is permitted.
	StateActive EngineState = "active"
	// StateHalted means net worth dropped to or below zero and trading is
	// blocked; the one-shot recovery is still available.
	StateHalted EngineState = "halted"
	// StateHaltedExhausted means the portfolio is halted and the emergency
	// recovery has already been spent. Only a full reset clears it.
	StateHaltedExhausted EngineState = "halted_exhausted"
)

// CanonicalSymbol normalizes a symbol for case-insensitive matching.
func CanonicalSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
