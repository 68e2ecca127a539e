package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard
// errors; the engine returns the order-rejection errors verbatim so callers
// can name the specific reason to the user.
var (
	// General Errors
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Order Rejection Errors (validation; no state is mutated)
	ErrEngineNotReady     = errors.New("portfolio is not loaded yet")
	ErrTradingHalted      = errors.New("trading is halted: portfolio is bankrupt")
	ErrInvalidQuantity    = errors.New("quantity must be a whole number greater than zero")
	ErrUnknownSide        = errors.New("order side must be BUY or SELL")
	ErrNoQuote            = errors.New("no usable price available for symbol")
	ErrInsufficientCash   = errors.New("not enough cash for this buy order")
	ErrInsufficientShares = errors.New("not enough shares held for this sell order")

	// Quote Source Errors
	ErrQuoteUnavailable = errors.New("quote source returned no usable price")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
	ErrTxFailed     = errors.New("database transaction failed")
)
