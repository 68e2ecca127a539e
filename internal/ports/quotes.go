package ports

import (
	"context"

	"stocksim/internal/domain"
)

// QuoteSource defines the interface for fetching the current price of a
// symbol. Implementations apply their own timeout and may degrade to a
// synthetic fallback estimate rather than block the caller; the engine
// treats a non-positive price and an error identically ("no usable price")
// and retains whatever prior price it had cached.
type QuoteSource interface {
	GetQuote(ctx context.Context, symbol string) (*domain.Quote, error)
}
