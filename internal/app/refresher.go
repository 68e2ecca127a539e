package app

import (
	"context"
	"sync"
	"time"

	"stocksim/internal/domain"
	"stocksim/internal/ports"
)

// Refresher periodically pulls quotes for the selected symbol and every held
// position, feeds them into the engine, and flushes one snapshot per cycle.
type Refresher struct {
	engine *Engine
	quotes ports.QuoteSource
	logger ports.Logger

	interval time.Duration

	mu       sync.Mutex
	selected string

	// onQuote, when set, receives the quote for the selected symbol each
	// cycle. Used by the interactive shell to echo the live price.
	onQuote func(domain.Quote)
}

// NewRefresher creates a refresher. The interval must be positive.
func NewRefresher(engine *Engine, quotes ports.QuoteSource, logger ports.Logger, interval time.Duration, selected string) *Refresher {
	if interval <= 0 {
		interval = 8 * time.Second
	}
	return &Refresher{
		engine:   engine,
		quotes:   quotes,
		logger:   logger,
		interval: interval,
		selected: domain.CanonicalSymbol(selected),
	}
}

// SetSelected switches the symbol refreshed for display each cycle.
func (r *Refresher) SetSelected(symbol string) {
	r.mu.Lock()
	r.selected = domain.CanonicalSymbol(symbol)
	r.mu.Unlock()
}

// Selected returns the currently selected symbol.
func (r *Refresher) Selected() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selected
}

// OnQuote registers a callback for the selected symbol's quote each cycle.
func (r *Refresher) OnQuote(fn func(domain.Quote)) {
	r.mu.Lock()
	r.onQuote = fn
	r.mu.Unlock()
}

// Run executes refresh cycles until the context is cancelled. The first
// cycle runs immediately so the UI has a price before the first tick.
func (r *Refresher) Run(ctx context.Context) {
	r.Cycle(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Cycle(ctx)
		}
	}
}

// Cycle fetches quotes for the selected symbol and all held positions,
// applies each usable quote to the engine, and persists once at the end.
func (r *Refresher) Cycle(ctx context.Context) {
	r.mu.Lock()
	selected := r.selected
	onQuote := r.onQuote
	r.mu.Unlock()

	symbols := r.trackedSymbols(selected)
	applied := 0
	for _, symbol := range symbols {
		quote, err := r.quotes.GetQuote(ctx, symbol)
		if err != nil {
			r.logger.Warn(ctx, "Quote fetch failed", map[string]interface{}{"symbol": symbol, "error": err.Error()})
			continue
		}
		if !quote.Usable() {
			continue
		}
		if err := r.engine.ApplyPriceUpdate(ctx, quote.Symbol, quote.Price); err != nil {
			r.logger.Warn(ctx, "Price update skipped", map[string]interface{}{"symbol": quote.Symbol, "error": err.Error()})
			continue
		}
		applied++
		if onQuote != nil && quote.Symbol == selected {
			onQuote(*quote)
		}
	}

	if applied > 0 {
		if err := r.engine.Flush(ctx); err != nil {
			r.logger.Error(ctx, err, "Failed to flush portfolio after refresh cycle")
		}
	}
}

// trackedSymbols returns the selected symbol plus every held symbol,
// deduplicated, selected first.
func (r *Refresher) trackedSymbols(selected string) []string {
	held := r.engine.TrackedSymbols()
	out := make([]string, 0, len(held)+1)
	seen := make(map[string]struct{}, len(held)+1)
	if selected != "" {
		out = append(out, selected)
		seen[selected] = struct{}{}
	}
	for _, s := range held {
		if _, ok := seen[s]; ok {
			continue
		}
		out = append(out, s)
		seen[s] = struct{}{}
	}
	return out
}
