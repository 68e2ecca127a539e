package marketdata

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"stocksim/internal/domain"
	"stocksim/internal/ports"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

var priceFloor = decimal.NewFromFloat(0.01)

// Client implements ports.QuoteSource against the Yahoo Finance chart
// endpoint. When the live lookup fails it degrades to a synthetic
// random-walk estimate around the last known price, so a transient feed
// outage never blocks the caller.
type Client struct {
	http   *resty.Client
	logger ports.Logger

	mu        sync.Mutex
	lastPrice map[string]decimal.Decimal
	rng       *rand.Rand
}

// Config holds configuration for the market data client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  ports.Logger
}

// New creates a market data client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for market data client")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "stocksim/1.0")

	return &Client{
		http:      httpClient,
		logger:    cfg.Logger,
		lastPrice: make(map[string]decimal.Decimal),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// chartResponse mirrors the subset of the Yahoo chart payload we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"previousClose"`
			} `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

// GetQuote returns the current quote for a symbol. A live lookup failure is
// not an error: the client falls back to a synthetic estimate flagged with
// Live=false.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	canon := domain.CanonicalSymbol(symbol)
	if canon == "" {
		return nil, fmt.Errorf("%w: blank symbol", ports.ErrQuoteUnavailable)
	}

	quote, err := c.fetchLive(ctx, canon)
	if err != nil {
		c.logger.Debug(ctx, "Live quote failed, using fallback estimate", map[string]interface{}{"symbol": canon, "error": err.Error()})
		return c.fallbackQuote(canon), nil
	}

	c.mu.Lock()
	c.lastPrice[canon] = quote.Price
	c.mu.Unlock()
	return quote, nil
}

func (c *Client) fetchLive(ctx context.Context, symbol string) (*domain.Quote, error) {
	var out chartResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/v8/finance/chart/%s?interval=1m&range=1d", url.PathEscape(symbol)))
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: quote endpoint returned status %d", ports.ErrQuoteUnavailable, resp.StatusCode())
	}
	if len(out.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: no quote data returned", ports.ErrQuoteUnavailable)
	}

	meta := out.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return nil, fmt.Errorf("%w: price is unavailable", ports.ErrQuoteUnavailable)
	}
	price := decimal.NewFromFloat(meta.RegularMarketPrice)

	prevClose := decimal.NewFromFloat(meta.PreviousClose)
	if !prevClose.IsPositive() {
		prevClose = price
	}
	changePct := price.Sub(prevClose).Div(prevClose).Mul(decimal.NewFromInt(100))

	return &domain.Quote{
		Symbol:        symbol,
		Price:         price,
		ChangePercent: changePct,
		Timestamp:     time.Now().UTC(),
		Live:          true,
	}, nil
}

// fallbackQuote produces a random-walk estimate: +/-1% jitter around the
// last known price, floored at a minimal positive value. Unseeded symbols
// start from a random base in the 100-300 range.
func (c *Client) fallbackQuote(symbol string) *domain.Quote {
	c.mu.Lock()
	defer c.mu.Unlock()

	base, ok := c.lastPrice[symbol]
	if !ok || !base.IsPositive() {
		base = decimal.NewFromFloat(100 + c.rng.Float64()*200)
	}

	jitter := decimal.NewFromFloat((c.rng.Float64() - 0.5) * 0.02)
	next := base.Mul(decimal.NewFromInt(1).Add(jitter))
	if next.LessThan(priceFloor) {
		next = priceFloor
	}
	changePct := next.Sub(base).Div(base).Mul(decimal.NewFromInt(100))
	c.lastPrice[symbol] = next

	return &domain.Quote{
		Symbol:        symbol,
		Price:         next,
		ChangePercent: changePct,
		Timestamp:     time.Now().UTC(),
		Live:          false,
	}
}
