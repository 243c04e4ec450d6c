// Package market fetches price, liquidity and volume for a token from a
// market-aggregator API whose endpoints and response shapes vary.
package market

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// DefaultTimeout bounds each candidate endpoint attempt.
const DefaultTimeout = 8 * time.Second

// defaultEndpoints are candidate URL templates tried in order. All are
// scoped to the token address; the first one that yields any field wins.
var defaultEndpoints = []string{
	"https://api.dexscreener.com/token-pairs/v1/solana/%s",
	"https://api.dexscreener.com/latest/dex/tokens/%s",
	"https://api.dexscreener.com/tokens/v1/solana/%s",
	"https://api.dexscreener.com/latest/dex/search?q=%s",
}

// Snapshot is a best-effort market view of a token. Nil numeric fields
// and empty strings are unavailable.
type Snapshot struct {
	Name      string
	Symbol    string
	Price     *float64
	Liquidity *float64
	Volume24h *float64
	URL       string
}

// Empty reports whether the snapshot carries no field at all.
func (s Snapshot) Empty() bool {
	return s.Name == "" && s.Symbol == "" &&
		s.Price == nil && s.Liquidity == nil && s.Volume24h == nil
}

// Client queries the market aggregator across its candidate endpoints.
type Client struct {
	endpoints []string
	client    *http.Client
	logger    *log.Logger
}

// Option configures Client.
type Option func(*Client)

// WithEndpoints overrides the candidate endpoint templates.
func WithEndpoints(endpoints []string) Option {
	return func(c *Client) {
		c.endpoints = endpoints
	}
}

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithLogger sets a logger for skipped candidates.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a market data client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoints: defaultEndpoints,
		client:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch walks the candidate endpoints and returns the first non-empty
// snapshot. Every failure mode (network, status, shape) skips silently
// to the next candidate; all candidates failing yields an empty snapshot.
func (c *Client) Fetch(ctx context.Context, mint string) Snapshot {
	for _, tmpl := range c.endpoints {
		endpoint := fmt.Sprintf(tmpl, mint)
		body, err := c.get(ctx, endpoint)
		if err != nil {
			c.logf("mint %s: candidate %s: %v", mint, endpoint, err)
			continue
		}
		if snap, ok := parseSnapshot(body); ok {
			return snap
		}
	}
	return Snapshot{}
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
