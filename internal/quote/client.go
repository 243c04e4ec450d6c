// Package quote fetches a reference price from a swap-quote API by
// pricing one whole token unit against USDC.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// USDCMint is the reference stablecoin the quote is priced in.
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	// usdcDecimals is fixed: USDC uses 6 base-unit decimals.
	usdcDecimals = 6
	// slippageBps keeps the quote representative without failing thin routes.
	slippageBps = 50

	// DefaultBaseURL is the Jupiter quote API.
	DefaultBaseURL = "https://quote-api.jup.ag/v6"
	// DefaultTimeout bounds each quote request.
	DefaultTimeout = 10 * time.Second
)

// Client queries the swap-quote API.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *log.Logger
}

// Option configures Client.
type Option func(*Client)

// WithBaseURL overrides the quote API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets the HTTP client timeout.
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

// WithLogger sets a logger for degraded fetches.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a quote client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Price quotes one whole token unit (10^decimals base units) against USDC
// and returns the USDC price per token. ok is false when no usable route
// exists; that is a normal outcome for thin or unlisted tokens.
func (c *Client) Price(ctx context.Context, mint string, decimals int) (float64, bool) {
	if decimals < 0 {
		return 0, false
	}
	// Arbitrary precision: decimals up to ~18 overflow int64 scaling.
	amount := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)

	vals := url.Values{}
	vals.Set("inputMint", mint)
	vals.Set("outputMint", USDCMint)
	vals.Set("amount", amount.String())
	vals.Set("slippageBps", fmt.Sprintf("%d", slippageBps))
	vals.Set("onlyDirectRoutes", "true")

	endpoint := fmt.Sprintf("%s/quote?%s", c.baseURL, vals.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logf("mint %s: quote request failed: %v", mint, err)
		return 0, false
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		c.logf("mint %s: quote response read failed: %v", mint, err)
		return 0, false
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logf("mint %s: quote API status %d", mint, resp.StatusCode)
		return 0, false
	}

	outAmount, ok := firstOutAmount(body)
	if !ok {
		return 0, false
	}
	return usdcPrice(outAmount)
}

func (c *Client) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// route is the per-route slice of the quote response we care about.
type route struct {
	OutAmount string `json:"outAmount"`
}

// firstOutAmount extracts the output amount from whichever response
// shape the API returned. Shapes are tried in order: bare route array,
// route array nested under "data", bare top-level outAmount.
func firstOutAmount(body []byte) (string, bool) {
	var routes []route
	if err := json.Unmarshal(body, &routes); err == nil {
		for _, r := range routes {
			if strings.TrimSpace(r.OutAmount) != "" {
				return r.OutAmount, true
			}
		}
		return "", false
	}

	var wrapped struct {
		Data      []route `json:"data"`
		OutAmount string  `json:"outAmount"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return "", false
	}
	for _, r := range wrapped.Data {
		if strings.TrimSpace(r.OutAmount) != "" {
			return r.OutAmount, true
		}
	}
	if strings.TrimSpace(wrapped.OutAmount) != "" {
		return wrapped.OutAmount, true
	}
	return "", false
}

// usdcPrice converts a base-unit USDC amount string to a price.
// Zero and non-numeric amounts are unusable.
func usdcPrice(outAmount string) (float64, bool) {
	units, ok := new(big.Int).SetString(strings.TrimSpace(outAmount), 10)
	if !ok || units.Sign() <= 0 {
		return 0, false
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(usdcDecimals), nil)
	price, _ := new(big.Float).Quo(
		new(big.Float).SetInt(units),
		new(big.Float).SetInt(scale),
	).Float64()
	return price, true
}
