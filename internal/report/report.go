// Package report merges the per-source token views into one formatted
// message with action metadata.
package report

import (
	"fmt"
	"strings"

	"solana-token-bot/internal/market"
	"solana-token-bot/internal/solana"
)

// Placeholders for absent fields. A failed fetch and a missing field
// render identically.
const (
	notAvailable = "not available"
	unknown      = "unknown"
)

// TokenReport is the merged, query-scoped view of a token. Sources are
// independent best-effort views; nothing reconciles them beyond the
// price precedence in Price.
type TokenReport struct {
	Mint       string
	OnChain    solana.MintInfo
	QuotePrice *float64
	Market     market.Snapshot
}

// Compose builds the merged report. Any of the source views may be zero.
func Compose(mint string, onChain solana.MintInfo, quotePrice *float64, snap market.Snapshot) TokenReport {
	return TokenReport{
		Mint:       mint,
		OnChain:    onChain,
		QuotePrice: quotePrice,
		Market:     snap,
	}
}

// Price returns the displayed price: the swap quote when present,
// otherwise the market price, otherwise nil.
func (r TokenReport) Price() *float64 {
	if r.QuotePrice != nil {
		return r.QuotePrice
	}
	return r.Market.Price
}

// Empty reports whether no source produced any data for the mint.
func (r TokenReport) Empty() bool {
	return r.OnChain.Decimals == nil && r.OnChain.Supply == nil &&
		r.QuotePrice == nil && r.Market.Empty()
}

// Render formats the report. Every optional field renders independently;
// an absent field never blocks the others.
func (r TokenReport) Render() string {
	var b strings.Builder

	b.WriteString("Token report\n")
	fmt.Fprintf(&b, "Mint: %s\n", r.Mint)
	fmt.Fprintf(&b, "Name: %s (%s)\n", orUnknown(r.Market.Name), orUnknown(r.Market.Symbol))

	if r.OnChain.Decimals != nil {
		fmt.Fprintf(&b, "Decimals: %d\n", *r.OnChain.Decimals)
	} else {
		fmt.Fprintf(&b, "Decimals: %s\n", notAvailable)
	}
	fmt.Fprintf(&b, "Supply: %s\n", renderAmount(r.OnChain.Supply, ""))
	fmt.Fprintf(&b, "Price: %s\n", renderAmount(r.Price(), "$"))
	fmt.Fprintf(&b, "Liquidity: %s\n", renderAmount(r.Market.Liquidity, "$"))
	fmt.Fprintf(&b, "24h volume: %s", renderAmount(r.Market.Volume24h, "$"))

	return b.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknown
	}
	return s
}

func renderAmount(v *float64, prefix string) string {
	if v == nil {
		return notAvailable
	}
	return prefix + FormatAmount(*v)
}

// Action is one user-facing action attached to the report. URL actions
// open externally; callback actions round-trip through the transport.
type Action struct {
	Label        string
	URL          string
	CallbackData string
}

// CopyAddressPrefix tags the copy-address callback payload.
const CopyAddressPrefix = "copy_address:"

// Actions returns the report's action set: chart viewer and swap venue
// links templated on the mint, plus the copy-address callback.
func (r TokenReport) Actions() []Action {
	return []Action{
		{Label: "Chart", URL: "https://dexscreener.com/solana/" + r.Mint},
		{Label: "Swap", URL: "https://jup.ag/swap/SOL-" + r.Mint},
		{Label: "Copy address", CallbackData: CopyAddressPrefix + r.Mint},
	}
}
