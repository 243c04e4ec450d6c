package solana

import (
	"context"
	"log"
	"math/big"
)

// MintInfo is the best-effort on-chain view of a token mint.
// Nil fields are unavailable; callers render them as such.
type MintInfo struct {
	Decimals *int
	Supply   *float64 // human units (base units / 10^decimals)
}

// MetadataFetcher resolves on-chain mint state into MintInfo.
// All failures degrade to absent fields; nothing propagates to callers.
type MetadataFetcher struct {
	rpc    *HTTPClient
	logger *log.Logger
}

// NewMetadataFetcher creates a metadata fetcher backed by the given RPC client.
func NewMetadataFetcher(rpc *HTTPClient, logger *log.Logger) *MetadataFetcher {
	return &MetadataFetcher{rpc: rpc, logger: logger}
}

// Fetch returns on-chain mint info for the address. A transport failure,
// a missing account or a non-mint account all yield a zero MintInfo.
func (f *MetadataFetcher) Fetch(ctx context.Context, mint string) MintInfo {
	tm, err := f.rpc.GetTokenMint(ctx, mint)
	if err != nil {
		if f.logger != nil {
			f.logger.Printf("mint %s: metadata fetch failed: %v", mint, err)
		}
		return MintInfo{}
	}
	if tm == nil {
		return MintInfo{}
	}

	info := MintInfo{Decimals: tm.Decimals}
	if tm.Decimals != nil && tm.Supply != "" {
		if supply, ok := humanSupply(tm.Supply, *tm.Decimals); ok {
			info.Supply = &supply
		}
	}
	return info
}

// humanSupply converts a raw base-unit supply string to human units.
// big.Int arithmetic keeps large supplies and high decimal counts exact
// until the final float conversion.
func humanSupply(raw string, decimals int) (float64, bool) {
	if decimals < 0 {
		return 0, false
	}
	units, ok := new(big.Int).SetString(raw, 10)
	if !ok || units.Sign() < 0 {
		return 0, false
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	supply, _ := new(big.Float).Quo(
		new(big.Float).SetInt(units),
		new(big.Float).SetInt(scale),
	).Float64()
	return supply, true
}
