// Package main is a one-shot CLI: it runs the same aggregation as the
// bot for a single mint and prints the report to stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"solana-token-bot/internal/address"
	"solana-token-bot/internal/config"
	"solana-token-bot/internal/market"
	"solana-token-bot/internal/quote"
	"solana-token-bot/internal/report"
	"solana-token-bot/internal/solana"
)

func main() {
	logger := log.New(os.Stderr, "[lookup] ", log.LstdFlags)

	rpcEndpoint := flag.String("rpc-endpoint", getenv("SOLANA_RPC_ENDPOINT", config.DefaultRPCEndpoint), "Solana RPC HTTP endpoint")
	quoteBaseURL := flag.String("quote-url", getenv("QUOTE_API_URL", config.DefaultQuoteBaseURL), "Swap-quote API base URL")
	timeout := flag.Duration("timeout", 30*time.Second, "Total lookup timeout")
	flag.Parse()

	if flag.NArg() != 1 {
		logger.Fatal("usage: lookup [flags] <mint-address>")
	}

	input := flag.Arg(0)
	if !address.LooksLikeMint(input) {
		logger.Fatalf("%q does not look like a mint address", input)
	}
	addr, err := address.Parse(input)
	if err != nil {
		logger.Fatalf("invalid address: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rpc := solana.NewHTTPClient(*rpcEndpoint)
	metadata := solana.NewMetadataFetcher(rpc, logger)
	quotes := quote.NewClient(quote.WithBaseURL(*quoteBaseURL), quote.WithLogger(logger))
	markets := market.NewClient(market.WithLogger(logger))

	mint := addr.String()
	onChain := metadata.Fetch(ctx, mint)

	var quotePrice *float64
	if onChain.Decimals != nil {
		if price, ok := quotes.Price(ctx, mint, *onChain.Decimals); ok {
			quotePrice = &price
		}
	}

	snap := markets.Fetch(ctx, mint)

	rep := report.Compose(mint, onChain, quotePrice, snap)
	fmt.Println(rep.Render())
	for _, a := range rep.Actions() {
		if a.URL != "" {
			fmt.Printf("%s: %s\n", a.Label, a.URL)
		}
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
