// Package main runs the token info chat bot: it connects to the chat
// gateway, answers mint lookups and serves Prometheus metrics.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solana-token-bot/internal/bot"
	"solana-token-bot/internal/chat"
	"solana-token-bot/internal/config"
	"solana-token-bot/internal/market"
	"solana-token-bot/internal/observability"
	"solana-token-bot/internal/quote"
	"solana-token-bot/internal/solana"
)

func main() {
	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	// Flags override the environment.
	gatewayURL := flag.String("gateway-url", cfg.GatewayURL, "Chat gateway websocket URL")
	rpcEndpoint := flag.String("rpc-endpoint", cfg.RPCEndpoint, "Solana RPC HTTP endpoint")
	quoteBaseURL := flag.String("quote-url", cfg.QuoteBaseURL, "Swap-quote API base URL")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "Prometheus metrics HTTP address")
	requestTimeout := flag.Duration("request-timeout", bot.DefaultRequestTimeout, "Per-lookup timeout")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Printf("received %v, shutting down", sig)
		cancel()
	}()

	metrics := observability.NewMetrics("")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		logger.Printf("metrics listening on %s", *metricsAddr)
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			logger.Printf("metrics server: %v", err)
		}
	}()

	dialCtx, dialCancel := context.WithTimeout(ctx, 15*time.Second)
	client, err := chat.Dial(dialCtx, *gatewayURL, cfg.GatewayToken, nil)
	dialCancel()
	if err != nil {
		logger.Fatalf("chat gateway: %v", err)
	}
	defer client.Close()

	rpc := solana.NewHTTPClient(*rpcEndpoint)
	handler := bot.New(bot.Options{
		Transport:      client,
		Metadata:       solana.NewMetadataFetcher(rpc, logger),
		Quotes:         quote.NewClient(quote.WithBaseURL(*quoteBaseURL), quote.WithLogger(logger)),
		Market:         market.NewClient(market.WithLogger(logger)),
		Metrics:        metrics,
		Logger:         logger,
		RequestTimeout: *requestTimeout,
	})

	logger.Printf("connected to gateway %s, handling updates", *gatewayURL)
	handler.Run(ctx, client.Updates())
	logger.Printf("update stream ended")
}
