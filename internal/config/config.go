// Package config loads bot configuration from the environment.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Defaults for optional settings.
const (
	DefaultRPCEndpoint  = "https://api.mainnet-beta.solana.com"
	DefaultQuoteBaseURL = "https://quote-api.jup.ag/v6"
	DefaultMetricsAddr  = ":9090"
)

// Config holds process configuration.
type Config struct {
	// GatewayURL is the chat gateway websocket endpoint.
	GatewayURL string
	// GatewayToken authenticates the bot against the gateway.
	GatewayToken string
	// RPCEndpoint is the Solana JSON-RPC HTTP endpoint.
	RPCEndpoint string
	// QuoteBaseURL is the swap-quote API base URL.
	QuoteBaseURL string
	// MetricsAddr is the Prometheus metrics listen address.
	MetricsAddr string
}

// Load reads configuration from a .env file (if present) and the
// environment. The gateway credential is the only hard requirement;
// everything else has mainnet defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		GatewayURL:   os.Getenv("CHAT_GATEWAY_URL"),
		GatewayToken: os.Getenv("CHAT_GATEWAY_TOKEN"),
		RPCEndpoint:  getenv("SOLANA_RPC_ENDPOINT", DefaultRPCEndpoint),
		QuoteBaseURL: getenv("QUOTE_API_URL", DefaultQuoteBaseURL),
		MetricsAddr:  getenv("METRICS_ADDR", DefaultMetricsAddr),
	}

	if cfg.GatewayToken == "" {
		return nil, fmt.Errorf("CHAT_GATEWAY_TOKEN is required")
	}
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("CHAT_GATEWAY_URL is required")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
