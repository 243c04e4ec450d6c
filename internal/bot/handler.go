// Package bot wires validator, fetchers and composer into the per-message
// chat handler.
package bot

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"solana-token-bot/internal/address"
	"solana-token-bot/internal/chat"
	"solana-token-bot/internal/market"
	"solana-token-bot/internal/observability"
	"solana-token-bot/internal/quote"
	"solana-token-bot/internal/report"
	"solana-token-bot/internal/solana"
)

// User-visible texts.
const (
	fetchingText       = "Fetching token data…"
	invalidAddressText = "That doesn't look like a valid Solana address."
	copiedText         = "Address copied"
	noDataText         = "No token data found for this address."
	walletHintText     = " It looks like a wallet address rather than a token mint."
)

// DefaultRequestTimeout bounds one whole lookup across all sources.
const DefaultRequestTimeout = 30 * time.Second

// Transport is the chat-gateway surface the handler needs. The
// websocket client satisfies it; tests use a recording fake.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard chat.InlineKeyboard) (int64, error)
	EditMessage(ctx context.Context, chatID, messageID int64, text string, keyboard chat.InlineKeyboard) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Handler processes inbound chat updates. It keeps no per-request
// state; every lookup is constructed fresh and discarded.
type Handler struct {
	transport Transport
	metadata  *solana.MetadataFetcher
	quotes    *quote.Client
	market    *market.Client
	metrics   *observability.Metrics
	logger    *log.Logger

	requestTimeout time.Duration
}

// Options for creating Handler.
type Options struct {
	Transport Transport
	Metadata  *solana.MetadataFetcher
	Quotes    *quote.Client
	Market    *market.Client
	Metrics   *observability.Metrics
	Logger    *log.Logger

	// RequestTimeout bounds one lookup; zero means DefaultRequestTimeout.
	RequestTimeout time.Duration
}

// New creates a Handler.
func New(opts Options) *Handler {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Handler{
		transport:      opts.Transport,
		metadata:       opts.Metadata,
		quotes:         opts.Quotes,
		market:         opts.Market,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
		requestTimeout: timeout,
	}
}

// Run consumes updates until the channel closes or ctx is cancelled.
// Each update is handled in its own goroutine; requests share nothing.
func (h *Handler) Run(ctx context.Context, updates <-chan chat.Update) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.HandleUpdate(ctx, u)
			}()
		}
	}
}

// HandleUpdate routes one inbound update.
func (h *Handler) HandleUpdate(ctx context.Context, u chat.Update) {
	ctx, cancel := context.WithTimeout(ctx, h.requestTimeout)
	defer cancel()

	if u.CallbackID != "" {
		h.handleCallback(ctx, u)
		return
	}
	h.handleMessage(ctx, u)
}

// handleCallback acknowledges button presses. Copy-address is
// acknowledge-only: no state changes anywhere.
func (h *Handler) handleCallback(ctx context.Context, u chat.Update) {
	text := ""
	if len(u.CallbackData) > len(report.CopyAddressPrefix) &&
		u.CallbackData[:len(report.CopyAddressPrefix)] == report.CopyAddressPrefix {
		text = copiedText
	}
	if err := h.transport.AnswerCallback(ctx, u.CallbackID, text); err != nil {
		h.logf("answer callback %s: %v", u.CallbackID, err)
		return
	}
	h.metrics.IncCallback()
}

func (h *Handler) handleMessage(ctx context.Context, u chat.Update) {
	// Cheap syntactic gate: ordinary chatter is ignored without any
	// network traffic.
	if !address.LooksLikeMint(u.Text) {
		return
	}
	h.metrics.IncMessage()

	addr, err := address.Parse(u.Text)
	if err != nil {
		if errors.Is(err, address.ErrInvalidAddress) {
			h.metrics.IncInvalidAddress()
			if _, err := h.transport.SendMessage(ctx, u.ChatID, invalidAddressText, nil); err != nil {
				h.logf("chat %d: send rejection: %v", u.ChatID, err)
			}
		}
		return
	}

	// Placeholder first, edited in place once data is ready.
	messageID, err := h.transport.SendMessage(ctx, u.ChatID, fetchingText, nil)
	if err != nil {
		h.logf("chat %d: send placeholder: %v", u.ChatID, err)
		return
	}

	rep := h.lookup(ctx, addr)

	text := rep.Render()
	keyboard := buildKeyboard(rep.Actions())
	if rep.Empty() {
		text = noDataText
		if addr.OnCurve() {
			text += walletHintText
		}
		keyboard = nil
	}

	if err := h.transport.EditMessage(ctx, u.ChatID, messageID, text, keyboard); err != nil {
		h.logf("chat %d: edit message %d: %v", u.ChatID, messageID, err)
		return
	}
	h.metrics.IncReport()
}

// lookup runs the three fetchers. The market fetch is independent and
// runs concurrently; the quote fetch needs decimals from metadata and
// follows it. Each fetch degrades on its own, so a failed source never
// hides the others.
func (h *Handler) lookup(ctx context.Context, addr address.Address) report.TokenReport {
	mint := addr.String()

	var snap market.Snapshot
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		start := time.Now()
		snap = h.market.Fetch(ctx, mint)
		h.metrics.ObserveFetch(observability.SourceMarket, time.Since(start), !snap.Empty())
	}()

	start := time.Now()
	onChain := h.metadata.Fetch(ctx, mint)
	h.metrics.ObserveFetch(observability.SourceRPC, time.Since(start), onChain.Decimals != nil || onChain.Supply != nil)

	var quotePrice *float64
	if onChain.Decimals != nil {
		start = time.Now()
		price, ok := h.quotes.Price(ctx, mint, *onChain.Decimals)
		h.metrics.ObserveFetch(observability.SourceQuote, time.Since(start), ok)
		if ok {
			quotePrice = &price
		}
	}

	wg.Wait()
	return report.Compose(mint, onChain, quotePrice, snap)
}

// buildKeyboard lays the report actions out as one row of links and one
// row with the copy button.
func buildKeyboard(actions []report.Action) chat.InlineKeyboard {
	var links, callbacks []chat.InlineButton
	for _, a := range actions {
		btn := chat.InlineButton{Text: a.Label, URL: a.URL, CallbackData: a.CallbackData}
		if a.CallbackData != "" {
			callbacks = append(callbacks, btn)
		} else {
			links = append(links, btn)
		}
	}

	var kb chat.InlineKeyboard
	if len(links) > 0 {
		kb = append(kb, links)
	}
	if len(callbacks) > 0 {
		kb = append(kb, callbacks)
	}
	return kb
}

func (h *Handler) logf(format string, args ...interface{}) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}
