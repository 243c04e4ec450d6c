// Package chat implements the websocket client for the chat gateway.
// The gateway owns message delivery, inline keyboards and callback
// routing; this client only speaks its frame protocol.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Config configures client behavior.
type Config struct {
	// HandshakeTimeout bounds the websocket dial.
	HandshakeTimeout time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// WriteTimeout is timeout for writing frames.
	WriteTimeout time.Duration
	// RequestTimeout bounds waiting for a gateway response frame.
	RequestTimeout time.Duration
	// UpdateBuffer is capacity of the inbound update channel.
	UpdateBuffer int
}

// DefaultConfig returns default client configuration.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     30 * time.Second,
		WriteTimeout:     10 * time.Second,
		RequestTimeout:   10 * time.Second,
		UpdateBuffer:     64,
	}
}

// Update is one inbound event from the gateway: either a text message
// or a pressed inline-keyboard button (CallbackID set).
type Update struct {
	ChatID       int64  `json:"chat_id"`
	MessageID    int64  `json:"message_id"`
	Text         string `json:"text,omitempty"`
	CallbackID   string `json:"callback_id,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

// InlineButton is one inline-keyboard button. URL buttons open
// externally; CallbackData buttons round-trip an update.
type InlineButton struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

// InlineKeyboard is rows of buttons attached to a message.
type InlineKeyboard [][]InlineButton

// frame is the wire format in both directions.
type frame struct {
	ID        uint64          `json:"id,omitempty"`
	Op        string          `json:"op,omitempty"`
	ChatID    int64           `json:"chat_id,omitempty"`
	MessageID int64           `json:"message_id,omitempty"`
	Text      string          `json:"text,omitempty"`
	Keyboard  InlineKeyboard  `json:"keyboard,omitempty"`
	Callback  string          `json:"callback_id,omitempty"`
	OK        *bool           `json:"ok,omitempty"`
	Error     string          `json:"error,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Update    *Update         `json:"update,omitempty"`
}

// Client is a websocket chat-gateway client.
type Client struct {
	config Config

	conn      *websocket.Conn
	writeMu   sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// pending maps request ID to the channel waiting for its response
	pending   map[uint64]chan frame
	pendingMu sync.Mutex

	updates  chan Update
	done     chan struct{}
	doneOnce sync.Once
	wg       sync.WaitGroup
}

// Dial connects to the gateway and authenticates with the given token.
func Dial(ctx context.Context, endpoint, token string, config *Config) (*Client, error) {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, _, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("gateway dial: %w", err)
	}

	c := &Client{
		config:  cfg,
		conn:    conn,
		pending: make(map[uint64]chan frame),
		updates: make(chan Update, cfg.UpdateBuffer),
		done:    make(chan struct{}),
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// Updates returns the inbound update channel. It is closed when the
// connection ends.
func (c *Client) Updates() <-chan Update {
	return c.updates
}

// SendMessage sends a new message and returns its gateway message ID.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard InlineKeyboard) (int64, error) {
	resp, err := c.roundTrip(ctx, frame{
		Op:       "send_message",
		ChatID:   chatID,
		Text:     text,
		Keyboard: keyboard,
	})
	if err != nil {
		return 0, err
	}

	var result struct {
		MessageID int64 `json:"message_id"`
	}
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return 0, fmt.Errorf("decode send result: %w", err)
	}
	return result.MessageID, nil
}

// EditMessage replaces the text and keyboard of an existing message.
func (c *Client) EditMessage(ctx context.Context, chatID, messageID int64, text string, keyboard InlineKeyboard) error {
	_, err := c.roundTrip(ctx, frame{
		Op:        "edit_message",
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		Keyboard:  keyboard,
	})
	return err
}

// AnswerCallback acknowledges a pressed button with a transient notice.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	_, err := c.roundTrip(ctx, frame{
		Op:       "answer_callback",
		Callback: callbackID,
		Text:     text,
	})
	return err
}

// roundTrip writes a request frame and waits for the matching response.
func (c *Client) roundTrip(ctx context.Context, req frame) (frame, error) {
	if c.closed.Load() {
		return frame{}, fmt.Errorf("client closed")
	}

	req.ID = c.requestID.Add(1)
	ch := make(chan frame, 1)

	c.pendingMu.Lock()
	c.pending[req.ID] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, req.ID)
		c.pendingMu.Unlock()
	}()

	if err := c.write(req); err != nil {
		return frame{}, err
	}

	timer := time.NewTimer(c.config.RequestTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return frame{}, ctx.Err()
	case <-c.done:
		return frame{}, fmt.Errorf("connection closed")
	case <-timer.C:
		return frame{}, fmt.Errorf("gateway response timeout")
	case resp := <-ch:
		if resp.OK != nil && !*resp.OK {
			return frame{}, fmt.Errorf("gateway: %s", resp.Error)
		}
		return resp, nil
	}
}

func (c *Client) write(f frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return c.conn.WriteJSON(f)
}

// readLoop dispatches inbound frames: responses go to their waiting
// request, updates go to the update channel.
func (c *Client) readLoop() {
	defer c.wg.Done()
	defer close(c.updates)

	for {
		var f frame
		if err := c.conn.ReadJSON(&f); err != nil {
			if !c.closed.Load() {
				// Connection lost; signal waiters and stop.
				c.closeDone()
			}
			return
		}

		switch {
		case f.Update != nil:
			select {
			case c.updates <- *f.Update:
			case <-c.done:
				return
			}
		case f.ID != 0:
			c.pendingMu.Lock()
			ch, ok := c.pending[f.ID]
			c.pendingMu.Unlock()
			if ok {
				// Duplicate responses for an ID must not stall the loop.
				select {
				case ch <- f:
				default:
				}
			}
		}
	}
}

func (c *Client) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *Client) closeDone() {
	c.doneOnce.Do(func() { close(c.done) })
}

// Close shuts the connection down and waits for the loops to exit.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.closeDone()
	err := c.conn.Close()
	c.wg.Wait()
	return err
}
