package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// gatewayServer is a minimal fake chat gateway over websocket.
type gatewayServer struct {
	t      *testing.T
	server *httptest.Server

	// received collects request frames in arrival order.
	received chan frame
	// conns delivers the accepted connection so tests can push updates.
	conns chan *websocket.Conn
}

func newGatewayServer(t *testing.T, wantToken string) *gatewayServer {
	t.Helper()
	g := &gatewayServer{
		t:        t,
		received: make(chan frame, 16),
		conns:    make(chan *websocket.Conn, 1),
	}

	upgrader := websocket.Upgrader{}
	g.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wantToken != "" && r.Header.Get("Authorization") != "Bearer "+wantToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		g.conns <- conn

		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			g.received <- f

			// Respond to requests; op-less frames are ignored.
			ok := true
			resp := frame{ID: f.ID, OK: &ok}
			switch f.Op {
			case "send_message":
				resp.Result = []byte(`{"message_id":99}`)
			case "edit_message", "answer_callback":
			case "fail_me":
				ok = false
				resp.Error = "nope"
			}
			if err := conn.WriteJSON(resp); err != nil {
				return
			}
			// A misbehaving gateway answering the same ID twice.
			if f.Op == "dup_me" {
				if err := conn.WriteJSON(resp); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(g.server.Close)
	return g
}

func (g *gatewayServer) wsURL() string {
	return "ws" + strings.TrimPrefix(g.server.URL, "http")
}

func dialTest(t *testing.T, g *gatewayServer, token string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, g.wsURL(), token, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSendMessage(t *testing.T) {
	g := newGatewayServer(t, "secret-token")
	c := dialTest(t, g, "secret-token")

	kb := InlineKeyboard{{{Text: "Chart", URL: "https://example.com"}}}
	id, err := c.SendMessage(context.Background(), 7, "hello", kb)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if id != 99 {
		t.Errorf("message ID = %d, want 99", id)
	}

	f := <-g.received
	if f.Op != "send_message" || f.ChatID != 7 || f.Text != "hello" {
		t.Errorf("unexpected frame: %+v", f)
	}
	if len(f.Keyboard) != 1 || f.Keyboard[0][0].Text != "Chart" {
		t.Errorf("keyboard not carried: %+v", f.Keyboard)
	}
}

func TestEditMessage(t *testing.T) {
	g := newGatewayServer(t, "")
	c := dialTest(t, g, "tok")

	if err := c.EditMessage(context.Background(), 7, 99, "updated", nil); err != nil {
		t.Fatalf("EditMessage: %v", err)
	}

	f := <-g.received
	if f.Op != "edit_message" || f.MessageID != 99 || f.Text != "updated" {
		t.Errorf("unexpected frame: %+v", f)
	}
}

func TestAnswerCallback(t *testing.T) {
	g := newGatewayServer(t, "")
	c := dialTest(t, g, "tok")

	if err := c.AnswerCallback(context.Background(), "cb-1", "Address copied"); err != nil {
		t.Fatalf("AnswerCallback: %v", err)
	}

	f := <-g.received
	if f.Op != "answer_callback" || f.Callback != "cb-1" || f.Text != "Address copied" {
		t.Errorf("unexpected frame: %+v", f)
	}
}

func TestGatewayErrorSurfaces(t *testing.T) {
	g := newGatewayServer(t, "")
	c := dialTest(t, g, "tok")

	_, err := c.roundTrip(context.Background(), frame{Op: "fail_me"})
	if err == nil || !strings.Contains(err.Error(), "nope") {
		t.Fatalf("expected gateway error, got %v", err)
	}
}

func TestDuplicateResponseDoesNotStallReads(t *testing.T) {
	g := newGatewayServer(t, "")
	c := dialTest(t, g, "tok")

	if _, err := c.roundTrip(context.Background(), frame{Op: "dup_me"}); err != nil {
		t.Fatalf("roundTrip: %v", err)
	}

	// The read loop must survive the stray second frame and keep
	// serving later requests.
	if _, err := c.SendMessage(context.Background(), 7, "still alive", nil); err != nil {
		t.Fatalf("SendMessage after duplicate: %v", err)
	}
}

func TestCloseRacesConnectionDrop(t *testing.T) {
	g := newGatewayServer(t, "")
	c := dialTest(t, g, "tok")
	conn := <-g.conns

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		conn.Close()
	}()
	go func() {
		defer wg.Done()
		c.Close()
	}()
	wg.Wait()
}

func TestUpdatesDelivered(t *testing.T) {
	g := newGatewayServer(t, "")
	c := dialTest(t, g, "tok")

	conn := <-g.conns
	want := Update{ChatID: 7, MessageID: 3, Text: "So11111111111111111111111111111111111111112"}
	if err := conn.WriteJSON(frame{Op: "update", Update: &want}); err != nil {
		t.Fatalf("push update: %v", err)
	}

	select {
	case got := <-c.Updates():
		if got != want {
			t.Errorf("update = %+v, want %+v", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for update")
	}
}

func TestCloseEndsUpdateStream(t *testing.T) {
	g := newGatewayServer(t, "")
	c := dialTest(t, g, "tok")

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case _, open := <-c.Updates():
		if open {
			t.Error("expected closed update channel")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("update channel not closed")
	}

	if _, err := c.SendMessage(context.Background(), 1, "late", nil); err == nil {
		t.Error("expected error after Close")
	}
}

func TestDialRejectedAuth(t *testing.T) {
	g := newGatewayServer(t, "right-token")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := Dial(ctx, g.wsURL(), "wrong-token", nil); err == nil {
		t.Fatal("expected dial failure on bad token")
	}
}
