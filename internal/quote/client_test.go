package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func quoteServer(t *testing.T, wantAmount string, body string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("outputMint"); got != USDCMint {
			t.Errorf("outputMint = %q, want USDC mint", got)
		}
		if wantAmount != "" {
			if got := q.Get("amount"); got != wantAmount {
				t.Errorf("amount = %q, want %q", got, wantAmount)
			}
		}
		if got := q.Get("slippageBps"); got != "50" {
			t.Errorf("slippageBps = %q, want 50", got)
		}
		if got := q.Get("onlyDirectRoutes"); got != "true" {
			t.Errorf("onlyDirectRoutes = %q, want true", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestPrice_BareRouteList(t *testing.T) {
	// One whole unit of a 9-decimal token costs 2.5 USDC.
	server := quoteServer(t, "1000000000", `[{"outAmount":"2500000"}]`, http.StatusOK)
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	price, ok := c.Price(context.Background(), "mint", 9)
	if !ok {
		t.Fatal("expected a price")
	}
	if price != 2.5 {
		t.Errorf("price = %f, want 2.5", price)
	}
}

func TestPrice_DataWrappedRouteList(t *testing.T) {
	server := quoteServer(t, "1000000", `{"data":[{"outAmount":"3410"},{"outAmount":"3300"}]}`, http.StatusOK)
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	price, ok := c.Price(context.Background(), "mint", 6)
	if !ok {
		t.Fatal("expected a price")
	}
	if diff := price - 0.00341; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("price = %f, want 0.00341", price)
	}
}

func TestPrice_BareOutAmount(t *testing.T) {
	server := quoteServer(t, "1000000000", `{"outAmount":"1000000"}`, http.StatusOK)
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	price, ok := c.Price(context.Background(), "mint", 9)
	if !ok {
		t.Fatal("expected a price")
	}
	if price != 1.0 {
		t.Errorf("price = %f, want 1.0", price)
	}
}

func TestPrice_LargeDecimals(t *testing.T) {
	// 10^18 base units exceeds what naive int scaling should be trusted with.
	server := quoteServer(t, "1000000000000000000", `{"outAmount":"42000000"}`, http.StatusOK)
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	price, ok := c.Price(context.Background(), "mint", 18)
	if !ok {
		t.Fatal("expected a price")
	}
	if price != 42 {
		t.Errorf("price = %f, want 42", price)
	}
}

func TestPrice_NoUsableRoute(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no routes and no outAmount", `{"routes":[]}`},
		{"empty data list", `{"data":[]}`},
		{"empty outAmount", `{"outAmount":""}`},
		{"zero outAmount", `{"outAmount":"0"}`},
		{"non numeric outAmount", `{"outAmount":"lots"}`},
		{"empty body object", `{}`},
		{"malformed body", `<!doctype html>`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := quoteServer(t, "", tc.body, http.StatusOK)
			defer server.Close()

			c := NewClient(WithBaseURL(server.URL))
			if _, ok := c.Price(context.Background(), "mint", 9); ok {
				t.Error("expected no price")
			}
		})
	}
}

func TestPrice_ServerError(t *testing.T) {
	server := quoteServer(t, "", `{"error":"internal"}`, http.StatusInternalServerError)
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	if _, ok := c.Price(context.Background(), "mint", 9); ok {
		t.Error("expected no price on HTTP 500")
	}
}

func TestPrice_Unreachable(t *testing.T) {
	server := quoteServer(t, "", ``, http.StatusOK)
	server.Close()

	c := NewClient(WithBaseURL(server.URL))
	if _, ok := c.Price(context.Background(), "mint", 9); ok {
		t.Error("expected no price when the API is unreachable")
	}
}

func TestFirstOutAmount_ShapePriority(t *testing.T) {
	// When routes exist, a stray top-level outAmount is ignored.
	body := []byte(`{"data":[{"outAmount":"100"}],"outAmount":"999"}`)
	out, ok := firstOutAmount(body)
	if !ok || out != "100" {
		t.Errorf("firstOutAmount = %q/%v, want 100/true", out, ok)
	}
}
