package kline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moodswap/moodswapd/pkg/logging"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(logging.Default())
	c.endpoint = server.URL
	return c
}

func TestGetPassesThrough(t *testing.T) {
	upstream := `{"code":"0","data":[[1,2,3]]}`
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", req.Method)
		}
		if ct := req.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("content type = %s", ct)
		}
		if err := req.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if got := req.FormValue("chain"); got != "morph" {
			t.Errorf("chain = %s, want morph", got)
		}
		if got := req.FormValue("contract"); got != "0xabc" {
			t.Errorf("contract = %s", got)
		}
		if got := req.FormValue("market"); got != "1H" {
			t.Errorf("market = %s", got)
		}
		if got := req.FormValue("size"); got != "100" {
			t.Errorf("size = %s, want default 100", got)
		}
		w.Write([]byte(upstream))
	}))

	body, err := c.Get(context.Background(), "morph", "0xabc", "1H", 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != upstream {
		t.Errorf("body = %s, want passthrough", body)
	}
}

func TestGetExplicitSize(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		req.ParseForm()
		if got := req.FormValue("size"); got != "50" {
			t.Errorf("size = %s, want 50", got)
		}
		w.Write([]byte(`{}`))
	}))

	if _, err := c.Get(context.Background(), "morph", "0xabc", "15m", 50); err != nil {
		t.Fatal(err)
	}
}

func TestGetValidation(t *testing.T) {
	c := NewClient(logging.Default())

	cases := []struct{ chain, contract, market string }{
		{"", "0xabc", "1H"},
		{"morph", "", "1H"},
		{"morph", "0xabc", ""},
	}
	for _, tc := range cases {
		if _, err := c.Get(context.Background(), tc.chain, tc.contract, tc.market, 0); !errors.Is(err, ErrMissingParam) {
			t.Errorf("Get(%q, %q, %q) err = %v, want ErrMissingParam", tc.chain, tc.contract, tc.market, err)
		}
	}
}

func TestGetUpstreamError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))

	if _, err := c.Get(context.Background(), "morph", "0xabc", "1H", 0); err == nil {
		t.Error("upstream error should propagate")
	}
}

func TestGetRejectsNonJSON(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("<html>error</html>"))
	}))

	if _, err := c.Get(context.Background(), "morph", "0xabc", "1H", 0); err == nil {
		t.Error("non-JSON body should be rejected")
	}
}
