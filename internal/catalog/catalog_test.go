package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/moodswap/moodswapd/pkg/logging"
)

var (
	morphBGB = common.HexToAddress("0x55d1f1879969bdbB9960d269974564C58DBc3238")
	morphM   = common.HexToAddress("0x13345d9e5a0ce52f08c8667dd1dbd60de0f46868")
)

func testResolver(t *testing.T, handler http.Handler) *Resolver {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	r := NewResolver(logging.Default())
	r.endpoints = map[uint64]string{2818: server.URL}
	return r
}

func TestListCuratesRemoteResult(t *testing.T) {
	r := testResolver(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", req.Method)
		}
		if req.URL.Path != "/v1/mood/coin_list" {
			t.Errorf("path = %s, want /v1/mood/coin_list", req.URL.Path)
		}
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart form: %v", err)
		}
		if got := req.FormValue("page_size"); got != "100" {
			t.Errorf("page_size = %s, want 100", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":0,"msg":"ok","data":{"list":[
			{"id":7,"symbol":"PEPE","name":"Pepe","mint":"0x1111111111111111111111111111111111111111","price_usd_f":0.01},
			{"id":2,"symbol":"M","name":"M","mint":"0x13345d9e5a0ce52f08c8667dd1dbd60de0f46868","price_usd_f":1.02}
		]}}`))
	}))

	tokens := r.List(context.Background(), 2818, "")
	if len(tokens) != 3 {
		t.Fatalf("len = %d, want 3: %+v", len(tokens), tokens)
	}

	// BGB pinned first (absent from the remote list, synthesized).
	if tokens[0].Symbol != "BGB" || tokens[0].Address != morphBGB {
		t.Errorf("tokens[0] = %s @ %s, want BGB", tokens[0].Symbol, tokens[0].Address.Hex())
	}
	// M pinned second, live record preferred over the static one.
	if tokens[1].Symbol != "M" || tokens[1].Address != morphM {
		t.Errorf("tokens[1] = %s, want M", tokens[1].Symbol)
	}
	if tokens[1].PriceUSD != 1.02 {
		t.Errorf("M price = %v, want live 1.02", tokens[1].PriceUSD)
	}
	// Remaining remote tokens follow.
	if tokens[2].Symbol != "PEPE" {
		t.Errorf("tokens[2] = %s, want PEPE", tokens[2].Symbol)
	}
	if tokens[2].Decimals != 18 {
		t.Errorf("PEPE decimals = %d, want 18", tokens[2].Decimals)
	}
}

func TestListFallbackOnServerError(t *testing.T) {
	r := testResolver(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	tokens := r.List(context.Background(), 2818, "")
	if len(tokens) != 2 {
		t.Fatalf("len = %d, want 2 fallback tokens", len(tokens))
	}
	if tokens[0].Symbol != "BGB" || tokens[1].Symbol != "M" {
		t.Errorf("fallback order = %s, %s; want BGB, M", tokens[0].Symbol, tokens[1].Symbol)
	}
}

func TestListFallbackOnBadJSON(t *testing.T) {
	r := testResolver(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("not json"))
	}))

	tokens := r.List(context.Background(), 2818, "")
	if len(tokens) != 2 {
		t.Fatalf("len = %d, want fallback", len(tokens))
	}
}

func TestListFallbackOnEmptyList(t *testing.T) {
	r := testResolver(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"code":0,"msg":"ok","data":{"list":[]}}`))
	}))

	tokens := r.List(context.Background(), 2818, "")
	if len(tokens) != 2 {
		t.Fatalf("len = %d, want fallback on empty list", len(tokens))
	}
}

func TestListChainWithoutCatalog(t *testing.T) {
	r := NewResolver(logging.Default())

	if tokens := r.List(context.Background(), 97, ""); len(tokens) != 0 {
		t.Errorf("chain 97 should have no tokens, got %d", len(tokens))
	}
	if tokens := r.List(context.Background(), 99999, ""); len(tokens) != 0 {
		t.Errorf("unknown chain should have no tokens, got %d", len(tokens))
	}
}

func TestCuratedReturnsCopy(t *testing.T) {
	a := Curated(2818)
	a[0].Symbol = "MUTATED"
	b := Curated(2818)
	if b[0].Symbol != "BGB" {
		t.Error("Curated should return a copy, not the backing slice")
	}
}

func TestCounterpartsHub(t *testing.T) {
	all := []Token{
		{Symbol: "BGB"},
		{Symbol: "M"},
		{Symbol: "PEPE"},
		{Symbol: "DOGE"},
	}
	hub := all[1]

	got := Counterparts(all, hub)
	if len(got) != 3 {
		t.Fatalf("hub counterparts = %d, want 3", len(got))
	}
	for _, t2 := range got {
		if t2.IsHub() {
			t.Errorf("hub should not pair with itself")
		}
	}
}

func TestCounterpartsNonHub(t *testing.T) {
	all := []Token{
		{Symbol: "BGB"},
		{Symbol: "M"},
		{Symbol: "PEPE"},
	}

	for _, fixed := range []Token{all[0], all[2]} {
		got := Counterparts(all, fixed)
		if len(got) != 1 || !got[0].IsHub() {
			t.Errorf("%s counterparts = %+v, want only the hub", fixed.Symbol, got)
		}
	}
}

func TestCounterpartsHubCaseInsensitive(t *testing.T) {
	all := []Token{
		{Symbol: "m"},
		{Symbol: "BGB"},
	}
	got := Counterparts(all, Token{Symbol: "BGB"})
	if len(got) != 1 || got[0].Symbol != "m" {
		t.Errorf("lowercase hub should still be the hub, got %+v", got)
	}
}

func TestIsNative(t *testing.T) {
	if !(Token{}).IsNative() {
		t.Error("zero address should be native")
	}
	if (Token{Address: morphBGB}).IsNative() {
		t.Error("BGB should not be native")
	}
}
