package chain

import (
	"testing"
)

func TestAllChainsRegistered(t *testing.T) {
	expected := []uint64{196, 2818, 2810, 97}

	for _, id := range expected {
		if !IsSupported(id) {
			t.Errorf("expected chain %d to be registered", id)
		}
	}
}

func TestMorphMainnet(t *testing.T) {
	params, ok := Get(2818)
	if !ok {
		t.Fatal("Morph mainnet should be registered")
	}

	if params.Name != "Morph" {
		t.Errorf("Name = %s, want Morph", params.Name)
	}
	if params.NativeSymbol != "ETH" {
		t.Errorf("NativeSymbol = %s, want ETH", params.NativeSymbol)
	}
	if params.NativeDecimals != 18 {
		t.Errorf("NativeDecimals = %d, want 18", params.NativeDecimals)
	}
	if params.IsTestnet {
		t.Error("Morph should be mainnet")
	}
	if !params.SupportsSwap {
		t.Error("Morph should support swaps")
	}
	if params.APIEndpoint == "" {
		t.Error("Morph should have a catalog endpoint")
	}
}

func TestXLayer(t *testing.T) {
	params, ok := Get(196)
	if !ok {
		t.Fatal("X Layer should be registered")
	}

	if params.NativeSymbol != "OKB" {
		t.Errorf("NativeSymbol = %s, want OKB", params.NativeSymbol)
	}
	if params.SupportsSwap {
		t.Error("X Layer should not support swaps")
	}
	if params.IsTestnet {
		t.Error("X Layer should be mainnet")
	}
}

func TestMorphHolesky(t *testing.T) {
	params, ok := Get(2810)
	if !ok {
		t.Fatal("Morph Holesky should be registered")
	}

	if !params.IsTestnet {
		t.Error("Morph Holesky should be testnet")
	}
	if !params.SupportsSwap {
		t.Error("Morph Holesky should support swaps")
	}
	if params.FaucetURL == "" {
		t.Error("Morph Holesky should have a faucet URL")
	}
}

func TestBSCTestnet(t *testing.T) {
	params, ok := Get(97)
	if !ok {
		t.Fatal("BSC Testnet should be registered")
	}

	if params.NativeSymbol != "tBNB" {
		t.Errorf("NativeSymbol = %s, want tBNB", params.NativeSymbol)
	}
	if !params.IsTestnet {
		t.Error("BSC Testnet should be testnet")
	}
	if params.SupportsSwap {
		t.Error("BSC Testnet should not support swaps")
	}
	if params.APIEndpoint != "" {
		t.Error("BSC Testnet should not have a catalog endpoint")
	}
}

func TestSupportedOrder(t *testing.T) {
	ids := Supported()
	if len(ids) != 4 {
		t.Fatalf("expected 4 chains, got %d", len(ids))
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Errorf("Supported() not sorted: %v", ids)
		}
	}
}

func TestSupportsSwap(t *testing.T) {
	tests := []struct {
		chainID uint64
		want    bool
	}{
		{2818, true},
		{2810, true},
		{196, false},
		{97, false},
		{1, false}, // unregistered
	}

	for _, tc := range tests {
		if got := SupportsSwap(tc.chainID); got != tc.want {
			t.Errorf("SupportsSwap(%d) = %v, want %v", tc.chainID, got, tc.want)
		}
	}
}

func TestHasCatalog(t *testing.T) {
	tests := []struct {
		chainID uint64
		want    bool
	}{
		{2818, true},
		{2810, true},
		{196, true},
		{97, false},
		{99999, false},
	}

	for _, tc := range tests {
		if got := HasCatalog(tc.chainID); got != tc.want {
			t.Errorf("HasCatalog(%d) = %v, want %v", tc.chainID, got, tc.want)
		}
	}
}

func TestUnsupportedChain(t *testing.T) {
	if IsSupported(99999) {
		t.Error("chain 99999 should not be supported")
	}

	_, ok := Get(99999)
	if ok {
		t.Error("Get(99999) should return false")
	}
}
