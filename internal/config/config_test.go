package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/moodswap/moodswapd/internal/chain"
)

func TestRouterFor(t *testing.T) {
	tests := []struct {
		chainID uint64
		want    string
	}{
		{2818, "0x3ab6F687F8C2EcA42f0Eb6dE5a8BF8deE077A7C2"},
		{196, "0x236e11ce039cE0DD079cB356056C9127f65586F9"},
		{2810, "0x73265ce577783A4Ae11cC4d58817a3b26B685863"},
		{97, "0x73265ce577783A4Ae11cC4d58817a3b26B685863"},
	}

	for _, tc := range tests {
		addr, ok := RouterFor(tc.chainID)
		if !ok {
			t.Errorf("RouterFor(%d) should exist", tc.chainID)
			continue
		}
		if addr != common.HexToAddress(tc.want) {
			t.Errorf("RouterFor(%d) = %s, want %s", tc.chainID, addr.Hex(), tc.want)
		}
	}

	if _, ok := RouterFor(1); ok {
		t.Error("RouterFor(1) should not exist")
	}
}

// Every chain that has swaps enabled must have a router.
func TestSwapChainsHaveRouters(t *testing.T) {
	for _, chainID := range chain.Supported() {
		if !chain.SupportsSwap(chainID) {
			continue
		}
		if _, ok := RouterFor(chainID); !ok {
			t.Errorf("chain %d supports swaps but has no router", chainID)
		}
	}
}

func TestMulticall3Address(t *testing.T) {
	want := common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")
	if Multicall3Address != want {
		t.Errorf("Multicall3Address = %s, want %s", Multicall3Address.Hex(), want.Hex())
	}
}

func TestSwapConstants(t *testing.T) {
	if DeadlineWindow != 20*time.Minute {
		t.Errorf("DeadlineWindow = %v, want 20m", DeadlineWindow)
	}
	if SlippageBufferBps != 100 {
		t.Errorf("SlippageBufferBps = %d, want 100", SlippageBufferBps)
	}
	if DefaultSlippageBps != 500 {
		t.Errorf("DefaultSlippageBps = %d, want 500", DefaultSlippageBps)
	}
	if QuoteRefreshInterval != 10*time.Second {
		t.Errorf("QuoteRefreshInterval = %v, want 10s", QuoteRefreshInterval)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.ListenAddr == "" {
		t.Error("default listen addr should not be empty")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("default log level = %s, want info", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := `
api:
  listen_addr: "0.0.0.0:9000"
log:
  level: debug
wallet:
  key_file: /tmp/key.hex
rpc_overrides:
  2818: "https://rpc.example.com"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.API.ListenAddr != "0.0.0.0:9000" {
		t.Errorf("ListenAddr = %s, want 0.0.0.0:9000", cfg.API.ListenAddr)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %s, want debug", cfg.Log.Level)
	}
	if cfg.Wallet.KeyFile != "/tmp/key.hex" {
		t.Errorf("KeyFile = %s, want /tmp/key.hex", cfg.Wallet.KeyFile)
	}
	if got := cfg.RPCEndpoint(2818, "builtin"); got != "https://rpc.example.com" {
		t.Errorf("RPCEndpoint(2818) = %s, want override", got)
	}
	if got := cfg.RPCEndpoint(97, "builtin"); got != "builtin" {
		t.Errorf("RPCEndpoint(97) = %s, want builtin", got)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Load should fail on missing file")
	}
}

func TestValidateRejectsEmptyListenAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.ListenAddr = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate should reject empty listen addr")
	}
}

func TestValidateRejectsEmptyOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RPCOverrides[2818] = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate should reject empty RPC override")
	}
}
