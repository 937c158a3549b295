package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds daemon configuration loaded from YAML.
type Config struct {
	// API holds the JSON-RPC/WebSocket server settings.
	API APIConfig `yaml:"api"`

	// Log holds logging settings.
	Log LogConfig `yaml:"log"`

	// Wallet holds signing key settings.
	Wallet WalletConfig `yaml:"wallet"`

	// RPCOverrides maps chainID -> RPC URL, replacing the built-in endpoint.
	RPCOverrides map[uint64]string `yaml:"rpc_overrides"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	// ListenAddr is the address the JSON-RPC server binds to.
	ListenAddr string `yaml:"listen_addr"`

	// AllowedOrigins is the CORS allowlist. "*" allows all origins.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// WalletConfig holds signing key settings.
type WalletConfig struct {
	// KeyFile is the path to a file containing a hex-encoded private key.
	// Empty disables swap execution; read-only methods still work.
	KeyFile string `yaml:"key_file"`
}

// DefaultConfig returns the default daemon configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			ListenAddr:     "127.0.0.1:8585",
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level: "info",
		},
		RPCOverrides: make(map[uint64]string),
	}
}

// Load reads a YAML config file, applying defaults for missing fields.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.API.ListenAddr == "" {
		return fmt.Errorf("api.listen_addr must not be empty")
	}
	for chainID, url := range c.RPCOverrides {
		if url == "" {
			return fmt.Errorf("rpc_overrides[%d] must not be empty", chainID)
		}
	}
	return nil
}

// RPCEndpoint returns the RPC URL for a chain, preferring an override.
func (c *Config) RPCEndpoint(chainID uint64, builtin string) string {
	if url, ok := c.RPCOverrides[chainID]; ok && url != "" {
		return url
	}
	return builtin
}
