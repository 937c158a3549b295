// Package main provides the moodswapd daemon - the swap engine behind the
// moodswap front-end.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/moodswap/moodswapd/internal/balance"
	"github.com/moodswap/moodswapd/internal/catalog"
	"github.com/moodswap/moodswapd/internal/chain"
	"github.com/moodswap/moodswapd/internal/config"
	"github.com/moodswap/moodswapd/internal/evm"
	"github.com/moodswap/moodswapd/internal/kline"
	"github.com/moodswap/moodswapd/internal/router"
	"github.com/moodswap/moodswapd/internal/rpc"
	"github.com/moodswap/moodswapd/internal/swap"
	"github.com/moodswap/moodswapd/internal/wallet"
	"github.com/moodswap/moodswapd/pkg/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "unknown"
)

func main() {
	// Parse flags
	var (
		configFile  = flag.String("config", "", "Config file path (YAML)")
		listenAddr  = flag.String("listen", "", "JSON-RPC API address, overrides config")
		keyFile     = flag.String("key-file", "", "Hex private key file, overrides config")
		logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error), overrides config")
		showVersion = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	// Set up logging (initial, may be overridden by config)
	log := logging.New(&logging.Config{
		Level:      "info",
		TimeFormat: time.TimeOnly,
	})
	logging.SetDefault(log)

	if *showVersion {
		log.Infof("moodswapd %s (commit: %s)", version, commit)
		os.Exit(0)
	}

	// Load config file
	cfg := config.DefaultConfig()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			log.Fatal("Failed to load config", "error", err)
		}
		cfg = loaded
		log.Info("Config loaded", "path", *configFile)
	}

	// Apply CLI overrides (CLI flags take precedence over config file)
	if *listenAddr != "" {
		cfg.API.ListenAddr = *listenAddr
	}
	if *keyFile != "" {
		cfg.Wallet.KeyFile = *keyFile
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	// Update logging with config level
	log = logging.New(&logging.Config{
		Level:      cfg.Log.Level,
		TimeFormat: time.TimeOnly,
	})
	logging.SetDefault(log)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to every supported chain. A chain whose endpoint cannot be
	// dialed is skipped; its RPC methods will report a missing client.
	dialCtx, dialCancel := context.WithTimeout(ctx, 30*time.Second)
	defer dialCancel()

	clients := evm.Clients{}
	for _, id := range chain.Supported() {
		params, _ := chain.Get(id)
		url := cfg.RPCEndpoint(id, params.RPCURL)
		client, err := evm.Dial(dialCtx, id, url, log)
		if err != nil {
			log.Warn("Failed to connect to chain", "chain", id, "url", url, "error", err)
			continue
		}
		clients[id] = client
		log.Info("Chain connected", "chain", id, "name", params.Name)
	}
	defer clients.Close()

	balanceClients := make(map[uint64]balance.ChainClient, len(clients))
	routerClients := make(map[uint64]router.Caller, len(clients))
	ethClients := make(map[uint64]*ethclient.Client, len(clients))
	for id, c := range clients {
		balanceClients[id] = c
		routerClients[id] = c
		ethClients[id] = c.Raw()
	}

	// Load the signing key, if configured
	var signer wallet.Signer
	if cfg.Wallet.KeyFile != "" {
		hexKey, err := wallet.ReadKeyFile(cfg.Wallet.KeyFile)
		if err != nil {
			log.Fatal("Failed to read key file", "error", err)
		}
		keyed, err := wallet.NewKeyedSigner(hexKey, ethClients, log)
		if err != nil {
			log.Fatal("Failed to load signing key", "error", err)
		}
		signer = keyed
		log.Info("Signing key loaded", "address", keyed.Address().Hex())
	} else {
		log.Info("No signing key configured, running read-only")
	}

	// Build the swap engine
	resolver := catalog.NewResolver(log)
	reader := balance.NewReader(balanceClients, log)
	engine := router.NewEngine(routerClients, log)
	executor := swap.NewExecutor(reader, clients, engine, signer, log)
	session := swap.NewSession(engine, log)
	defer session.Close()

	// Start RPC server
	server := rpc.NewServer(rpc.Deps{
		Resolver:       resolver,
		Balances:       reader,
		Engine:         engine,
		Executor:       executor,
		Session:        session,
		Kline:          kline.NewClient(log),
		Signer:         signer,
		AllowedOrigins: cfg.API.AllowedOrigins,
	})
	if err := server.Start(cfg.API.ListenAddr); err != nil {
		log.Fatal("Failed to start RPC server", "error", err)
	}

	printBanner(log, cfg, signer, clients)

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	log.Info("Shutting down...")

	cancel()
	session.Close()
	if err := server.Stop(); err != nil {
		log.Error("Error stopping RPC server", "error", err)
	}

	log.Info("Goodbye!")
}

func printBanner(log *logging.Logger, cfg *config.Config, signer wallet.Signer, clients evm.Clients) {
	mode := "read-only"
	if signer != nil {
		mode = fmt.Sprintf("signing as %s", signer.Address().Hex())
	}

	log.Info("")
	log.Info("=================================================")
	log.Infof("  Moodswap Daemon")
	log.Infof("  Version: %s", version)
	log.Info("=================================================")
	log.Info("")
	log.Infof("  API: http://%s", cfg.API.ListenAddr)
	log.Infof("  WS:  ws://%s/ws", cfg.API.ListenAddr)
	log.Info("")
	log.Infof("  Mode: %s", mode)
	log.Info("  Chains:")
	for _, id := range chain.Supported() {
		params, _ := chain.Get(id)
		status := "offline"
		if _, ok := clients[id]; ok {
			status = "connected"
		}
		swaps := "quotes only"
		if params.SupportsSwap {
			swaps = "swaps enabled"
		}
		log.Infof("    %-14s (%d) %s, %s", params.Name, id, status, swaps)
	}
	log.Info("")
	log.Info("=================================================")
	log.Info("")
}
