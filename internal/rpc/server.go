// Package rpc provides a JSON-RPC 2.0 server for the moodswap daemon.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/moodswap/moodswapd/internal/balance"
	"github.com/moodswap/moodswapd/internal/catalog"
	"github.com/moodswap/moodswapd/internal/kline"
	"github.com/moodswap/moodswapd/internal/router"
	"github.com/moodswap/moodswapd/internal/swap"
	"github.com/moodswap/moodswapd/internal/wallet"
	"github.com/moodswap/moodswapd/pkg/logging"
)

// Server is a JSON-RPC 2.0 server.
type Server struct {
	resolver *catalog.Resolver
	balances *balance.Reader
	engine   *router.Engine
	executor *swap.Executor
	session  *swap.Session
	kline    *kline.Client
	signer   wallet.Signer // nil in read-only mode
	origins  []string
	log      *logging.Logger
	wsHub    *WSHub

	server   *http.Server
	listener net.Listener

	handlers map[string]Handler
	mu       sync.RWMutex
}

// Handler is a JSON-RPC method handler.
type Handler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id,omitempty"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error represents a JSON-RPC 2.0 error.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Standard error codes.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// Deps bundles the collaborators the server exposes over RPC. Signer may
// be nil, in which case swap execution methods report read-only mode.
type Deps struct {
	Resolver *catalog.Resolver
	Balances *balance.Reader
	Engine   *router.Engine
	Executor *swap.Executor
	Session  *swap.Session
	Kline    *kline.Client
	Signer   wallet.Signer

	// AllowedOrigins is the CORS allowlist. Empty or "*" allows all.
	AllowedOrigins []string
}

// NewServer creates a new JSON-RPC server.
func NewServer(deps Deps) *Server {
	s := &Server{
		resolver: deps.Resolver,
		balances: deps.Balances,
		engine:   deps.Engine,
		executor: deps.Executor,
		session:  deps.Session,
		kline:    deps.Kline,
		signer:   deps.Signer,
		origins:  deps.AllowedOrigins,
		log:      logging.GetDefault().Component("rpc"),
		handlers: make(map[string]Handler),
	}

	// Register handlers
	s.registerHandlers()

	return s
}

// registerHandlers registers all JSON-RPC method handlers.
func (s *Server) registerHandlers() {
	// Network methods
	s.handlers["network_list"] = s.networkList

	// Token catalog methods
	s.handlers["token_list"] = s.tokenList

	// Balance methods
	s.handlers["balance_get"] = s.balanceGet
	s.handlers["balance_list"] = s.balanceList

	// Quote methods
	s.handlers["quote_get"] = s.quoteGet
	s.handlers["quote_subscribe"] = s.quoteSubscribe
	s.handlers["quote_unsubscribe"] = s.quoteUnsubscribe

	// Swap methods
	s.handlers["swap_execute"] = s.swapExecute
	s.handlers["swap_status"] = s.swapStatus

	// Market data methods
	s.handlers["kline_get"] = s.klineGet
}

// Start starts the RPC server.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	// Initialize WebSocket hub
	s.wsHub = NewWSHub()
	go s.wsHub.Run()
	s.bridgeEvents()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /", s.handleRPC)
	mux.HandleFunc("POST /{$}", s.handleRPC)
	mux.HandleFunc("OPTIONS /", s.handleCORS)
	mux.HandleFunc("OPTIONS /{$}", s.handleCORS)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /ws/", s.handleWS)

	s.server = &http.Server{
		Handler:      s.corsMiddleware(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("RPC server error", "error", err)
		}
	}()

	s.log.Info("RPC server started", "addr", addr, "ws", "ws://"+addr+"/ws")
	return nil
}

// Stop stops the RPC server.
func (s *Server) Stop() error {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

// bridgeEvents forwards swap attempt and quote refresh events to
// WebSocket subscribers.
func (s *Server) bridgeEvents() {
	if s.executor != nil {
		s.executor.OnPhaseChange(func(a swap.Attempt) {
			s.wsHub.Broadcast(EventSwapPhase, a)
			if a.Phase.IsTerminal() {
				s.wsHub.Broadcast(EventSwapResult, a)
			}
		})
	}
	if s.session != nil {
		s.session.OnQuote(func(chainID uint64, q *router.Quote, err error) {
			update := QuoteUpdate{ChainID: chainID, Quote: q}
			if err != nil {
				update.Error = err.Error()
			}
			s.wsHub.Broadcast(EventQuoteUpdate, update)
		})
	}
}

// QuoteUpdate is the payload of a quote_update WebSocket event.
type QuoteUpdate struct {
	ChainID uint64        `json:"chainId"`
	Quote   *router.Quote `json:"quote,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// handleRPC handles incoming JSON-RPC requests.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, nil, ParseError, "Parse error", nil)
		return
	}

	if req.JSONRPC != "2.0" {
		s.writeError(w, req.ID, InvalidRequest, "Invalid Request", nil)
		return
	}

	s.mu.RLock()
	handler, ok := s.handlers[req.Method]
	s.mu.RUnlock()

	if !ok {
		s.writeError(w, req.ID, MethodNotFound, "Method not found", req.Method)
		return
	}

	result, err := handler(r.Context(), req.Params)
	if err != nil {
		s.writeError(w, req.ID, InternalError, err.Error(), errorData(err))
		return
	}

	s.writeResult(w, req.ID, result)
}

// errorData surfaces the swap error kind to clients when available.
func errorData(err error) interface{} {
	var serr *swap.Error
	if errors.As(err, &serr) {
		return map[string]string{"kind": string(serr.Kind)}
	}
	return nil
}

// writeResult writes a successful response.
func (s *Server) writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, id interface{}, code int, message string, data interface{}) {
	resp := Response{
		JSONRPC: "2.0",
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
		ID: id,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// WSHub returns the WebSocket hub.
func (s *Server) WSHub() *WSHub {
	return s.wsHub
}

// handleCORS handles CORS preflight requests.
func (s *Server) handleCORS(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// corsMiddleware adds CORS headers to all responses.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && !s.originAllowed(origin) {
			http.Error(w, "Origin not allowed", http.StatusForbidden)
			return
		}
		if origin == "" {
			// Non-browser clients send no Origin header
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "86400") // Cache preflight for 24 hours

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// originAllowed reports whether the allowlist permits an origin. An empty
// allowlist permits everything.
func (s *Server) originAllowed(origin string) bool {
	for _, o := range s.origins {
		if o == "*" || o == origin {
			return true
		}
	}
	return len(s.origins) == 0
}
