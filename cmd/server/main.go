// Package main runs the volume trading engine:
// - SessionScheduler: randomized, failure-aware trading loop
// - TransactionExecutor: bonding-curve trade building and submission
// - HTTP control surface: session lifecycle, status, metrics
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"solana-volume-engine/internal/domain"
	"solana-volume-engine/internal/executor"
	"solana-volume-engine/internal/ledger"
	"solana-volume-engine/internal/logging"
	"solana-volume-engine/internal/observability"
	"solana-volume-engine/internal/pumpfun"
	"solana-volume-engine/internal/scheduler"
	"solana-volume-engine/internal/solana"
	"solana-volume-engine/internal/storage"
	"solana-volume-engine/internal/storage/memory"
	"solana-volume-engine/internal/storage/migrations"
	pgstore "solana-volume-engine/internal/storage/postgres"
	"solana-volume-engine/internal/wallet"
)

// Server wires the engine components behind the HTTP control surface.
type Server struct {
	walletDir storage.WalletStore
	executor  *executor.TransactionExecutor
	scheduler *scheduler.SessionScheduler
	logger    *log.Logger
	startedAt time.Time

	// Curve watcher. Subscribes to the active session's bonding-curve
	// account and invalidates the executor's cached chain state on change.
	wsEndpoint  string
	mu          sync.Mutex
	watchCancel context.CancelFunc
}

func main() {
	loadEnvFile()

	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint (optional, enables live curve watching)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string for wallet inventory")
	walletKeys := flag.String("wallet-keys", os.Getenv("WALLET_KEYS"), "Comma-separated base58 wallet keypairs to import at startup")
	useMemory := flag.Bool("use-memory", false, "Use in-memory wallet storage instead of PostgreSQL")
	listenAddr := flag.String("listen-addr", ":8080", "HTTP listen address (control surface + metrics)")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	walletStore, cleanup, err := createWalletStore(ctx, *postgresDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create wallet store: %v", err)
	}
	defer cleanup()

	if err := importWallets(ctx, walletStore, *walletKeys); err != nil {
		logger.Fatalf("Failed to import wallets: %v", err)
	}

	rpc := solana.NewHTTPClient(*rpcEndpoint)
	pool := wallet.NewPool(walletStore, rpc)
	recorder := logging.NewLogRecorder(log.New(os.Stdout, "[engine] ", log.LstdFlags))

	exec := executor.New(executor.Options{
		RPC:      rpc,
		Wallets:  pool,
		Recorder: recorder,
	})
	sched := scheduler.New(scheduler.Options{
		Executor: exec,
		Wallets:  pool,
		Ledger:   ledger.NewOrderLedger(),
		Recorder: recorder,
	})

	server := &Server{
		walletDir:  walletStore,
		executor:   exec,
		scheduler:  sched,
		logger:     logger,
		startedAt:  time.Now(),
		wsEndpoint: *wsEndpoint,
	}

	httpServer := &http.Server{
		Addr:    *listenAddr,
		Handler: server.routes(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		sched.Stop()
		server.stopWatch()
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP shutdown error: %v", err)
		}
	}()

	logger.Printf("Listening on %s", *listenAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("HTTP server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createWalletStore creates the wallet inventory store, running migrations
// in the postgres case.
func createWalletStore(ctx context.Context, postgresDSN string, useMemory bool) (storage.WalletStore, func(), error) {
	if useMemory {
		return memory.NewWalletStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return pgstore.NewWalletStore(pool), pool.Close, nil
}

// importWallets loads keypairs from the --wallet-keys flag into the store.
// Wallets already present (by address) are left untouched.
func importWallets(ctx context.Context, store storage.WalletStore, keys string) error {
	if keys == "" {
		return nil
	}

	for i, key := range strings.Split(keys, ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}

		kp, err := solana.KeypairFromBase58(key)
		if err != nil {
			return fmt.Errorf("wallet %d: %w", i+1, err)
		}

		w := &domain.Wallet{
			ID:         kp.PublicKey,
			Address:    kp.PublicKey,
			PrivateKey: key,
			Label:      fmt.Sprintf("imported-%d", i+1),
			Active:     true,
			CreatedAt:  time.Now().UTC(),
		}
		err = store.Insert(ctx, w)
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("wallet %d (%s): %w", i+1, kp.PublicKey, err)
		}
	}
	return nil
}

// routes builds the HTTP mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", s.handleStatus)

	mux.HandleFunc("/session/start", s.handleSessionStart)
	mux.HandleFunc("/session/pause", s.handleSessionPause)
	mux.HandleFunc("/session/resume", s.handleSessionResume)
	mux.HandleFunc("/session/stop", s.handleSessionStop)
	mux.HandleFunc("/session", s.handleSession)
	mux.HandleFunc("/orders", s.handleOrders)
	mux.HandleFunc("/wallets", s.handleWallets)

	return mux
}

// startRequest is the JSON body for /session/start. Intervals are given in
// seconds.
type startRequest struct {
	Enabled            bool    `json:"enabled"`
	TokenMint          string  `json:"token_mint"`
	MinAmount          float64 `json:"min_amount"`
	MaxAmount          float64 `json:"max_amount"`
	MinIntervalSeconds float64 `json:"min_interval_seconds"`
	MaxIntervalSeconds float64 `json:"max_interval_seconds"`
	MaxFailures        int     `json:"max_failures"`
	SlippageBps        uint64  `json:"slippage_bps"`
}

func (r *startRequest) config() domain.TradingConfig {
	return domain.TradingConfig{
		Enabled:     r.Enabled,
		TokenMint:   r.TokenMint,
		MinAmount:   r.MinAmount,
		MaxAmount:   r.MaxAmount,
		MinInterval: time.Duration(r.MinIntervalSeconds * float64(time.Second)),
		MaxInterval: time.Duration(r.MaxIntervalSeconds * float64(time.Second)),
		MaxFailures: r.MaxFailures,
		SlippageBps: r.SlippageBps,
	}
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}

	sess, err := s.scheduler.Start(r.Context(), req.config())
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, scheduler.ErrSessionActive):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.startWatch(sess.Config.TokenMint)
	s.logger.Printf("Session %s started for mint %s", sess.ID, sess.Config.TokenMint)
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleSessionPause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	s.scheduler.Pause()
	writeJSON(w, http.StatusOK, s.scheduler.Session())
}

func (s *Server) handleSessionResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if err := s.scheduler.Resume(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.scheduler.Session())
}

func (s *Server) handleSessionStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	s.scheduler.Stop()
	s.stopWatch()
	writeJSON(w, http.StatusOK, s.scheduler.Session())
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := s.scheduler.Session()
	if sess == nil {
		writeError(w, http.StatusNotFound, "no session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	orders := s.scheduler.Orders()
	if orders == nil {
		orders = []*domain.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := s.walletDir.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, wallets)
}

// StatusResponse is the JSON response for /status.
type StatusResponse struct {
	Status  string          `json:"status"`
	Uptime  string          `json:"uptime"`
	Session *domain.Session `json:"session,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:  "running",
		Uptime:  time.Since(s.startedAt).String(),
		Session: s.scheduler.Session(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// startWatch subscribes to the mint's bonding-curve account over WebSocket
// and invalidates the executor's cached curve state on every change. A
// watcher for a previous session is torn down first. No-op without a
// WebSocket endpoint.
func (s *Server) startWatch(mint string) {
	if s.wsEndpoint == "" {
		return
	}

	curveAddr, err := pumpfun.BondingCurveAddress(mint)
	if err != nil {
		s.logger.Printf("Curve watcher disabled: derive curve address: %v", err)
		return
	}

	s.stopWatch()

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.watchCancel = cancel
	s.mu.Unlock()

	go func() {
		ws, err := solana.NewWSClient(ctx, s.wsEndpoint, nil)
		if err != nil {
			s.logger.Printf("Curve watcher: connect: %v", err)
			return
		}
		defer ws.Close()

		updates, err := ws.SubscribeAccount(ctx, curveAddr)
		if err != nil {
			s.logger.Printf("Curve watcher: subscribe %s: %v", curveAddr, err)
			return
		}
		s.logger.Printf("Watching bonding curve %s", curveAddr)

		for {
			select {
			case <-ctx.Done():
				return
			case u, ok := <-updates:
				if !ok {
					return
				}
				s.executor.InvalidateCurve(mint)
				s.logger.Printf("Curve %s changed at slot %d, cache invalidated", curveAddr, u.Slot)
				if state, err := pumpfun.DecodeBondingCurve(u.Data); err == nil && state.Complete {
					s.logger.Printf("Curve %s is complete: token has migrated off the bonding curve", curveAddr)
				}
			}
		}
	}()
}

// stopWatch tears down the current curve watcher, if any.
func (s *Server) stopWatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
