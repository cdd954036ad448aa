package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexmind-one/nexmind/pkg/config"
	"github.com/nexmind-one/nexmind/pkg/executor"
	"github.com/nexmind-one/nexmind/pkg/ledger"
	"github.com/nexmind-one/nexmind/pkg/llm"
	"github.com/nexmind-one/nexmind/pkg/orchestrator"
)

// Server is the NexMind HTTP API.
type Server struct {
	cfg     *config.Config
	orch    *orchestrator.Orchestrator
	ledger  ledger.Store
	limiter *IPRateLimiter
	mux     *http.ServeMux
}

// New creates a Server wired with all dependencies.
func New(cfg *config.Config, orch *orchestrator.Orchestrator, store ledger.Store) *Server {
	s := &Server{
		cfg:    cfg,
		orch:   orch,
		ledger: store,
		mux:    http.NewServeMux(),
	}
	if cfg.RateLimit.RPS > 0 {
		s.limiter = NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	s.mux.HandleFunc("/api/task", s.handleTask)
	s.mux.HandleFunc("/api/balance", s.handleBalance)
	s.mux.HandleFunc("/api/recharge/webhook", s.handleRechargeWebhook)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow(clientIP(r)) {
		writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the API server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("nexmind listening on %s", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

type taskRequest struct {
	Input string `json:"input"`
	Tone  string `json:"tone"`
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, ok := s.resolveUser(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Input = strings.TrimSpace(req.Input)
	if req.Input == "" {
		writeJSONError(w, http.StatusBadRequest, "input is required")
		return
	}

	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", requestID)

	res, err := s.orch.HandleRequest(r.Context(), req.Input, req.Tone, userID)
	if err != nil {
		s.writeTaskError(w, requestID, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// writeTaskError maps pipeline failures to HTTP statuses. Upstream detail is
// logged with the request ID and never leaked to the client.
func (s *Server) writeTaskError(w http.ResponseWriter, requestID string, err error) {
	var exhausted *executor.ExhaustedError
	switch {
	case errors.Is(err, ledger.ErrInsufficientBalance):
		writeJSONError(w, http.StatusPaymentRequired, "insufficient balance")
	case errors.Is(err, llm.ErrQuotaExceeded):
		log.Printf("request %s: upstream quota exhausted: %v", requestID, err)
		writeJSONError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	case errors.As(err, &exhausted):
		log.Printf("request %s: %v", requestID, err)
		writeJSONError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	case errors.Is(err, llm.ErrUnauthorized):
		log.Printf("request %s: upstream credentials rejected: %v", requestID, err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client went away; nothing useful to write.
	default:
		log.Printf("request %s: %v", requestID, err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, ok := s.resolveUser(w, r)
	if !ok {
		return
	}

	balance, err := s.ledger.Balance(r.Context(), userID)
	if err != nil {
		log.Printf("balance lookup failed for %s: %v", userID, err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"balance": balance,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"message":%q,"code":%d}}`, message, code)
}
