package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nexmind-one/nexmind/pkg/auth"
	"github.com/nexmind-one/nexmind/pkg/config"
	"github.com/nexmind-one/nexmind/pkg/executor"
	"github.com/nexmind-one/nexmind/pkg/intent"
	"github.com/nexmind-one/nexmind/pkg/ledger"
	"github.com/nexmind-one/nexmind/pkg/llm"
	"github.com/nexmind-one/nexmind/pkg/models"
	"github.com/nexmind-one/nexmind/pkg/orchestrator"
	"github.com/nexmind-one/nexmind/pkg/pricing"
	"github.com/nexmind-one/nexmind/pkg/router"
)

type fakeClient struct {
	reply string
}

func (f *fakeClient) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.Completion, error) {
	return &llm.Completion{
		Text:  f.reply,
		Usage: models.Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	}, nil
}

func buildServer(cfg *config.Config, store *ledger.SQLiteStore) *Server {
	classifier := intent.New(&fakeClient{reply: "chat"}, "gpt-4o-mini", nil)
	exec := executor.New(&fakeClient{reply: "hello from nexmind"}, 1, time.Millisecond)
	table := pricing.NewTable(pricing.DefaultMargin, nil)
	orch := orchestrator.New(classifier, router.New(), exec, table, store, nil, cfg.Recharge.TokensPerUnit)
	return New(cfg, orch, store)
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *ledger.SQLiteStore) {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	cfg.RateLimit.RPS = 0

	store, err := ledger.New(filepath.Join(t.TempDir(), "ledger.db"), cfg.Ledger.FreeAllowance)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return buildServer(cfg, store), store
}

func doRequest(s *Server, method, path, userID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func TestTaskHappyPath(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := doRequest(s, http.MethodPost, "/api/task", "alice", `{"input":"hello","tone":"auto"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var res orchestrator.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Response != "hello from nexmind" {
		t.Errorf("unexpected response text: %q", res.Response)
	}
	if res.Category != models.CategoryChat || res.Model != "gpt-4o-mini" {
		t.Errorf("unexpected routing: %+v", res)
	}
	if res.BalanceRemaining != 4 {
		t.Errorf("expected balance 4 after one request, got %d", res.BalanceRemaining)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestTaskEmptyInput(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := doRequest(s, http.MethodPost, "/api/task", "alice", `{"input":"   "}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestTaskMissingUser(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := doRequest(s, http.MethodPost, "/api/task", "", `{"input":"hello"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestTaskInsufficientBalance(t *testing.T) {
	cfg := config.Default()
	cfg.Ledger.FreeAllowance = 0
	s, _ := newTestServer(t, cfg)

	w := doRequest(s, http.MethodPost, "/api/task", "broke", `{"input":"hello"}`)
	if w.Code != http.StatusPaymentRequired {
		t.Errorf("expected 402, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBalanceEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := doRequest(s, http.MethodGet, "/api/balance", "alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var res struct {
		UserID  string `json:"user_id"`
		Balance int64  `json:"balance"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.UserID != "alice" || res.Balance != 5 {
		t.Errorf("unexpected balance response: %+v", res)
	}
}

func TestAuthEnabled(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.Enabled = true
	cfg.Auth.Secret = "s3cret"
	s, _ := newTestServer(t, cfg)

	// No token.
	w := doRequest(s, http.MethodGet, "/api/balance", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}

	// X-User-ID alone is not trusted with auth on.
	w = doRequest(s, http.MethodGet, "/api/balance", "impostor", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with bare header, got %d", w.Code)
	}

	token, err := auth.IssueToken("alice", "s3cret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/balance", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with valid token, got %d: %s", rec.Code, rec.Body.String())
	}
}

const checkoutEvent = `{
	"id": "evt_test_1",
	"type": "checkout.session.completed",
	"data": {
		"object": {
			"client_reference_id": "alice",
			"amount_total": 250
		}
	}
}`

func TestRechargeWebhook(t *testing.T) {
	s, store := newTestServer(t, nil)

	w := doRequest(s, http.MethodPost, "/api/recharge/webhook", "", checkoutEvent)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	balance, err := store.Balance(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	// 5 allowance + 2.50 at 10 tokens per unit.
	if balance != 30 {
		t.Errorf("expected balance 30, got %d", balance)
	}

	// Redelivery of the same event must not credit again.
	w = doRequest(s, http.MethodPost, "/api/recharge/webhook", "", checkoutEvent)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate, got %d", w.Code)
	}
	balance, _ = store.Balance(context.Background(), "alice")
	if balance != 30 {
		t.Errorf("expected balance unchanged at 30, got %d", balance)
	}
}

func TestRechargeWebhookDedupSurvivesRestart(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit.RPS = 0
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	store, err := ledger.New(dbPath, cfg.Ledger.FreeAllowance)
	if err != nil {
		t.Fatal(err)
	}
	s := buildServer(cfg, store)

	w := doRequest(s, http.MethodPost, "/api/recharge/webhook", "", checkoutEvent)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	// Same event redelivered to a fresh process over the same database.
	store, err = ledger.New(dbPath, cfg.Ledger.FreeAllowance)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	s = buildServer(cfg, store)

	w = doRequest(s, http.MethodPost, "/api/recharge/webhook", "", checkoutEvent)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on redelivery, got %d", w.Code)
	}

	balance, err := store.Balance(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if balance != 30 {
		t.Errorf("expected balance 30 after redelivery, got %d", balance)
	}
}

func TestRechargeWebhookIgnoresOtherEvents(t *testing.T) {
	s, store := newTestServer(t, nil)

	payload := `{"id":"evt_other","type":"invoice.paid","data":{"object":{}}}`
	w := doRequest(s, http.MethodPost, "/api/recharge/webhook", "", payload)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	balance, _ := store.Balance(context.Background(), "alice")
	if balance != 5 {
		t.Errorf("expected untouched allowance balance 5, got %d", balance)
	}
}

func TestRateLimit(t *testing.T) {
	s, _ := newTestServer(t, nil)
	s.limiter = NewIPRateLimiter(1, 1)

	w := doRequest(s, http.MethodGet, "/healthz", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w = doRequest(s, http.MethodGet, "/healthz", "", "")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after burst, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := doRequest(s, http.MethodGet, "/healthz", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
