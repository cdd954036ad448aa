package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/stripe/stripe-go/v72"
)

// handleRechargeWebhook receives payment confirmations and converts completed
// checkouts into ledger credits. Event IDs are recorded durably in the ledger
// store, so a redelivered event never credits an account twice, even across
// restarts. Unhandled event types are acknowledged so the payment provider
// stops redelivering them.
func (s *Server) handleRechargeWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var event stripe.Event
	if err := json.Unmarshal(body, &event); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid event payload")
		return
	}

	if event.Type != "checkout.session.completed" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if event.ID == "" || event.Data == nil {
		writeJSONError(w, http.StatusBadRequest, "missing event id or payload")
		return
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid checkout session")
		return
	}
	if session.ClientReferenceID == "" {
		writeJSONError(w, http.StatusBadRequest, "missing client reference")
		return
	}

	seen, err := s.ledger.MarkEventProcessed(r.Context(), event.ID)
	if err != nil {
		log.Printf("event dedup failed for %s: %v", event.ID, err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if seen {
		writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	amount := float64(session.AmountTotal) / 100
	balance, err := s.orch.HandleRecharge(r.Context(), session.ClientReferenceID, amount)
	if err != nil {
		log.Printf("recharge failed for event %s: %v", event.ID, err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Printf("recharge: user %s credited for %.2f, balance %d", session.ClientReferenceID, amount, balance)
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":       session.ClientReferenceID,
		"balance_after": balance,
	})
}
