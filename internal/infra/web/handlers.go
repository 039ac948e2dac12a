package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"flidesk-checkout/internal/domain"
	"flidesk-checkout/internal/domain/model"
	"flidesk-checkout/internal/infra/logging"
)

type checkoutRequest struct {
	Email        string                 `json:"email"`
	BusinessName string                 `json:"business_name"`
	Phone        string                 `json:"phone"`
	PlanID       string                 `json:"plan_id"`
	Payload      map[string]interface{} `json:"payload"`
}

type checkoutResponse struct {
	SessionID  string    `json:"session_id"`
	PaymentURL string    `json:"payment_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sess, payURL, err := s.sessUC.Submit(ctx, req.Email, req.BusinessName, req.Phone, req.PlanID, req.Payload)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "Unknown plan", http.StatusBadRequest)
		default:
			logging.With(ctx, s.log).Error().Err(err).Msg("checkout submission failed")
			http.Error(w, "Failed to create checkout session", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, checkoutResponse{
		SessionID:  sess.ID,
		PaymentURL: payURL,
		ExpiresAt:  sess.ExpiresAt,
	})
}

type callbackRequest struct {
	SessionID string `json:"session_id"`
	Proof     string `json:"proof"`
}

type callbackResponse struct {
	Status           string `json:"status"`
	FlideskID        string `json:"flidesk_id"`
	NotificationSent bool   `json:"notification_sent"`
}

func (s *Server) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req callbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" || req.Proof == "" {
		http.Error(w, "session_id and proof are required", http.StatusBadRequest)
		return
	}
	ctx = logging.WithSessionID(ctx, req.SessionID)

	res, err := s.reconcileUC.Reconcile(ctx, req.SessionID, req.Proof)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "Unknown session", http.StatusNotFound)
		case errors.Is(err, domain.ErrSessionExpired):
			http.Error(w, "Session expired", http.StatusGone)
		case errors.Is(err, domain.ErrSessionFailed), errors.Is(err, domain.ErrConflict):
			http.Error(w, "Session not reconcilable", http.StatusConflict)
		case errors.Is(err, domain.ErrProofRejected):
			http.Error(w, "Payment proof rejected", http.StatusBadRequest)
		case errors.Is(err, domain.ErrStoreUnavailable):
			// Transient: the gateway should retry this delivery.
			http.Error(w, "Store unavailable, retry", http.StatusServiceUnavailable)
		default:
			logging.With(ctx, s.log).Error().Err(err).Msg("reconcile failed")
			http.Error(w, "Reconciliation failed", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, callbackResponse{
		Status:           string(res.Status),
		FlideskID:        res.FlideskID,
		NotificationSent: res.NotificationSent,
	})
}

type sessionResponse struct {
	SessionID   string     `json:"session_id"`
	Email       string     `json:"email"`
	PlanID      string     `json:"plan_id"`
	Amount      int64      `json:"amount"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	FlideskID   *string    `json:"flidesk_id,omitempty"`
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	sess, err := s.sessUC.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID:   sess.ID,
		Email:       sess.Email,
		PlanID:      sess.PlanID,
		Amount:      sess.Amount,
		Currency:    sess.Currency,
		Status:      string(sess.Status),
		CreatedAt:   sess.CreatedAt,
		ExpiresAt:   sess.ExpiresAt,
		CompletedAt: sess.CompletedAt,
		FlideskID:   sess.FlideskID,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	byStatus, subs, err := s.statsUC.Totals(ctx)
	if err != nil {
		http.Error(w, "Failed to get totals", http.StatusInternalServerError)
		return
	}

	counts := make(map[string]int, len(byStatus))
	for status, n := range byStatus {
		counts[string(status)] = n
	}
	writeJSON(w, http.StatusOK, struct {
		SessionsByStatus   map[string]int `json:"sessions_by_status"`
		SubscriptionsTotal int            `json:"subscriptions_total"`
	}{
		SessionsByStatus:   counts,
		SubscriptionsTotal: subs,
	})
}

type planCreateRequest struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
}

func (s *Server) handlePlanCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req planCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	plan, err := s.planUC.Create(ctx, req.Name, req.Price, req.Currency)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to create plan", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handlePlansList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	plans, err := s.planUC.List(ctx)
	if err != nil {
		http.Error(w, "Failed to list plans", http.StatusInternalServerError)
		return
	}
	if plans == nil {
		plans = []*model.Plan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
