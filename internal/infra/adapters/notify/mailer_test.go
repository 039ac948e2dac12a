//go:build !integration

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"flidesk-checkout/internal/domain/model"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestMailer_Send(t *testing.T) {
	ctx := context.Background()
	intent := model.NotificationIntent{
		SessionID: "sess-1",
		Email:     "owner@example.com",
		FlideskID: "FLD-01ABC",
		PlanID:    "plan-1",
	}

	t.Run("should post the intent with the session id as idempotency key", func(t *testing.T) {
		var got map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer key-1" {
				t.Errorf("missing bearer auth, got %q", r.Header.Get("Authorization"))
			}
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		m, err := NewMailer("key-1", srv.URL, "billing@flidesk.io", time.Second, testLogger())
		if err != nil {
			t.Fatalf("mailer: %v", err)
		}
		if err := m.Send(ctx, intent); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if got["idempotency_key"] != "sess-1" {
			t.Errorf("expected idempotency key 'sess-1', but got %v", got["idempotency_key"])
		}
		if got["to"] != "owner@example.com" {
			t.Errorf("expected recipient to be the session email, got %v", got["to"])
		}
	})

	t.Run("provider-side duplicate counts as sent", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
		}))
		defer srv.Close()

		m, _ := NewMailer("key-1", srv.URL, "billing@flidesk.io", time.Second, testLogger())
		if err := m.Send(ctx, intent); err != nil {
			t.Errorf("expected 409 to count as success, but got: %v", err)
		}
	})

	t.Run("5xx is a send failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		m, _ := NewMailer("key-1", srv.URL, "billing@flidesk.io", time.Second, testLogger())
		if err := m.Send(ctx, intent); err == nil {
			t.Error("expected an error for a 5xx response")
		}
	})

	t.Run("timeout surfaces as an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		m, _ := NewMailer("key-1", srv.URL, "billing@flidesk.io", 20*time.Millisecond, testLogger())
		if err := m.Send(ctx, intent); err == nil {
			t.Error("expected a timeout error")
		}
	})
}
