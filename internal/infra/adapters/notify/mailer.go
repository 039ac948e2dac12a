package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"flidesk-checkout/internal/domain/model"
	"flidesk-checkout/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*Mailer)(nil)

// Mailer delivers the subscription confirmation through the transactional
// email provider's REST API. The intent's session id rides along as the
// provider-side idempotency key, so a duplicate call collapses to one email.
type Mailer struct {
	apiKey  string
	baseURL string
	from    string
	client  *http.Client
	log     *zerolog.Logger
}

func NewMailer(apiKey, baseURL, from string, timeout time.Duration, logger *zerolog.Logger) (*Mailer, error) {
	if apiKey == "" {
		return nil, errors.New("mailer api key empty")
	}
	if baseURL == "" {
		baseURL = "https://api.flimail.io/v1"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	mLog := logger.With().Str("component", "Mailer").Logger()
	return &Mailer{
		apiKey:  apiKey,
		baseURL: baseURL,
		from:    from,
		client:  &http.Client{Timeout: timeout},
		log:     &mLog,
	}, nil
}

func (m *Mailer) Name() string { return "flimail" }

func (m *Mailer) Send(ctx context.Context, intent model.NotificationIntent) error {
	payload := map[string]any{
		"from":            m.from,
		"to":              intent.Email,
		"template":        "subscription-welcome",
		"idempotency_key": intent.SessionID,
		"vars": map[string]string{
			"flidesk_id": intent.FlideskID,
			"plan_id":    intent.PlanID,
		},
	}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/messages", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// 409 means the provider already accepted this idempotency key; the
	// message is on its way, so the send counts as done.
	if resp.StatusCode == http.StatusConflict {
		m.log.Debug().Str("session_id", intent.SessionID).Msg("mailer deduplicated send")
		return nil
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("mailer responded %d", resp.StatusCode)
	}
	return nil
}
