package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"flidesk-checkout/internal/domain"
	"flidesk-checkout/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*FliPayGateway)(nil)

// FliPayGateway implements adapter.PaymentGateway against the FliPay REST v1
// API. Callback proofs are HS256 tokens signed with the merchant's secret;
// verification checks the signature locally, then confirms the capture with
// the provider's verify endpoint.
type FliPayGateway struct {
	merchantID string
	secret     []byte
	baseURL    string
	sandbox    bool
	client     *http.Client
}

func NewFliPayGateway(merchantID, signingSecret, baseURL string, sandbox bool) (*FliPayGateway, error) {
	if merchantID == "" {
		return nil, errors.New("merchant id empty")
	}
	if signingSecret == "" {
		return nil, errors.New("signing secret empty")
	}
	if baseURL == "" {
		baseURL = "https://api.flipay.io/pg/v1"
		if sandbox {
			baseURL = "https://sandbox.flipay.io/pg/v1"
		}
	}
	return &FliPayGateway{
		merchantID: merchantID,
		secret:     []byte(signingSecret),
		baseURL:    baseURL,
		sandbox:    sandbox,
		client:     &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (g *FliPayGateway) Name() string { return "flipay" }

func (g *FliPayGateway) endpoint(path string) string { return g.baseURL + path }

// proofClaims is the callback token payload FliPay signs with the merchant
// secret.
type proofClaims struct {
	SessionID string `json:"sid"`
	RefID     string `json:"ref"`
	Amount    int64  `json:"amt"`
	jwt.RegisteredClaims
}

// VerifyProof checks the proof signature and session binding, then confirms
// the capture with the provider. Signature or binding failures map to
// ErrProofRejected; transport failures stay transient.
func (g *FliPayGateway) VerifyProof(ctx context.Context, sessionID, proof string) (adapter.VerifiedPayment, error) {
	var claims proofClaims
	token, err := jwt.ParseWithClaims(proof, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return adapter.VerifiedPayment{}, fmt.Errorf("proof signature invalid: %w", domain.ErrProofRejected)
	}
	if claims.SessionID != sessionID {
		return adapter.VerifiedPayment{}, fmt.Errorf("proof issued for session %q: %w", claims.SessionID, domain.ErrProofRejected)
	}

	payload := map[string]any{
		"merchant_id": g.merchantID,
		"session_id":  sessionID,
		"ref_id":      claims.RefID,
	}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint("/payment/verify.json"), bytes.NewReader(b))
	if err != nil {
		return adapter.VerifiedPayment{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return adapter.VerifiedPayment{}, err
	}
	defer resp.Body.Close()

	var out struct {
		Data struct {
			Code   int    `json:"code"`
			RefID  string `json:"ref_id"`
			Amount int64  `json:"amount"`
			PaidAt string `json:"paid_at"`
		} `json:"data"`
		Errors any `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return adapter.VerifiedPayment{}, err
	}
	if out.Data.Code != 100 {
		return adapter.VerifiedPayment{}, fmt.Errorf("flipay verify code %d: %w", out.Data.Code, domain.ErrProofRejected)
	}

	paidAt, _ := time.Parse(time.RFC3339, out.Data.PaidAt)
	return adapter.VerifiedPayment{
		SessionID: sessionID,
		RefID:     out.Data.RefID,
		Amount:    out.Data.Amount,
		PaidAt:    paidAt,
	}, nil
}

// CheckStatus asks the provider whether a session was captured out-of-band.
// Returns a proof token usable with VerifyProof.
func (g *FliPayGateway) CheckStatus(ctx context.Context, sessionID string) (string, error) {
	payload := map[string]any{
		"merchant_id": g.merchantID,
		"session_id":  sessionID,
	}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint("/payment/status.json"), bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Data struct {
			Code  int    `json:"code"`
			Proof string `json:"proof"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	switch {
	case out.Data.Code == 100 && out.Data.Proof != "":
		return out.Data.Proof, nil
	case out.Data.Code == 101:
		// captured but proof already consumed; treated as no capture to fetch
		return "", domain.ErrNotFound
	default:
		return "", domain.ErrNotFound
	}
}

// PaymentURL is the hosted checkout page for a session.
func (g *FliPayGateway) PaymentURL(sessionID string) string {
	host := "https://pay.flipay.io"
	if g.sandbox {
		host = "https://sandbox.flipay.io"
	}
	return fmt.Sprintf("%s/checkout/%s", host, sessionID)
}
