//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"flidesk-checkout/internal/domain"
	"flidesk-checkout/internal/domain/model"
	"flidesk-checkout/internal/domain/ports/adapter"
	"flidesk-checkout/internal/domain/ports/repository"
)

// =============================
// Repositories
// =============================

// ---- Mock SessionRepo ----

type MockSessionRepo struct {
	mu   sync.Mutex
	data map[string]*model.CheckoutSession

	SaveFunc                 func(ctx context.Context, tx repository.Tx, s *model.CheckoutSession) error
	FindByIDFunc             func(ctx context.Context, tx repository.Tx, id string) (*model.CheckoutSession, error)
	CompleteIfPendingFunc    func(ctx context.Context, tx repository.Tx, id, flideskID string, completedAt time.Time) (bool, error)
	MarkExpiredIfPendingFunc func(ctx context.Context, tx repository.Tx, id string) (bool, error)
	MarkFailedIfPendingFunc  func(ctx context.Context, tx repository.Tx, id string) (bool, error)
}

var _ repository.SessionRepository = (*MockSessionRepo)(nil)

func NewMockSessionRepo() *MockSessionRepo {
	return &MockSessionRepo{data: map[string]*model.CheckoutSession{}}
}

func (r *MockSessionRepo) Save(ctx context.Context, tx repository.Tx, s *model.CheckoutSession) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, s)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	cp := *s
	r.data[s.ID] = &cp
	return nil
}

func (r *MockSessionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CheckoutSession, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *MockSessionRepo) CompleteIfPending(ctx context.Context, tx repository.Tx, id, flideskID string, completedAt time.Time) (bool, error) {
	if r.CompleteIfPendingFunc != nil {
		return r.CompleteIfPendingFunc(ctx, tx, id, flideskID, completedAt)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.data[id]
	if !ok || s.Status != model.SessionStatusPending {
		return false, nil
	}
	s.Status = model.SessionStatusCompleted
	s.FlideskID = &flideskID
	at := completedAt
	s.CompletedAt = &at
	return true, nil
}

func (r *MockSessionRepo) MarkExpiredIfPending(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	if r.MarkExpiredIfPendingFunc != nil {
		return r.MarkExpiredIfPendingFunc(ctx, tx, id)
	}
	return r.transitionIfPending(id, model.SessionStatusExpired)
}

func (r *MockSessionRepo) MarkFailedIfPending(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	if r.MarkFailedIfPendingFunc != nil {
		return r.MarkFailedIfPendingFunc(ctx, tx, id)
	}
	return r.transitionIfPending(id, model.SessionStatusFailed)
}

func (r *MockSessionRepo) transitionIfPending(id string, to model.SessionStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.data[id]
	if !ok || s.Status != model.SessionStatusPending {
		return false, nil
	}
	s.Status = to
	return true, nil
}

func (r *MockSessionRepo) ListPendingExpiredBefore(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.CheckoutSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.CheckoutSession
	for _, s := range r.data {
		if s.Status == model.SessionStatusPending && s.ExpiresAt.Before(cutoff) {
			cp := *s
			out = append(out, &cp)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *MockSessionRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.CheckoutSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.CheckoutSession
	for _, s := range r.data {
		if s.Status == model.SessionStatusPending && s.CreatedAt.Before(cutoff) {
			cp := *s
			out = append(out, &cp)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *MockSessionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SessionStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[model.SessionStatus]int)
	for _, s := range r.data {
		out[s.Status]++
	}
	return out, nil
}

// ---- Mock SubscriptionRepo ----

type MockSubscriptionRepo struct {
	mu   sync.Mutex
	data map[string]*model.Subscription // by row id

	SaveFunc              func(ctx context.Context, tx repository.Tx, sub *model.Subscription) error
	ExistsByFlideskIDFunc func(ctx context.Context, tx repository.Tx, flideskID string) (bool, error)
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{data: map[string]*model.Subscription{}}
}

func (r *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, sub *model.Subscription) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, sub)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sub
	r.data[sub.ID] = &cp
	return nil
}

func (r *MockSubscriptionRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.data {
		if sub.SessionID == sessionID {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockSubscriptionRepo) ExistsByFlideskID(ctx context.Context, tx repository.Tx, flideskID string) (bool, error) {
	if r.ExistsByFlideskIDFunc != nil {
		return r.ExistsByFlideskIDFunc(ctx, tx, flideskID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.data {
		if sub.FlideskID == flideskID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MockSubscriptionRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data), nil
}

// Snapshot/Restore let the mock tx manager emulate rollback.
func (r *MockSubscriptionRepo) Snapshot() map[string]*model.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[string]*model.Subscription, len(r.data))
	for k, v := range r.data {
		cp := *v
		snap[k] = &cp
	}
	return snap
}

func (r *MockSubscriptionRepo) Restore(snap map[string]*model.Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = snap
}

// ---- Mock PlanRepo ----

type MockPlanRepo struct {
	mu   sync.Mutex
	data map[string]*model.Plan

	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error)
}

var _ repository.PlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{data: map[string]*model.Plan{}}
}

func (r *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.data[p.ID] = &cp
	return nil
}

func (r *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MockPlanRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Plan
	for _, p := range r.data {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

type MockGateway struct {
	mu       sync.Mutex
	captures map[string]adapter.VerifiedPayment // by session id

	VerifyProofFunc func(ctx context.Context, sessionID, proof string) (adapter.VerifiedPayment, error)
	CheckStatusFunc func(ctx context.Context, sessionID string) (string, error)
}

var _ adapter.PaymentGateway = (*MockGateway)(nil)

func NewMockGateway() *MockGateway {
	return &MockGateway{captures: map[string]adapter.VerifiedPayment{}}
}

func (g *MockGateway) Name() string { return "mock" }

// MarkPaid registers a capture and returns the proof VerifyProof will accept.
func (g *MockGateway) MarkPaid(sessionID string, amount int64) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.captures[sessionID] = adapter.VerifiedPayment{
		SessionID: sessionID,
		RefID:     "ref-" + sessionID,
		Amount:    amount,
		PaidAt:    time.Now(),
	}
	return "proof-" + sessionID
}

func (g *MockGateway) VerifyProof(ctx context.Context, sessionID, proof string) (adapter.VerifiedPayment, error) {
	if g.VerifyProofFunc != nil {
		return g.VerifyProofFunc(ctx, sessionID, proof)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	vp, ok := g.captures[sessionID]
	if !ok || proof != "proof-"+sessionID {
		return adapter.VerifiedPayment{}, domain.ErrProofRejected
	}
	return vp, nil
}

func (g *MockGateway) CheckStatus(ctx context.Context, sessionID string) (string, error) {
	if g.CheckStatusFunc != nil {
		return g.CheckStatusFunc(ctx, sessionID)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.captures[sessionID]; !ok {
		return "", domain.ErrNotFound
	}
	return "proof-" + sessionID, nil
}

func (g *MockGateway) PaymentURL(sessionID string) string {
	return "https://example.test/pay/" + sessionID
}

// ---- Mock Notifier ----

type MockNotifier struct {
	mu   sync.Mutex
	Sent []model.NotificationIntent

	SendFunc func(ctx context.Context, intent model.NotificationIntent) error
}

var _ adapter.Notifier = (*MockNotifier)(nil)

func NewMockNotifier() *MockNotifier { return &MockNotifier{} }

func (n *MockNotifier) Name() string { return "mock" }

func (n *MockNotifier) Send(ctx context.Context, intent model.NotificationIntent) error {
	if n.SendFunc != nil {
		return n.SendFunc(ctx, intent)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, intent)
	return nil
}

func (n *MockNotifier) SentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Sent)
}

// ---- Mock NotificationGuard ----

type MockGuard struct {
	mu   sync.Mutex
	seen map[string]bool

	FirstAttemptFunc func(ctx context.Context, sessionID string) (bool, error)
}

var _ repository.NotificationGuard = (*MockGuard)(nil)

func NewMockGuard() *MockGuard { return &MockGuard{seen: map[string]bool{}} }

func (g *MockGuard) FirstAttempt(ctx context.Context, sessionID string) (bool, error) {
	if g.FirstAttemptFunc != nil {
		return g.FirstAttemptFunc(ctx, sessionID)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen[sessionID] {
		return false, nil
	}
	g.seen[sessionID] = true
	return true, nil
}

// =============================
// Infra helpers for tests
// =============================

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx provides a way to control transaction behavior during tests.
// By default, it runs the function immediately without a real transaction.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// newTestLogger creates a silent zerolog.Logger so logs don't clutter test
// output.
func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}
