package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"flidesk-checkout/internal/infra/logging"
	"flidesk-checkout/internal/usecase"
)

type Server struct {
	sessUC      usecase.SessionUseCase
	reconcileUC usecase.ReconcileUseCase
	statsUC     usecase.StatsUseCase
	planUC      usecase.PlanUseCase

	apiKey        string
	ratePerMinute int
	log           *zerolog.Logger
}

func NewServer(
	sessUC usecase.SessionUseCase,
	reconcileUC usecase.ReconcileUseCase,
	statsUC usecase.StatsUseCase,
	planUC usecase.PlanUseCase,
	apiKey string,
	ratePerMinute int,
	logger *zerolog.Logger,
) *Server {
	srvLog := logger.With().Str("component", "Web").Logger()
	return &Server{
		sessUC:        sessUC,
		reconcileUC:   reconcileUC,
		statsUC:       statsUC,
		planUC:        planUC,
		apiKey:        apiKey,
		ratePerMinute: ratePerMinute,
		log:           &srvLog,
	}
}

// Router builds the chi router with the public checkout surface, the gateway
// callback, and the bearer-protected admin routes.
func (s *Server) Router(callbackPath string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(traceContext)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Public checkout surface, rate limited per client IP.
	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit())
		r.Get("/api/v1/plans", s.handlePlansList)
		r.Post("/api/v1/checkout", s.handleCheckout)
	})

	// Gateway callback. Authenticity lives in the signed proof itself, so no
	// bearer auth here.
	if callbackPath == "" {
		callbackPath = "/api/v1/payments/callback"
	}
	r.Post(callbackPath, s.handlePaymentCallback)

	// Admin/ops routes
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/api/v1/sessions/{id}", s.handleSessionGet)
		r.Get("/api/v1/stats", s.handleStats)
		r.Post("/api/v1/plans", s.handlePlanCreate)
	})

	return r
}

// traceContext copies chi's request id into the logging context so every log
// line downstream carries trace_id.
func traceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := chimw.GetReqID(r.Context()); reqID != "" {
			r = r.WithContext(logging.WithTraceID(r.Context(), reqID))
		}
		next.ServeHTTP(w, r)
	})
}

// authMiddleware provides simple Bearer token authentication for admin routes.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("Admin API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			http.Error(w, "Unauthorized: Malformed token", http.StatusUnauthorized)
			return
		}

		if tokenParts[1] != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
