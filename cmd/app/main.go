// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"flidesk-checkout/internal/config"
	"flidesk-checkout/internal/domain/ports/adapter"
	"flidesk-checkout/internal/domain/ports/repository"
	notifyAdapters "flidesk-checkout/internal/infra/adapters/notify"
	payAdapters "flidesk-checkout/internal/infra/adapters/payment"
	pg "flidesk-checkout/internal/infra/db/postgres"
	"flidesk-checkout/internal/infra/logging"
	"flidesk-checkout/internal/infra/metrics"
	red "flidesk-checkout/internal/infra/redis"
	"flidesk-checkout/internal/infra/sched"
	"flidesk-checkout/internal/infra/web"
	"flidesk-checkout/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop gateway/notifier fallbacks)")
	flag.Parse()

	// .env is optional; real deployments inject env directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, int32(cfg.Database.PoolSize))
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis (optional; reconciliation degrades gracefully without it) ----
	var guard repository.NotificationGuard
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		guard = red.NewNotificationGuard(redisClient, cfg.Redis.TTL)
	} else {
		logger.Warn().Msg("redis.url not set; notification dedup guard disabled")
	}

	// ---- Repositories ----
	sessionRepo := pg.NewSessionRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	planRepo := pg.NewPlanRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Gateway ----
	var gateway adapter.PaymentGateway
	if cfg.Gateway.FliPay.MerchantID == "" || cfg.Gateway.FliPay.SigningSecret == "" {
		// LoadConfig only lets credentials be absent in dev mode.
		logger.Warn().Msg("flipay credentials not set; using noop gateway")
		gateway = payAdapters.NewNoopPaymentGateway()
	} else {
		gateway, err = payAdapters.NewFliPayGateway(
			cfg.Gateway.FliPay.MerchantID,
			cfg.Gateway.FliPay.SigningSecret,
			cfg.Gateway.FliPay.BaseURL,
			cfg.Gateway.FliPay.Sandbox,
		)
		if err != nil {
			log.Fatalf("flipay gateway: %v", err)
		}
	}

	// ---- Notifier ----
	var notifier adapter.Notifier
	if cfg.Notifier.APIKey != "" {
		notifier, err = notifyAdapters.NewMailer(cfg.Notifier.APIKey, cfg.Notifier.BaseURL, cfg.Notifier.From, cfg.Notifier.Timeout, logger)
		if err != nil {
			log.Fatalf("mailer: %v", err)
		}
	} else if cfg.Runtime.Dev {
		logger.Warn().Msg("notifier.api_key not set; using noop notifier")
		notifier = notifyAdapters.NewNoopNotifier()
	} else {
		log.Fatalf("notifier.api_key is required outside dev mode")
	}

	// ---- Use cases ----
	sessUC := usecase.NewSessionUseCase(sessionRepo, planRepo, gateway, logger)
	reconcileUC := usecase.NewReconcileUseCase(sessionRepo, subRepo, gateway, notifier, guard, tm, cfg.Notifier.Timeout, logger)
	statsUC := usecase.NewStatsUseCase(sessionRepo, subRepo, logger)
	planUC := usecase.NewPlanUseCase(planRepo)

	// ---- HTTP server ----
	srv := web.NewServer(sessUC, reconcileUC, statsUC, planUC, cfg.Server.AdminAPIKey, cfg.Server.RatePerMinute, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(cfg.Gateway.FliPay.CallbackPath),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Workers ----
	sweeper := sched.NewSweepWorker(cfg.Worker.SweepInterval, sessUC, logger)
	go func() { _ = sweeper.Run(ctx) }()

	reconciler := sched.NewSessionReconciler(reconcileUC, sessionRepo, gateway, cfg.Worker.ReconcileInterval, cfg.Worker.StaleAfter, logger)
	go func() { _ = reconciler.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}
