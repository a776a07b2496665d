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

	"lingua-fulfillment/internal/config"
	"lingua-fulfillment/internal/domain/model"
	"lingua-fulfillment/internal/domain/ports/adapter"
	"lingua-fulfillment/internal/domain/ports/repository"
	pg "lingua-fulfillment/internal/infra/db/postgres"
	"lingua-fulfillment/internal/infra/logging"
	"lingua-fulfillment/internal/infra/metrics"
	"lingua-fulfillment/internal/infra/notify"
	"lingua-fulfillment/internal/infra/payment"
	red "lingua-fulfillment/internal/infra/redis"
	"lingua-fulfillment/internal/infra/web"
	"lingua-fulfillment/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Repositories ----
	intentRepo := pg.NewIntentRepo(pool)
	purchaseRepo := pg.NewPurchaseRepo(pool)
	productRepo := pg.NewProductRepo(pool)
	entitlementRepo := pg.NewEntitlementRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Redis (optional read cache for the has-access path) ----
	var entitlements repository.EntitlementRepository = entitlementRepo
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connect failed")
		}
		defer redisClient.Close()
		entitlements = pg.NewEntitlementRepoCacheDecorator(entitlementRepo, redisClient, cfg.Redis.TTL)
	}

	// ---- Notifier ----
	var notifier adapter.PurchaseNotifier
	if cfg.Notifier.URL != "" && !cfg.Runtime.Dev {
		notifier = notify.NewEmailNotifier(cfg.Notifier, logger)
	} else {
		notifier = notify.NewNoopNotifier(logger)
	}

	// ---- Use cases ----
	fulfillUC := usecase.NewFulfillmentUseCase(intentRepo, purchaseRepo, entitlements, productRepo, notifier, tm, logger)
	checkoutUC := usecase.NewCheckoutUseCase(productRepo, intentRepo, logger,
		payment.NewPayPalGateway(cfg.Payment.PayPal),
		payment.NewStripeGateway(cfg.Payment.Stripe),
	)
	accessUC := usecase.NewAccessUseCase(entitlements, purchaseRepo)

	// ---- HTTP ----
	server := web.NewServer(checkoutUC, accessUC, fulfillUC, cfg.Server.APIKey, logger)
	server.RegisterProvider(model.ProviderPayPal,
		payment.NewPayPalVerifier(cfg.Payment.PayPal, logger),
		payment.NewPayPalNormalizer(logger))
	server.RegisterProvider(model.ProviderStripe,
		payment.NewStripeVerifier(cfg.Payment.Stripe.WebhookSecret, logger),
		payment.NewStripeNormalizer(logger))

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("fulfillment server listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// ---- Graceful shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
