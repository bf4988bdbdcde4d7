package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/payment"
	"storefront/internal/pricing"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"

	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Apply migrations and start the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, logger := a.cfg, a.logger
	logger.Info().Msg("starting storefront API server")

	if cfg.Stripe.SecretKey == "" {
		logger.Warn().Msg("missing STRIPE_SECRET_KEY, checkout sessions will fail against the real provider")
	}

	if _, err := database.Migrate(ctx, a.pool, logger); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Listing and checkout pricing may read the cached catalogue; recording locks the rows it prices.
	catalogRepo := a.productRepository()
	orderRepo := repository.NewOrderRepository(a.pool, logger)

	gateway := payment.NewGateway(cfg.Stripe, logger)
	verifier := payment.NewVerifier(cfg.Webhook, logger)

	productService := service.NewProductService(catalogRepo, a.seedLoader(ctx), cfg.Catalog.SeedFile, logger)
	checkoutService := service.NewCheckoutService(pricing.NewEngine(catalogRepo, logger), gateway, logger)
	orderService := service.NewOrderService(orderRepo, service.OrderOptions{
		Timeout:     cfg.Database.QueryTimeout,
		Deduplicate: cfg.Webhook.Deduplicate,
	}, logger)
	fulfillmentService := service.NewFulfillmentService(verifier, orderService, cfg.Webhook.AckOnRecordFailure, logger)

	mux := router.New(router.Handlers{
		Product:  handler.NewProductHandler(productService, logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, cfg.Server.PublicBaseURL, logger),
		Webhook:  handler.NewWebhookHandler(fulfillmentService, logger),
		Admin:    handler.NewAdminHandler(productService, orderService, logger),
	}, cfg.CORS, cfg.Auth.AdminAPIKey, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Stripe.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
