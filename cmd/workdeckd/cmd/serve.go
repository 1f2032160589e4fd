package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/workdeckhq/workdeck/internal/authz"
	"github.com/workdeckhq/workdeck/internal/config"
	"github.com/workdeckhq/workdeck/internal/db/bunx"
	"github.com/workdeckhq/workdeck/internal/db/models"
	"github.com/workdeckhq/workdeck/internal/identity"
	"github.com/workdeckhq/workdeck/internal/middleware"
	"github.com/workdeckhq/workdeck/internal/repository"
	"github.com/workdeckhq/workdeck/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Workdeck API server",
	Long:  `Starts the HTTP server with the guarded API routes mounted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := bunx.NewDB(cfg.DatabaseURL, cfg.MaxDBConnections)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		log.Printf("Connected to database")

		principalRepo := repository.NewBunPrincipalRepository(db)
		resourceRepo := repository.NewBunResourceRepository(db)

		providerVerifier, err := identity.NewOIDCProviderVerifier(cfg.Identity)
		if err != nil {
			return fmt.Errorf("configure provider verifier: %w", err)
		}

		var legacyVerifier *identity.LegacyVerifier
		if cfg.Identity.Policy == config.PolicyAnyProvider {
			legacyVerifier, err = identity.NewLegacyVerifier(cfg.Identity.LegacySecret)
			if err != nil {
				return fmt.Errorf("configure legacy verifier: %w", err)
			}
		}

		verifier := identity.NewVerifier(providerVerifier, legacyVerifier, cfg.Identity.Policy)
		resolver := identity.NewResolver(principalRepo, models.Role(cfg.Identity.DefaultRole))
		evaluator := authz.NewEvaluator(resourceRepo)
		metrics := middleware.NewMetrics(prometheus.DefaultRegisterer)
		guard := middleware.NewGuard(verifier, resolver, evaluator, metrics)

		handler := server.NewH2CHandler(server.RouterOptions{
			Guard:      guard,
			Principals: principalRepo,
			Resources:  resourceRepo,
		})

		srv := &http.Server{
			Addr:              cfg.ServerAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Printf("Listening on %s (policy=%s)", cfg.ServerAddr, cfg.Identity.Policy)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return fmt.Errorf("server failed: %w", err)
		case sig := <-stop:
			log.Printf("Received %s, shutting down", sig)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		log.Printf("Server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
