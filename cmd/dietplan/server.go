package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wickedtornado/diet-planning/internal/api"
	"github.com/wickedtornado/diet-planning/internal/composer"
	"github.com/wickedtornado/diet-planning/internal/config"
	"github.com/wickedtornado/diet-planning/internal/llm"
	"github.com/wickedtornado/diet-planning/internal/nutrition"
	"github.com/wickedtornado/diet-planning/internal/planner"
	"github.com/wickedtornado/diet-planning/internal/rxnorm"
	"github.com/wickedtornado/diet-planning/internal/storage"
	"github.com/wickedtornado/diet-planning/internal/usda"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the diet planning server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "dietplan version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	// The nutrition service needs a USDA key; without one the planner runs
	// with plain prompts and the nutrition routes report the database as
	// inactive.
	var svc *nutrition.Service
	var enricher planner.Enricher
	if cfg.USDA.APIKey != "" {
		svc = nutrition.NewService(store, usda.NewClient(cfg.USDA.APIKey), rxnorm.NewClient())
		enricher = composer.New(svc)

		status := svc.TestConnections(ctx)
		slog.Info("nutrition databases initialized",
			"usda", status.USDA.Status, "rxnorm", status.RxNorm.Status)
	} else {
		slog.Warn("USDA API key not provided, running without nutrition database")
	}

	groq := llm.NewClient(cfg.Groq.APIKey, cfg.Groq.Model)
	p, err := planner.New(groq, enricher, store)
	if err != nil {
		return fmt.Errorf("creating planner: %w", err)
	}

	deps := api.Deps{Planner: p, Store: store}
	if svc != nil {
		deps.Nutrition = svc
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewHandler(deps),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("dietplan listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
