package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/wickedtornado/diet-planning/internal/api"
	"github.com/wickedtornado/diet-planning/internal/config"
	"github.com/wickedtornado/diet-planning/internal/nutrition"
	"github.com/wickedtornado/diet-planning/internal/rxnorm"
	"github.com/wickedtornado/diet-planning/internal/storage"
	"github.com/wickedtornado/diet-planning/internal/usda"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the reference-data lookup tools over MCP stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.USDA.APIKey == "" {
		return fmt.Errorf("MCP tools need the nutrition database: set DIETPLAN_USDA_API_KEY")
	}

	// Stdout carries the MCP protocol; logs must go to stderr only.
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

	svc := nutrition.NewService(store, usda.NewClient(cfg.USDA.APIKey), rxnorm.NewClient())
	mcpSrv := api.NewMCPServer(api.MCPDeps{Nutrition: svc})

	stdioSrv := server.NewStdioServer(mcpSrv)
	if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
