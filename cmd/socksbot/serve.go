package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/cutesocks/socksbot/internal/config"
	"github.com/cutesocks/socksbot/internal/discord"
	"github.com/cutesocks/socksbot/internal/market"
	"github.com/cutesocks/socksbot/internal/observability"
	"github.com/cutesocks/socksbot/internal/relay"
	"github.com/cutesocks/socksbot/internal/tokenizer"
)

// buildServeCmd creates the "serve" command that runs the bot.
func buildServeCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the bot",
		Long: `Start the bot with all configured providers.

Graceful shutdown is handled on SIGINT/SIGTERM signals.`,
		Example: `  # Start with default config
  socksbot serve

  # Start with custom config and debug logging
  socksbot serve --config /etc/socksbot/production.yaml --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, debug)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "socksbot.yaml",
		"Path to YAML configuration file")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false,
		"Enable debug logging")

	return cmd
}

// runServe wires configuration, observability, the relay service, and the
// Discord bot together, then blocks until a shutdown signal arrives.
func runServe(ctx context.Context, configPath string, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if debug {
		level = "debug"
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:  level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
	logger.Info(ctx, "starting socksbot",
		"version", version,
		"commit", commit,
		"config", configPath,
		"providers", len(cfg.Providers))

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	counter, err := tokenizer.New()
	if err != nil {
		return err
	}
	systemPrompt, err := cfg.LoadSystemPrompt()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	service := relay.NewService(cfg, systemPrompt, counter, logger, metrics)
	service.Start(ctx)

	var marketClient *market.Client
	if cfg.Market.Enabled {
		marketClient = market.NewClient(cfg.Market)
	}

	bot := discord.NewBot(cfg.Discord, cfg.Providers, service, marketClient, logger)
	if err := bot.Start(ctx); err != nil {
		return err
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metricsSrv = serveMetrics(ctx, cfg.Metrics.Addr, registry, logger)
	}

	<-ctx.Done()
	logger.Info(context.Background(), "shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := bot.Stop(); err != nil {
		logger.Error(shutdownCtx, "discord shutdown failed", "error", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "metrics server shutdown failed", "error", err)
		}
	}
	return nil
}

// serveMetrics exposes the Prometheus registry over HTTP. Listener failures
// are logged rather than fatal: the bot can run without metrics.
func serveMetrics(ctx context.Context, addr string, registry *prometheus.Registry, logger *observability.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info(ctx, "metrics listener started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "metrics listener failed", "error", err)
		}
	}()
	return srv
}
