package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/copperpack/copper-pack/internal/cache"
	"github.com/copperpack/copper-pack/internal/config"
	"github.com/copperpack/copper-pack/internal/copper"
	"github.com/copperpack/copper-pack/internal/pack"
	"github.com/copperpack/copper-pack/internal/telemetry"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	cfg               *config.Config
	telemetryShutdown telemetry.Shutdown
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := &cobra.Command{
		Use:          "copper-pack",
		Short:        "copper-pack exposes Copper CRM records as enriched tables and actions",
		Long:         "copper-pack syncs Copper opportunities, companies and people as schema-conformant tables, resolves record links, and performs record actions from the CLI, over HTTP, or as MCP tools.",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			telemetryShutdown, err = telemetry.Init(cmd.Context(), cfg.Telemetry.OTLPEndpoint, "copper-pack", version, cfg.Telemetry.Insecure)
			if err != nil {
				return fmt.Errorf("initializing telemetry: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdownTelemetry()
		},
	}

	rootCmd.AddCommand(
		syncCmd(),
		getCmd(),
		statusCmd(),
		stageCmd(),
		assignCmd(),
		tagCmd(),
		setFieldCmd(),
		healthCmd(),
		cacheCmd(),
		serveCmd(),
		mcpCmd(),
	)

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	shutdownTelemetry()
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func shutdownTelemetry() {
	if telemetryShutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = telemetryShutdown(ctx)
	telemetryShutdown = nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil && cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg != nil && cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// newCache opens the configured response cache.
func newCache(ctx context.Context) (cache.Store, error) {
	switch cfg.Cache.Driver {
	case "sqlite":
		return cache.OpenSQLite(ctx, cfg.Cache.Path)
	case "none":
		return cache.Nop{}, nil
	}
	return cache.NewMemoryStore(), nil
}

func defaultCredentials() copper.Credentials {
	return copper.Credentials{APIKey: cfg.Copper.APIKey, UserEmail: cfg.Copper.UserEmail}
}

// newFactory opens the cache and returns a session factory plus a func
// that releases the cache.
func newFactory(ctx context.Context, logger *slog.Logger) (*pack.Factory, func(), error) {
	store, err := newCache(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("opening cache: %w", err)
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing cache", "error", err)
		}
	}
	return pack.NewFactory(pack.SettingsFromConfig(cfg), store, logger), closeFn, nil
}

// newSession builds a session from the configured credentials.
func newSession(ctx context.Context, logger *slog.Logger) (*pack.Session, func(), error) {
	if !cfg.Copper.HasCredentials() {
		return nil, nil, fmt.Errorf("copper credentials are not configured: set COPPER_API_KEY and COPPER_USER_EMAIL")
	}
	factory, closeFn, err := newFactory(ctx, logger)
	if err != nil {
		return nil, nil, err
	}
	sess, err := factory.Session(defaultCredentials())
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return sess, closeFn, nil
}
