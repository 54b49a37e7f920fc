// Queryd is the assistant-query daemon.
//
// This binary starts the queryd HTTP server with full service
// initialization: provider chains, circuit breakers, secret scrubbing,
// NATS event publishing and the optional MCP stdio surface.
//
// Configuration is loaded from a YAML file and QUERYD_* environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start the daemon with defaults
//	queryd
//
//	# Start with an explicit config file
//	queryd --config ~/.config/queryd/config.yaml
//
//	# Configure via environment
//	QUERYD_SERVER__ADDR=:8080 queryd
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/queryd/internal/assistant"
	"github.com/fyrsmithlabs/queryd/internal/breaker"
	"github.com/fyrsmithlabs/queryd/internal/config"
	"github.com/fyrsmithlabs/queryd/internal/events"
	httpapi "github.com/fyrsmithlabs/queryd/internal/http"
	"github.com/fyrsmithlabs/queryd/internal/logging"
	"github.com/fyrsmithlabs/queryd/internal/mcp"
	"github.com/fyrsmithlabs/queryd/internal/secrets"
	"github.com/fyrsmithlabs/queryd/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/queryd/config.yaml)")
	flag.Parse()
	args := flag.Args()

	// Handle subcommands
	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  queryd             Start the queryd daemon\n")
			fmt.Fprintf(os.Stderr, "  queryd version     Show version information\n")
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("queryd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the queryd daemon and blocks until the context is
// cancelled.
//
// Initialization order:
//  1. Loads and validates configuration
//  2. Initializes telemetry and the logger
//  3. Connects optional infrastructure (NATS, scrubber), degrading to
//     no-ops on failure
//  4. Builds provider chains, the breaker registry and the service
//  5. Starts the config watcher for topology hot reload
//  6. Starts the HTTP server, plus the MCP stdio server when enabled
//  7. Performs graceful shutdown on context cancellation
//
// Returns http.ErrServerClosed on graceful shutdown.
func run(ctx context.Context, configPath string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize telemetry. Exporter trouble degrades rather than
	// failing startup; the reason surfaces through Health below.
	tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg.Telemetry, version))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		_ = tel.Shutdown(context.Background())
	}()

	// Initialize logger
	logCfg, err := logging.FromAppConfig(cfg.Logging)
	if err != nil {
		return fmt.Errorf("invalid logging configuration: %w", err)
	}
	if cfg.MCP.Enabled {
		// Stdout carries the MCP protocol stream; logs move to stderr.
		logCfg.Output.Stdout = false
		logCfg.Output.Stderr = true
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info(ctx, "starting queryd",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout.Duration()))

	if h := tel.Health(); h.Degraded {
		logger.Warn(ctx, "telemetry degraded", zap.String("reason", h.Reason))
	}

	// Initialize infrastructure dependencies
	deps := initDependencies(ctx, cfg, logger)
	defer deps.Close()

	logger.Info(ctx, "dependencies initialized",
		zap.Bool("nats_connected", deps.natsConn != nil),
		zap.Bool("scrubber_enabled", deps.scrubber.IsEnabled()))

	// Build provider chains and the query service
	svc, err := initService(cfg, deps, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}

	logger.Info(ctx, "assistant service ready",
		zap.Strings("kinds", svc.Kinds()),
		zap.Int("providers", len(cfg.Providers)))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Watch the config file for topology changes. Without a config file
	// there is nothing to watch.
	watchConfig(ctx, configPath, svc, logger)

	// Create HTTP server
	srv, err := httpapi.NewServer(svc, logger, &httpapi.Config{
		Addr:            cfg.Server.Addr,
		BodyLimit:       cfg.Server.BodyLimit,
		ReadTimeout:     cfg.Server.ReadTimeout.Duration(),
		WriteTimeout:    cfg.Server.WriteTimeout.Duration(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Duration(),
		RetryAfter:      cfg.Breaker.OpenTimeout.Duration(),
		Version:         version,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 2)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	// Optional MCP surface over stdio
	if cfg.MCP.Enabled {
		mcpServer, err := mcp.NewServer(&mcp.Config{
			Name:    "queryd",
			Version: version,
			Logger:  logger,
		}, svc, deps.scrubber)
		if err != nil {
			return fmt.Errorf("failed to create mcp server: %w", err)
		}
		go func() {
			if err := mcpServer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("mcp server: %w", err)
				return
			}
			// The client closed the stdio stream; bring the daemon down
			// with it.
			cancel()
		}()
	}

	// Wait for a fatal component error or context cancellation
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			cfg.Server.ShutdownTimeout.Duration(),
		)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}

		return http.ErrServerClosed
	}
}

// dependencies holds infrastructure the daemon owns. Both members are
// optional: the query path works with events and scrubbing degraded to
// no-ops.
type dependencies struct {
	natsConn *nats.Conn
	events   events.Publisher
	scrubber secrets.Scrubber
	logger   *logging.Logger
}

// Close releases infrastructure resources.
func (d *dependencies) Close() {
	if d.natsConn != nil {
		d.natsConn.Close()
	}
	if d.logger != nil {
		_ = d.logger.Sync()
	}
}

// initDependencies connects optional infrastructure. Failures here
// never stop the daemon; they log and leave the corresponding no-op in
// place.
func initDependencies(ctx context.Context, cfg *config.Config, logger *logging.Logger) *dependencies {
	deps := &dependencies{
		events:   events.NoopPublisher{},
		scrubber: &secrets.NoopScrubber{},
		logger:   logger,
	}

	if cfg.Events.Enabled {
		nc, err := nats.Connect(cfg.Events.URL,
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(5),
			nats.ReconnectWait(1*time.Second),
		)
		if err != nil {
			logger.Warn(ctx, "nats connect failed, events disabled",
				zap.String("url", cfg.Events.URL),
				zap.Error(err))
		} else {
			deps.natsConn = nc
			deps.events = events.NewNATSPublisher(nc, cfg.Events.SubjectPrefix, logger)
			logger.Info(ctx, "connected to nats", zap.String("url", cfg.Events.URL))
		}
	}

	scrubber, err := secrets.New(&secrets.Config{
		Enabled:       !cfg.Scrub.Disabled,
		AllowlistPath: cfg.Scrub.AllowlistPath,
	})
	if err != nil {
		logger.Warn(ctx, "scrubber init failed, queries will not be scrubbed",
			zap.Error(err))
	} else {
		deps.scrubber = scrubber
	}

	return deps
}

// initService builds the provider topology, the breaker registry and
// the query service on top of them.
func initService(cfg *config.Config, deps *dependencies, logger *logging.Logger) (*assistant.Service, error) {
	routers, err := assistant.BuildTopology(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider topology: %w", err)
	}

	registry := breaker.NewRegistry(breaker.Options{
		FailureThreshold:  cfg.Breaker.FailureThreshold,
		OpenTimeout:       cfg.Breaker.OpenTimeout.Duration(),
		HalfOpenSuccesses: cfg.Breaker.HalfOpenSuccesses,
		OnTransition:      assistant.NewTransitionHook(logger, deps.events),
	}, logger)

	return assistant.NewService(assistant.Options{
		Registry: registry,
		Routers:  routers,
		Scrubber: deps.scrubber,
		Events:   deps.events,
		Logger:   logger,
	}), nil
}

// watchConfig starts the config file watcher when a config file is in
// play. Reloads rebuild the provider topology; everything else keeps
// its startup value until restart.
func watchConfig(ctx context.Context, configPath string, svc *assistant.Service, logger *logging.Logger) {
	path, err := config.ResolvePath(configPath)
	if err != nil || path == "" {
		return
	}

	watcher, err := config.NewWatcher(path, logger.Underlying(), func(next *config.Config) {
		routers, err := assistant.BuildTopology(next, logger)
		if err != nil {
			logger.Warn(context.Background(), "config reload: topology rebuild failed, keeping previous",
				zap.Error(err))
			return
		}
		svc.SetTopology(routers)
	})
	if err != nil {
		logger.Warn(ctx, "config watcher unavailable", zap.Error(err))
		return
	}

	go func() {
		if err := watcher.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn(context.Background(), "config watcher stopped", zap.Error(err))
		}
	}()
}
