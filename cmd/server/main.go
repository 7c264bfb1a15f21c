// Copyright AWS MCP Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/leseb/aws-mcp-gw/pkg/adapters/http"
	"github.com/leseb/aws-mcp-gw/pkg/adapters/stdio"
	"github.com/leseb/aws-mcp-gw/pkg/awstools"
	"github.com/leseb/aws-mcp-gw/pkg/core/config"
	"github.com/leseb/aws-mcp-gw/pkg/core/dispatch"
	"github.com/leseb/aws-mcp-gw/pkg/core/tool"
	"github.com/leseb/aws-mcp-gw/pkg/events"
	"github.com/leseb/aws-mcp-gw/pkg/journal"
	_ "github.com/leseb/aws-mcp-gw/pkg/journal/memory"
	_ "github.com/leseb/aws-mcp-gw/pkg/journal/postgres"
	_ "github.com/leseb/aws-mcp-gw/pkg/journal/redis"
	_ "github.com/leseb/aws-mcp-gw/pkg/journal/sqlite"
	"github.com/leseb/aws-mcp-gw/pkg/observability/logging"
)

var (
	// Version is set via ldflags during build
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	port := flag.Int("port", 0, "HTTP port to listen on (overrides config)")
	transport := flag.String("transport", "", "Transport to serve: http or stdio (overrides config)")
	version := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	// Print version
	if *version {
		fmt.Printf("AWS MCP Gateway Server\nVersion: %s\nBuild Time: %s\n", Version, BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	var loadErr error
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
			os.Exit(1)
		}
		// If config file doesn't exist, use defaults plus environment
		loadErr = err
		cfg, err = config.FromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
			os.Exit(1)
		}
	}

	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *transport != "" {
		cfg.Server.Transport = *transport
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger; always stderr, stdout may carry protocol traffic
	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logger.Info("Starting AWS MCP Gateway Server",
		"version", Version,
		"build_time", BuildTime,
		"transport", cfg.Server.Transport)
	if loadErr != nil {
		logger.Warn("Failed to load config, using defaults", "error", loadErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	// Build the tool registry
	tools, err := awstools.Build(ctx, cfg.AWS.Toolsets, awstools.Options{
		Region:     cfg.AWS.Region,
		Profile:    cfg.AWS.Profile,
		S3Endpoint: cfg.AWS.S3Endpoint,
	})
	if err != nil {
		return fmt.Errorf("build toolsets: %w", err)
	}
	registry := tool.NewRegistry(tools...)
	for _, name := range registry.Shadowed() {
		logger.Warn("Duplicate tool name ignored, first registration wins", "tool", name)
	}
	logger.Info("Initialized tool registry",
		"toolsets", cfg.AWS.Toolsets,
		"tools", registry.Len())

	// Initialize tool call journal
	var store journal.Store
	var recorder dispatch.Observer
	if cfg.Journal.Enabled() {
		store, err = journal.Providers.New(ctx, cfg.Journal.Type, cfg.Journal.Params())
		if err != nil {
			return fmt.Errorf("initialize journal: %w", err)
		}
		defer store.Close()
		recorder = journal.NewRecorder(store, logger)
		logger.Info("Initialized tool call journal", "type", cfg.Journal.Type)
	}

	// Initialize tool call events
	var notifier dispatch.Observer
	if cfg.Events.Enabled() {
		conn, err := events.Connect(cfg.Events.NATSURL)
		if err != nil {
			return err
		}
		defer conn.Drain()
		notifier = events.NewNotifier(conn, cfg.Events.SubjectPrefix, logger)
		logger.Info("Initialized tool call events", "subject_prefix", cfg.Events.SubjectPrefix)
	}

	d := dispatch.New(registry, dispatch.Options{
		ServerName:        cfg.MCP.ServerName,
		ServerVersion:     cfg.MCP.ServerVersion,
		DescriptiveErrors: cfg.MCP.DescriptiveErrors,
		Logger:            logger,
		Observer:          dispatch.Observers(recorder, notifier),
	})

	if cfg.Server.Transport == config.TransportStdio {
		err := stdio.New(d, logger, int(cfg.Server.MaxBodyBytes)).Serve(ctx, os.Stdin, os.Stdout)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	return serveHTTP(ctx, cfg, d, store, logger)
}

func serveHTTP(ctx context.Context, cfg *config.Config, d *dispatch.Dispatcher, store journal.Store, logger *logging.Logger) error {
	handler := httpAdapter.New(d, logger, httpAdapter.Options{
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Journal:      store,
	})
	logger.Info("Initialized HTTP adapter")

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal or a listener failure
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
