// Package main provides the entry point for varmesh-server.
//
// varmesh-server is the variable store service process: a transactional,
// hierarchical in-memory store with periodic JSON snapshot persistence,
// exposed over a newline delimited JSON protocol.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/yndnr/varmesh-go/internal/access"
	"github.com/yndnr/varmesh-go/internal/dispatch"
	"github.com/yndnr/varmesh-go/internal/infra/buildinfo"
	"github.com/yndnr/varmesh-go/internal/infra/confloader"
	"github.com/yndnr/varmesh-go/internal/infra/shutdown"
	"github.com/yndnr/varmesh-go/internal/server/config"
	"github.com/yndnr/varmesh-go/internal/server/lineserver"
	"github.com/yndnr/varmesh-go/internal/store"
	"github.com/yndnr/varmesh-go/internal/store/snapshot"
	"github.com/yndnr/varmesh-go/internal/telemetry/logger"
	"github.com/yndnr/varmesh-go/internal/telemetry/metric"
	"github.com/yndnr/varmesh-go/pkg/crypto/adaptive"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse command line flags
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	// Show version and exit
	if *showVersion {
		fmt.Printf("varmesh-server %s\n", buildinfo.String())
		return nil
	}

	// Load configuration
	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize logger
	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	log.Info("starting varmesh-server",
		"version", buildinfo.Get().Version,
		"config", *configFile)

	metrics := metric.NewRegistry()

	// Open the variable store over the configured snapshot backend
	sink, err := buildSink(cfg)
	if err != nil {
		return fmt.Errorf("init snapshot backend: %w", err)
	}
	root, err := store.Open(store.Config{
		Sink:          sink,
		FlushInterval: cfg.Snapshot.FlushInterval,
		Logger:        log,
		Metrics:       metrics,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	// Expose variables and wire the dispatcher
	reg := access.NewRegistry()
	if err := exposeBuiltins(root, reg); err != nil {
		return fmt.Errorf("expose builtins: %w", err)
	}
	disp := dispatch.New(root, reg,
		dispatch.WithLogger(log),
		dispatch.WithMetrics(metrics))

	// Create the line protocol server
	srvCfg := &lineserver.Config{
		TCPEnabled:   cfg.Server.TCP.Enabled,
		TCPAddress:   cfg.Server.TCP.Addr,
		SocketPath:   cfg.Server.Local.Path,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		RateLimit:    cfg.Server.RateLimit,
		RateBurst:    cfg.Server.RateBurst,
	}
	srv := lineserver.New(srvCfg, disp, log, metrics)

	// Setup graceful shutdown
	shutdownHandler := shutdown.NewHandler(30 * time.Second)

	// Register shutdown hooks (reverse order of startup)
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down line server")
		return srv.Shutdown(ctx)
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("closing variable store")
		return root.Close()
	})

	// Hot reload of the log level when the config file changes.
	if *configFile != "" {
		watcher, err := confloader.NewWatcher()
		if err != nil {
			return fmt.Errorf("init config watcher: %w", err)
		}
		if err := watcher.Watch(*configFile); err != nil {
			return fmt.Errorf("watch config file: %w", err)
		}
		watched := filepath.Base(*configFile)
		watcher.OnChange(func(path string) {
			if filepath.Base(path) != watched {
				return
			}
			updated, err := loadConfig(*configFile)
			if err != nil {
				log.Warn("config reload failed", "error", err)
				return
			}
			logger.SetLevel(updated.Log.Level)
			log.Info("log level updated", "level", updated.Log.Level)
		})
		watcher.StartAsync()
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			return watcher.Stop()
		})
	}

	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		root.Close()
		return fmt.Errorf("start line server: %w", err)
	}

	// Metrics endpoint
	if cfg.Server.Metrics.Enabled {
		metricsSrv := &http.Server{
			Addr:    cfg.Server.Metrics.Addr,
			Handler: metrics.Handler(),
		}
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			return metricsSrv.Shutdown(ctx)
		})
		go func() {
			log.Info("metrics endpoint listening", "addr", cfg.Server.Metrics.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server error", "error", err)
			}
		}()
	}

	// Wait for shutdown signal
	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	// Start with defaults
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// initLogger initializes the structured logger.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// buildSink assembles the snapshot backend, optionally wrapped with
// encryption.
func buildSink(cfg *config.ServerConfig) (snapshot.Sink, error) {
	var (
		sink snapshot.Sink
		err  error
	)
	switch cfg.Snapshot.Backend {
	case "badger":
		sink, err = snapshot.NewBadgerSink(cfg.Snapshot.DataDir, slog.Default())
	default:
		sink, err = snapshot.NewFileSink(cfg.Snapshot.Path)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Security.EncryptionKey != "" {
		key, err := config.DecodeKey(cfg.Security.EncryptionKey)
		if err != nil {
			return nil, err
		}
		cipher, err := adaptive.New(key)
		if err != nil {
			return nil, err
		}
		sink = snapshot.NewEncryptedSink(sink, cipher)
	}
	return sink, nil
}

// exposeBuiltins registers the variables served out of the box. Embedding
// applications replace this with their own registrations.
func exposeBuiltins(root *store.Root, reg *access.Registry) error {
	return root.Update(func(tx *store.Tx) error {
		x, err := store.Register(tx, root.Store(), "x", 0)
		if err != nil {
			return err
		}
		if err := reg.Expose("x", access.ReadWrite(x)); err != nil {
			return err
		}

		// Server identity, read only.
		if err := reg.Expose("server.version", access.RawRead(func(tx *store.Tx) (json.RawMessage, error) {
			return json.Marshal(buildinfo.Get())
		})); err != nil {
			return err
		}

		// Entries persisted by an earlier run but no longer registered
		// are dropped here, once, after all registrations completed.
		root.Store().Purge(tx)
		return nil
	})
}
