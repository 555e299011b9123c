// Package main provides the entry point for presupuesto-server.
//
// presupuesto-server stores budget snapshots: named, timestamped JSON state
// documents saved and restored by the budgeting web client.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/abustosp/app-presupuesto/internal/core/service"
	"github.com/abustosp/app-presupuesto/internal/infra/buildinfo"
	"github.com/abustosp/app-presupuesto/internal/infra/confloader"
	"github.com/abustosp/app-presupuesto/internal/infra/shutdown"
	"github.com/abustosp/app-presupuesto/internal/infra/tlsroots"
	"github.com/abustosp/app-presupuesto/internal/server/config"
	"github.com/abustosp/app-presupuesto/internal/server/httpserver"
	"github.com/abustosp/app-presupuesto/internal/server/httpserver/handler"
	"github.com/abustosp/app-presupuesto/internal/storage"
	"github.com/abustosp/app-presupuesto/internal/telemetry/logger"
	"github.com/abustosp/app-presupuesto/internal/telemetry/metric"
	"github.com/abustosp/app-presupuesto/internal/telemetry/tracer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("presupuesto-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting presupuesto-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile,
		"settings", config.Sanitize(cfg),
	)

	ctx := context.Background()
	shutdownHandler := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout, log)

	// Hooks run in reverse order: the listener stops first, storage last.
	traceProvider, err := tracer.Setup(ctx, tracer.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Version:     info.Version,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	shutdownHandler.OnShutdown("tracer", traceProvider.Shutdown)

	registry := metric.NewRegistry()

	table, err := openStorage(ctx, cfg, log, registry)
	if err != nil {
		return shutdownHandler.Abort(fmt.Errorf("init storage: %w", err))
	}
	shutdownHandler.OnClose("storage", table.Close)

	budgets := service.NewBudgetService(table, service.WithObserver(registry))
	apiHandler := handler.New(budgets, table, log,
		handler.WithMaxBodyBytes(cfg.Server.HTTP.MaxBodyBytes))

	routerCfg := httpserver.DefaultRouterConfig()
	routerCfg.Handler = apiHandler
	routerCfg.Logger = log
	routerCfg.Observer = registry
	routerCfg.CORSAllowedOrigins = cfg.Server.CORS.AllowedOrigins
	proxies, err := httpserver.ParseTrustedProxies(cfg.Server.HTTP.TrustedProxies)
	if err != nil {
		return shutdownHandler.Abort(fmt.Errorf("config: %w", err))
	}
	routerCfg.RateLimit = httpserver.RateLimitConfig{
		Rate:           cfg.Server.HTTP.RateLimit,
		Burst:          cfg.Server.HTTP.RateBurst,
		TrustedProxies: proxies,
	}
	if cfg.Server.Metrics.Enabled {
		routerCfg.MetricsHandler = registry.Handler()
	}

	serverCfg := httpserver.ServerConfig{
		Addr:         cfg.Server.HTTP.Addr,
		TLSCertFile:  cfg.Server.HTTP.TLSCertFile,
		TLSKeyFile:   cfg.Server.HTTP.TLSKeyFile,
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		Logger:       log,
	}
	if serverCfg.TLSCertFile != "" {
		certs, err := tlsroots.NewCertWatcher(serverCfg.TLSCertFile, serverCfg.TLSKeyFile,
			tlsroots.WithLogger(log))
		if err != nil {
			return shutdownHandler.Abort(fmt.Errorf("load tls certificate: %w", err))
		}
		certs.StartAsync()
		shutdownHandler.OnClose("certificate watcher", certs.Stop)
		serverCfg.GetCertificate = certs.GetCertificate
	}
	httpServer := httpserver.New(serverCfg, httpserver.NewRouter(routerCfg))

	if *configFile != "" {
		watcher, err := watchConfig(*configFile, log)
		if err != nil {
			log.Warn("config hot reload disabled", "error", err)
		} else {
			shutdownHandler.OnClose("config watcher", watcher.Stop)
		}
	}

	ln, err := net.Listen("tcp", cfg.Server.HTTP.Addr)
	if err != nil {
		return shutdownHandler.Abort(fmt.Errorf("listen %s: %w", cfg.Server.HTTP.Addr, err))
	}
	shutdownHandler.OnShutdown("http server", httpServer.Shutdown)

	go func() {
		if err := httpServer.Serve(ln); err != nil {
			log.Error("HTTP server error", "error", err)
			shutdownHandler.Trigger(fmt.Errorf("http server: %w", err))
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads defaults, then the optional file, then the environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openStorage opens the configured backend and wraps it with metrics and
// tracing.
func openStorage(ctx context.Context, cfg *config.ServerConfig, log *slog.Logger, registry *metric.Registry) (storage.Table, error) {
	key := cfg.Storage.EncryptionKeyBytes()

	table, err := storage.Open(ctx, storage.OpenConfig{
		DSN:           cfg.Storage.DSN,
		EncryptionKey: key,
		Badger: storage.BadgerConfig{
			GCInterval:  cfg.Storage.Badger.GCInterval,
			GCThreshold: cfg.Storage.Badger.GCThreshold,
			SyncWrites:  cfg.Storage.Badger.SyncWrites,
		},
		Logger: log,
	})
	if err != nil {
		return nil, err
	}

	if bt, ok := table.(*storage.BadgerTable); ok {
		bt.RegisterMetrics(registry.Registerer())
	}

	log.Info("storage ready", "dsn", logger.RedactURL(cfg.Storage.DSN))
	return storage.Instrument(table, registry), nil
}

// watchConfig re-reads the file on change and applies the settings that can
// change without a restart. Today that is only the log level.
func watchConfig(path string, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		_ = watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(string) {
		next, err := loadConfig(path)
		if err != nil {
			log.Warn("ignoring invalid configuration change", "error", err)
			return
		}
		if err := logger.SetLevel(next.Log.Level); err != nil {
			log.Warn("failed to apply log level", "level", next.Log.Level, "error", err)
			return
		}
		log.Info("log level changed", "level", next.Log.Level)
	})
	watcher.StartAsync()
	return watcher, nil
}
