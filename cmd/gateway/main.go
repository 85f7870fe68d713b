// Package main is the entry point for the food-delivery API gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fooddelivery/gateway/internal/config"
	"github.com/fooddelivery/gateway/internal/gateway"
	"github.com/fooddelivery/gateway/internal/health"
	"github.com/fooddelivery/gateway/internal/observability"
	"github.com/fooddelivery/gateway/internal/registry"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		fmt.Printf("gateway version %s (built %s)\n", version, buildTime)
		return
	}

	logger := initLogger(flags)
	defer func() { _ = logger.Sync() }()

	cfg := loadConfig(flags.configPath, logger)

	metrics := observability.NewMetrics("gateway")

	gw, err := gateway.New(cfg,
		gateway.WithGatewayLogger(logger),
		gateway.WithGatewayMetrics(metrics),
		gateway.WithVersion(version),
	)
	if err != nil {
		logger.Fatal("failed to create gateway", observability.Error(err))
	}

	run(gw, cfg, metrics, logger)
}

// parseFlags parses command line flags with environment fallbacks.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("GATEWAY_CONFIG_PATH", "configs/gateway.yaml"),
		"Path to configuration file")
	logLevel := flag.String("log-level", getEnvOrDefault("GATEWAY_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", getEnvOrDefault("GATEWAY_LOG_FORMAT", "json"),
		"Log format (json, console)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// initLogger initializes the logger.
func initLogger(flags cliFlags) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  flags.logLevel,
		Format: flags.logFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	observability.SetGlobalLogger(logger)
	return logger
}

// loadConfig loads and validates the configuration.
func loadConfig(configPath string, logger observability.Logger) *config.Config {
	logger.Info("starting gateway",
		observability.String("version", version),
		observability.String("config", configPath),
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", observability.Error(err))
	}

	if err := config.Validate(cfg); err != nil {
		logger.Fatal("invalid configuration", observability.Error(err))
	}

	logger.Info("configuration loaded",
		observability.String("listen", cfg.Server.Listen),
		observability.Int("services", len(cfg.Services)),
		observability.Duration("proxy_timeout", cfg.Proxy.Timeout.Duration()),
		observability.Duration("probe_timeout", cfg.Health.ProbeTimeout.Duration()),
	)

	return cfg
}

// run starts the gateway and blocks until a shutdown signal arrives.
func run(gw *gateway.Gateway, cfg *config.Config, metrics *observability.Metrics, logger observability.Logger) {
	ctx := context.Background()

	if err := gw.Start(ctx); err != nil {
		logger.Fatal("failed to start gateway", observability.Error(err))
	}

	if cfg.Metrics.Enabled {
		go startMetricsServer(cfg, metrics, logger)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", observability.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := gw.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop gateway gracefully", observability.Error(err))
	}

	logger.Info("gateway stopped")
}

// startMetricsServer serves Prometheus metrics and a bare liveness probe on
// a separate port.
func startMetricsServer(cfg *config.Config, metrics *observability.Metrics, logger observability.Logger) {
	checker := health.NewChecker(version, registry.New(cfg.Services).Names())

	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":%q}`, checker.Health().Status)
	})

	addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
	logger.Info("starting metrics server",
		observability.String("address", addr),
		observability.String("metrics_path", cfg.Metrics.Path),
	)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server error", observability.Error(err))
	}
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
