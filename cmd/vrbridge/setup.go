package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	bridge "github.com/Zereker/vrbridge"
)

type globalFlags struct {
	configPath string
	socketPath string
	logLevel   string
}

// runtime is everything a subcommand needs, built from config and flags.
type runtime struct {
	cfg     bridge.Config
	logger  *slog.Logger
	metrics *bridge.Metrics
}

func setup(flags *globalFlags) (*runtime, error) {
	cfg := bridge.DefaultConfig()
	if flags.configPath != "" {
		loaded, err := bridge.LoadConfig(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if flags.socketPath != "" {
		cfg.SocketPath = flags.socketPath
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	level, ok := bridge.ParseLevel(cfg.LogLevel)
	if !ok {
		return nil, errors.Errorf("unknown log level %q", cfg.LogLevel)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	rt := &runtime{cfg: cfg, logger: logger}
	if cfg.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		rt.metrics = bridge.NewMetrics(bridge.MetricsConfig{Registry: registry})
		serveMetrics(cfg.MetricsAddr, registry, logger)
	}
	return rt, nil
}

func (rt *runtime) options() []bridge.Option {
	opts := rt.cfg.Options()
	return append(opts,
		bridge.LoggerOption(rt.logger),
		bridge.MetricsOption(rt.metrics),
	)
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
