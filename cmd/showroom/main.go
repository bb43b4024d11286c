// Package main implements the entry point for the showroom runtime: it loads the scene,
// serves the host bridge and publishes selection changes.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/config"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/health"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/hostbridge"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/metric"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/natsclient"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/pkg/retry"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/showroom"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "showroom"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(os.Args[1:]); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run(args []string) error {
	cliCfg, logger, shouldExit, err := initializeCLI(args)
	if shouldExit || err != nil {
		return err
	}

	cfg, err := initializeConfiguration(cliCfg)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid", "config", cfg.String())
		return nil
	}

	signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	metricsRegistry := metric.NewMetricsRegistry()
	app, err := showroom.New(showroom.Options{
		Config:  *cfg,
		Logger:  logger,
		Metrics: metricsRegistry.CoreMetrics(),
	})
	if err != nil {
		return fmt.Errorf("create showroom: %w", err)
	}

	if err := app.Setup(signalCtx); err != nil {
		return fmt.Errorf("setup showroom: %w", err)
	}

	monitor := health.NewMonitor(appName)
	monitor.UpdateHealthy("loop", fmt.Sprintf("scene %s loaded with %d slots", cfg.Scene.Name, len(app.Slots())))

	g, ctx := errgroup.WithContext(signalCtx)

	if cfg.Bridge.Enabled {
		bridge := hostbridge.New(bridgeConfig(cfg), app, logger, metricsRegistry.CoreMetrics())
		app.AddNotifier(bridge)
		app.OnPose(bridge.PoseChanged)
		monitor.UpdateHealthy("bridge", "listening")
		g.Go(func() error {
			err := bridge.Run(ctx)
			monitor.Update("bridge", health.FromError("bridge", err, "stopped"))
			return err
		})
	}

	if cfg.NATS.Enabled {
		client, err := connectToNATS(signalCtx, cfg, logger, monitor)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), cliCfg.ShutdownTimeout)
			defer cancel()
			if err := client.Close(closeCtx); err != nil {
				slog.Warn("NATS close failed", "error", err)
			}
		}()

		app.AddNotifier(natsclient.NewSelectionNotifier(client, cfg.NATS.SelectionSubject))
		if err := app.SubscribeCommands(ctx, client, cfg.NATS.CommandSubject); err != nil {
			return err
		}
	}

	if cfg.Metrics.Enabled {
		srv := metric.NewServer(cfg.Metrics.Addr, cfg.Metrics.Path, metricsRegistry)
		srv.Handle("/health", monitor.Handler())
		g.Go(func() error { return srv.Run(ctx) })
	}

	g.Go(func() error {
		err := app.Run(ctx)
		monitor.UpdateUnhealthy("loop", "stopped")
		return err
	})

	slog.Info("Showroom started",
		"scene", cfg.Scene.Name,
		"bridge", cfg.Bridge.Enabled,
		"nats", cfg.NATS.Enabled,
		"metrics", cfg.Metrics.Enabled)

	return waitForShutdown(signalCtx, g, cliCfg.ShutdownTimeout)
}

// initializeCLI parses flags and sets up logging
func initializeCLI(args []string) (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg, err := parseFlags(args)
	if err != nil {
		return nil, nil, false, fmt.Errorf("parse flags: %w", err)
	}
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}
	if cliCfg.ShowHelp {
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting showroom",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// initializeConfiguration loads the config file over the defaults, applies
// environment overrides and validates the result
func initializeConfiguration(cliCfg *CLIConfig) (*config.Config, error) {
	cfg := config.Default()
	if cliCfg.ConfigPath != "" {
		loaded, err := config.Load(cliCfg.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func bridgeConfig(cfg *config.Config) hostbridge.Config {
	b := cfg.Bridge
	return hostbridge.Config{
		Addr:           b.Addr,
		Path:           b.Path,
		RateLimit:      b.RateLimit,
		RateBurst:      b.RateBurst,
		SendBuffer:     b.SendBuffer,
		WriteTimeout:   b.WriteTimeout.D(),
		PingInterval:   b.PingInterval.D(),
		CommandTimeout: b.CommandTimeout.D(),
		CameraFrames:   b.CameraFrames,
	}
}

func natsOptions(cfg *config.Config, logger *slog.Logger, monitor *health.Monitor) []natsclient.ClientOption {
	n := cfg.NATS
	opts := []natsclient.ClientOption{
		natsclient.WithLogger(logger),
		natsclient.WithMaxReconnects(n.MaxReconnects),
		natsclient.WithDisconnectCallback(func(error) {
			monitor.Update("nats", health.NewDegraded("nats", "disconnected, reconnecting"))
		}),
		natsclient.WithReconnectCallback(func() {
			monitor.UpdateHealthy("nats", "reconnected")
		}),
	}
	if n.Name != "" {
		opts = append(opts, natsclient.WithName(n.Name))
	}
	if n.ReconnectWait.D() > 0 {
		opts = append(opts, natsclient.WithReconnectWait(n.ReconnectWait.D()))
	}
	if n.ConnectTimeout.D() > 0 {
		opts = append(opts, natsclient.WithTimeout(n.ConnectTimeout.D()))
	}
	if n.Username != "" {
		opts = append(opts, natsclient.WithCredentials(n.Username, n.Password))
	}
	if n.Token != "" {
		opts = append(opts, natsclient.WithToken(n.Token))
	}
	if n.TLS.CertFile != "" || n.TLS.CAFile != "" {
		opts = append(opts, natsclient.WithTLS(n.TLS.CertFile, n.TLS.KeyFile, n.TLS.CAFile))
	}
	return opts
}

// connectToNATS creates the client and connects, retrying transient failures.
// Each attempt is bounded by the configured connect timeout.
func connectToNATS(ctx context.Context, cfg *config.Config, logger *slog.Logger, monitor *health.Monitor) (*natsclient.Client, error) {
	client, err := natsclient.NewClient(cfg.NATS.URL, natsOptions(cfg, logger, monitor)...)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	timeout := cfg.NATS.ConnectTimeout.D()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	slog.Info("Connecting to NATS", "url", cfg.NATS.URL)
	err = retry.Do(ctx, retry.DefaultConfig(), func() error {
		connCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return client.Connect(connCtx)
	})
	monitor.Update("nats", health.FromError("nats", err, "connected"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return client, nil
}

// waitForShutdown returns when every task has stopped. After a shutdown signal the
// tasks get timeout to finish.
func waitForShutdown(signalCtx context.Context, g *errgroup.Group, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() { errCh <- g.Wait() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("showroom stopped: %w", err)
		}
		return nil
	case <-signalCtx.Done():
		slog.Info("Received shutdown signal")
	}

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		slog.Info("Showroom shutdown complete")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("graceful shutdown timed out after %s", timeout)
	}
}
