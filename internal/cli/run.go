package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/potx/potx/internal/config"
	"github.com/potx/potx/internal/constants"
	"github.com/potx/potx/internal/errors"
	"github.com/potx/potx/internal/honeypot"
	"github.com/potx/potx/internal/logger"
	"github.com/potx/potx/internal/metrics"
)

func runHoneypot(cmd *cobra.Command, configPath string) error {
	fmt.Fprintf(cmd.OutOrStdout(), banner, constants.AppVersion)
	fmt.Fprintln(cmd.OutOrStdout())

	cfg, err := config.LoadOrCreateDefault(configPath)
	if err != nil {
		return err
	}

	log, closer, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer closer.Close()

	log.Infof("%s v%s starting...", constants.AppName, constants.AppVersion)
	log.Infof("Configuration loaded from: %s", configPath)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, log)
}

// serve runs the honeypot described by cfg until ctx is done.
func serve(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	if cfg.Metrics.Address != "" {
		srv, err := metrics.NewServer(cfg.Metrics.Address, log)
		if err != nil {
			return err
		}
		go srv.Serve()
		defer srv.Shutdown(context.Background())
	}

	svc, err := honeypot.New(honeypot.Options{
		Host:           cfg.Host,
		Ports:          cfg.Ports,
		Logger:         log,
		LogDestination: cfg.Log.File,
		Metrics:        metrics.NewPrometheusMetrics(),
	})
	if err != nil {
		return err
	}

	if err := svc.Start(ctx); err != nil {
		if len(svc.ActivePorts()) == 0 {
			_ = svc.Stop()
			return err
		}
		log.WithError(err).Warn("Honeypot running with reduced port coverage")
	}

	return awaitShutdown(ctx, svc, log)
}

type runningService interface {
	Wait() error
	Stop() error
}

// awaitShutdown blocks until ctx is done or every accept loop of svc has
// exited on its own, then stops svc. The second case is reported as an error.
func awaitShutdown(ctx context.Context, svc runningService, log logrus.FieldLogger) error {
	exited := make(chan error, 1)
	go func() { exited <- svc.Wait() }()

	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case err := <-exited:
		if ctx.Err() != nil {
			// The listeners follow ctx, so they may finish first.
			log.Info("Shutting down...")
			break
		}
		log.WithError(err).Error("All listeners stopped unexpectedly")
		_ = svc.Stop()
		return errors.WrapAs(errors.ErrInternal, err, "honeypot stopped before shutdown was requested")
	}

	if err := svc.Stop(); err != nil {
		return err
	}
	log.Info("Shutdown complete")
	return nil
}
