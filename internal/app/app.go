package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"coop-defense/server/internal/catalog"
	"coop-defense/server/internal/directory"
	"coop-defense/server/internal/lobby"
	servernet "coop-defense/server/internal/net"
	"coop-defense/server/internal/net/session"
	"coop-defense/server/internal/telemetry"
	"coop-defense/server/logging"
	loggingSinks "coop-defense/server/logging/sinks"
)

const shutdownTimeout = 5 * time.Second

// Run serves until ctx is cancelled or the listener fails.
func Run(ctx context.Context, cfg Config) error {
	var fallback logrus.FieldLogger
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		logger := telemetry.NewLogrus(telemetry.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})
		telemetryLogger = logger
		fallback = logger
	} else if candidate, ok := telemetryLogger.(logrus.FieldLogger); ok {
		fallback = candidate
	}

	metrics := logging.NewMetrics()
	events, closeEvents, err := newEventRouter(cfg, fallback, metrics)
	if err != nil {
		return err
	}
	defer closeEvents()

	sessionCfg := session.Config{
		Lobby:       lobby.DefaultConfig(),
		ResumeGrace: cfg.ResumeGrace,
		Logger:      telemetryLogger,
		Publisher:   events,
		Metrics:     telemetry.WrapMetrics(metrics),
	}
	sessionCfg.Lobby.Room.TickInterval = cfg.TickInterval
	sessionCfg.Lobby.Room.Catalog = catalog.Default()

	router := session.NewRouter(ctx, sessionCfg)
	defer router.Close()

	handler := servernet.NewHTTPHandler(router, servernet.HTTPHandlerConfig{
		ClientDir:     cfg.ClientDir,
		Logger:        telemetryLogger,
		Catalog:       sessionCfg.Lobby.Room.Catalog,
		Users:         directory.NewUsers(),
		Metrics:       metrics,
		Events:        events,
		TickInterval:  cfg.TickInterval,
		Observability: cfg.Observability,
	})

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: handler}
	errCh := make(chan error, 1)
	go func() {
		telemetryLogger.Printf("server listening on %s (tick=%s resumeGrace=%s)", srv.Addr, cfg.TickInterval, cfg.ResumeGrace)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	telemetryLogger.Printf("server stopped")
	return nil
}

func newEventRouter(cfg Config, fallback logrus.FieldLogger, metrics *logging.Metrics) (*logging.Router, func(), error) {
	logConfig := logging.DefaultConfig()
	logConfig.Fallback = fallback
	logConfig.Metrics = metrics
	logConfig.Fields = map[string]any{"service": "coop-defense"}

	sinks := []logging.NamedSink{
		{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout, logConfig.Console)},
	}
	var eventFile *os.File
	if cfg.EventLogPath != "" {
		file, err := os.OpenFile(cfg.EventLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open event log: %w", err)
		}
		eventFile = file
		logConfig.EnabledSinks = append(logConfig.EnabledSinks, "json")
		logConfig.JSON.FilePath = cfg.EventLogPath
		sinks = append(sinks, logging.NamedSink{Name: "json", Sink: loggingSinks.NewJSON(file, logConfig.JSON.FlushInterval)})
	}

	router, err := logging.NewRouter(logging.ClockFunc(time.Now), logConfig, sinks)
	if err != nil {
		if eventFile != nil {
			eventFile.Close()
		}
		return nil, nil, fmt.Errorf("failed to construct logging router: %w", err)
	}
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := router.Close(ctx); err != nil && fallback != nil {
			fallback.Warnf("failed to close logging router: %v", err)
		}
		if eventFile != nil {
			eventFile.Close()
		}
	}
	return router, closeFn, nil
}
