package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"PaperDeck/internal/usecase"
	pkgch "PaperDeck/pkg/clickhouse"
	"PaperDeck/pkg/config"
	xhttp "PaperDeck/pkg/http"
	applogger "PaperDeck/pkg/logger"
	"PaperDeck/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	monitor    *usecase.Monitor
	collector  *usecase.PriceCollector
	recorder   *usecase.TickRecorder
	alertQueue *queue.RedisQueue
	chClient   *pkgch.Client
	handler    xhttp.Handler
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	lgr *applogger.Logger,
	monitor *usecase.Monitor,
	collector *usecase.PriceCollector,
	recorder *usecase.TickRecorder,
	alertQueue *queue.RedisQueue,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:        cfg,
		logger:     lgr,
		monitor:    monitor,
		collector:  collector,
		recorder:   recorder,
		alertQueue: alertQueue,
		chClient:   chClient,
		handler:    handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// control loop: scheduler, refreshes, settings, stream rebuilds
	go func() {
		if err := a.monitor.Run(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("monitor stopped", applogger.Error(err))
		}
	}()
	a.logger.Info("monitor started",
		applogger.String("project", a.cfg.API.Project),
		applogger.String("environment", a.cfg.Environment))

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if err := a.collector.Shutdown(); err != nil {
		a.logger.Warn("collector stop error", applogger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.alertQueue != nil {
		if err := a.alertQueue.Stop(shutdownCtx); err != nil {
			a.logger.Warn("alert queue stop error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	if a.recorder != nil {
		a.recorder.Close()
	}

	a.logger.Info("shutdown complete")
	return nil
}
