package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"PulseWatch/internal/usecase"
	"PulseWatch/pkg/config"
	xhttp "PulseWatch/pkg/http"
	applogger "PulseWatch/pkg/logger"
)

// QuoteStream is the optional streaming feed lifecycle. Satisfied by the
// websocket quote source; nil in REST polling mode.
type QuoteStream interface {
	Start(ctx context.Context) error
	Subscribe(ids []string) error
	Close() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg          *config.Config
	log          *applogger.Logger
	orchestrator *usecase.Orchestrator
	dispatcher   *usecase.AlertDispatcher
	stream       QuoteStream
	httpServer   *xhttp.Server
	httpHandler  xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	orchestrator *usecase.Orchestrator,
	dispatcher *usecase.AlertDispatcher,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:          cfg,
		log:          log,
		orchestrator: orchestrator,
		dispatcher:   dispatcher,
		httpHandler:  handler,
	}
}

// SetQuoteStream attaches a streaming feed to manage alongside the engine.
func (a *App) SetQuoteStream(s QuoteStream) { a.stream = s }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.stream != nil {
		if err := a.stream.Start(ctx); err != nil {
			a.log.Error("quote stream start error", applogger.Error(err))
			return err
		}
		if err := a.stream.Subscribe(a.cfg.Instruments); err != nil {
			a.log.Warn("quote stream subscribe error", applogger.Error(err))
		}
	}

	if a.dispatcher != nil {
		a.dispatcher.Start()
	}

	a.orchestrator.Start(a.cfg.Instruments)
	a.log.Info("analysis engine started",
		applogger.Strings("instruments", a.cfg.Instruments),
		applogger.String("quotes_mode", a.cfg.Quotes.Mode),
	)

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	// No new passes after this returns.
	a.orchestrator.Stop()

	// Drain and close sinks.
	if a.dispatcher != nil {
		a.dispatcher.Stop()
	}

	if a.stream != nil {
		if err := a.stream.Close(); err != nil {
			a.log.Warn("quote stream close error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
