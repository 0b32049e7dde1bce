package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"StockOracle/pkg/config"
	xhttp "StockOracle/pkg/http"
	pkgkafka "StockOracle/pkg/kafka"
	applogger "StockOracle/pkg/logger"
)

type closer struct {
	name string
	c    io.Closer
}

// App encapsulates the application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	closers    []closer
}

func New(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server) *App {
	return &App{cfg: cfg, logger: l, httpServer: srv}
}

// SetConsumer attaches a kafka consumer started with the app.
func (a *App) SetConsumer(c *pkgkafka.Consumer) { a.consumer = c }

// AddCloser registers a resource released at shutdown, in registration order.
func (a *App) AddCloser(name string, c io.Closer) {
	a.closers = append(a.closers, closer{name: name, c: c})
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	if a.consumer != nil {
		if err := a.consumer.Start(ctx); err != nil {
			a.logger.Warn("kafka consumer not started", applogger.Error(err))
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		a.shutdown()
		return err
	}
	a.logger.Info("stockoracle started", applogger.Int("port", a.cfg.Server.Port))

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	a.shutdown()
	return nil
}

// shutdown stops the server first so no request mutates state while
// collaborators are released.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Flush collected errors while the producer is still open.
	a.logger.RemoveCollector()

	for _, cl := range a.closers {
		if err := cl.c.Close(); err != nil {
			a.logger.Warn("close error", applogger.String("resource", cl.name), applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
}
