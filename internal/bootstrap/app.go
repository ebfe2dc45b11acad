package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/yanqian/synergy-circle/internal/infra/config"
)

// shutdownTimeout bounds how long in-flight analyses may run after a stop signal.
const shutdownTimeout = 10 * time.Second

// App owns the HTTP server of the Synergy Circle service.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server}
}

// Run binds the listener, serves until ctx is cancelled and then drains.
// A bind failure is returned before anything is served.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %q: %w", a.server.Addr, err)
	}
	a.logger.Info("http server listening", append([]any{"address", ln.Addr().String()}, a.summary()...)...)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.server.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutdown signal received", "grace", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	a.logger.Info("http server stopped")
	return nil
}

func (a *App) summary() []any {
	return []any{
		"model", a.cfg.LLM.Model,
		"target_suggestions", a.cfg.Discovery.TargetSuggestions,
		"history_backend", a.cfg.History.Backend,
		"breaker_enabled", a.cfg.Breaker.Enabled,
		"web_enabled", a.cfg.Web.Enabled,
		"metrics_enabled", a.cfg.Metrics.Enabled,
		"auth_enabled", a.cfg.Auth.Secret != "",
	}
}
