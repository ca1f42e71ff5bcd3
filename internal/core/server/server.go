package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammed-shakir/cs-wkt/internal/core/config"
	"github.com/mohammed-shakir/cs-wkt/internal/core/health"
	middleware "github.com/mohammed-shakir/cs-wkt/internal/core/middleware"
	"github.com/mohammed-shakir/cs-wkt/internal/core/router"
)

// Deps are the collaborators the HTTP surface serves.
type Deps struct {
	Translator router.Translator
	// Checks feed /readyz. Consumer, when set, also reports partitions.
	Checks   map[string]health.Check
	Consumer health.ReadinessReporter
}

// Handler builds the HTTP handler tree.
func Handler(cfg config.Config, logger *slog.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS())
	r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(deps.Checks, deps.Consumer))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	router.Mount(r, logger, deps.Translator)
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, deps Deps) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           Handler(cfg, logger, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
