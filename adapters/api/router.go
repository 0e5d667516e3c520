// Package api exposes the comparison service as a JSON API under /api/v1.
package api

import (
	"context"
	"net/http"
	"time"

	"pricesheet/app"
	"pricesheet/internal"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// formOverhead leaves room for multipart boundaries and small form fields
const formOverhead = 1 << 20

// API routes JSON requests to the comparison service
type API struct {
	router    *chi.Mux
	service   *app.ComparisonService
	maxUpload int64
	logger    *internal.Logger
}

// NewAPI creates the router with middleware and routes installed
func NewAPI(service *app.ComparisonService, maxUpload int64) *API {
	a := &API{
		router:    chi.NewRouter(),
		service:   service,
		maxUpload: maxUpload,
		logger:    internal.DefaultLogger.Named("API"),
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// setupMiddleware configures HTTP middleware
func (a *API) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
}

// setupRoutes configures the API routes
func (a *API) setupRoutes() {
	a.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", a.handleHealth)
		r.Get("/runs", a.handleListRuns)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequestSize(2*a.maxUpload + formOverhead))
			r.Post("/compare", a.handleCompare)
			r.Post("/template", a.handleTemplate)
			r.Post("/report", a.handleReport)
		})
	})
}

// ServeHTTP makes API an http.Handler
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Start serves the API until ctx is cancelled
func (a *API) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
