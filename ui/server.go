package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"pricesheet/app"
	"pricesheet/internal"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Server represents the web server for the price comparison UI
type Server struct {
	router    *gin.Engine
	service   *app.ComparisonService
	templates *template.Template
	maxUpload int64
	logger    *internal.Logger
	http      *http.Server
}

// NewServer creates a new web server instance. maxUpload caps a whole
// request body; each file inside it is capped again by the scratch store.
func NewServer(service *app.ComparisonService, maxUpload int64) (*Server, error) {
	templates, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	router := gin.Default()
	// two files plus form fields share one request
	router.MaxMultipartMemory = 2 * maxUpload

	s := &Server{
		router:    router,
		service:   service,
		templates: templates,
		maxUpload: maxUpload,
		logger:    internal.DefaultLogger.Named("UI"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/healthz", s.handleHealth)

	uploads := s.router.Group("/")
	uploads.Use(limitBody(2*s.maxUpload + formOverhead))
	{
		uploads.POST("/compare", s.handleCompare)
		uploads.POST("/update_template", s.handleUpdateTemplate)
		uploads.POST("/report", s.handleReport)
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until ctx is cancelled
func (s *Server) Start(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
		s.logger.Info("shutting down")
		return s.http.Shutdown(shutdownCtx)
	}
}
