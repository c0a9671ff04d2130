// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apihandler "github.com/newthinker/chartdesk/internal/api/handler/api"
	"github.com/newthinker/chartdesk/internal/api/handler/web"
	"github.com/newthinker/chartdesk/internal/api/middleware"
	"github.com/newthinker/chartdesk/internal/api/response"
	"github.com/newthinker/chartdesk/internal/dashboard"
	"github.com/newthinker/chartdesk/internal/logger"
	"github.com/newthinker/chartdesk/internal/metrics"
	"go.uber.org/zap"
)

// Server represents the HTTP server for the dashboard
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    http.Handler
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	TemplatesDir string
	// MetricsPath is where Prometheus metrics are served. Empty disables the route.
	MetricsPath string
	// Location is the zone "Last Updated" is shown in.
	Location *time.Location
	// ChartWait bounds how long a page render or ?wait=1 waits for a chart probe.
	ChartWait time.Duration
}

// Dependencies holds the collaborators the routes serve.
type Dependencies struct {
	Sessions *dashboard.Store
	Metrics  *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, log *zap.Logger) (*Server, error) {
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	log = logger.OrNop(log)
	mux := http.NewServeMux()

	s := &Server{
		logger: log,
		mux:    mux,
	}

	// Set up routes
	if err := s.setupRoutes(cfg, deps); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	// Logging runs outermost so it sees the final status of every request.
	var handler http.Handler = mux
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(handler)
	}
	handler = metrics.LoggingMiddleware(log)(handler)
	s.handler = handler

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Leaves room for ?wait=1 on top of a normal response.
		WriteTimeout: 15*time.Second + cfg.ChartWait,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) error {
	// Web UI routes
	webHandler, err := web.NewHandler(cfg.TemplatesDir, web.Options{
		Location:  cfg.Location,
		ChartWait: cfg.ChartWait,
		Logger:    s.logger,
	})
	if err != nil {
		return fmt.Errorf("creating web handler: %w", err)
	}

	withSession := middleware.Sessions(deps.Sessions)

	// Exact match only: unknown paths 404 without creating a session.
	s.mux.Handle("/{$}", withSession(http.HandlerFunc(webHandler.Dashboard)))
	s.mux.Handle("/fragments/chart", withSession(http.HandlerFunc(webHandler.Chart)))
	s.mux.Handle("/fragments/symbols", withSession(http.HandlerFunc(webHandler.Symbols)))
	s.mux.Handle("/fragments/trends", withSession(http.HandlerFunc(webHandler.Trends)))

	// API v1 routes
	dash := apihandler.NewDashboardHandler(cfg.Location, cfg.ChartWait)
	s.mux.Handle("/api/v1/state", withSession(http.HandlerFunc(dash.State)))
	s.mux.Handle("/api/v1/symbols", withSession(http.HandlerFunc(dash.Symbols)))
	s.mux.Handle("/api/v1/trends", withSession(http.HandlerFunc(dash.Trends)))
	s.mux.Handle("/api/v1/chart", withSession(http.HandlerFunc(dash.Chart)))
	s.mux.Handle("/api/v1/view-chart", withSession(http.HandlerFunc(dash.ViewChart)))

	s.mux.HandleFunc("/api/health", s.handleHealth(deps.Sessions))

	if cfg.MetricsPath != "" && deps.Metrics != nil {
		s.mux.Handle(cfg.MetricsPath, deps.Metrics.Handler())
	}

	return nil
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(store *dashboard.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"sessions":    store.Count(),
			"session_ttl": store.TTL().String(),
		})
	}
}
