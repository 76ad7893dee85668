// Package api provides the HTTP ingest and query surface for agentwatch.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/laxkc/agentwatch/pkg/alert"
	"github.com/laxkc/agentwatch/pkg/baseline"
	"github.com/laxkc/agentwatch/pkg/database"
	"github.com/laxkc/agentwatch/pkg/drift"
	"github.com/laxkc/agentwatch/pkg/events"
	"github.com/laxkc/agentwatch/pkg/eventstore"
)

// Server is the HTTP API server.
type Server struct {
	echo         *echo.Echo
	httpServer   *http.Server
	dbClient     *database.Client
	store        *eventstore.Store
	baselines    *baseline.Manager
	driftEngine  *drift.Engine
	connManager  *events.ConnectionManager
	publisher    *events.DriftPublisher
	alertEmitter *alert.Emitter
}

// NewServer creates a new API server with Echo v5.
func NewServer(
	dbClient *database.Client,
	store *eventstore.Store,
	baselines *baseline.Manager,
	driftEngine *drift.Engine,
	connManager *events.ConnectionManager,
	publisher *events.DriftPublisher,
	alertEmitter *alert.Emitter,
) *Server {
	e := echo.New()

	s := &Server{
		echo:         e,
		dbClient:     dbClient,
		store:        store,
		baselines:    baselines,
		driftEngine:  driftEngine,
		connManager:  connManager,
		publisher:    publisher,
		alertEmitter: alertEmitter,
	}

	s.setupRoutes()
	return s
}

// setupRoutes registers all API routes.
func (s *Server) setupRoutes() {
	// Server-wide body size limit. Ingest payloads carry nested steps,
	// failures, decisions, and quality signals for one run — 2 MB comfortably
	// covers that without admitting multi-MB abuse at the HTTP read level.
	s.echo.Use(middleware.BodyLimit(2 * 1024 * 1024))

	s.echo.GET("/health", s.healthHandler)

	v1 := s.echo.Group("/v1")

	v1.POST("/runs", s.putRunHandler)
	v1.GET("/runs", s.listRunsHandler)
	v1.GET("/runs/:id", s.getRunHandler)
	v1.GET("/runs/:id/steps", s.listStepsHandler)
	v1.GET("/runs/:id/failures", s.listFailuresHandler)
	v1.GET("/runs/:id/decisions", s.listDecisionsHandler)
	v1.GET("/runs/:id/signals", s.listSignalsHandler)
	v1.GET("/stats", s.statsHandler)

	v1.GET("/drift/profiles", s.listProfilesHandler)
	v1.GET("/drift/profiles/:id", s.getProfileHandler)
	v1.GET("/drift/baselines", s.listBaselinesHandler)
	v1.GET("/drift/baselines/:id", s.getBaselineHandler)
	v1.GET("/drift/timeline", s.driftTimelineHandler)
	v1.GET("/drift/summary", s.driftSummaryHandler)
	v1.GET("/drift", s.listDriftHandler)
	v1.GET("/drift/:id", s.getDriftHandler)
	v1.POST("/drift/:id/resolve", s.resolveDriftHandler)
	v1.POST("/drift/detect", s.detectDriftHandler)

	s.echo.GET("/ws/drift", s.wsHandler)
}

// Start starts the HTTP server on the given address and blocks until the
// server stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.echo,
	}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener. Used by
// test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	dbHealth, err := database.Health(reqCtx, s.dbClient.DB())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status":   "unhealthy",
			"database": dbHealth,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "healthy",
		"database": dbHealth,
	})
}
