// Package dashboard is the optional read-only HTTP monitoring surface
// for a running pbench process: health, live rate stats, and persisted
// run history. It never participates in the control or data plane.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/pbench/internal/dashboard/handlers"
	"github.com/jroosing/pbench/internal/dashboard/models"
	"github.com/jroosing/pbench/internal/store"
)

// LiveFunc is re-exported so callers don't need to import the handlers
// package directly.
type LiveFunc = handlers.LiveFunc

// LiveStats is re-exported for the same reason.
type LiveStats = models.LiveStats

// Server is the monitoring HTTP server.
type Server struct {
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds a Server bound to addr. st and live may be nil.
func New(addr string, logger *slog.Logger, st *store.Store, live LiveFunc) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	h := handlers.New(logger, st, live)
	registerRoutes(engine, h)
	mountStatic(engine, logger)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{logger: logger, engine: engine, httpServer: httpServer}
}

// Addr returns the server's configured listen address.
func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

// Engine exposes the underlying gin.Engine, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// ListenAndServe blocks serving HTTP until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
