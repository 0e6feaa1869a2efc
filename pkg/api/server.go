// Package api exposes a running project's status, health, and blocker
// state over HTTP: project/task status, blocker list/answer, and a
// websocket feed of blocker lifecycle events. Grounded on the teacher's
// pkg/api/handlers.go gin-based Server/NewServer shape, generalized from
// its alert-session dashboard to conductor's project/task/blocker
// surface, and on pkg/api/handler_ws.go's coder/websocket upgrade
// (adapted here to gin's *gin.Context instead of echo's).
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskforge/conductor/pkg/blocker"
	"github.com/taskforge/conductor/pkg/dependency"
	"github.com/taskforge/conductor/pkg/store"
)

// Server is the HTTP surface over a project's coordination state.
type Server struct {
	store    *store.Store
	blockers *blocker.Store
	resolver *dependency.Resolver
	hub      *Hub
	router   *gin.Engine
}

// NewServer wires handlers against the persistence store, the in-memory
// blocker store, and the resolver driving the current supervisor run.
// resolver may be nil when the server is started independently of an
// active run; task-status endpoints then report 503.
func NewServer(st *store.Store, blockers *blocker.Store, resolver *dependency.Resolver) *Server {
	s := &Server{store: st, blockers: blockers, resolver: resolver, hub: NewHub()}
	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/api/projects/:id", s.getProjectHandler)
	s.router.GET("/api/projects/:id/tasks", s.listTasksHandler)
	s.router.GET("/api/blockers", s.listBlockersHandler)
	s.router.POST("/api/blockers/:id/answer", s.answerBlockerHandler)
	s.router.GET("/ws", s.wsHandler)
}

// Hub returns the server's websocket fan-out hub, so callers can wire it
// as the blocker.Store's Notifier to push live blocker.raised/answered
// events to connected clients.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the underlying gin.Engine, for use with httptest or a
// caller that wants to embed these routes in a larger mux.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server on addr, blocking until ctx is cancelled or
// the listener errors, mirroring the teacher's cmd/tarsy/main.go
// http.Server-plus-context-shutdown pattern.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api: server error: %w", err)
		}
		return nil
	}
}
