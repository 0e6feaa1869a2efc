package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getProjectHandler handles GET /api/projects/:id.
func (s *Server) getProjectHandler(c *gin.Context) {
	id := c.Param("id")
	proj, err := s.store.GetProject(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, proj)
}

// listTasksHandler handles GET /api/projects/:id/tasks, reporting the
// live in-memory task status from the resolver driving the current
// supervisor run rather than the (possibly stale) persisted rows.
func (s *Server) listTasksHandler(c *gin.Context) {
	if s.resolver == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no active supervisor run"})
		return
	}
	c.JSON(http.StatusOK, s.resolver.Tasks())
}
