package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskforge/conductor/pkg/blocker"
	"github.com/taskforge/conductor/pkg/domain"
)

type answerBlockerRequest struct {
	Answer string `json:"answer" binding:"required"`
}

// listBlockersHandler handles GET /api/blockers?project=&kind=&unanswered=true.
func (s *Server) listBlockersHandler(c *gin.Context) {
	filter := blocker.Filter{
		ProjectID:      c.Query("project"),
		Kind:           domain.BlockerKind(c.Query("kind")),
		UnansweredOnly: c.Query("unanswered") == "true",
	}
	c.JSON(http.StatusOK, s.blockers.List(filter))
}

// answerBlockerHandler handles POST /api/blockers/:id/answer. Answering
// is idempotent at the store layer, so a repeated answer returns 200
// with the original answer rather than an error.
func (s *Server) answerBlockerHandler(c *gin.Context) {
	id := c.Param("id")
	var req answerBlockerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := s.blockers.Answer(c.Request.Context(), id, req.Answer)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, b)
}
