package gateway

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sameehj/dataworks/pkg/sandbox"
	"github.com/sameehj/dataworks/pkg/task"
	"github.com/sameehj/dataworks/pkg/version"
)

const rootMessage = "DataWorks Task Automation API"

type runRequest struct {
	Task *string `json:"task"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": rootMessage})
}

// handleRun accepts the task text as a query parameter, a form field or a
// JSON body field, in that order.
func (s *Server) handleRun(c *gin.Context) {
	text, ok := taskText(c)
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "task is required"})
		return
	}

	run := &Run{
		ID:         uuid.NewString(),
		Task:       text,
		RemoteAddr: c.ClientIP(),
		StartedAt:  time.Now(),
	}
	s.register(run)
	defer s.unregister(run.ID)

	env := s.dispatcher.RunTask(c.Request.Context(), text)
	c.JSON(http.StatusOK, env.Body())
}

func taskText(c *gin.Context) (string, bool) {
	if text, ok := c.GetQuery("task"); ok {
		return text, true
	}
	if c.ContentType() == gin.MIMEJSON {
		var req runRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Task == nil {
			return "", false
		}
		return *req.Task, true
	}
	return c.GetPostForm("task")
}

func (s *Server) handleReadFile(c *gin.Context) {
	path, ok := c.GetQuery("path")
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "path is required"})
		return
	}
	content, err := s.box.Read(path)
	if err != nil {
		s.logInfo("read_file_failed", "request_id", c.GetString(requestIDKey), "kind", task.KindOf(err), "error", err)
		c.JSON(s.readFileStatus(err), task.Envelope{Error: task.PublicMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}

func (s *Server) readFileStatus(err error) int {
	if !s.strictStatus {
		return http.StatusOK
	}
	switch {
	case errors.Is(err, sandbox.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, sandbox.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"uptime":      time.Since(s.started).Round(time.Second).String(),
		"version":     version.String(),
		"active_runs": len(s.ActiveRuns()),
	})
}

func (s *Server) handleTasks(c *gin.Context) {
	c.JSON(http.StatusOK, s.dispatcher.Matcher().Rules())
}
