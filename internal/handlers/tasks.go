package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inframirror/inframirror/internal/queue"
)

// TaskHandler handles background task status lookups
type TaskHandler struct {
	tracker *queue.TaskTracker
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tracker *queue.TaskTracker) *TaskHandler {
	return &TaskHandler{tracker: tracker}
}

// GetStatus handles polling the status of an async diff or post run
func (h *TaskHandler) GetStatus(c *gin.Context) {
	taskID := c.Param("task_id")

	status, ok := h.tracker.Get(taskID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"message": "Task not found",
		})
		return
	}

	c.JSON(http.StatusOK, status)
}
