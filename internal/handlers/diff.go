package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inframirror/inframirror/internal/jira"
	"github.com/inframirror/inframirror/internal/models"
	"github.com/inframirror/inframirror/internal/queue"
	"github.com/inframirror/inframirror/internal/services"
)

// DiffHandler handles diff-run requests
type DiffHandler struct {
	diffService *services.DiffService
	baseSchema  *jira.SchemaConfig
	taskQueue   *queue.TaskQueue
	tracker     *queue.TaskTracker
}

// NewDiffHandler creates a new diff handler
func NewDiffHandler(
	diffService *services.DiffService,
	baseSchema *jira.SchemaConfig,
	taskQueue *queue.TaskQueue,
	tracker *queue.TaskTracker,
) *DiffHandler {
	return &DiffHandler{
		diffService: diffService,
		baseSchema:  baseSchema,
		taskQueue:   taskQueue,
		tracker:     tracker,
	}
}

// ResolveSchema merges per-request overrides onto the configured schema
func (h *DiffHandler) ResolveSchema(req *models.DiffRequest) *jira.SchemaConfig {
	schema := *h.baseSchema

	if req == nil {
		return &schema
	}
	if req.ObjectTypeID != "" {
		schema.ObjectTypeID = req.ObjectTypeID
	}
	if req.ObjectSchemaID != "" {
		schema.ObjectSchemaID = req.ObjectSchemaID
	}
	if req.DefaultSite != "" {
		schema.DefaultSite = req.DefaultSite
	}
	if req.DefaultZone != "" {
		schema.DefaultZone = req.DefaultZone
	}

	return &schema
}

// ProcessDiff handles running a diff synchronously
func (h *DiffHandler) ProcessDiff(c *gin.Context) {
	var req models.DiffRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": err.Error(),
			})
			return
		}
	}

	report, err := h.diffService.Run(c.Request.Context(), h.ResolveSchema(&req))
	if err != nil {
		if errors.Is(err, jira.ErrConfiguration) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "configuration_error",
				"message": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Diff run failed",
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

// ProcessDiffAsync enqueues a diff run as a background task
func (h *DiffHandler) ProcessDiffAsync(c *gin.Context) {
	var req models.DiffRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": err.Error(),
			})
			return
		}
	}

	// Reject unusable schemas before queueing; async callers deserve the
	// same fail-fast behavior as synchronous ones
	if err := h.ResolveSchema(&req).Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "configuration_error",
			"message": err.Error(),
		})
		return
	}

	task := &queue.Task{
		ID:   uuid.NewString(),
		Kind: queue.TaskDiff,
		Diff: &req,
	}

	h.tracker.Queued(task.ID, task.Kind)
	if err := h.taskQueue.Enqueue(task); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"message": "Task queue is not accepting work",
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"task_id": task.ID,
		"status":  "queued",
		"message": "Diff run started in background",
	})
}
