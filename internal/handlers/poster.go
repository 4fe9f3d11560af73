package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inframirror/inframirror/internal/models"
	"github.com/inframirror/inframirror/internal/queue"
	"github.com/inframirror/inframirror/internal/repository"
	"github.com/inframirror/inframirror/internal/services"
)

// PosterHandler handles Jira posting requests
type PosterHandler struct {
	posterService *services.PosterService
	candidateRepo repository.CandidateRepository
	taskQueue     *queue.TaskQueue
	tracker       *queue.TaskTracker
}

// NewPosterHandler creates a new poster handler
func NewPosterHandler(
	posterService *services.PosterService,
	candidateRepo repository.CandidateRepository,
	taskQueue *queue.TaskQueue,
	tracker *queue.TaskTracker,
) *PosterHandler {
	return &PosterHandler{
		posterService: posterService,
		candidateRepo: candidateRepo,
		taskQueue:     taskQueue,
		tracker:       tracker,
	}
}

// PostToJira handles posting a batch of candidates synchronously
func (h *PosterHandler) PostToJira(c *gin.Context) {
	var req models.PostRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": err.Error(),
			})
			return
		}
	}

	result, err := h.posterService.PostBatch(c.Request.Context(), services.PostConfig{
		JiraToken:    req.JiraToken,
		CreateURL:    req.CreateURL,
		DelaySeconds: req.DelaySeconds,
		Limit:        req.Limit,
		RetryFailed:  req.RetryFailed,
		MaxRetries:   req.MaxRetries,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Posting batch failed",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// PostToJiraAsync enqueues a posting batch as a background task
func (h *PosterHandler) PostToJiraAsync(c *gin.Context) {
	var req models.PostRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": err.Error(),
			})
			return
		}
	}

	task := &queue.Task{
		ID:   uuid.NewString(),
		Kind: queue.TaskPost,
		Post: &req,
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
		"message": "Posting batch started in background",
	})
}

// PostSelected handles posting an explicit set of candidates by id
func (h *PosterHandler) PostSelected(c *gin.Context) {
	var req models.SelectedPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": err.Error(),
		})
		return
	}
	if len(req.VMIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "vm_ids must not be empty",
		})
		return
	}

	result, err := h.posterService.PostSelected(c.Request.Context(), req.VMIDs, services.PostConfig{
		JiraToken:    req.JiraToken,
		CreateURL:    req.CreateURL,
		DelaySeconds: req.DelaySeconds,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Posting selected candidates failed",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// RetryFailed handles retrying failed candidates
func (h *PosterHandler) RetryFailed(c *gin.Context) {
	var req models.RetryRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": err.Error(),
			})
			return
		}
	}

	result, err := h.posterService.RetryFailed(c.Request.Context(), req.MaxRetries, req.JiraToken, req.CreateURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Retry batch failed",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Stats reports candidate counts by lifecycle state
func (h *PosterHandler) Stats(c *gin.Context) {
	stats, err := h.candidateRepo.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to retrieve poster stats",
		})
		return
	}
	stats.LastCheck = time.Now().UTC()

	c.JSON(http.StatusOK, stats)
}
