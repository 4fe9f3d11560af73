package router

import (
	"github.com/gin-gonic/gin"
	"github.com/inframirror/inframirror/internal/handlers"
	"github.com/inframirror/inframirror/internal/middleware"
)

// Setup configures and returns the application router
func Setup(
	jwtSecret string,
	healthHandler *handlers.HealthHandler,
	diffHandler *handlers.DiffHandler,
	posterHandler *handlers.PosterHandler,
	vmHandler *handlers.VMHandler,
	taskHandler *handlers.TaskHandler,
) *gin.Engine {

	// Create a new Gin router
	router := gin.Default()

	// Apply CORS middleware globally
	router.Use(middleware.CORS())

	// API v1 routes
	v1 := router.Group("/api/v1")

	// Health check stays unauthenticated
	v1.GET("/health", healthHandler.Check)

	// Apply authentication middleware to the rest
	v1.Use(middleware.Authentication(jwtSecret))

	// Diff processing
	v1.POST("/process-vm-diff", diffHandler.ProcessDiff)
	v1.POST("/process-vm-diff-async", diffHandler.ProcessDiffAsync)

	// Jira posting
	v1.POST("/post-to-jira", posterHandler.PostToJira)
	v1.POST("/post-to-jira-async", posterHandler.PostToJiraAsync)
	v1.POST("/post-selected-vms-to-jira", posterHandler.PostSelected)
	v1.POST("/retry-failed-jira-posts", posterHandler.RetryFailed)
	v1.GET("/jira-poster-stats", posterHandler.Stats)

	// Candidate listings and purges
	v1.GET("/missing-vms", vmHandler.ListMissingVMs)
	v1.DELETE("/missing-vms", vmHandler.DeleteMissingVMs)
	v1.GET("/completed-jira-assets", vmHandler.ListCompleted)
	v1.DELETE("/completed-jira-assets", vmHandler.DeleteCompleted)
	v1.GET("/failed-jira-assets", vmHandler.ListFailed)
	v1.DELETE("/failed-jira-assets", vmHandler.DeleteFailed)

	// Inventory read accessors
	v1.GET("/vms", vmHandler.ListVCenterVMs)
	v1.GET("/vms/:mobid", vmHandler.GetVCenterVM)
	v1.DELETE("/vms", vmHandler.DeleteVCenterVMs)
	v1.GET("/jira-vms", vmHandler.ListJiraVMs)
	v1.DELETE("/jira-vms", vmHandler.DeleteJiraVMs)

	// Background task status
	v1.GET("/task-status/:task_id", taskHandler.GetStatus)

	return router
}
