package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/inframirror/inframirror/internal/config"
	"github.com/inframirror/inframirror/internal/database"
	"github.com/inframirror/inframirror/internal/handlers"
	"github.com/inframirror/inframirror/internal/jira"
	"github.com/inframirror/inframirror/internal/logger"
	"github.com/inframirror/inframirror/internal/queue"
	"github.com/inframirror/inframirror/internal/repository"
	"github.com/inframirror/inframirror/internal/router"
	"github.com/inframirror/inframirror/internal/services"
)

func main() {

	ctx := context.Background()

	// Load application configuration
	cfg := config.New()
	log.Println("Configuration loaded successfully")

	// Initialize structured logging
	logger.Init(cfg.LogLevel)

	// Initialize database configuration
	dbConfig := database.NewConfig(cfg)

	log.Printf("Initializing DynamoDB client in region: %s", dbConfig.Region)

	// Create DynamoDB client
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		log.Fatalf("Failed to initialize DynamoDB client: %v", err)
	}

	log.Println("DynamoDB client initialized successfully")

	// Initialize database operations
	vcenterDB := database.NewVCenterVMOperations(dbClient, cfg.VCenterVMsTableName)
	jiraDB := database.NewJiraVMOperations(dbClient, cfg.JiraVMsTableName)
	candidateDB := database.NewCandidateOperations(dbClient, cfg.MissingVMsTableName)
	log.Println("Database operations initialized")

	// Initialize repositories
	vcenterRepo := repository.NewVCenterVMRepository(vcenterDB)
	jiraRepo := repository.NewJiraVMRepository(jiraDB)
	candidateRepo := repository.NewCandidateRepository(candidateDB)
	log.Println("Repositories initialized with DynamoDB backend")

	// Load the Insight schema mapping; environment values fill any gaps so a
	// partial file plus env configuration still yields a usable schema
	schema := loadSchema(cfg)

	// Initialize services
	diffService := services.NewDiffService(vcenterRepo, jiraRepo, candidateRepo)
	posterService := services.NewPosterService(candidateRepo, services.PosterDefaults{
		JiraToken:    cfg.JiraToken,
		CreateURL:    cfg.JiraCreateURL,
		DelaySeconds: cfg.JiraPosterDelay,
		Limit:        cfg.PostBatchLimit,
		MaxRetries:   cfg.JiraMaxRetries,
	})
	log.Println("Diff and poster services initialized")

	// Initialize task queue (with buffer size of 100)
	taskQueue := queue.NewTaskQueue(100)
	tracker := queue.NewTaskTracker()
	log.Println("Task queue initialized")

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	diffHandler := handlers.NewDiffHandler(diffService, schema, taskQueue, tracker)
	posterHandler := handlers.NewPosterHandler(posterService, candidateRepo, taskQueue, tracker)
	vmHandler := handlers.NewVMHandler(vcenterRepo, jiraRepo, candidateRepo)
	taskHandler := handlers.NewTaskHandler(tracker)
	log.Println("Handlers initialized")

	// Single worker so diff and posting runs never overlap
	workerPool := queue.NewWorkerPool(taskQueue, 1)
	workerPool.Start(func(task *queue.Task) error {
		return runTask(ctx, task, tracker, diffHandler, diffService, posterService)
	})
	log.Println("Background worker started")

	// Setup router
	r := router.Setup(
		cfg.APIJWTSecret,
		healthHandler,
		diffHandler,
		posterHandler,
		vmHandler,
		taskHandler,
	)

	// Setup graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down server gracefully...")

		// Close task queue to stop accepting new work
		taskQueue.Close()
		log.Println("Task queue closed, waiting for worker to finish...")

		// Wait for the worker to finish the current run
		workerPool.Wait()
		log.Println("Worker stopped")

		os.Exit(0)
	}()

	// Start server
	log.Printf("Starting server on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// loadSchema reads the schema mapping file and backfills missing fields from
// environment configuration. A missing file is fine as long as the
// environment carries the required ids.
func loadSchema(cfg *config.Config) *jira.SchemaConfig {
	schema, err := jira.LoadSchemaFile(cfg.JiraSchemaFile)
	if err != nil {
		log.Printf("Schema file not loaded (%v), falling back to environment configuration", err)
		schema = &jira.SchemaConfig{}
	}

	if schema.ObjectTypeID == "" {
		schema.ObjectTypeID = cfg.JiraObjectTypeID
	}
	if schema.ObjectSchemaID == "" {
		schema.ObjectSchemaID = cfg.JiraObjectSchemaID
	}
	if schema.DefaultSite == "" {
		schema.DefaultSite = cfg.JiraDefaultSite
	}
	if schema.DefaultZone == "" {
		schema.DefaultZone = cfg.JiraDefaultZone
	}

	return schema
}

// runTask executes one queued background task and records its outcome
func runTask(
	ctx context.Context,
	task *queue.Task,
	tracker *queue.TaskTracker,
	diffHandler *handlers.DiffHandler,
	diffService *services.DiffService,
	posterService *services.PosterService,
) error {
	tracker.Running(task.ID)

	switch task.Kind {
	case queue.TaskDiff:
		report, err := diffService.Run(ctx, diffHandler.ResolveSchema(task.Diff))
		if err != nil {
			tracker.Failed(task.ID, err)
			return err
		}
		tracker.Completed(task.ID, report)

	case queue.TaskPost:
		req := task.Post
		result, err := posterService.PostBatch(ctx, services.PostConfig{
			JiraToken:    req.JiraToken,
			CreateURL:    req.CreateURL,
			DelaySeconds: req.DelaySeconds,
			Limit:        req.Limit,
			RetryFailed:  req.RetryFailed,
			MaxRetries:   req.MaxRetries,
		})
		if err != nil {
			tracker.Failed(task.ID, err)
			return err
		}
		tracker.Completed(task.ID, result)

	case queue.TaskRetry:
		req := task.Retry
		result, err := posterService.RetryFailed(ctx, req.MaxRetries, req.JiraToken, req.CreateURL)
		if err != nil {
			tracker.Failed(task.ID, err)
			return err
		}
		tracker.Completed(task.ID, result)
	}

	return nil
}
