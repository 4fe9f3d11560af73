package queue

import (
	"sync"

	"github.com/inframirror/inframirror/internal/logger"
	"github.com/inframirror/inframirror/internal/models"
)

// TaskKind identifies which core operation a background task runs
type TaskKind string

const (
	TaskDiff  TaskKind = "diff"
	TaskPost  TaskKind = "post"
	TaskRetry TaskKind = "retry"
)

// Task represents one queued diff or posting run. Exactly one of the request
// fields matching Kind is set.
type Task struct {
	ID    string
	Kind  TaskKind
	Diff  *models.DiffRequest
	Post  *models.PostRequest
	Retry *models.RetryRequest
}

// TaskQueue manages queued background tasks with a channel-based system
type TaskQueue struct {
	tasks chan *Task
	done  chan bool
	mu    sync.Mutex
}

// NewTaskQueue creates a new task queue with the specified buffer size
func NewTaskQueue(bufferSize int) *TaskQueue {
	return &TaskQueue{
		tasks: make(chan *Task, bufferSize),
		done:  make(chan bool),
	}
}

// Enqueue adds a task to the queue. The mutex is shared with Close so a send
// can never race a channel close; requests arriving during shutdown get
// ErrQueueClosed instead of a panic.
func (tq *TaskQueue) Enqueue(task *Task) error {
	tq.mu.Lock()
	defer tq.mu.Unlock()

	select {
	case <-tq.done:
		logger.WithFields(map[string]interface{}{
			"task_id": task.ID,
			"kind":    task.Kind,
		}).Warn("Failed to enqueue task: queue is closed")
		return ErrQueueClosed
	default:
	}

	select {
	case tq.tasks <- task:
		logger.WithFields(map[string]interface{}{
			"task_id": task.ID,
			"kind":    task.Kind,
		}).Info("Background task enqueued")
		return nil
	case <-tq.done:
		logger.WithFields(map[string]interface{}{
			"task_id": task.ID,
			"kind":    task.Kind,
		}).Warn("Failed to enqueue task: queue is closed")
		return ErrQueueClosed
	}
}

// Tasks returns the underlying channel for task consumption
func (tq *TaskQueue) Tasks() <-chan *Task {
	return tq.tasks
}

// Close closes the queue
func (tq *TaskQueue) Close() {
	tq.mu.Lock()
	defer tq.mu.Unlock()

	select {
	case <-tq.done:
		return // Already closed
	default:
		close(tq.done)
		close(tq.tasks)
	}
}

// WorkerPool runs queued tasks. Diff and posting runs must never overlap, so
// the pool is normally sized at one worker.
type WorkerPool struct {
	queue   *TaskQueue
	workers int
	wg      sync.WaitGroup
	done    chan bool
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(queue *TaskQueue, numWorkers int) *WorkerPool {
	return &WorkerPool{
		queue:   queue,
		workers: numWorkers,
		done:    make(chan bool),
	}
}

// Start starts all workers
func (wp *WorkerPool) Start(handler func(*Task) error) {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(handler)
	}
}

// worker processes tasks from the queue
func (wp *WorkerPool) worker(handler func(*Task) error) {
	defer wp.wg.Done()

	for {
		select {
		case task, ok := <-wp.queue.tasks:
			if !ok {
				logger.Debug("Worker exiting: task channel closed")
				return
			}
			if task == nil {
				continue
			}

			logger.WithFields(map[string]interface{}{
				"task_id": task.ID,
				"kind":    task.Kind,
			}).Info("Worker processing background task")

			if err := handler(task); err != nil {
				logger.WithFields(map[string]interface{}{
					"task_id": task.ID,
					"kind":    task.Kind,
					"error":   err.Error(),
				}).Error("Background task failed")
			} else {
				logger.WithFields(map[string]interface{}{
					"task_id": task.ID,
					"kind":    task.Kind,
				}).Info("Background task completed")
			}
		case <-wp.done:
			logger.Debug("Worker exiting: stop signal received")
			return
		}
	}
}

// Stop stops all workers
func (wp *WorkerPool) Stop() {
	close(wp.done)
	wp.wg.Wait()
}

// Wait waits for all workers to finish
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}
