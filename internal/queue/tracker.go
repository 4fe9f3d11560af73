package queue

import (
	"sync"
	"time"

	"github.com/inframirror/inframirror/internal/models"
)

// TaskTracker records the status of submitted background tasks so callers of
// the -async endpoints can poll for results.
type TaskTracker struct {
	mu    sync.RWMutex
	tasks map[string]*models.TaskStatus
}

// NewTaskTracker creates an empty task tracker
func NewTaskTracker() *TaskTracker {
	return &TaskTracker{
		tasks: make(map[string]*models.TaskStatus),
	}
}

// Queued records a freshly submitted task
func (t *TaskTracker) Queued(taskID string, kind TaskKind) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tasks[taskID] = &models.TaskStatus{
		TaskID:      taskID,
		Kind:        string(kind),
		Status:      "queued",
		SubmittedAt: time.Now().UTC(),
	}
}

// Running marks a task as picked up by a worker
func (t *TaskTracker) Running(taskID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if task, ok := t.tasks[taskID]; ok {
		task.Status = "running"
	}
}

// Completed records a task's successful result
func (t *TaskTracker) Completed(taskID string, result interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if task, ok := t.tasks[taskID]; ok {
		now := time.Now().UTC()
		task.Status = "completed"
		task.CompletedAt = &now
		task.Result = result
	}
}

// Failed records a task failure
func (t *TaskTracker) Failed(taskID string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if task, ok := t.tasks[taskID]; ok {
		now := time.Now().UTC()
		task.Status = "failed"
		task.CompletedAt = &now
		task.Error = err.Error()
	}
}

// Get returns a task's status, or false when the id is unknown
func (t *TaskTracker) Get(taskID string) (*models.TaskStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	task, ok := t.tasks[taskID]
	if !ok {
		return nil, false
	}

	// Copy so callers cannot mutate tracked state
	copied := *task
	return &copied, true
}
