package queue

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// TestTaskQueueEnqueue tests basic enqueue and consumption
func TestTaskQueueEnqueue(t *testing.T) {
	q := NewTaskQueue(2)
	defer q.Close()

	task := &Task{ID: "t-1", Kind: TaskDiff}
	if err := q.Enqueue(task); err != nil {
		t.Fatalf("Expected enqueue to succeed, got %v", err)
	}

	select {
	case got := <-q.Tasks():
		if got.ID != "t-1" {
			t.Errorf("Expected task t-1, got %q", got.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for task")
	}
}

// TestTaskQueueClosed tests that a closed queue rejects new work instead of
// panicking, and that closing twice is safe
func TestTaskQueueClosed(t *testing.T) {
	q := NewTaskQueue(1)
	q.Close()

	for i := 0; i < 10; i++ {
		err := q.Enqueue(&Task{ID: "t-1", Kind: TaskPost})
		if !errors.Is(err, ErrQueueClosed) {
			t.Fatalf("Expected ErrQueueClosed, got %v", err)
		}
	}

	// Second close must not panic
	q.Close()
}

// TestTaskQueueConcurrentEnqueueClose tests that enqueues racing a close
// either succeed or get ErrQueueClosed, never panic
func TestTaskQueueConcurrentEnqueueClose(t *testing.T) {
	// Buffer larger than the total send count so a blocked send can never
	// hold the lock against Close
	q := NewTaskQueue(256)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				err := q.Enqueue(&Task{ID: "t", Kind: TaskDiff})
				if err != nil && !errors.Is(err, ErrQueueClosed) {
					t.Errorf("Unexpected enqueue error: %v", err)
					return
				}
			}
		}()
	}

	q.Close()
	wg.Wait()
}

// TestWorkerPoolProcessing tests that queued tasks reach the handler and the
// pool drains cleanly on close
func TestWorkerPoolProcessing(t *testing.T) {
	q := NewTaskQueue(10)

	var mu sync.Mutex
	seen := map[string]bool{}

	pool := NewWorkerPool(q, 1)
	pool.Start(func(task *Task) error {
		mu.Lock()
		seen[task.ID] = true
		mu.Unlock()
		return nil
	})

	for _, id := range []string{"t-1", "t-2", "t-3"} {
		if err := q.Enqueue(&Task{ID: id, Kind: TaskDiff}); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	q.Close()
	pool.Wait()

	mu.Lock()
	defer mu.Unlock()
	for _, id := range []string{"t-1", "t-2", "t-3"} {
		if !seen[id] {
			t.Errorf("Task %s never reached the handler", id)
		}
	}
}

// TestTaskTracker tests the queued/running/completed/failed transitions
func TestTaskTracker(t *testing.T) {
	tracker := NewTaskTracker()

	tracker.Queued("t-1", TaskDiff)
	status, ok := tracker.Get("t-1")
	if !ok {
		t.Fatal("Expected tracked task")
	}
	if status.Status != "queued" || status.Kind != string(TaskDiff) {
		t.Errorf("Unexpected initial status: %+v", status)
	}

	tracker.Running("t-1")
	status, _ = tracker.Get("t-1")
	if status.Status != "running" {
		t.Errorf("Expected running, got %q", status.Status)
	}

	tracker.Completed("t-1", map[string]int{"processed": 3})
	status, _ = tracker.Get("t-1")
	if status.Status != "completed" || status.CompletedAt == nil || status.Result == nil {
		t.Errorf("Unexpected completed status: %+v", status)
	}

	tracker.Queued("t-2", TaskPost)
	tracker.Failed("t-2", errors.New("boom"))
	status, _ = tracker.Get("t-2")
	if status.Status != "failed" || status.Error != "boom" {
		t.Errorf("Unexpected failed status: %+v", status)
	}

	if _, ok := tracker.Get("unknown"); ok {
		t.Error("Expected unknown id to miss")
	}
}

// TestTaskTrackerReturnsCopy tests that callers cannot mutate tracked state
func TestTaskTrackerReturnsCopy(t *testing.T) {
	tracker := NewTaskTracker()
	tracker.Queued("t-1", TaskDiff)

	status, _ := tracker.Get("t-1")
	status.Status = "tampered"

	fresh, _ := tracker.Get("t-1")
	if fresh.Status != "queued" {
		t.Errorf("Tracked state was mutated externally: %q", fresh.Status)
	}
}
