package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/inframirror/inframirror/internal/jira"
	"github.com/inframirror/inframirror/internal/models"
)

// fakeCandidateRepo is an in-memory CandidateRepository for service tests
type fakeCandidateRepo struct {
	mu         sync.Mutex
	candidates map[string]models.MissingVMCandidate
}

func newFakeCandidateRepo(candidates ...models.MissingVMCandidate) *fakeCandidateRepo {
	repo := &fakeCandidateRepo{candidates: make(map[string]models.MissingVMCandidate)}
	for _, c := range candidates {
		repo.candidates[c.ID] = c
	}
	return repo
}

func (f *fakeCandidateRepo) Upsert(ctx context.Context, candidate *models.MissingVMCandidate) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.candidates[candidate.ID]; exists {
		return false, nil
	}
	f.candidates[candidate.ID] = *candidate
	return true, nil
}

func (f *fakeCandidateRepo) Get(ctx context.Context, id string) (*models.MissingVMCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.candidates[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return &c, nil
}

func (f *fakeCandidateRepo) Update(ctx context.Context, candidate *models.MissingVMCandidate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candidates[candidate.ID] = *candidate
	return nil
}

func (f *fakeCandidateRepo) list(filter func(*models.MissingVMCandidate) bool) []models.MissingVMCandidate {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MissingVMCandidate
	for _, c := range f.candidates {
		c := c
		if filter(&c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedDate.Before(out[j].CreatedDate) })
	return out
}

func (f *fakeCandidateRepo) ListPending(ctx context.Context, limit int) ([]models.MissingVMCandidate, error) {
	out := f.list(func(c *models.MissingVMCandidate) bool {
		return c.Status == models.StatusPendingCreation
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCandidateRepo) ListFailed(ctx context.Context, maxRetries int) ([]models.MissingVMCandidate, error) {
	return f.list(func(c *models.MissingVMCandidate) bool {
		return c.Status == models.StatusFailed && c.RetryCount < maxRetries
	}), nil
}

func (f *fakeCandidateRepo) ListByStatus(ctx context.Context, status string, skip, limit int) ([]models.MissingVMCandidate, error) {
	out := f.list(func(c *models.MissingVMCandidate) bool {
		return status == "" || c.Status == status
	})
	if skip >= len(out) {
		return []models.MissingVMCandidate{}, nil
	}
	out = out[skip:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCandidateRepo) GetStats(ctx context.Context) (*models.PosterStats, error) {
	stats := &models.PosterStats{}
	for _, c := range f.candidates {
		switch c.Status {
		case models.StatusPendingCreation:
			stats.PendingVMs++
		case models.StatusFailed:
			stats.FailedVMs++
		case models.StatusCompleted:
			stats.CompletedVMs++
		}
	}
	stats.TotalProcessed = stats.CompletedVMs + stats.FailedVMs
	return stats, nil
}

func (f *fakeCandidateRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.candidates, id)
	return nil
}

func (f *fakeCandidateRepo) DeleteAll(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.candidates)
	f.candidates = make(map[string]models.MissingVMCandidate)
	return n, nil
}

func (f *fakeCandidateRepo) DeleteByStatus(ctx context.Context, status string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for id, c := range f.candidates {
		if c.Status == status {
			delete(f.candidates, id)
			n++
		}
	}
	return n, nil
}

// mockCreator scripts per-VM outcomes keyed by the vm_name attribute carried
// in the payload's first attribute value
type mockCreator struct {
	mu       sync.Mutex
	calls    int
	times    []time.Time
	outcomes map[string]mockOutcome
}

type mockOutcome struct {
	result *jira.CreateResult
	err    error
}

func (m *mockCreator) CreateObject(ctx context.Context, payload *models.JiraCreatePayload) (*jira.CreateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.times = append(m.times, time.Now())

	name := ""
	if len(payload.Attributes) > 0 && len(payload.Attributes[0].ObjectAttributeValues) > 0 {
		name = payload.Attributes[0].ObjectAttributeValues[0].Value
	}

	if outcome, ok := m.outcomes[name]; ok {
		return outcome.result, outcome.err
	}
	return &jira.CreateResult{StatusCode: 201, ObjectKey: "ITAM-" + name, Body: "{}"}, nil
}

func baseTime(seq int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(seq) * time.Minute)
}

func pendingCandidate(name string, seq int) models.MissingVMCandidate {
	return models.MissingVMCandidate{
		ID:     fmt.Sprintf("cand-%s", name),
		VMName: name,
		Status: models.StatusPendingCreation,
		JiraAssetPayload: models.JiraCreatePayload{
			ObjectTypeID: "3191",
			Attributes: []models.PayloadAttribute{
				{
					ObjectTypeAttributeID: 41687,
					ObjectAttributeValues: []models.AttributeValue{{Value: name}},
				},
			},
		},
		CreatedDate: baseTime(seq),
	}
}

func newTestPoster(repo *fakeCandidateRepo, creator jira.Creator) *PosterService {
	s := NewPosterService(repo, PosterDefaults{
		JiraToken:  "token",
		CreateURL:  "http://jira.local/create",
		MaxRetries: 3,
		Limit:      50,
	})
	s.newCreator = func(token, createURL string) jira.Creator { return creator }
	return s
}

// TestPostBatchMixedOutcomes tests that one candidate's failure never aborts
// the batch and the counters always reconcile
func TestPostBatchMixedOutcomes(t *testing.T) {
	repo := newFakeCandidateRepo(
		pendingCandidate("vm-a", 1),
		pendingCandidate("vm-b", 2),
		pendingCandidate("vm-c", 3),
	)
	creator := &mockCreator{outcomes: map[string]mockOutcome{
		"vm-b": {result: &jira.CreateResult{StatusCode: 400, Body: `{"errorMessages":["bad attribute"]}`}},
	}}

	result, err := newTestPoster(repo, creator).PostBatch(context.Background(), PostConfig{})
	if err != nil {
		t.Fatalf("Expected batch result, got %v", err)
	}

	if result.Processed != 3 {
		t.Errorf("Expected 3 processed, got %d", result.Processed)
	}
	if result.Successful != 2 || result.Failed != 1 {
		t.Errorf("Expected 2 successful and 1 failed, got %d/%d", result.Successful, result.Failed)
	}
	if result.Processed != result.Successful+result.Failed {
		t.Errorf("Counters do not reconcile: %d != %d + %d", result.Processed, result.Successful, result.Failed)
	}
	if len(result.Results) != 3 {
		t.Errorf("Expected 3 per-candidate results, got %d", len(result.Results))
	}

	failed, _ := repo.Get(context.Background(), "cand-vm-b")
	if failed.Status != models.StatusFailed {
		t.Errorf("Expected vm-b failed, got %q", failed.Status)
	}
	if failed.RetryCount != 1 {
		t.Errorf("Expected retry count 1, got %d", failed.RetryCount)
	}
	if failed.FailureStatusCode != 400 {
		t.Errorf("Expected failure status 400, got %d", failed.FailureStatusCode)
	}

	completed, _ := repo.Get(context.Background(), "cand-vm-a")
	if completed.Status != models.StatusCompleted {
		t.Errorf("Expected vm-a completed, got %q", completed.Status)
	}
	if completed.JiraObjectKey != "ITAM-vm-a" {
		t.Errorf("Expected object key recorded, got %q", completed.JiraObjectKey)
	}
	if completed.JiraPostDate == nil {
		t.Error("Expected post date recorded")
	}
}

// TestPostBatchTransportFailure tests that a connection-level failure marks
// the candidate failed with no status code
func TestPostBatchTransportFailure(t *testing.T) {
	repo := newFakeCandidateRepo(pendingCandidate("vm-a", 1))
	creator := &mockCreator{outcomes: map[string]mockOutcome{
		"vm-a": {err: errors.New("connection refused")},
	}}

	result, err := newTestPoster(repo, creator).PostBatch(context.Background(), PostConfig{})
	if err != nil {
		t.Fatalf("Expected batch result, got %v", err)
	}
	if result.Failed != 1 {
		t.Errorf("Expected 1 failed, got %d", result.Failed)
	}

	c, _ := repo.Get(context.Background(), "cand-vm-a")
	if c.Status != models.StatusFailed || c.FailureStatusCode != 0 {
		t.Errorf("Expected failed with no status code, got %q/%d", c.Status, c.FailureStatusCode)
	}
}

// TestPostBatchMissingObjectKey tests that a 2xx response without an object
// key is a failure
func TestPostBatchMissingObjectKey(t *testing.T) {
	repo := newFakeCandidateRepo(pendingCandidate("vm-a", 1))
	creator := &mockCreator{outcomes: map[string]mockOutcome{
		"vm-a": {result: &jira.CreateResult{StatusCode: 200, Body: `{"id":991}`}},
	}}

	result, err := newTestPoster(repo, creator).PostBatch(context.Background(), PostConfig{})
	if err != nil {
		t.Fatalf("Expected batch result, got %v", err)
	}
	if result.Successful != 0 || result.Failed != 1 {
		t.Errorf("Expected 0/1, got %d/%d", result.Successful, result.Failed)
	}
}

// TestPostBatchLimit tests that the batch honors the configured limit
func TestPostBatchLimit(t *testing.T) {
	repo := newFakeCandidateRepo(
		pendingCandidate("vm-a", 1),
		pendingCandidate("vm-b", 2),
		pendingCandidate("vm-c", 3),
	)
	creator := &mockCreator{}

	result, err := newTestPoster(repo, creator).PostBatch(context.Background(), PostConfig{Limit: 2})
	if err != nil {
		t.Fatalf("Expected batch result, got %v", err)
	}
	if result.Processed != 2 {
		t.Errorf("Expected 2 processed, got %d", result.Processed)
	}
	if creator.calls != 2 {
		t.Errorf("Expected 2 outbound calls, got %d", creator.calls)
	}
}

// TestPostBatchDelayBetweenSubmissions tests that the configured delay
// elapses between consecutive submissions but not after the last one
func TestPostBatchDelayBetweenSubmissions(t *testing.T) {
	repo := newFakeCandidateRepo(
		pendingCandidate("vm-a", 1),
		pendingCandidate("vm-b", 2),
		pendingCandidate("vm-c", 3),
	)
	creator := &mockCreator{}

	const delay = 50 * time.Millisecond
	result, err := newTestPoster(repo, creator).PostBatch(context.Background(), PostConfig{
		DelaySeconds: delay.Seconds(),
	})
	returned := time.Now()
	if err != nil {
		t.Fatalf("Expected batch result, got %v", err)
	}
	if result.Processed != 3 {
		t.Fatalf("Expected 3 processed, got %d", result.Processed)
	}

	if len(creator.times) != 3 {
		t.Fatalf("Expected 3 timestamped calls, got %d", len(creator.times))
	}
	for i := 1; i < len(creator.times); i++ {
		if gap := creator.times[i].Sub(creator.times[i-1]); gap < delay {
			t.Errorf("Gap between call %d and %d is %v, want at least %v", i, i+1, gap, delay)
		}
	}

	// The pause throttles between requests only; nothing sleeps after the
	// final candidate
	if tail := returned.Sub(creator.times[2]); tail >= delay {
		t.Errorf("Batch took %v after the last call, expected no trailing delay", tail)
	}
}

// TestPostSelected tests posting an explicit candidate subset by id: only the
// selected ids are attempted, unknown ids are reported as failures, and the
// counters still reconcile
func TestPostSelected(t *testing.T) {
	exhausted := pendingCandidate("vm-b", 2)
	exhausted.Status = models.StatusFailed
	exhausted.RetryCount = 5

	repo := newFakeCandidateRepo(
		pendingCandidate("vm-a", 1),
		exhausted,
		pendingCandidate("vm-c", 3),
	)
	creator := &mockCreator{}

	result, err := newTestPoster(repo, creator).PostSelected(context.Background(),
		[]string{"cand-vm-a", "cand-vm-b", "cand-unknown"}, PostConfig{})
	if err != nil {
		t.Fatalf("Expected batch result, got %v", err)
	}

	if result.Processed != 3 {
		t.Errorf("Expected 3 processed, got %d", result.Processed)
	}
	if result.Successful != 2 || result.Failed != 1 {
		t.Errorf("Expected 2 successful and 1 failed, got %d/%d", result.Successful, result.Failed)
	}
	if result.Processed != result.Successful+result.Failed {
		t.Errorf("Counters do not reconcile: %d != %d + %d", result.Processed, result.Successful, result.Failed)
	}
	if creator.calls != 2 {
		t.Errorf("Expected 2 outbound calls, got %d", creator.calls)
	}

	// Explicit selection posts the candidate regardless of its retry count
	b, _ := repo.Get(context.Background(), "cand-vm-b")
	if b.Status != models.StatusCompleted {
		t.Errorf("Expected selected failed candidate completed, got %q", b.Status)
	}

	// A candidate that was not selected stays untouched
	c, _ := repo.Get(context.Background(), "cand-vm-c")
	if c.Status != models.StatusPendingCreation {
		t.Errorf("Unselected candidate should be untouched, got %q", c.Status)
	}

	// The unknown id surfaces as a failed result
	var unknown *models.PostResult
	for i := range result.Results {
		if result.Results[i].VMName == "cand-unknown" {
			unknown = &result.Results[i]
		}
	}
	if unknown == nil {
		t.Fatal("Expected a result entry for the unknown id")
	}
	if unknown.Status != "failed" || unknown.Error != "candidate not found" {
		t.Errorf("Unexpected unknown-id result: %+v", unknown)
	}
}

// TestPostBatchEmpty tests the degenerate empty batch
func TestPostBatchEmpty(t *testing.T) {
	repo := newFakeCandidateRepo()
	creator := &mockCreator{}

	result, err := newTestPoster(repo, creator).PostBatch(context.Background(), PostConfig{})
	if err != nil {
		t.Fatalf("Expected batch result, got %v", err)
	}
	if result.Processed != 0 || creator.calls != 0 {
		t.Errorf("Expected nothing processed, got %d processed, %d calls", result.Processed, creator.calls)
	}
}

// TestRetryFailed tests retry eligibility: only failed candidates below the
// retry ceiling are attempted again
func TestRetryFailed(t *testing.T) {
	eligible := pendingCandidate("vm-retry", 1)
	eligible.Status = models.StatusFailed
	eligible.RetryCount = 1

	exhausted := pendingCandidate("vm-exhausted", 2)
	exhausted.Status = models.StatusFailed
	exhausted.RetryCount = 3

	pending := pendingCandidate("vm-pending", 3)

	repo := newFakeCandidateRepo(eligible, exhausted, pending)
	creator := &mockCreator{}

	result, err := newTestPoster(repo, creator).RetryFailed(context.Background(), 3, "", "")
	if err != nil {
		t.Fatalf("Expected batch result, got %v", err)
	}

	if result.Processed != 1 {
		t.Fatalf("Expected only the eligible candidate processed, got %d", result.Processed)
	}
	if result.Successful != 1 {
		t.Errorf("Expected retry to succeed, got %d successful", result.Successful)
	}

	c, _ := repo.Get(context.Background(), "cand-vm-retry")
	if c.Status != models.StatusCompleted {
		t.Errorf("Expected retried candidate completed, got %q", c.Status)
	}
	if c.FailureReason != "" {
		t.Errorf("Expected failure reason cleared, got %q", c.FailureReason)
	}

	// Untouched candidates keep their state
	still, _ := repo.Get(context.Background(), "cand-vm-exhausted")
	if still.Status != models.StatusFailed || still.RetryCount != 3 {
		t.Errorf("Exhausted candidate should be untouched, got %q/%d", still.Status, still.RetryCount)
	}
	p, _ := repo.Get(context.Background(), "cand-vm-pending")
	if p.Status != models.StatusPendingCreation {
		t.Errorf("Pending candidate should be untouched, got %q", p.Status)
	}
}

// TestRetryAccumulatesFailures tests that repeated failures keep incrementing
// the retry count
func TestRetryAccumulatesFailures(t *testing.T) {
	failing := pendingCandidate("vm-a", 1)
	failing.Status = models.StatusFailed
	failing.RetryCount = 1

	repo := newFakeCandidateRepo(failing)
	creator := &mockCreator{outcomes: map[string]mockOutcome{
		"vm-a": {result: &jira.CreateResult{StatusCode: 503, Body: "unavailable"}},
	}}

	if _, err := newTestPoster(repo, creator).RetryFailed(context.Background(), 3, "", ""); err != nil {
		t.Fatalf("Expected batch result, got %v", err)
	}

	c, _ := repo.Get(context.Background(), "cand-vm-a")
	if c.RetryCount != 2 {
		t.Errorf("Expected retry count 2, got %d", c.RetryCount)
	}
	if c.FailureStatusCode != 503 {
		t.Errorf("Expected failure status 503, got %d", c.FailureStatusCode)
	}
}
