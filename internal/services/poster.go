package services

import (
	"context"
	"fmt"
	"time"

	"github.com/inframirror/inframirror/internal/jira"
	"github.com/inframirror/inframirror/internal/logger"
	"github.com/inframirror/inframirror/internal/models"
	"github.com/inframirror/inframirror/internal/repository"
)

// PostConfig carries the effective settings for one posting batch. Zero
// values fall back to the service defaults.
type PostConfig struct {
	JiraToken    string
	CreateURL    string
	DelaySeconds float64
	Limit        int
	RetryFailed  bool
	MaxRetries   int
}

// PosterDefaults holds the fallback settings loaded from configuration
type PosterDefaults struct {
	JiraToken    string
	CreateURL    string
	DelaySeconds float64
	Limit        int
	MaxRetries   int
}

// PosterService submits pending candidates to the Insight create endpoint,
// sequentially and rate-limited, and drives their lifecycle transitions.
// Posting is the only writer of candidate status.
type PosterService struct {
	candidateRepo repository.CandidateRepository
	defaults      PosterDefaults

	// newCreator builds the outbound client; swapped in tests
	newCreator func(token, createURL string) jira.Creator
}

// NewPosterService creates a new poster service
func NewPosterService(candidateRepo repository.CandidateRepository, defaults PosterDefaults) *PosterService {
	return &PosterService{
		candidateRepo: candidateRepo,
		defaults:      defaults,
		newCreator: func(token, createURL string) jira.Creator {
			return jira.NewClient(token, createURL)
		},
	}
}

// PostBatch posts up to cfg.Limit candidates. One candidate's failure never
// aborts the batch; the returned result aggregates every per-candidate
// outcome and Processed == Successful + Failed always holds.
func (s *PosterService) PostBatch(ctx context.Context, cfg PostConfig) (*models.BatchResult, error) {
	cfg = s.withDefaults(cfg)
	creator := s.newCreator(cfg.JiraToken, cfg.CreateURL)

	var candidates []models.MissingVMCandidate
	var err error

	if cfg.RetryFailed {
		candidates, err = s.candidateRepo.ListFailed(ctx, cfg.MaxRetries)
		if err != nil {
			return nil, fmt.Errorf("failed to list retryable candidates: %w", err)
		}
		if cfg.Limit > 0 && len(candidates) > cfg.Limit {
			candidates = candidates[:cfg.Limit]
		}
	} else {
		candidates, err = s.candidateRepo.ListPending(ctx, cfg.Limit)
		if err != nil {
			return nil, fmt.Errorf("failed to list pending candidates: %w", err)
		}
	}

	if len(candidates) == 0 {
		logger.Info("No candidates available for posting")
		return &models.BatchResult{
			Status:  "success",
			Message: "No candidates available for posting",
			Results: []models.PostResult{},
		}, nil
	}

	logger.WithFields(map[string]interface{}{
		"count":       len(candidates),
		"retry_batch": cfg.RetryFailed,
	}).Info("Processing candidates for Jira posting")

	result := s.post(ctx, creator, candidates, cfg.DelaySeconds)

	logger.WithFields(map[string]interface{}{
		"processed":       result.Processed,
		"successful":      result.Successful,
		"failed":          result.Failed,
		"processing_time": result.ProcessingTime,
	}).Info("Posting batch completed")

	return result, nil
}

// PostSelected posts an explicit set of candidates by id, in the given order,
// with the same delay and lifecycle handling as a regular batch. Unknown ids
// are reported as failed results without aborting the rest.
func (s *PosterService) PostSelected(ctx context.Context, ids []string, cfg PostConfig) (*models.BatchResult, error) {
	cfg = s.withDefaults(cfg)
	creator := s.newCreator(cfg.JiraToken, cfg.CreateURL)

	var candidates []models.MissingVMCandidate
	var missing []string
	for _, id := range ids {
		candidate, err := s.candidateRepo.Get(ctx, id)
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"candidate_id": id,
				"error":        err.Error(),
			}).Warn("Selected candidate not found")
			missing = append(missing, id)
			continue
		}
		candidates = append(candidates, *candidate)
	}

	logger.WithFields(map[string]interface{}{
		"selected": len(ids),
		"found":    len(candidates),
	}).Info("Processing selected candidates for Jira posting")

	result := s.post(ctx, creator, candidates, cfg.DelaySeconds)

	for _, id := range missing {
		result.Processed++
		result.Failed++
		result.Results = append(result.Results, models.PostResult{
			VMName:  id,
			Status:  "failed",
			Error:   "candidate not found",
			Message: "Failed: candidate not found",
		})
	}
	result.Message = fmt.Sprintf("%d posted, %d failed", result.Successful, result.Failed)

	logger.WithFields(map[string]interface{}{
		"processed":  result.Processed,
		"successful": result.Successful,
		"failed":     result.Failed,
	}).Info("Selected posting completed")

	return result, nil
}

// post runs the sequential posting loop over an already selected candidate
// set. The fixed inter-request pause exists only to throttle the outbound
// rate, so the last candidate is not followed by one.
func (s *PosterService) post(ctx context.Context, creator jira.Creator, candidates []models.MissingVMCandidate, delaySeconds float64) *models.BatchResult {
	result := &models.BatchResult{
		Status:  "success",
		Results: []models.PostResult{},
	}

	start := time.Now()

	for i := range candidates {
		candidate := &candidates[i]

		logger.WithFields(map[string]interface{}{
			"position": fmt.Sprintf("%d/%d", i+1, len(candidates)),
			"vm_name":  candidate.VMName,
		}).Info("Posting candidate to Jira")

		outcome := s.postCandidate(ctx, creator, candidate)

		result.Processed++
		if outcome.Status == "success" {
			result.Successful++
		} else {
			result.Failed++
		}
		result.Results = append(result.Results, outcome)

		if i < len(candidates)-1 && delaySeconds > 0 {
			time.Sleep(time.Duration(delaySeconds * float64(time.Second)))
		}
	}

	result.ProcessingTime = time.Since(start).Seconds()
	result.Message = fmt.Sprintf("%d posted, %d failed", result.Successful, result.Failed)

	return result
}

// RetryFailed posts failed candidates whose retry count is below maxRetries.
// Token and createURL override the configured defaults when non-empty.
func (s *PosterService) RetryFailed(ctx context.Context, maxRetries int, token, createURL string) (*models.BatchResult, error) {
	return s.PostBatch(ctx, PostConfig{
		JiraToken:   token,
		CreateURL:   createURL,
		RetryFailed: true,
		MaxRetries:  maxRetries,
	})
}

// postCandidate submits one candidate's frozen payload and applies the
// resulting lifecycle transition
func (s *PosterService) postCandidate(ctx context.Context, creator jira.Creator, candidate *models.MissingVMCandidate) models.PostResult {
	now := time.Now().UTC()
	candidate.LastAttempt = &now

	createResult, err := creator.CreateObject(ctx, &candidate.JiraAssetPayload)

	switch {
	case err != nil:
		// Transport failure: connection refused, timeout, etc.
		return s.markFailed(ctx, candidate, err.Error(), 0)

	case createResult.StatusCode >= 200 && createResult.StatusCode < 300 && createResult.ObjectKey != "":
		return s.markCompleted(ctx, candidate, createResult)

	case createResult.StatusCode >= 200 && createResult.StatusCode < 300:
		return s.markFailed(ctx, candidate, "create response missing object key", createResult.StatusCode)

	default:
		reason := fmt.Sprintf("HTTP %d: %s", createResult.StatusCode, createResult.Body)
		return s.markFailed(ctx, candidate, reason, createResult.StatusCode)
	}
}

func (s *PosterService) markCompleted(ctx context.Context, candidate *models.MissingVMCandidate, createResult *jira.CreateResult) models.PostResult {
	now := time.Now().UTC()

	candidate.Status = models.StatusCompleted
	candidate.JiraObjectKey = createResult.ObjectKey
	candidate.JiraResponse = createResult.Body
	candidate.JiraPostDate = &now
	candidate.FailureReason = ""
	candidate.FailureStatusCode = 0

	if err := s.candidateRepo.Update(ctx, candidate); err != nil {
		logger.WithFields(map[string]interface{}{
			"vm_name": candidate.VMName,
			"error":   err.Error(),
		}).Error("Failed to persist completed candidate")
	}

	logger.WithFields(map[string]interface{}{
		"vm_name":    candidate.VMName,
		"object_key": createResult.ObjectKey,
	}).Info("Candidate created in Jira")

	return models.PostResult{
		VMName:    candidate.VMName,
		Status:    "success",
		ObjectKey: createResult.ObjectKey,
		Message:   fmt.Sprintf("Created as %s", createResult.ObjectKey),
	}
}

func (s *PosterService) markFailed(ctx context.Context, candidate *models.MissingVMCandidate, reason string, statusCode int) models.PostResult {
	candidate.Status = models.StatusFailed
	candidate.RetryCount++
	candidate.FailureReason = reason
	candidate.FailureStatusCode = statusCode

	if err := s.candidateRepo.Update(ctx, candidate); err != nil {
		logger.WithFields(map[string]interface{}{
			"vm_name": candidate.VMName,
			"error":   err.Error(),
		}).Error("Failed to persist failed candidate")
	}

	logger.WithFields(map[string]interface{}{
		"vm_name":     candidate.VMName,
		"retry_count": candidate.RetryCount,
		"status_code": statusCode,
		"reason":      reason,
	}).Warn("Candidate posting failed")

	return models.PostResult{
		VMName:     candidate.VMName,
		Status:     "failed",
		Error:      reason,
		StatusCode: statusCode,
		Message:    fmt.Sprintf("Failed: %s", reason),
	}
}

func (s *PosterService) withDefaults(cfg PostConfig) PostConfig {
	if cfg.JiraToken == "" {
		cfg.JiraToken = s.defaults.JiraToken
	}
	if cfg.CreateURL == "" {
		cfg.CreateURL = s.defaults.CreateURL
	}
	if cfg.DelaySeconds == 0 {
		cfg.DelaySeconds = s.defaults.DelaySeconds
	}
	if cfg.Limit == 0 {
		cfg.Limit = s.defaults.Limit
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = s.defaults.MaxRetries
	}
	return cfg
}
