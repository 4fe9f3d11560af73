package services

import (
	"context"
	"fmt"
	"time"

	"github.com/inframirror/inframirror/internal/diff"
	"github.com/inframirror/inframirror/internal/jira"
	"github.com/inframirror/inframirror/internal/logger"
	"github.com/inframirror/inframirror/internal/models"
	"github.com/inframirror/inframirror/internal/repository"
)

// candidateSource identifies which processor produced a candidate record
const candidateSource = "vcenter_diff_processor_ip_only"

// DiffService runs the reconciliation between the collected vCenter and Jira
// inventories: normalize both sides, partition by IP match, build create
// payloads for the missing VMs, and upsert them as posting candidates.
type DiffService struct {
	vcenterRepo   repository.VCenterVMRepository
	jiraRepo      repository.JiraVMRepository
	candidateRepo repository.CandidateRepository
}

// NewDiffService creates a new diff service
func NewDiffService(
	vcenterRepo repository.VCenterVMRepository,
	jiraRepo repository.JiraVMRepository,
	candidateRepo repository.CandidateRepository,
) *DiffService {
	return &DiffService{
		vcenterRepo:   vcenterRepo,
		jiraRepo:      jiraRepo,
		candidateRepo: candidateRepo,
	}
}

// Run executes one diff cycle. The schema is validated before anything is
// read or written; an invalid schema aborts the whole run.
func (s *DiffService) Run(ctx context.Context, schema *jira.SchemaConfig) (*models.DiffReport, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	vcenterVMs, err := s.vcenterRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read vcenter inventory: %w", err)
	}

	jiraVMs, err := s.jiraRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read jira inventory: %w", err)
	}

	normalizedVCenter := make([]diff.NormalizedVM, 0, len(vcenterVMs))
	for i := range vcenterVMs {
		normalizedVCenter = append(normalizedVCenter, diff.NormalizeVCenter(&vcenterVMs[i]))
	}

	normalizedJira := make([]diff.NormalizedVM, 0, len(jiraVMs))
	for i := range jiraVMs {
		normalizedJira = append(normalizedJira, diff.NormalizeJira(&jiraVMs[i]))
	}

	jiraIPs := diff.JiraIPSet(normalizedJira)
	result := diff.DiffAgainstIPSet(normalizedVCenter, jiraIPs)

	// Pending candidates whose address now exists in Jira were resolved out
	// of band; drop them. Completed candidates are kept as historical record.
	if err := s.cleanupResolved(ctx, jiraIPs); err != nil {
		logger.WithError(err).Error("Resolved-candidate cleanup failed")
	}

	processed := 0
	errors := 0
	for i := range result.Missing {
		vm := &result.Missing[i]

		payload, summary, err := jira.BuildPayload(vm, schema)
		if err != nil {
			// Schema was validated up front, so this is per-VM trouble
			logger.WithFields(map[string]interface{}{
				"vm_name": vm.Name,
				"error":   err.Error(),
			}).Error("Failed to build create payload")
			errors++
			continue
		}

		candidate := &models.MissingVMCandidate{
			ID:               models.CandidateID(vm.UUID, vm.MobID),
			VMName:           vm.Name,
			VMSummary:        *summary,
			JiraAssetPayload: *payload,
			Status:           models.StatusPendingCreation,
			CreatedDate:      time.Now().UTC(),
			Source:           candidateSource,
		}

		if _, err := s.candidateRepo.Upsert(ctx, candidate); err != nil {
			logger.WithFields(map[string]interface{}{
				"vm_name": vm.Name,
				"error":   err.Error(),
			}).Error("Failed to upsert candidate")
			errors++
			continue
		}
		processed++
	}

	processingTime := time.Since(start).Seconds()

	report := &models.DiffReport{
		Status:           "success",
		Message:          fmt.Sprintf("%d missing VMs processed successfully", processed),
		TotalVCenterVMs:  len(vcenterVMs),
		TotalJiraIPs:     len(jiraIPs),
		MissingCount:     len(result.Missing),
		ProcessedMissing: processed,
		UnmatchableVMs:   len(result.Unmatchable),
		Errors:           errors,
		ProcessingTime:   processingTime,
	}
	if len(result.Missing) == 0 {
		report.Message = "All vCenter VMs with valid IPs exist in Jira"
	}

	logger.WithFields(map[string]interface{}{
		"total_vcenter":   report.TotalVCenterVMs,
		"total_jira_ips":  report.TotalJiraIPs,
		"missing":         report.MissingCount,
		"processed":       report.ProcessedMissing,
		"unmatchable":     report.UnmatchableVMs,
		"errors":          report.Errors,
		"processing_time": report.ProcessingTime,
	}).Info("Diff run completed")

	return report, nil
}

// cleanupResolved deletes non-terminal candidates whose address is now
// present in the Jira inventory
func (s *DiffService) cleanupResolved(ctx context.Context, jiraIPs map[string]struct{}) error {
	pending, err := s.candidateRepo.ListByStatus(ctx, models.StatusPendingCreation, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to list pending candidates: %w", err)
	}

	failed, err := s.candidateRepo.ListByStatus(ctx, models.StatusFailed, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to list failed candidates: %w", err)
	}

	resolved := 0
	for _, candidate := range append(pending, failed...) {
		ip := candidate.VMSummary.IP
		if ip == "" {
			continue
		}
		if _, ok := jiraIPs[ip]; !ok {
			continue
		}

		if err := s.candidateRepo.Delete(ctx, candidate.ID); err != nil {
			logger.WithFields(map[string]interface{}{
				"candidate_id": candidate.ID,
				"vm_name":      candidate.VMName,
				"error":        err.Error(),
			}).Error("Failed to delete resolved candidate")
			continue
		}
		resolved++
	}

	if resolved > 0 {
		logger.WithField("resolved", resolved).Info("Removed candidates resolved out of band")
	}

	return nil
}
