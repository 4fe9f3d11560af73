package services

import (
	"context"
	"errors"
	"testing"

	"github.com/inframirror/inframirror/internal/jira"
	"github.com/inframirror/inframirror/internal/models"
)

type fakeVCenterRepo struct {
	vms []models.VCenterVM
}

func (f *fakeVCenterRepo) GetAll(ctx context.Context) ([]models.VCenterVM, error) {
	return f.vms, nil
}

func (f *fakeVCenterRepo) GetByMobID(ctx context.Context, mobID string) (*models.VCenterVM, error) {
	for i := range f.vms {
		if f.vms[i].MobID == mobID {
			return &f.vms[i], nil
		}
	}
	return nil, errors.New("record not found")
}

func (f *fakeVCenterRepo) Count(ctx context.Context) (int, error) {
	return len(f.vms), nil
}

func (f *fakeVCenterRepo) DeleteAll(ctx context.Context) (int, error) {
	n := len(f.vms)
	f.vms = nil
	return n, nil
}

type fakeJiraRepo struct {
	vms []models.JiraVM
}

func (f *fakeJiraRepo) GetAll(ctx context.Context) ([]models.JiraVM, error) {
	return f.vms, nil
}

func (f *fakeJiraRepo) Count(ctx context.Context) (int, error) {
	return len(f.vms), nil
}

func (f *fakeJiraRepo) DeleteAll(ctx context.Context) (int, error) {
	n := len(f.vms)
	f.vms = nil
	return n, nil
}

func diffSchema() *jira.SchemaConfig {
	return &jira.SchemaConfig{
		ObjectTypeID:   "3191",
		ObjectSchemaID: "242",
		DefaultSite:    "Main",
		DefaultZone:    "Bank",
		AttributeIDs: map[string]int{
			jira.FieldVMName:    41687,
			jira.FieldIPAddress: 41692,
			jira.FieldSite:      41689,
			jira.FieldZone:      41690,
		},
	}
}

// TestDiffRun tests a full reconciliation cycle: matched VMs produce nothing,
// missing VMs become pending candidates, unmatchable VMs are counted
func TestDiffRun(t *testing.T) {
	vcenterRepo := &fakeVCenterRepo{vms: []models.VCenterVM{
		{Name: "matched-vm", MobID: "vm-1", UUID: "uuid-1", IPAddress: "10.0.0.1"},
		{Name: "missing-vm", MobID: "vm-2", UUID: "uuid-2", IPAddress: "10.0.0.2"},
		{Name: "no-ip-vm", MobID: "vm-3", UUID: "uuid-3"},
	}}
	jiraRepo := &fakeJiraRepo{vms: []models.JiraVM{
		{Name: "matched-vm", JiraObjectKey: "ITAM-1", IPAddress: "10.0.0.1"},
	}}
	candidateRepo := newFakeCandidateRepo()

	service := NewDiffService(vcenterRepo, jiraRepo, candidateRepo)
	report, err := service.Run(context.Background(), diffSchema())
	if err != nil {
		t.Fatalf("Expected report, got %v", err)
	}

	if report.TotalVCenterVMs != 3 {
		t.Errorf("Expected 3 vCenter VMs, got %d", report.TotalVCenterVMs)
	}
	if report.TotalJiraIPs != 1 {
		t.Errorf("Expected 1 Jira IP, got %d", report.TotalJiraIPs)
	}
	if report.MissingCount != 1 || report.ProcessedMissing != 1 {
		t.Errorf("Expected 1 missing processed, got %d/%d", report.MissingCount, report.ProcessedMissing)
	}
	if report.UnmatchableVMs != 1 {
		t.Errorf("Expected 1 unmatchable, got %d", report.UnmatchableVMs)
	}
	if report.Errors != 0 {
		t.Errorf("Expected no errors, got %d", report.Errors)
	}

	candidates, _ := candidateRepo.ListPending(context.Background(), 0)
	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}
	c := candidates[0]
	if c.VMName != "missing-vm" {
		t.Errorf("Expected candidate for missing-vm, got %q", c.VMName)
	}
	if c.Status != models.StatusPendingCreation {
		t.Errorf("Expected pending status, got %q", c.Status)
	}
	if c.VMSummary.IP != "10.0.0.2" {
		t.Errorf("Expected summary IP 10.0.0.2, got %q", c.VMSummary.IP)
	}
	if c.VMSummary.Site != "Main" || c.VMSummary.Zone != "Bank" {
		t.Errorf("Expected default site/zone, got %q/%q", c.VMSummary.Site, c.VMSummary.Zone)
	}
	if c.ID != models.CandidateID("uuid-2", "vm-2") {
		t.Errorf("Candidate id is not deterministic: %q", c.ID)
	}
}

// TestDiffRunConfigurationError tests that an unusable schema aborts
// before any inventory read or candidate write
func TestDiffRunConfigurationError(t *testing.T) {
	candidateRepo := newFakeCandidateRepo()
	service := NewDiffService(&fakeVCenterRepo{}, &fakeJiraRepo{}, candidateRepo)

	schema := diffSchema()
	schema.ObjectTypeID = ""

	_, err := service.Run(context.Background(), schema)
	if !errors.Is(err, jira.ErrConfiguration) {
		t.Fatalf("Expected configuration error, got %v", err)
	}

	candidates, _ := candidateRepo.ListByStatus(context.Background(), "", 0, 0)
	if len(candidates) != 0 {
		t.Errorf("Expected no candidates written, got %d", len(candidates))
	}
}

// TestDiffRunUpsertPreservesStatus tests that re-running the diff never
// regresses an existing candidate's lifecycle state
func TestDiffRunUpsertPreservesStatus(t *testing.T) {
	id := models.CandidateID("uuid-2", "vm-2")
	existing := models.MissingVMCandidate{
		ID:         id,
		VMName:     "missing-vm",
		Status:     models.StatusFailed,
		RetryCount: 2,
		VMSummary:  models.VMSummary{IP: "10.0.0.2"},
	}
	candidateRepo := newFakeCandidateRepo(existing)

	vcenterRepo := &fakeVCenterRepo{vms: []models.VCenterVM{
		{Name: "missing-vm", MobID: "vm-2", UUID: "uuid-2", IPAddress: "10.0.0.2"},
	}}
	service := NewDiffService(vcenterRepo, &fakeJiraRepo{}, candidateRepo)

	if _, err := service.Run(context.Background(), diffSchema()); err != nil {
		t.Fatalf("Expected report, got %v", err)
	}

	c, _ := candidateRepo.Get(context.Background(), id)
	if c.Status != models.StatusFailed || c.RetryCount != 2 {
		t.Errorf("Re-run regressed candidate state: %q/%d", c.Status, c.RetryCount)
	}
}

// TestDiffRunCleansResolvedCandidates tests that a pending candidate whose
// address now exists in Jira is dropped, while completed ones are retained
func TestDiffRunCleansResolvedCandidates(t *testing.T) {
	resolved := models.MissingVMCandidate{
		ID:        "cand-resolved",
		VMName:    "resolved-vm",
		Status:    models.StatusPendingCreation,
		VMSummary: models.VMSummary{IP: "10.0.0.1"},
	}
	completed := models.MissingVMCandidate{
		ID:        "cand-completed",
		VMName:    "done-vm",
		Status:    models.StatusCompleted,
		VMSummary: models.VMSummary{IP: "10.0.0.1"},
	}
	candidateRepo := newFakeCandidateRepo(resolved, completed)

	jiraRepo := &fakeJiraRepo{vms: []models.JiraVM{
		{Name: "resolved-vm", JiraObjectKey: "ITAM-9", IPAddress: "10.0.0.1"},
	}}
	service := NewDiffService(&fakeVCenterRepo{}, jiraRepo, candidateRepo)

	if _, err := service.Run(context.Background(), diffSchema()); err != nil {
		t.Fatalf("Expected report, got %v", err)
	}

	if _, err := candidateRepo.Get(context.Background(), "cand-resolved"); err == nil {
		t.Error("Expected resolved pending candidate to be deleted")
	}
	if _, err := candidateRepo.Get(context.Background(), "cand-completed"); err != nil {
		t.Error("Expected completed candidate to be retained")
	}
}
