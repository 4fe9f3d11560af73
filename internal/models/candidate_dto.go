package models

import "time"

// DiffRequest carries optional per-request overrides for a diff run. Any
// field left empty falls back to the value loaded from configuration.
type DiffRequest struct {
	ObjectTypeID   string `json:"object_type_id,omitempty"`
	ObjectSchemaID string `json:"object_schema_id,omitempty"`
	DefaultSite    string `json:"default_site,omitempty"`
	DefaultZone    string `json:"default_zone,omitempty"`
}

// DiffReport is the structured summary returned by every diff run
type DiffReport struct {
	Status           string  `json:"status"`
	Message          string  `json:"message"`
	TotalVCenterVMs  int     `json:"total_vcenter_vms"`
	TotalJiraIPs     int     `json:"total_jira_vms"`
	MissingCount     int     `json:"missing_vms_count"`
	ProcessedMissing int     `json:"processed_missing_vms"`
	UnmatchableVMs   int     `json:"unmatchable_vms"`
	Errors           int     `json:"errors"`
	ProcessingTime   float64 `json:"processing_time"`
}

// PostRequest carries settings for a posting batch
type PostRequest struct {
	JiraToken    string  `json:"jira_token,omitempty"`
	CreateURL    string  `json:"create_url,omitempty"`
	DelaySeconds float64 `json:"delay_seconds,omitempty"`
	Limit        int     `json:"limit,omitempty"`
	RetryFailed  bool    `json:"retry_failed,omitempty"`
	MaxRetries   int     `json:"max_retries,omitempty"`
}

// SelectedPostRequest carries an explicit set of candidate ids to post
type SelectedPostRequest struct {
	VMIDs        []string `json:"vm_ids" binding:"required"`
	JiraToken    string   `json:"jira_token,omitempty"`
	CreateURL    string   `json:"create_url,omitempty"`
	DelaySeconds float64  `json:"delay_seconds,omitempty"`
}

// RetryRequest carries settings for retrying failed candidates
type RetryRequest struct {
	MaxRetries int    `json:"max_retries,omitempty"`
	JiraToken  string `json:"jira_token,omitempty"`
	CreateURL  string `json:"create_url,omitempty"`
}

// PostResult is the per-candidate outcome inside a batch result
type PostResult struct {
	VMName     string `json:"vm_name"`
	Status     string `json:"status"`
	ObjectKey  string `json:"object_key,omitempty"`
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Message    string `json:"message"`
}

// BatchResult aggregates the outcome of one posting batch.
// Processed == Successful + Failed always holds.
type BatchResult struct {
	Status         string       `json:"status"`
	Message        string       `json:"message,omitempty"`
	Processed      int          `json:"processed"`
	Successful     int          `json:"successful"`
	Failed         int          `json:"failed"`
	Results        []PostResult `json:"results"`
	ProcessingTime float64      `json:"processing_time"`
}

// FailedVMDetail is a compact view of a failed candidate for stats reporting
type FailedVMDetail struct {
	VMName        string `json:"vm_name"`
	RetryCount    int    `json:"retry_count"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// PosterStats reports candidate counts by lifecycle state
type PosterStats struct {
	PendingVMs      int              `json:"pending_vms"`
	FailedVMs       int              `json:"failed_vms"`
	CompletedVMs    int              `json:"completed_vms"`
	TotalProcessed  int              `json:"total_processed"`
	FailedVMDetails []FailedVMDetail `json:"failed_vm_details"`
	LastCheck       time.Time        `json:"last_check"`
}

// CandidateListResponse is the paged listing response for candidates
type CandidateListResponse struct {
	Candidates []MissingVMCandidate `json:"candidates"`
	Total      int                  `json:"total"`
	Skip       int                  `json:"skip"`
	Limit      int                  `json:"limit"`
}

// VMListResponse is the paged listing response for vCenter VMs
type VMListResponse struct {
	VMs   []VCenterVM `json:"vms"`
	Total int         `json:"total"`
	Skip  int         `json:"skip"`
	Limit int         `json:"limit"`
}

// JiraVMListResponse is the paged listing response for Jira VM assets
type JiraVMListResponse struct {
	VMs   []JiraVM `json:"vms"`
	Total int      `json:"total"`
	Skip  int      `json:"skip"`
	Limit int      `json:"limit"`
}

// DeleteResponse reports the number of records removed by a bulk purge
type DeleteResponse struct {
	Deleted int    `json:"deleted"`
	Message string `json:"message"`
}

// TaskStatus describes one background task submitted via an -async endpoint
type TaskStatus struct {
	TaskID      string      `json:"task_id"`
	Kind        string      `json:"kind"`
	Status      string      `json:"status"` // "queued", "running", "completed", "failed"
	SubmittedAt time.Time   `json:"submitted_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Result      interface{} `json:"result,omitempty"`
	Error       string      `json:"error,omitempty"`
}
