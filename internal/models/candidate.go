package models

import (
	"time"

	"github.com/google/uuid"
)

// Candidate lifecycle states. pending_creation is the initial state, completed
// is terminal, failed is retryable.
const (
	StatusPendingCreation = "pending_creation"
	StatusCompleted       = "completed"
	StatusFailed          = "failed"
)

// AttributeValue is a single value inside a Jira Insight attribute entry
type AttributeValue struct {
	Value string `json:"value" dynamodbav:"Value"`
}

// PayloadAttribute is one attribute entry of a Jira Insight create request
type PayloadAttribute struct {
	ObjectTypeAttributeID int              `json:"objectTypeAttributeId" dynamodbav:"ObjectTypeAttributeID"`
	ObjectAttributeValues []AttributeValue `json:"objectAttributeValues" dynamodbav:"ObjectAttributeValues"`
}

// JiraCreatePayload is the exact wire body POSTed to the Insight object
// create endpoint.
type JiraCreatePayload struct {
	ObjectTypeID string             `json:"objectTypeId" dynamodbav:"ObjectTypeID"`
	Attributes   []PayloadAttribute `json:"attributes" dynamodbav:"Attributes"`
}

// VMSummary is a flattened snapshot of a VM taken at diff time, used for
// display and audit independently of the wire payload shape.
type VMSummary struct {
	IP          string  `json:"ip" dynamodbav:"IP"`
	CPU         int     `json:"cpu" dynamodbav:"CPU"`
	Memory      float64 `json:"memory" dynamodbav:"Memory"`
	Disk        float64 `json:"disk" dynamodbav:"Disk"`
	Site        string  `json:"site" dynamodbav:"Site"`
	Zone        string  `json:"zone" dynamodbav:"Zone"`
	Environment string  `json:"environment" dynamodbav:"Environment"`
}

// MissingVMCandidate tracks the posting lifecycle of one vCenter VM that has
// no matching Jira asset. The payload is computed once at diff time and
// reused verbatim at post time.
type MissingVMCandidate struct {
	ID     string `json:"id" dynamodbav:"ID"`
	VMName string `json:"vm_name" dynamodbav:"VMName"`

	VMSummary        VMSummary         `json:"vm_summary" dynamodbav:"VMSummary"`
	JiraAssetPayload JiraCreatePayload `json:"jira_asset_payload" dynamodbav:"JiraAssetPayload"`

	Status     string `json:"status" dynamodbav:"Status"`
	RetryCount int    `json:"retry_count" dynamodbav:"RetryCount"`

	FailureReason     string `json:"failure_reason,omitempty" dynamodbav:"FailureReason,omitempty"`
	FailureStatusCode int    `json:"failure_status_code,omitempty" dynamodbav:"FailureStatusCode,omitempty"`

	JiraObjectKey string `json:"jira_object_key,omitempty" dynamodbav:"JiraObjectKey,omitempty"`
	JiraResponse  string `json:"jira_response,omitempty" dynamodbav:"JiraResponse,omitempty"`

	CreatedDate  time.Time  `json:"created_date" dynamodbav:"CreatedDate"`
	LastAttempt  *time.Time `json:"last_attempt,omitempty" dynamodbav:"LastAttempt,omitempty"`
	JiraPostDate *time.Time `json:"jira_post_date,omitempty" dynamodbav:"JiraPostDate,omitempty"`

	Source string `json:"source,omitempty" dynamodbav:"Source,omitempty"`
}

// CandidateID derives the stable candidate identifier from the source
// vCenter VM identity. Repeated diff runs over the same VM always produce the
// same id, so re-diffing cannot create duplicate candidates.
func CandidateID(vmUUID, mobID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(vmUUID+"|"+mobID)).String()
}
