package models

import "time"

// JiraVM is the domain model for a VM asset record collected from the
// Jira Insight asset-management system.
type JiraVM struct {
	JiraObjectID  string `json:"jira_object_id,omitempty" dynamodbav:"JiraObjectID,omitempty"`
	JiraObjectKey string `json:"jira_object_key,omitempty" dynamodbav:"JiraObjectKey,omitempty"`

	Name    string `json:"name" dynamodbav:"Name"`
	VMName  string `json:"vm_name,omitempty" dynamodbav:"VMName,omitempty"`
	DNSName string `json:"dns_name,omitempty" dynamodbav:"DNSName,omitempty"`

	// A Jira asset can carry up to three addresses; all of them participate
	// in IP matching.
	IPAddress    string `json:"ip_address,omitempty" dynamodbav:"IPAddress,omitempty"`
	SecondaryIP  string `json:"secondary_ip,omitempty" dynamodbav:"SecondaryIP,omitempty"`
	SecondaryIP2 string `json:"secondary_ip2,omitempty" dynamodbav:"SecondaryIP2,omitempty"`

	CPUCount int     `json:"cpu_count,omitempty" dynamodbav:"CPUCount,omitempty"`
	MemoryGB float64 `json:"memory_gb,omitempty" dynamodbav:"MemoryGB,omitempty"`
	DiskGB   float64 `json:"disk_gb,omitempty" dynamodbav:"DiskGB,omitempty"`

	OperatingSystem string `json:"operating_system,omitempty" dynamodbav:"OperatingSystem,omitempty"`
	Site            string `json:"site,omitempty" dynamodbav:"Site,omitempty"`
	Environment     string `json:"environment,omitempty" dynamodbav:"Environment,omitempty"`

	CreatedDate time.Time `json:"created_date,omitempty" dynamodbav:"CreatedDate,omitempty"`
	LastUpdated time.Time `json:"last_updated,omitempty" dynamodbav:"LastUpdated,omitempty"`
}
