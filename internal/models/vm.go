package models

import "time"

// VM power states as reported by vCenter
const (
	PowerStateOn        = "poweredOn"
	PowerStateOff       = "poweredOff"
	PowerStateSuspended = "suspended"
)

// DiskInfo represents a single virtual disk attached to a VM
type DiskInfo struct {
	Label      string  `json:"label" dynamodbav:"Label"`
	CapacityKB int64   `json:"capacity_kb" dynamodbav:"CapacityKB"`
	CapacityGB float64 `json:"capacity_gb" dynamodbav:"CapacityGB"`
	DiskMode   string  `json:"disk_mode,omitempty" dynamodbav:"DiskMode,omitempty"`
}

// NetworkInfo represents a network adapter attached to a VM
type NetworkInfo struct {
	Label       string `json:"label" dynamodbav:"Label"`
	MacAddress  string `json:"mac_address,omitempty" dynamodbav:"MacAddress,omitempty"`
	IPAddress   string `json:"ip_address,omitempty" dynamodbav:"IPAddress,omitempty"`
	NetworkName string `json:"network_name,omitempty" dynamodbav:"NetworkName,omitempty"`
}

// VCenterVM is the domain model for a virtual machine collected from vCenter.
// Records are written by the collection collaborator and treated as immutable
// until the next collection cycle overwrites them.
type VCenterVM struct {
	Name             string        `json:"name" dynamodbav:"Name"`
	MobID            string        `json:"mobid" dynamodbav:"MobID"`
	UUID             string        `json:"uuid,omitempty" dynamodbav:"UUID,omitempty"`
	PowerState       string        `json:"power_state,omitempty" dynamodbav:"PowerState,omitempty"`
	GuestOS          string        `json:"guest_os,omitempty" dynamodbav:"GuestOS,omitempty"`
	Annotation       string        `json:"annotation,omitempty" dynamodbav:"Annotation,omitempty"`
	CPUCount         int           `json:"cpu_count,omitempty" dynamodbav:"CPUCount,omitempty"`
	MemoryGB         float64       `json:"memory_gb,omitempty" dynamodbav:"MemoryGB,omitempty"`
	IPAddress        string        `json:"ip_address,omitempty" dynamodbav:"IPAddress,omitempty"`
	GuestIPAddresses []string      `json:"guest_ip_addresses,omitempty" dynamodbav:"GuestIPAddresses,omitempty"`
	ResourcePool     string        `json:"resource_pool,omitempty" dynamodbav:"ResourcePool,omitempty"`
	Disks            []DiskInfo    `json:"disks,omitempty" dynamodbav:"Disks,omitempty"`
	Networks         []NetworkInfo `json:"networks,omitempty" dynamodbav:"Networks,omitempty"`

	// Tags are ordered category->value mappings. TagsJiraAsset carries the
	// same tags remapped to the asset-management naming scheme.
	Tags          []map[string]string `json:"tags,omitempty" dynamodbav:"Tags,omitempty"`
	TagsJiraAsset []map[string]string `json:"tags_jira_asset,omitempty" dynamodbav:"TagsJiraAsset,omitempty"`

	// Extra carries vendor-specific fields that survive collection but are
	// never interpolated into outgoing payloads.
	Extra map[string]string `json:"extra,omitempty" dynamodbav:"Extra,omitempty"`

	CreatedDate time.Time `json:"created_date,omitempty" dynamodbav:"CreatedDate,omitempty"`
	LastUpdated time.Time `json:"last_updated,omitempty" dynamodbav:"LastUpdated,omitempty"`
}

// TotalDiskGB sums the capacity of all attached disks
func (vm *VCenterVM) TotalDiskGB() float64 {
	var total float64
	for _, d := range vm.Disks {
		total += d.CapacityGB
	}
	return total
}
