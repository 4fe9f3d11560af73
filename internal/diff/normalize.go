package diff

import (
	"net"
	"strings"

	"github.com/inframirror/inframirror/internal/models"
)

// NormalizedVM is the common comparison shape both inventories are reduced
// to. Key is the canonical primary IP address; an empty Key means the record
// can never be matched. Only whitelisted fields survive normalization;
// vendor-specific extras stay in Extra and never reach outgoing payloads.
type NormalizedVM struct {
	Key string

	Name  string
	MobID string
	UUID  string

	// IPs holds every valid address the record carries (primary plus guest
	// or secondary addresses), canonicalized. Matching consults all of them.
	IPs []string

	CPU      int
	MemoryGB float64
	DiskGB   float64

	GuestOS      string
	Description  string
	ResourcePool string

	Site        string
	Zone        string
	Environment string
	CreatedBy   string
	System      string
	Component   string
	OSName      string

	Extra map[string]string
}

// HasKey reports whether the record carries at least one matchable address
func (n *NormalizedVM) HasKey() bool {
	return len(n.IPs) > 0
}

// CanonicalIP reduces an address to its comparison form: trimmed and
// lower-cased. Addresses in unusable ranges (loopback, link-local, unspecified,
// broadcast) and unparseable strings reduce to "". Representation is otherwise
// left alone; 10.0.0.5 and 10.0.00.5 are distinct keys.
func CanonicalIP(raw string) string {
	ip := strings.ToLower(strings.TrimSpace(raw))
	if ip == "" {
		return ""
	}

	if net.ParseIP(ip) == nil {
		return ""
	}

	for _, prefix := range []string{"127.", "169.254."} {
		if strings.HasPrefix(ip, prefix) {
			return ""
		}
	}
	if ip == "0.0.0.0" || ip == "255.255.255.255" {
		return ""
	}

	return ip
}

// TagValue extracts a category value from an ordered tag mapping list.
// The first mapping carrying the category wins.
func TagValue(tags []map[string]string, category string) string {
	for _, tag := range tags {
		if v, ok := tag[category]; ok {
			return v
		}
	}
	return ""
}

// MapGuestOS maps a vCenter guest OS description to the asset-management
// operating-system object name. Unknown descriptions map to "".
func MapGuestOS(guestOS string) string {
	if guestOS == "" {
		return ""
	}

	lower := strings.ToLower(guestOS)
	switch {
	case strings.Contains(lower, "red hat") || strings.Contains(lower, "rhel"):
		return "RHEL"
	case strings.Contains(lower, "centos"):
		return "Centos"
	case strings.Contains(lower, "oracle"):
		return "OEL"
	case strings.Contains(lower, "windows"):
		return "Windows"
	default:
		return ""
	}
}

// NormalizeVCenter converts a raw vCenter record into the common comparison
// shape. A record without any valid address normalizes to an empty Key; that
// is a common, non-matchable state and not an error.
func NormalizeVCenter(vm *models.VCenterVM) NormalizedVM {
	name := strings.TrimSpace(vm.Name)
	if name == "" {
		name = "VM_" + vm.MobID
	}

	n := NormalizedVM{
		Name:         name,
		MobID:        vm.MobID,
		UUID:         vm.UUID,
		CPU:          vm.CPUCount,
		MemoryGB:     vm.MemoryGB,
		DiskGB:       vm.TotalDiskGB(),
		GuestOS:      vm.GuestOS,
		Description:  strings.TrimSpace(vm.Annotation),
		ResourcePool: strings.TrimSpace(vm.ResourcePool),
		Extra:        vm.Extra,
	}

	n.Key = CanonicalIP(vm.IPAddress)
	n.IPs = collectIPs(vm)
	if n.Key == "" && len(n.IPs) > 0 {
		n.Key = n.IPs[0]
	}

	n.Site = strings.TrimSpace(TagValue(vm.TagsJiraAsset, "Site"))
	n.Zone = strings.TrimSpace(TagValue(vm.TagsJiraAsset, "Zone"))
	n.Environment = strings.TrimSpace(TagValue(vm.TagsJiraAsset, "Environment"))
	n.System = strings.TrimSpace(TagValue(vm.TagsJiraAsset, "System"))
	n.Component = strings.TrimSpace(TagValue(vm.TagsJiraAsset, "Component"))
	n.CreatedBy = strings.TrimSpace(TagValue(vm.Tags, "CreatedBy"))

	// Operating system: the asset tag wins over the guest OS mapping
	n.OSName = strings.TrimSpace(TagValue(vm.TagsJiraAsset, "OperatingSystem"))
	if n.OSName == "" {
		n.OSName = strings.TrimSpace(TagValue(vm.TagsJiraAsset, "OS"))
	}
	if n.OSName == "" {
		n.OSName = MapGuestOS(vm.GuestOS)
	}

	return n
}

// NormalizeJira converts a raw Jira asset record into the common comparison
// shape. All three address fields participate in matching.
func NormalizeJira(vm *models.JiraVM) NormalizedVM {
	name := strings.TrimSpace(vm.Name)
	if name == "" {
		name = strings.TrimSpace(vm.VMName)
	}
	if name == "" {
		name = "Unknown"
	}

	n := NormalizedVM{
		Name:     name,
		MobID:    vm.JiraObjectKey,
		CPU:      vm.CPUCount,
		MemoryGB: vm.MemoryGB,
		DiskGB:   vm.DiskGB,
		OSName:   vm.OperatingSystem,
		Site:     vm.Site,

		Environment: vm.Environment,
	}

	for _, raw := range []string{vm.IPAddress, vm.SecondaryIP, vm.SecondaryIP2} {
		if ip := CanonicalIP(raw); ip != "" {
			n.IPs = appendUniqueIP(n.IPs, ip)
		}
	}
	if len(n.IPs) > 0 {
		n.Key = n.IPs[0]
	}

	return n
}

// collectIPs gathers every valid address a vCenter record carries: the
// primary address, guest addresses, and per-adapter network addresses.
func collectIPs(vm *models.VCenterVM) []string {
	var ips []string

	if ip := CanonicalIP(vm.IPAddress); ip != "" {
		ips = appendUniqueIP(ips, ip)
	}
	for _, raw := range vm.GuestIPAddresses {
		if ip := CanonicalIP(raw); ip != "" {
			ips = appendUniqueIP(ips, ip)
		}
	}
	for _, network := range vm.Networks {
		if ip := CanonicalIP(network.IPAddress); ip != "" {
			ips = appendUniqueIP(ips, ip)
		}
	}

	return ips
}

func appendUniqueIP(ips []string, ip string) []string {
	for _, existing := range ips {
		if existing == ip {
			return ips
		}
	}
	return append(ips, ip)
}
