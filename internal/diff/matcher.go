package diff

import (
	"github.com/inframirror/inframirror/internal/logger"
)

// Result partitions the vCenter inventory exactly: every input VM lands in
// exactly one of Matched, Missing, or Unmatchable.
type Result struct {
	// Matched holds vCenter VMs with at least one address present in the
	// Jira inventory.
	Matched []NormalizedVM

	// Missing holds vCenter VMs with valid addresses, none of which appear
	// in the Jira inventory.
	Missing []NormalizedVM

	// Unmatchable holds vCenter VMs without any valid address. They can
	// never be matched and can never be declared missing.
	Unmatchable []NormalizedVM
}

// JiraIPSet builds the set of all addresses the Jira inventory knows about.
// Multiple assets sharing an address collapse into one set entry; matching is
// many-to-one safe.
func JiraIPSet(jiraVMs []NormalizedVM) map[string]struct{} {
	set := make(map[string]struct{})
	for i := range jiraVMs {
		for _, ip := range jiraVMs[i].IPs {
			set[ip] = struct{}{}
		}
	}
	return set
}

// Diff partitions the vCenter inventory against the Jira inventory using IP
// equality as the sole join condition. Runs in O(V + J).
func Diff(vcenterVMs []NormalizedVM, jiraVMs []NormalizedVM) Result {
	jiraIPs := JiraIPSet(jiraVMs)
	return DiffAgainstIPSet(vcenterVMs, jiraIPs)
}

// DiffAgainstIPSet partitions the vCenter inventory against a pre-built Jira
// address set.
func DiffAgainstIPSet(vcenterVMs []NormalizedVM, jiraIPs map[string]struct{}) Result {
	var result Result

	for i := range vcenterVMs {
		vm := vcenterVMs[i]

		if !vm.HasKey() {
			result.Unmatchable = append(result.Unmatchable, vm)
			continue
		}

		matched := false
		for _, ip := range vm.IPs {
			if _, ok := jiraIPs[ip]; ok {
				matched = true
				break
			}
		}

		if matched {
			result.Matched = append(result.Matched, vm)
		} else {
			result.Missing = append(result.Missing, vm)
		}
	}

	logger.WithFields(map[string]interface{}{
		"vcenter_vms": len(vcenterVMs),
		"jira_ips":    len(jiraIPs),
		"matched":     len(result.Matched),
		"missing":     len(result.Missing),
		"unmatchable": len(result.Unmatchable),
	}).Info("VM diff analysis completed")

	return result
}
