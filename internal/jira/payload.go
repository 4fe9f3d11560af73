package jira

import (
	"strconv"
	"strings"

	"github.com/inframirror/inframirror/internal/diff"
	"github.com/inframirror/inframirror/internal/models"
)

// BuildPayload constructs the Insight create payload and the flattened audit
// summary for one missing VM. The payload is computed once at diff time and
// reused verbatim at post time.
//
// One attribute entry is emitted per mapped logical field. Fields with empty
// source values are skipped, except site and zone which fall back to the
// schema defaults when the VM carries no tag of its own. The default never
// overrides a present tag.
func BuildPayload(vm *diff.NormalizedVM, schema *SchemaConfig) (*models.JiraCreatePayload, *models.VMSummary, error) {
	if err := schema.Validate(); err != nil {
		return nil, nil, err
	}

	site := vm.Site
	if site == "" {
		site = schema.DefaultSite
	}
	zone := vm.Zone
	if zone == "" {
		zone = schema.DefaultZone
	}

	values := []struct {
		field string
		value string
	}{
		{FieldVMName, strings.TrimSpace(vm.Name)},
		{FieldDNSName, strings.TrimSpace(vm.Name)},
		{FieldSite, strings.TrimSpace(site)},
		{FieldZone, strings.TrimSpace(zone)},
		{FieldEnvironment, strings.TrimSpace(vm.Environment)},
		{FieldIPAddress, strings.TrimSpace(vm.Key)},
		{FieldCreatedBy, strings.TrimSpace(vm.CreatedBy)},
		{FieldComponent, strings.TrimSpace(vm.Component)},
		{FieldCPU, formatInt(vm.CPU)},
		{FieldMemory, formatFloat(vm.MemoryGB)},
		{FieldDisk, formatFloat(vm.DiskGB)},
		{FieldDescription, strings.TrimSpace(vm.Description)},
		{FieldResourcePool, strings.TrimSpace(vm.ResourcePool)},
		{FieldOperatingSystem, strings.TrimSpace(vm.OSName)},
		{FieldSystem, strings.TrimSpace(vm.System)},
	}

	payload := &models.JiraCreatePayload{
		ObjectTypeID: schema.ObjectTypeID,
		Attributes:   []models.PayloadAttribute{},
	}

	for _, v := range values {
		if v.value == "" {
			continue
		}
		id, ok := schema.AttributeID(v.field)
		if !ok {
			continue
		}
		payload.Attributes = append(payload.Attributes, models.PayloadAttribute{
			ObjectTypeAttributeID: id,
			ObjectAttributeValues: []models.AttributeValue{{Value: v.value}},
		})
	}

	summary := &models.VMSummary{
		IP:          vm.Key,
		CPU:         vm.CPU,
		Memory:      vm.MemoryGB,
		Disk:        vm.DiskGB,
		Site:        site,
		Zone:        zone,
		Environment: vm.Environment,
	}

	return payload, summary, nil
}

// formatInt stringifies an integer field, treating zero as absent
func formatInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

// formatFloat stringifies a numeric field in its shortest exact
// representation, treating zero as absent
func formatFloat(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
