package jira

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/inframirror/inframirror/internal/diff"
)

func testSchema() *SchemaConfig {
	return &SchemaConfig{
		ObjectTypeID:   "3191",
		ObjectSchemaID: "242",
		DefaultSite:    "Main",
		DefaultZone:    "Bank",
		AttributeIDs: map[string]int{
			FieldVMName:          41687,
			FieldDNSName:         41688,
			FieldSite:            41689,
			FieldZone:            41690,
			FieldEnvironment:     41691,
			FieldIPAddress:       41692,
			FieldCPU:             41695,
			FieldMemory:          41696,
			FieldDisk:            41697,
			FieldOperatingSystem: 41700,
		},
	}
}

// TestBuildPayload tests payload construction for a fully populated VM
func TestBuildPayload(t *testing.T) {
	vm := &diff.NormalizedVM{
		Key:         "10.1.2.3",
		Name:        "app-server-01",
		IPs:         []string{"10.1.2.3"},
		CPU:         4,
		MemoryGB:    16,
		DiskGB:      150.5,
		Site:        "Branch",
		Zone:        "DMZ",
		Environment: "Production",
		OSName:      "RHEL",
	}

	payload, summary, err := BuildPayload(vm, testSchema())
	if err != nil {
		t.Fatalf("Expected payload, got error %v", err)
	}

	attrs := map[int]string{}
	for _, a := range payload.Attributes {
		if len(a.ObjectAttributeValues) != 1 {
			t.Fatalf("Attribute %d carries %d values, want 1", a.ObjectTypeAttributeID, len(a.ObjectAttributeValues))
		}
		attrs[a.ObjectTypeAttributeID] = a.ObjectAttributeValues[0].Value
	}

	checks := []struct {
		id   int
		want string
	}{
		{41687, "app-server-01"},
		{41688, "app-server-01"},
		{41689, "Branch"},
		{41690, "DMZ"},
		{41691, "Production"},
		{41692, "10.1.2.3"},
		{41695, "4"},
		{41696, "16"},
		{41697, "150.5"},
		{41700, "RHEL"},
	}
	for _, c := range checks {
		got, ok := attrs[c.id]
		if !ok {
			t.Errorf("Attribute %d absent from payload", c.id)
			continue
		}
		if got != c.want {
			t.Errorf("Attribute %d = %q, want %q", c.id, got, c.want)
		}
	}

	if payload.ObjectTypeID != "3191" {
		t.Errorf("Expected objectTypeId 3191, got %q", payload.ObjectTypeID)
	}
	if summary.IP != "10.1.2.3" || summary.Site != "Branch" || summary.Zone != "DMZ" {
		t.Errorf("Unexpected summary: %+v", summary)
	}
}

// TestBuildPayloadConfigurationError tests fail-fast on an unusable schema
func TestBuildPayloadConfigurationError(t *testing.T) {
	vm := &diff.NormalizedVM{Key: "10.1.2.3", Name: "x"}

	schema := testSchema()
	schema.ObjectTypeID = ""
	if _, _, err := BuildPayload(vm, schema); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Expected configuration error, got %v", err)
	}

	schema = testSchema()
	schema.ObjectSchemaID = ""
	if _, _, err := BuildPayload(vm, schema); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Expected configuration error, got %v", err)
	}
}

// TestBuildPayloadDefaults tests that site and zone defaults apply only when
// the VM carries no tag of its own
func TestBuildPayloadDefaults(t *testing.T) {
	t.Run("Defaults fill absent tags", func(t *testing.T) {
		vm := &diff.NormalizedVM{Key: "10.1.2.3", Name: "no-tags", IPs: []string{"10.1.2.3"}}

		payload, summary, err := BuildPayload(vm, testSchema())
		if err != nil {
			t.Fatalf("Expected payload, got %v", err)
		}

		if summary.Site != "Main" || summary.Zone != "Bank" {
			t.Errorf("Expected defaults Main/Bank, got %q/%q", summary.Site, summary.Zone)
		}

		found := map[int]string{}
		for _, a := range payload.Attributes {
			found[a.ObjectTypeAttributeID] = a.ObjectAttributeValues[0].Value
		}
		if found[41689] != "Main" || found[41690] != "Bank" {
			t.Errorf("Expected default site/zone in payload, got %q/%q", found[41689], found[41690])
		}
	})

	t.Run("Present tag is never overridden", func(t *testing.T) {
		vm := &diff.NormalizedVM{
			Key:  "10.1.2.3",
			Name: "tagged",
			IPs:  []string{"10.1.2.3"},
			Site: "Branch",
			Zone: "Internal",
		}

		_, summary, err := BuildPayload(vm, testSchema())
		if err != nil {
			t.Fatalf("Expected payload, got %v", err)
		}
		if summary.Site != "Branch" || summary.Zone != "Internal" {
			t.Errorf("Defaults overrode tags: %q/%q", summary.Site, summary.Zone)
		}
	})
}

// TestBuildPayloadSkipsEmptyAndUnmapped tests attribute omission rules
func TestBuildPayloadSkipsEmptyAndUnmapped(t *testing.T) {
	schema := testSchema()
	schema.DefaultSite = ""
	schema.DefaultZone = ""

	vm := &diff.NormalizedVM{
		Key:  "10.1.2.3",
		Name: "sparse",
		IPs:  []string{"10.1.2.3"},
		// CPU/memory/disk all zero, environment absent, System set but unmapped
		System: "billing",
	}

	payload, _, err := BuildPayload(vm, schema)
	if err != nil {
		t.Fatalf("Expected payload, got %v", err)
	}

	for _, a := range payload.Attributes {
		switch a.ObjectTypeAttributeID {
		case 41689, 41690, 41691, 41695, 41696, 41697:
			t.Errorf("Attribute %d should be omitted, carries %q", a.ObjectTypeAttributeID, a.ObjectAttributeValues[0].Value)
		}
	}

	// Only vm_name, dns_name and ip_address survive
	if len(payload.Attributes) != 3 {
		t.Errorf("Expected 3 attributes, got %d", len(payload.Attributes))
	}
}

// TestPayloadWireFormat tests the exact JSON shape the create endpoint expects
func TestPayloadWireFormat(t *testing.T) {
	schema := &SchemaConfig{
		ObjectTypeID:   "3191",
		ObjectSchemaID: "242",
		AttributeIDs:   map[string]int{FieldVMName: 41687},
	}
	vm := &diff.NormalizedVM{Key: "10.1.2.3", Name: "wire-check", IPs: []string{"10.1.2.3"}}

	payload, _, err := BuildPayload(vm, schema)
	if err != nil {
		t.Fatalf("Expected payload, got %v", err)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}

	want := `{"objectTypeId":"3191","attributes":[{"objectTypeAttributeId":41687,"objectAttributeValues":[{"value":"wire-check"}]}]}`
	if string(raw) != want {
		t.Errorf("Wire format mismatch:\n got %s\nwant %s", raw, want)
	}
}
