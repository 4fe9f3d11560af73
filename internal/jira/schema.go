package jira

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

var (
	// ErrConfiguration is the base class for schema configuration problems.
	// Operations fail fast on these before any network call.
	ErrConfiguration = errors.New("configuration error")

	// ErrMissingObjectTypeID is returned when the schema lacks the Insight
	// object type id
	ErrMissingObjectTypeID = fmt.Errorf("%w: object_type_id is required", ErrConfiguration)

	// ErrMissingObjectSchemaID is returned when the schema lacks the Insight
	// object schema id
	ErrMissingObjectSchemaID = fmt.Errorf("%w: object_schema_id is required", ErrConfiguration)
)

// Logical field names recognized by the payload builder. The schema's
// attribute map binds each one to a numeric Insight attribute id.
const (
	FieldVMName          = "vm_name"
	FieldDNSName         = "dns_name"
	FieldSite            = "site"
	FieldZone            = "zone"
	FieldEnvironment     = "environment"
	FieldIPAddress       = "ip_address"
	FieldCreatedBy       = "created_by"
	FieldComponent       = "component"
	FieldCPU             = "cpu"
	FieldMemory          = "memory"
	FieldDisk            = "disk"
	FieldDescription     = "description"
	FieldResourcePool    = "resource_pool"
	FieldOperatingSystem = "operating_system"
	FieldSystem          = "system"
)

// SchemaConfig describes the target Insight object schema: which object type
// to create, and how logical VM fields map to numeric attribute ids. It is
// supplied explicitly per diff run, never held as ambient state.
type SchemaConfig struct {
	ObjectTypeID   string         `yaml:"object_type_id" json:"object_type_id"`
	ObjectSchemaID string         `yaml:"object_schema_id" json:"object_schema_id"`
	AttributeIDs   map[string]int `yaml:"attribute_id_map" json:"attribute_id_map"`
	DefaultSite    string         `yaml:"default_site" json:"default_site"`
	DefaultZone    string         `yaml:"default_zone" json:"default_zone"`
}

// Validate checks the two fields the Insight create endpoint rejects requests
// without
func (s *SchemaConfig) Validate() error {
	if s.ObjectTypeID == "" {
		return ErrMissingObjectTypeID
	}
	if s.ObjectSchemaID == "" {
		return ErrMissingObjectSchemaID
	}
	return nil
}

// AttributeID returns the Insight attribute id bound to a logical field,
// or false when the schema does not map it
func (s *SchemaConfig) AttributeID(field string) (int, bool) {
	id, ok := s.AttributeIDs[field]
	return id, ok
}

// LoadSchemaFile reads a SchemaConfig from a YAML file
func LoadSchemaFile(path string) (*SchemaConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var schema SchemaConfig
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}

	return &schema, nil
}
