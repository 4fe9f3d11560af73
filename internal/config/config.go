package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Logging configuration
	LogLevel string

	// API authentication
	APIJWTSecret string

	// AWS configuration
	AWSRegion string

	// DynamoDB configuration
	VCenterVMsTableName string
	JiraVMsTableName    string
	MissingVMsTableName string

	// Jira Insight configuration
	JiraToken          string
	JiraCreateURL      string
	JiraObjectTypeID   string
	JiraObjectSchemaID string
	JiraSchemaFile     string
	JiraDefaultSite    string
	JiraDefaultZone    string

	// Posting configuration
	JiraPosterDelay float64
	JiraMaxRetries  int
	PostBatchLimit  int
}

// New creates a new Config instance by loading environment variables
// from .env file (if present) and OS environment.
// OS environment variables take precedence over .env file values.
// Panics if required configuration values are missing or invalid.
func New() *Config {
	// Load .env file from the directory the binary is run from
	// (silently ignore if not found)
	envPath := filepath.Join(".", ".env")
	_ = godotenv.Load(envPath)

	cfg := &Config{
		// Server configuration
		Port: getEnvOrDefault("PORT", "8000"),

		// Logging configuration
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),

		// API authentication
		APIJWTSecret: os.Getenv("API_JWT_SECRET"),

		// AWS configuration
		AWSRegion: getEnvOrDefault("AWS_REGION", "us-east-1"),

		// DynamoDB configuration
		VCenterVMsTableName: getEnvOrDefault("VCENTER_VMS_TABLE", "VCenterVMs"),
		JiraVMsTableName:    getEnvOrDefault("JIRA_VMS_TABLE", "JiraVMs"),
		MissingVMsTableName: getEnvOrDefault("MISSING_VMS_TABLE", "MissingVMsForJira"),

		// Jira Insight configuration
		JiraToken:          os.Getenv("JIRA_TOKEN"),
		JiraCreateURL:      getEnvOrDefault("JIRA_CREATE_URL", "https://jira-support.company.com/rest/insight/1.0/object/create"),
		JiraObjectTypeID:   os.Getenv("JIRA_OBJECT_TYPE_ID"),
		JiraObjectSchemaID: os.Getenv("JIRA_OBJECT_SCHEMA_ID"),
		JiraSchemaFile:     getEnvOrDefault("JIRA_SCHEMA_FILE", "jira_schema.yaml"),
		JiraDefaultSite:    getEnvOrDefault("JIRA_DEFAULT_SITE", "Main"),
		JiraDefaultZone:    getEnvOrDefault("JIRA_DEFAULT_ZONE", "Bank"),

		// Posting configuration
		JiraPosterDelay: getEnvFloatOrDefault("JIRA_POSTER_DELAY", 1.0),
		JiraMaxRetries:  getEnvIntOrDefault("JIRA_MAX_RETRIES", 3),
		PostBatchLimit:  getEnvIntOrDefault("POST_BATCH_LIMIT", 50),
	}

	// Validate required configuration
	cfg.validate()

	return cfg
}

// validate checks that all required configuration values are present and valid
func (c *Config) validate() {
	var missing []string

	if c.APIJWTSecret == "" {
		missing = append(missing, "API_JWT_SECRET")
	}

	if len(missing) > 0 {
		panic(fmt.Sprintf("Missing required configuration values: %v", missing))
	}

	if c.JiraPosterDelay < 0 {
		panic(fmt.Sprintf("JIRA_POSTER_DELAY must not be negative (got %f)", c.JiraPosterDelay))
	}

	if c.JiraMaxRetries < 1 {
		panic(fmt.Sprintf("JIRA_MAX_RETRIES must be at least 1 (got %d)", c.JiraMaxRetries))
	}
}

// getEnvOrDefault returns the value of an environment variable or a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns an integer environment variable or a default value
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvFloatOrDefault returns a float environment variable or a default value
func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
