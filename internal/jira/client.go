package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inframirror/inframirror/internal/logger"
	"github.com/inframirror/inframirror/internal/models"
)

// maxErrorBodyLen bounds how much of an error response body is retained
const maxErrorBodyLen = 500

// Creator is the contract the poster depends on for submitting create
// requests to the asset-management system.
type Creator interface {
	CreateObject(ctx context.Context, payload *models.JiraCreatePayload) (*CreateResult, error)
}

// CreateResult carries the raw outcome of one create request. A non-nil
// result with a 2xx StatusCode and non-empty ObjectKey is a success; anything
// else is interpreted by the caller as a posting failure.
type CreateResult struct {
	StatusCode int
	ObjectKey  string
	Body       string
}

// Client is an HTTP client for the Jira Insight object create endpoint
type Client struct {
	httpClient *http.Client
	token      string
	createURL  string
}

// NewClient creates a new Insight client with a Bearer token
func NewClient(token, createURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      token,
		createURL:  createURL,
	}
}

// CreateObject POSTs a create payload to the configured Insight endpoint.
// A transport-level failure (connection, timeout) returns an error; any HTTP
// response, success or not, returns a CreateResult for the caller to
// interpret.
func (c *Client) CreateObject(ctx context.Context, payload *models.JiraCreatePayload) (*CreateResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal create payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.createURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.WithError(err).Error("Insight create request failed")
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read create response: %w", err)
	}

	result := &CreateResult{
		StatusCode: resp.StatusCode,
		Body:       truncate(string(respBody), maxErrorBodyLen),
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var created struct {
			ObjectKey string `json:"objectKey"`
		}
		if err := json.Unmarshal(respBody, &created); err != nil {
			logger.WithFields(map[string]interface{}{
				"status_code": resp.StatusCode,
				"error":       err.Error(),
			}).Warn("Insight create response is not parseable")
			return result, nil
		}
		result.ObjectKey = created.ObjectKey
		result.Body = string(respBody)
	}

	return result, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
