package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is the admin API HTTP client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	verbose    bool
}

// NewClient creates a new API client.
func NewClient(baseURL string, verbose bool) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		verbose: verbose,
	}
}

// Do performs an HTTP request and returns the response body.
func (c *Client) Do(method, path string, body any) ([]byte, int, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(context.Background(), method, url, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.verbose {
		fmt.Printf(">>> %s %s\n", method, url)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if c.verbose {
		fmt.Printf("<<< %d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if resp.StatusCode >= 400 {
		return nil, resp.StatusCode, parseAPIError(resp.StatusCode, respBody)
	}

	return respBody, resp.StatusCode, nil
}

// Get performs a GET request.
func (c *Client) Get(path string) ([]byte, error) {
	data, _, err := c.Do(http.MethodGet, path, nil)
	return data, err
}

// Post performs a POST request.
func (c *Client) Post(path string, body any) ([]byte, error) {
	data, _, err := c.Do(http.MethodPost, path, body)
	return data, err
}

// Patch performs a PATCH request.
func (c *Client) Patch(path string, body any) ([]byte, error) {
	data, _, err := c.Do(http.MethodPatch, path, body)
	return data, err
}

// Delete performs a DELETE request.
func (c *Client) Delete(path string) error {
	_, _, err := c.Do(http.MethodDelete, path, nil)
	return err
}

// APIError represents an error from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("API error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func parseAPIError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode}

	var parsed struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error.Message != "" {
			apiErr.Code = parsed.Error.Code
			apiErr.Message = parsed.Error.Message
		} else if parsed.Message != "" {
			apiErr.Message = parsed.Message
		}
	}

	if apiErr.Message == "" {
		switch statusCode {
		case 404:
			apiErr.Message = "resource not found"
		case 409:
			apiErr.Message = "conflict: resource already exists"
		case 503:
			apiErr.Message = "upstream system unavailable, retry later"
		default:
			apiErr.Message = fmt.Sprintf("API error: %d %s", statusCode, http.StatusText(statusCode))
		}
	}

	return apiErr
}

// Response types matching server handler structs.

type ScanResponse struct {
	ID           string  `json:"id"`
	ScanID       string  `json:"scan_id"`
	Name         string  `json:"name"`
	Comment      string  `json:"comment,omitempty"`
	Status       string  `json:"status"`
	TargetID     string  `json:"target_id,omitempty"`
	ScheduleID   string  `json:"schedule_id,omitempty"`
	EngagementID int     `json:"engagement_id"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
	FinishedAt   *string `json:"finished_at,omitempty"`
}

type SummaryResponse struct {
	ID            string `json:"id"`
	ReportID      string `json:"report_id"`
	ScanID        string `json:"scan_id"`
	TotalFindings int    `json:"total_findings"`
	Counts        struct {
		Critical int `json:"critical"`
		High     int `json:"high"`
		Medium   int `json:"medium"`
		Low      int `json:"low"`
		Info     int `json:"info"`
	} `json:"counts"`
	GeneratedAt string `json:"generated_at"`
}

type VulnerabilityResponse struct {
	ID              string   `json:"id"`
	VulnerabilityID string   `json:"vulnerability_id"`
	CaseID          string   `json:"case_id,omitempty"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	Severity        string   `json:"severity"`
	CVERefs         []string `json:"cve_refs,omitempty"`
	Active          bool     `json:"active"`
	SourceKind      string   `json:"source_kind"`
	ScannerResultID string   `json:"scanner_result_id,omitempty"`
	SourceAlertID   string   `json:"source_alert_id,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

type TicketResponse struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Status           string   `json:"status"`
	AssignedTo       string   `json:"assigned_to,omitempty"`
	VulnerabilityIDs []string `json:"vulnerability_ids"`
	CreatedAt        string   `json:"created_at"`
	AffectedAt       string   `json:"affected_at"`
	ResolvedAt       *string  `json:"resolved_at,omitempty"`
}

type AlertResponse struct {
	ID                    string `json:"id"`
	AlertID               string `json:"alert_id"`
	RuleID                string `json:"rule_id,omitempty"`
	Description           string `json:"description"`
	Severity              int    `json:"severity"`
	SeverityBucket        string `json:"severity_bucket"`
	Timestamp             string `json:"timestamp"`
	LinkedVulnerabilityID string `json:"linked_vulnerability_id,omitempty"`
}

type PassResponse struct {
	NewlyFinished []string `json:"newly_finished"`
}

type QueuedResponse struct {
	Status string `json:"status"`
}

type SyncResponse struct {
	Stored int `json:"stored"`
}
