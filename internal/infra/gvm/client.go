// Package gvm talks to the vulnerability scanner engine's HTTP facade.
package gvm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openvocio/api/internal/config"
	"github.com/openvocio/api/internal/metrics"
	"github.com/openvocio/api/pkg/domain/shared"
)

// Task is a scanner task as the engine reports it.
type Task struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Client calls the scanner engine API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a scanner engine client.
func NewClient(cfg *config.GVMConfig) (*Client, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, errors.New("scanner base URL is required")
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
	}, nil
}

// ListTasks returns all scanner tasks with their current status.
func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/tasks", "list_tasks")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("list_tasks", resp.StatusCode)
	}

	var body struct {
		Tasks []Task `json:"tasks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode tasks response: %w", err)
	}

	return body.Tasks, nil
}

// GetTaskReportID returns the id of the last report attached to a task.
// A task without a finished report yields shared.ErrConfiguration so the
// caller can skip the scan without failing the whole pass.
func (c *Client) GetTaskReportID(ctx context.Context, taskID string) (string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/tasks/"+url.PathEscape(taskID), "get_task")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", shared.NewDomainError("NOT_FOUND", "task not found", shared.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return "", c.statusError("get_task", resp.StatusCode)
	}

	var body struct {
		Task struct {
			ID         string `json:"id"`
			LastReport struct {
				Report struct {
					ID string `json:"id"`
				} `json:"report"`
			} `json:"last_report"`
		} `json:"task"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode task response: %w", err)
	}

	reportID := body.Task.LastReport.Report.ID
	if reportID == "" {
		return "", shared.NewDomainError("CONFIGURATION",
			fmt.Sprintf("task %s has no report", taskID), shared.ErrConfiguration)
	}

	return reportID, nil
}

// GetReport fetches a raw report document in the requested format.
func (c *Client) GetReport(ctx context.Context, reportID, format string) ([]byte, error) {
	if format == "" {
		format = "xml"
	}

	path := "/reports/" + url.PathEscape(reportID) + "?format=" + url.QueryEscape(format)
	resp, err := c.doRequest(ctx, http.MethodGet, path, "get_report")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, shared.NewDomainError("NOT_FOUND", "report not found", shared.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("get_report", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read report body: %w", err)
	}

	// The engine wraps errors in a 200 envelope, so check the response
	// status attribute before trusting the document.
	if strings.Contains(string(raw), `<get_reports_response status="400"`) {
		return nil, shared.NewDomainError("UPSTREAM", "scanner rejected report request", shared.ErrInternal)
	}

	return raw, nil
}

func (c *Client) doRequest(ctx context.Context, method, path, operation string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ExternalCallDuration.WithLabelValues("gvm", operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExternalCallErrorsTotal.WithLabelValues("gvm", operation).Inc()
		return nil, shared.NewDomainError("TRANSIENT",
			fmt.Sprintf("scanner request failed: %v", err), shared.ErrTransient)
	}

	return resp, nil
}

func (c *Client) statusError(operation string, status int) error {
	metrics.ExternalCallErrorsTotal.WithLabelValues("gvm", operation).Inc()
	if status >= 500 || status == http.StatusTooManyRequests {
		return shared.NewDomainError("TRANSIENT",
			fmt.Sprintf("scanner %s returned status %d", operation, status), shared.ErrTransient)
	}
	return shared.NewDomainError("UPSTREAM",
		fmt.Sprintf("scanner %s returned status %d", operation, status), shared.ErrInternal)
}
