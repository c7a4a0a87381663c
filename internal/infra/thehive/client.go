// Package thehive implements the case platform gateway.
package thehive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openvocio/api/internal/config"
	"github.com/openvocio/api/internal/metrics"
	"github.com/openvocio/api/pkg/domain/shared"
	"github.com/openvocio/api/pkg/domain/vulnerability"
)

// SeverityFor maps platform severity to the case platform's numeric
// scale. Unknown values land on medium.
func SeverityFor(s vulnerability.Severity) int {
	switch s {
	case vulnerability.SeverityCritical:
		return 3
	case vulnerability.SeverityHigh:
		return 2
	case vulnerability.SeverityMedium:
		return 1
	case vulnerability.SeverityLow, vulnerability.SeverityInfo:
		return 0
	default:
		return 1
	}
}

// Case is a case record as the platform returns it. ID is the API
// handle used in subsequent calls; DisplayID is the human-facing number.
type Case struct {
	ID          string `json:"id"`
	DisplayID   int    `json:"caseId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    int    `json:"severity"`
	Status      string `json:"status"`
	Owner       string `json:"owner"`
}

// CaseRequest is the payload for creating a case.
type CaseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    int    `json:"severity"`
	StartDate   int64  `json:"startDate"`
	Owner       string `json:"owner,omitempty"`
	TLP         int    `json:"tlp"`
	Flag        bool   `json:"flag"`
}

// Observable is an evidence item attached to a case.
type Observable struct {
	DataType string   `json:"dataType"`
	Data     string   `json:"data"`
	IOC      bool     `json:"ioc"`
	TLP      int      `json:"tlp"`
	Message  string   `json:"message,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Client calls the case platform API.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	defaultOwner string
	defaultTLP   int
}

// NewClient creates a case platform client.
func NewClient(cfg *config.TheHiveConfig) (*Client, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, errors.New("case platform base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("case platform API key is required")
	}

	return &Client{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		defaultOwner: cfg.DefaultOwner,
		defaultTLP:   cfg.DefaultTLP,
	}, nil
}

// CreateCase opens a case and returns it with both identifiers set.
func (c *Client) CreateCase(ctx context.Context, req CaseRequest) (*Case, error) {
	if req.Description == "" {
		req.Description = "No description provided"
	}
	if req.StartDate == 0 {
		req.StartDate = time.Now().Unix()
	}
	if req.Owner == "" {
		req.Owner = c.defaultOwner
	}
	if req.TLP == 0 {
		req.TLP = c.defaultTLP
	}

	resp, err := c.doJSON(ctx, http.MethodPost, "/case", req, "create_case")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, c.statusError("create_case", resp.StatusCode)
	}

	var created Case
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode case response: %w", err)
	}

	return &created, nil
}

// GetCase retrieves a case by its API id.
func (c *Client) GetCase(ctx context.Context, caseID string) (*Case, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, "/case/"+url.PathEscape(caseID), nil, "get_case")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, shared.NewDomainError("NOT_FOUND", "case not found", shared.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("get_case", resp.StatusCode)
	}

	var found Case
	if err := json.NewDecoder(resp.Body).Decode(&found); err != nil {
		return nil, fmt.Errorf("failed to decode case response: %w", err)
	}

	return &found, nil
}

// UpdateCase applies a partial update to a case.
func (c *Client) UpdateCase(ctx context.Context, caseID string, patch map[string]any) error {
	resp, err := c.doJSON(ctx, http.MethodPatch, "/case/"+url.PathEscape(caseID), patch, "update_case")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return shared.NewDomainError("NOT_FOUND", "case not found", shared.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return c.statusError("update_case", resp.StatusCode)
	}

	return nil
}

// CloseCase marks a case resolved on the platform.
func (c *Client) CloseCase(ctx context.Context, caseID string) error {
	return c.UpdateCase(ctx, caseID, map[string]any{"status": "closed"})
}

// DeleteCase removes a case.
func (c *Client) DeleteCase(ctx context.Context, caseID string) error {
	resp, err := c.doJSON(ctx, http.MethodDelete, "/case/"+url.PathEscape(caseID), nil, "delete_case")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return shared.NewDomainError("NOT_FOUND", "case not found", shared.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return c.statusError("delete_case", resp.StatusCode)
	}

	return nil
}

// CreateObservable attaches evidence to a case and returns the
// observable id. The platform rejects duplicate artifacts; that comes
// back as shared.ErrDuplicateEvidence so callers can count it as
// success.
func (c *Client) CreateObservable(ctx context.Context, caseID string, obs Observable) (string, error) {
	path := "/case/" + url.PathEscape(caseID) + "/artifact"
	resp, err := c.doJSON(ctx, http.MethodPost, path, obs, "create_observable")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
	case http.StatusBadRequest, http.StatusConflict:
		return "", shared.NewDomainError("DUPLICATE",
			fmt.Sprintf("observable %q already attached", obs.Data), shared.ErrDuplicateEvidence)
	case http.StatusNotFound:
		return "", shared.NewDomainError("NOT_FOUND", "case not found", shared.ErrNotFound)
	default:
		return "", c.statusError("create_observable", resp.StatusCode)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode observable response: %w", err)
	}

	return created.ID, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, operation string) (*http.Response, error) {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ExternalCallDuration.WithLabelValues("thehive", operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExternalCallErrorsTotal.WithLabelValues("thehive", operation).Inc()
		return nil, shared.NewDomainError("TRANSIENT",
			fmt.Sprintf("case platform request failed: %v", err), shared.ErrTransient)
	}

	return resp, nil
}

func (c *Client) statusError(operation string, status int) error {
	metrics.ExternalCallErrorsTotal.WithLabelValues("thehive", operation).Inc()
	if status >= 500 || status == http.StatusTooManyRequests {
		return shared.NewDomainError("TRANSIENT",
			fmt.Sprintf("case platform %s returned status %d", operation, status), shared.ErrTransient)
	}
	return shared.NewDomainError("UPSTREAM",
		fmt.Sprintf("case platform %s returned status %d", operation, status), shared.ErrInternal)
}
