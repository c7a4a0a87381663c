// Package defectdojo implements the findings-platform import gateway.
package defectdojo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/openvocio/api/internal/config"
	"github.com/openvocio/api/internal/metrics"
	"github.com/openvocio/api/pkg/domain/shared"
	"github.com/openvocio/api/pkg/domain/vulnerability"
)

// PayloadKind selects the scan-type tag, content type and filename
// suffix of an import. Gateway behavior is otherwise identical.
type PayloadKind string

const (
	// PayloadXML is a raw scanner report document.
	PayloadXML PayloadKind = "xml"
	// PayloadJSON is the generic findings shape built from alerts.
	PayloadJSON PayloadKind = "json"
)

func (k PayloadKind) scanType() string {
	if k == PayloadJSON {
		return "Generic Findings Import"
	}
	return "OpenVAS Parser"
}

func (k PayloadKind) contentType() string {
	if k == PayloadJSON {
		return "application/json"
	}
	return "application/xml"
}

// Client calls the findings platform API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	productID  int
}

// NewClient creates a findings platform client.
func NewClient(cfg *config.DefectDojoConfig) (*Client, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, errors.New("findings platform base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("findings platform API key is required")
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		productID:  cfg.ProductID,
	}, nil
}

// ImportScan uploads a report payload into an engagement and returns the
// id of the resulting import batch. An engagement the platform does not
// recognize is a configuration error; the caller skips the scan and
// moves on.
func (c *Client) ImportScan(ctx context.Context, payload []byte, kind PayloadKind, engagementID int) (int, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	filename := fmt.Sprintf("scan-%d.%s", time.Now().UnixMilli(), kind)
	part, err := createFormFile(form, "file", filename, kind.contentType())
	if err != nil {
		return 0, fmt.Errorf("failed to build form file: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return 0, fmt.Errorf("failed to write payload: %w", err)
	}

	fields := map[string]string{
		"scan_type":          kind.scanType(),
		"engagement":         strconv.Itoa(engagementID),
		"active":             "true",
		"verified":           "true",
		"close_old_findings": "false",
		"skip_duplicates":    "true",
	}
	for key, value := range fields {
		if err := form.WriteField(key, value); err != nil {
			return 0, fmt.Errorf("failed to write form field %s: %w", key, err)
		}
	}
	if err := form.Close(); err != nil {
		return 0, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/import-scan/", &buf)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.do(req, "import_scan")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		return 0, shared.NewDomainError("CONFIGURATION",
			fmt.Sprintf("import rejected for engagement %d: %s", engagementID, readDetail(resp.Body)),
			shared.ErrConfiguration)
	default:
		return 0, c.statusError("import_scan", resp.StatusCode)
	}

	var body struct {
		Test int `json:"test"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode import response: %w", err)
	}

	return body.Test, nil
}

// GetTestFindings returns all findings belonging to an import batch.
func (c *Client) GetTestFindings(ctx context.Context, testID int) ([]vulnerability.Finding, error) {
	params := url.Values{}
	params.Set("test", strconv.Itoa(testID))
	params.Set("limit", "500")

	var findings []vulnerability.Finding
	path := "/findings/?" + params.Encode()

	for path != "" {
		page, next, err := c.findingsPage(ctx, path)
		if err != nil {
			return nil, err
		}
		findings = append(findings, page...)
		path = next
	}

	return findings, nil
}

func (c *Client) findingsPage(ctx context.Context, path string) ([]vulnerability.Finding, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.do(req, "get_findings")
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", c.statusError("get_findings", resp.StatusCode)
	}

	var body struct {
		Next    string                  `json:"next"`
		Results []vulnerability.Finding `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, "", fmt.Errorf("failed to decode findings response: %w", err)
	}

	next := ""
	if body.Next != "" {
		if u, err := url.Parse(body.Next); err == nil {
			next = u.Path + "?" + u.RawQuery
		}
	}

	return body.Results, next, nil
}

// CreateEngagement creates a CI/CD engagement under the configured
// product and returns its id.
func (c *Client) CreateEngagement(ctx context.Context, name string, startDate time.Time) (int, error) {
	day := startDate.Format("2006-01-02")
	payload := map[string]any{
		"name":            name,
		"product":         c.productID,
		"status":          "In Progress",
		"engagement_type": "CI/CD",
		"start_date":      day,
		"end_date":        day,
		"target_start":    day,
		"target_end":      day,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal engagement: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/engagements/", bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.do(req, "create_engagement")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return 0, c.statusError("create_engagement", resp.StatusCode)
	}

	var body struct {
		ID int `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode engagement response: %w", err)
	}

	return body.ID, nil
}

func (c *Client) do(req *http.Request, operation string) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ExternalCallDuration.WithLabelValues("defectdojo", operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExternalCallErrorsTotal.WithLabelValues("defectdojo", operation).Inc()
		return nil, shared.NewDomainError("TRANSIENT",
			fmt.Sprintf("findings platform request failed: %v", err), shared.ErrTransient)
	}
	return resp, nil
}

func (c *Client) statusError(operation string, status int) error {
	metrics.ExternalCallErrorsTotal.WithLabelValues("defectdojo", operation).Inc()
	if status >= 500 || status == http.StatusTooManyRequests {
		return shared.NewDomainError("TRANSIENT",
			fmt.Sprintf("findings platform %s returned status %d", operation, status), shared.ErrTransient)
	}
	return shared.NewDomainError("UPSTREAM",
		fmt.Sprintf("findings platform %s returned status %d", operation, status), shared.ErrInternal)
}

// createFormFile is multipart.Writer.CreateFormFile with an explicit
// content type instead of application/octet-stream.
func createFormFile(w *multipart.Writer, fieldname, filename, contentType string) (io.Writer, error) {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldname, filename))
	header.Set("Content-Type", contentType)
	return w.CreatePart(header)
}

func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(data) == 0 {
		return "no detail"
	}
	return string(data)
}
