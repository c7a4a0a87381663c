// Package wazuh queries the SIEM alert index over the Elasticsearch API.
package wazuh

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openvocio/api/internal/config"
	"github.com/openvocio/api/internal/metrics"
	"github.com/openvocio/api/pkg/domain/alert"
	"github.com/openvocio/api/pkg/domain/shared"
)

const maxHits = 500

// Client searches the alert indices.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	username    string
	password    string
	indexPrefix string
}

// NewClient creates an alert source client.
func NewClient(cfg *config.WazuhConfig) (*Client, error) {
	if cfg == nil || cfg.ElasticURL == "" {
		return nil, errors.New("alert source URL is required")
	}

	transport := http.DefaultTransport
	if cfg.SkipVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	prefix := cfg.IndexPrefix
	if prefix == "" {
		prefix = "wazuh-alerts-*"
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		baseURL:     strings.TrimSuffix(cfg.ElasticURL, "/"),
		username:    cfg.Username,
		password:    cfg.Password,
		indexPrefix: prefix,
	}, nil
}

// QueryRecentAlerts returns alerts observed within the trailing window,
// oldest first.
func (c *Client) QueryRecentAlerts(ctx context.Context, window time.Duration) ([]*alert.Alert, error) {
	query := map[string]any{
		"size": maxHits,
		"sort": []map[string]any{
			{"@timestamp": map[string]string{"order": "desc"}},
		},
		"query": map[string]any{
			"range": map[string]any{
				"@timestamp": map[string]string{
					"gte": fmt.Sprintf("now-%ds", int(window.Seconds())),
				},
			},
		},
	}

	data, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	searchURL := c.baseURL + "/" + c.indexPrefix + "/_search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, searchURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ExternalCallDuration.WithLabelValues("wazuh", "query_alerts").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExternalCallErrorsTotal.WithLabelValues("wazuh", "query_alerts").Inc()
		return nil, shared.NewDomainError("TRANSIENT",
			fmt.Sprintf("alert source request failed: %v", err), shared.ErrTransient)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ExternalCallErrorsTotal.WithLabelValues("wazuh", "query_alerts").Inc()
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, shared.NewDomainError("TRANSIENT",
				fmt.Sprintf("alert source returned status %d", resp.StatusCode), shared.ErrTransient)
		}
		return nil, shared.NewDomainError("UPSTREAM",
			fmt.Sprintf("alert source returned status %d", resp.StatusCode), shared.ErrInternal)
	}

	var body struct {
		Hits struct {
			Hits []struct {
				ID     string `json:"_id"`
				Source struct {
					Timestamp time.Time `json:"@timestamp"`
					Rule      struct {
						ID          string `json:"id"`
						Description string `json:"description"`
						Level       int    `json:"level"`
					} `json:"rule"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	// Oldest first so callers see alerts in arrival order.
	hits := body.Hits.Hits
	alerts := make([]*alert.Alert, 0, len(hits))
	for i := len(hits) - 1; i >= 0; i-- {
		hit := hits[i]
		a, err := alert.New(hit.ID, hit.Source.Rule.ID, hit.Source.Rule.Level, hit.Source.Timestamp)
		if err != nil {
			continue
		}
		a.Description = hit.Source.Rule.Description
		if a.Description == "" {
			a.Description = "No description"
		}
		alerts = append(alerts, a)
	}

	return alerts, nil
}
