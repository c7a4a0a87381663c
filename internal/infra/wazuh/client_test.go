package wazuh

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvocio/api/internal/config"
	"github.com/openvocio/api/pkg/domain/alert"
	"github.com/openvocio/api/pkg/domain/shared"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&config.WazuhConfig{
		ElasticURL: server.URL,
		Username:   "admin",
		Password:   "secret",
		Timeout:    5 * time.Second,
	})
	require.NoError(t, err)
	return client
}

const searchResponse = `{
	"hits": {
		"hits": [
			{"_id": "alert-2", "_source": {"@timestamp": "2026-09-01T10:05:00Z",
				"rule": {"id": "100003", "description": "SSH brute force", "level": 12}}},
			{"_id": "alert-1", "_source": {"@timestamp": "2026-09-01T10:00:00Z",
				"rule": {"id": "100002", "description": "", "level": 4}}}
		]
	}
}`

func TestClient_QueryRecentAlerts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wazuh-alerts-*/_search", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)

		var query map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&query))
		assert.EqualValues(t, 500, query["size"])

		rng := query["query"].(map[string]any)["range"].(map[string]any)["@timestamp"].(map[string]any)
		assert.Equal(t, "now-3600s", rng["gte"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(searchResponse))
	})

	alerts, err := client.QueryRecentAlerts(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	// The index answers newest first; callers get oldest first.
	assert.Equal(t, "alert-1", alerts[0].AlertID)
	assert.Equal(t, "alert-2", alerts[1].AlertID)
	assert.Equal(t, "No description", alerts[0].Description)
	assert.Equal(t, "SSH brute force", alerts[1].Description)
	assert.Equal(t, 12, alerts[1].Severity)
}

func TestClient_QueryRecentAlerts_ServerErrorIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.QueryRecentAlerts(context.Background(), time.Hour)
	assert.True(t, shared.IsTransient(err), "expected transient error, got %v", err)
}

func TestClient_QueryRecentAlerts_BadRequestIsNotTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.QueryRecentAlerts(context.Background(), time.Hour)
	require.Error(t, err)
	assert.False(t, shared.IsTransient(err), "a rejected query must not be retried as transient")
}

func TestToGenericFindings(t *testing.T) {
	ts := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	a1, err := alert.New("alert-1", "100002", 4, ts)
	require.NoError(t, err)
	a2, err := alert.New("alert-2", "", 12, ts)
	require.NoError(t, err)

	payload, err := ToGenericFindings([]*alert.Alert{a1, a2})
	require.NoError(t, err)

	var doc struct {
		Findings []struct {
			Title            string `json:"title"`
			Severity         string `json:"severity"`
			Source           string `json:"source"`
			Timestamp        string `json:"timestamp"`
			UniqueIDFromTool string `json:"unique_id_from_tool"`
		} `json:"findings"`
	}
	require.NoError(t, json.Unmarshal(payload, &doc))
	require.Len(t, doc.Findings, 2)

	assert.Equal(t, "Wazuh Rule 100002", doc.Findings[0].Title)
	assert.Equal(t, "Low", doc.Findings[0].Severity)
	assert.Equal(t, "Wazuh", doc.Findings[0].Source)
	assert.Equal(t, "2026-09-01T10:00:00Z", doc.Findings[0].Timestamp)
	assert.Equal(t, "alert-1", doc.Findings[0].UniqueIDFromTool)

	assert.Equal(t, "Wazuh Rule N/A", doc.Findings[1].Title)
	assert.Equal(t, "High", doc.Findings[1].Severity)
	assert.Equal(t, "alert-2", doc.Findings[1].UniqueIDFromTool)
}
