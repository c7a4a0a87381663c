package defectdojo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvocio/api/internal/config"
	"github.com/openvocio/api/pkg/domain/shared"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&config.DefectDojoConfig{
		BaseURL:   server.URL,
		APIKey:    "test-key",
		ProductID: 3,
		Timeout:   5 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(&config.DefectDojoConfig{APIKey: "k"})
	assert.Error(t, err)

	_, err = NewClient(&config.DefectDojoConfig{BaseURL: "http://dojo"})
	assert.Error(t, err)
}

func TestClient_ImportScan_XMLPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/import-scan/", r.URL.Path)
		assert.Equal(t, "Token test-key", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "OpenVAS Parser", r.FormValue("scan_type"))
		assert.Equal(t, "42", r.FormValue("engagement"))
		assert.Equal(t, "true", r.FormValue("active"))
		assert.Equal(t, "true", r.FormValue("verified"))
		assert.Equal(t, "false", r.FormValue("close_old_findings"))
		assert.Equal(t, "true", r.FormValue("skip_duplicates"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Contains(t, header.Filename, ".xml")
		assert.Equal(t, "application/xml", header.Header.Get("Content-Type"))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"test":101}`))
	})

	testID, err := client.ImportScan(context.Background(), []byte("<report/>"), PayloadXML, 42)
	require.NoError(t, err)
	assert.Equal(t, 101, testID)
}

func TestClient_ImportScan_JSONPayloadUsesGenericScanType(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Generic Findings Import", r.FormValue("scan_type"))

		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Contains(t, header.Filename, ".json")
		assert.Equal(t, "application/json", header.Header.Get("Content-Type"))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"test":102}`))
	})

	testID, err := client.ImportScan(context.Background(), []byte(`{"findings":[]}`), PayloadJSON, 42)
	require.NoError(t, err)
	assert.Equal(t, 102, testID)
}

func TestClient_ImportScan_RejectedEngagementIsConfiguration(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"engagement":["Invalid pk"]}`))
	})

	_, err := client.ImportScan(context.Background(), []byte("<report/>"), PayloadXML, 999)
	assert.True(t, shared.IsConfiguration(err), "expected configuration error, got %v", err)
}

func TestClient_ImportScan_ServerErrorIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.ImportScan(context.Background(), []byte("<report/>"), PayloadXML, 42)
	assert.True(t, shared.IsTransient(err), "expected transient error, got %v", err)
}

func TestClient_GetTestFindings_FollowsPagination(t *testing.T) {
	// Only path and query of the next link matter; the client rebases it
	// onto its own base URL.
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/findings/", r.URL.Path)
		assert.Equal(t, "101", r.URL.Query().Get("test"))
		assert.Equal(t, "Token test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("offset") == "" {
			w.Write([]byte(`{"next":"http://dojo.internal/findings/?test=101&limit=500&offset=500","results":[
				{"id":1,"title":"Finding one","severity":"High"},
				{"id":2,"title":"Finding two","severity":"Low"}
			]}`))
			return
		}
		w.Write([]byte(`{"next":"","results":[{"id":3,"title":"Finding three","severity":"Medium"}]}`))
	})

	findings, err := client.GetTestFindings(context.Background(), 101)
	require.NoError(t, err)
	require.Len(t, findings, 3)
	assert.Equal(t, "Finding one", findings[0].Title)
	assert.Equal(t, "Medium", findings[2].Severity)
}

func TestClient_CreateEngagement(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/engagements/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":42}`))
	})

	id, err := client.CreateEngagement(context.Background(), "Weekly scan", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 42, id)
}
