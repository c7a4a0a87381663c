package gvm

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

	client, err := NewClient(&config.GVMConfig{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(&config.GVMConfig{})
	assert.Error(t, err)

	_, err = NewClient(nil)
	assert.Error(t, err)
}

func TestClient_ListTasks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/tasks", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tasks":[
			{"id":"task-1","name":"Weekly scan","status":"Done"},
			{"id":"task-2","name":"Daily scan","status":"Running"}
		]}`))
	})

	tasks, err := client.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "task-1", tasks[0].ID)
	assert.Equal(t, "Done", tasks[0].Status)
	assert.Equal(t, "Running", tasks[1].Status)
}

func TestClient_ListTasks_ServerErrorIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.ListTasks(context.Background())
	assert.True(t, shared.IsTransient(err), "expected transient error, got %v", err)
}

func TestClient_ListTasks_RateLimitedIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.ListTasks(context.Background())
	assert.True(t, shared.IsTransient(err), "expected transient error, got %v", err)
}

func TestClient_GetTaskReportID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tasks/task-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"task":{"id":"task-1","last_report":{"report":{"id":"rep-1"}}}}`))
	})

	id, err := client.GetTaskReportID(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, "rep-1", id)
}

func TestClient_GetTaskReportID_MissingReport(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"task":{"id":"task-1"}}`))
	})

	_, err := client.GetTaskReportID(context.Background(), "task-1")
	assert.True(t, shared.IsConfiguration(err), "expected configuration error, got %v", err)
}

func TestClient_GetTaskReportID_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetTaskReportID(context.Background(), "missing")
	assert.True(t, shared.IsNotFound(err), "expected not found, got %v", err)
}

func TestClient_GetReport(t *testing.T) {
	const doc = `<report id="rep-1"><results/></report>`

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reports/rep-1", r.URL.Path)
		assert.Equal(t, "xml", r.URL.Query().Get("format"))
		w.Write([]byte(doc))
	})

	raw, err := client.GetReport(context.Background(), "rep-1", "")
	require.NoError(t, err)
	assert.Equal(t, doc, string(raw))
}

func TestClient_GetReport_ErrorEnvelopeInOKResponse(t *testing.T) {
	// The engine can answer 200 with an error document inside.
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<get_reports_response status="400" status_text="Failed to find report"/>`))
	})

	_, err := client.GetReport(context.Background(), "rep-1", "xml")
	assert.Error(t, err)
	assert.False(t, shared.IsTransient(err), "a rejected report request must not be retried as transient")
}

func TestClient_ConnectionFailureIsTransient(t *testing.T) {
	client, err := NewClient(&config.GVMConfig{
		BaseURL: "http://127.0.0.1:1",
		Timeout: time.Second,
	})
	require.NoError(t, err)

	_, err = client.ListTasks(context.Background())
	assert.True(t, shared.IsTransient(err), "expected transient error, got %v", err)
}
