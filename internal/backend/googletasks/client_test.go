package googletasks_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"menubar/internal/backend/googletasks"
	"menubar/internal/config"
	"menubar/internal/fetch"
	"menubar/internal/service"
)

// tasksAPI serves the subset of the Tasks REST API the client calls.
type tasksAPI struct {
	mu      sync.Mutex
	status  int
	delay   time.Duration
	patched []string
}

func (a *tasksAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	status, delay := a.status, a.delay
	a.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if status != 0 {
		writeJSON(w, status, map[string]any{"error": map[string]any{"code": status, "message": "Injected."}})
		return
	}

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && path == "/tasks/v1/users/@me/lists/@default":
		writeJSON(w, http.StatusOK, map[string]any{"id": "L1", "title": "My Tasks"})
	case r.Method == http.MethodGet && path == "/tasks/v1/users/@me/lists":
		writeJSON(w, http.StatusOK, map[string]any{"items": []map[string]any{
			{"id": "L1", "title": "My Tasks"},
			{"id": "L2", "title": "Lab"},
		}})
	case r.Method == http.MethodGet && path == "/tasks/v1/lists/L2/tasks":
		if r.URL.Query().Get("pageToken") == "" {
			writeJSON(w, http.StatusOK, map[string]any{
				"items": []map[string]any{
					{"id": "T1", "title": "Order reagents", "status": "needsAction", "due": "2024-03-08T00:00:00.000Z"},
				},
				"nextPageToken": "p2",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": []map[string]any{
			{"id": "T2", "title": "Book scope time", "status": "needsAction", "notes": "2h slot"},
		}})
	case r.Method == http.MethodGet && path == "/tasks/v1/lists/L3/tasks":
		writeJSON(w, http.StatusOK, map[string]any{"items": []map[string]any{
			{"id": "T9", "title": "Broken", "due": "next week"},
		}})
	case r.Method == http.MethodPatch && strings.HasPrefix(path, "/tasks/v1/lists/L2/tasks/"):
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		id := strings.TrimPrefix(path, "/tasks/v1/lists/L2/tasks/")
		if id != "T1" {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{"code": 404, "message": "Task not found."}})
			return
		}
		a.mu.Lock()
		a.patched = append(a.patched, id+"="+body["status"].(string))
		a.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": body["status"]})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{"code": 404, "message": "Not found: " + path}})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newClient(t *testing.T, api *tasksAPI, timeout time.Duration) *googletasks.Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := googletasks.NewWithHTTPClient(context.Background(), srv.Client(), timeout, option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return c
}

func TestListLists(t *testing.T) {
	c := newClient(t, &tasksAPI{}, time.Second)

	lists, err := c.ListLists(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []service.TaskList{
		{ID: googletasks.DefaultListID, Title: "My Tasks", IsDefault: true},
		{ID: "L2", Title: "Lab"},
	}, lists)
}

func TestListOpenTasksFollowsPages(t *testing.T) {
	c := newClient(t, &tasksAPI{}, time.Second)

	got, err := c.ListOpenTasks(context.Background(), "L2")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Order reagents", got[0].Title)
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), got[0].Due)
	assert.Equal(t, "T2", got[1].ID)
	assert.Equal(t, "2h slot", got[1].Notes)
	assert.True(t, got[1].Due.IsZero())
}

func TestListOpenTasksBadDue(t *testing.T) {
	c := newClient(t, &tasksAPI{}, time.Second)

	_, err := c.ListOpenTasks(context.Background(), "L3")

	var de *fetch.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "due", de.Field)
}

func TestCompleteTask(t *testing.T) {
	api := &tasksAPI{}
	c := newClient(t, api, time.Second)

	require.NoError(t, c.CompleteTask(context.Background(), "L2", "T1"))
	assert.Equal(t, []string{"T1=completed"}, api.patched)

	err := c.CompleteTask(context.Background(), "L2", "T404")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, service.ErrUnauthorized},
		{http.StatusForbidden, service.ErrUnauthorized},
		{http.StatusNotFound, service.ErrNotFound},
	}
	for _, tc := range tests {
		c := newClient(t, &tasksAPI{status: tc.status}, time.Second)

		_, err := c.ListLists(context.Background())

		assert.ErrorIs(t, err, tc.want, "status %d", tc.status)
	}

	c := newClient(t, &tasksAPI{status: http.StatusInternalServerError}, time.Second)
	_, err := c.ListLists(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestTimeout(t *testing.T) {
	c := newClient(t, &tasksAPI{delay: time.Second}, 50*time.Millisecond)

	_, err := c.ListLists(context.Background())

	assert.ErrorIs(t, err, fetch.ErrTransport)
	assert.Contains(t, err.Error(), "timed out")
}

func TestNewWithoutCredentials(t *testing.T) {
	cfg, err := config.New(t.TempDir())
	require.NoError(t, err)

	_, err = googletasks.New(context.Background(), cfg)

	assert.ErrorIs(t, err, config.ErrNoCredentials)
}

func TestNewRejectsBadClientFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.New(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.OAuthClientFile), []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.TokenFile), []byte(`{"access_token":"a"}`), 0o600))

	_, err = googletasks.New(context.Background(), cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid oauth_client.json")
}
