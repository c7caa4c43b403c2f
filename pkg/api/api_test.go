package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costlens/costlens/pkg/models"
	"github.com/costlens/costlens/pkg/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	srv := NewServer(st, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, st
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWorkspaceCRUD(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/workspaces", map[string]string{
		"name":         "acme-prod",
		"roleArn":      "arn:aws:iam::123456789012:role/costlens",
		"awsAccountId": "123456789012",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[models.Workspace](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.WorkspaceStatusPending, created.Status)

	resp, err := http.Get(ts.URL + "/api/workspaces")
	require.NoError(t, err)
	list := decode[[]models.Workspace](t, resp)
	require.Len(t, list, 1)

	resp, err = http.Get(ts.URL + "/api/workspaces/" + created.ID)
	require.NoError(t, err)
	got := decode[models.Workspace](t, resp)
	assert.Equal(t, created.ID, got.ID)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/workspaces/"+created.ID, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/workspaces/" + created.ID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateWorkspaceValidation(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/workspaces", map[string]string{"name": "no-role"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteWorkspaceWithChildrenConflicts(t *testing.T) {
	ts, st := newTestServer(t)
	ctx := context.Background()

	ws := &models.Workspace{Name: "acme", RoleArn: "arn:aws:iam::1:role/r"}
	require.NoError(t, st.CreateWorkspace(ctx, ws))
	require.NoError(t, st.UpsertResource(ctx, ws.ID, store.ResourceUpsert{
		ResourceID: "i-1", Service: "EC2",
	}, time.Now()))

	resp := doJSON(t, http.MethodDelete, ts.URL+"/api/workspaces/"+ws.ID, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestListResourcesAndRecommendations(t *testing.T) {
	ts, st := newTestServer(t)
	ctx := context.Background()

	ws := &models.Workspace{Name: "acme", RoleArn: "arn:aws:iam::1:role/r"}
	require.NoError(t, st.CreateWorkspace(ctx, ws))
	require.NoError(t, st.UpsertResource(ctx, ws.ID, store.ResourceUpsert{
		ResourceID: "i-1", Service: "EC2", State: "running",
	}, time.Now()))
	require.NoError(t, st.UpsertRecommendation(ctx, ws.ID, store.RecommendationUpsert{
		Type: "EC2_DOWN_SIZE", ResourceID: "i-1", Description: "downsize",
		EstimatedMonthlySavings: 9.11, Confidence: "high",
	}))
	require.NoError(t, st.UpsertRecommendation(ctx, ws.ID, store.RecommendationUpsert{
		Type: "EBS_ORPHAN", ResourceID: "vol-1", Description: "orphan",
		EstimatedMonthlySavings: 50, Confidence: "high",
	}))

	resp, err := http.Get(ts.URL + "/api/workspaces/" + ws.ID + "/resources")
	require.NoError(t, err)
	resources := decode[[]models.Resource](t, resp)
	require.Len(t, resources, 1)

	resp, err = http.Get(ts.URL + "/api/workspaces/" + ws.ID + "/recommendations")
	require.NoError(t, err)
	recs := decode[[]models.Recommendation](t, resp)
	require.Len(t, recs, 2)
	assert.Equal(t, "EBS_ORPHAN", recs[0].Type, "sorted by savings, largest first")

	resp, err = http.Get(ts.URL + "/api/workspaces/" + ws.ID + "/recommendations?type=EC2_DOWN_SIZE")
	require.NoError(t, err)
	recs = decode[[]models.Recommendation](t, resp)
	require.Len(t, recs, 1)

	resp, err = http.Get(ts.URL + "/api/workspaces/missing/resources")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateRecommendationStatus(t *testing.T) {
	ts, st := newTestServer(t)
	ctx := context.Background()

	ws := &models.Workspace{Name: "acme", RoleArn: "arn:aws:iam::1:role/r"}
	require.NoError(t, st.CreateWorkspace(ctx, ws))
	require.NoError(t, st.UpsertRecommendation(ctx, ws.ID, store.RecommendationUpsert{
		Type: "EBS_ORPHAN", ResourceID: "vol-1", Description: "orphan",
	}))
	recs, err := st.ListRecommendations(ctx, ws.ID, store.RecommendationFilter{})
	require.NoError(t, err)

	resp := doJSON(t, http.MethodPatch, ts.URL+"/api/recommendations/"+recs[0].ID+"/status",
		map[string]string{"status": "dismissed"})
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	recs, err = st.ListRecommendations(ctx, ws.ID, store.RecommendationFilter{})
	require.NoError(t, err)
	assert.Equal(t, models.RecStatusDismissed, recs[0].Status)

	resp = doJSON(t, http.MethodPatch, ts.URL+"/api/recommendations/"+recs[0].ID+"/status",
		map[string]string{"status": "archived"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPatch, ts.URL+"/api/recommendations/missing/status",
		map[string]string{"status": "dismissed"})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLatestRun(t *testing.T) {
	ts, st := newTestServer(t)
	ctx := context.Background()

	ws := &models.Workspace{Name: "acme", RoleArn: "arn:aws:iam::1:role/r"}
	require.NoError(t, st.CreateWorkspace(ctx, ws))

	resp, err := http.Get(ts.URL + "/api/workspaces/" + ws.ID + "/runs/latest")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	run := &models.JobRun{WorkspaceID: ws.ID, Status: models.JobStatusRunning, StartedAt: time.Now()}
	require.NoError(t, st.CreateJobRun(ctx, run))
	require.NoError(t, st.CompleteJobRun(ctx, run.ID, 3, time.Now()))

	resp, err = http.Get(ts.URL + "/api/workspaces/" + ws.ID + "/runs/latest")
	require.NoError(t, err)
	got := decode[models.JobRun](t, resp)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	assert.Equal(t, 3, got.RecommendationsFound)
}
