package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costlens/costlens/pkg/models"
)

func newTestStore(t *testing.T) (*Memory, *models.Workspace) {
	t.Helper()
	s := NewMemory()
	ws := &models.Workspace{Name: "acme-prod", RoleArn: "arn:aws:iam::123456789012:role/costlens", AWSAccountID: "123456789012"}
	require.NoError(t, s.CreateWorkspace(context.Background(), ws))
	return s, ws
}

func floatPtr(v float64) *float64 { return &v }

func TestWorkspaceLifecycle(t *testing.T) {
	s, ws := newTestStore(t)
	ctx := context.Background()

	got, err := s.GetWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkspaceStatusPending, got.Status)

	require.NoError(t, s.UpdateWorkspaceStatus(ctx, ws.ID, models.WorkspaceStatusConnected))
	got, err = s.GetWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkspaceStatusConnected, got.Status)

	_, err = s.GetWorkspace(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteWorkspace(ctx, ws.ID))
	_, err = s.GetWorkspace(ctx, ws.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteWorkspaceRestrictedWhileChildrenExist(t *testing.T) {
	s, ws := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.UpsertResource(ctx, ws.ID, ResourceUpsert{ResourceID: "i-1", Service: "ec2"}, now))
	assert.ErrorIs(t, s.DeleteWorkspace(ctx, ws.ID), ErrWorkspaceHasChildren)
}

func TestUpsertResourceIdempotentAndCostPreserving(t *testing.T) {
	s, ws := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.UpsertResource(ctx, ws.ID, ResourceUpsert{
		ResourceID:           "i-1",
		Service:              "ec2",
		Type:                 "t3.medium",
		Name:                 "api-server",
		State:                "running",
		EstimatedMonthlyCost: floatPtr(30.37),
	}, t0))

	rows, err := s.ListResources(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	firstID := rows[0].ID
	firstCreated := rows[0].CreatedAt

	// Second upsert with nil cost: descriptive fields refresh, cost survives.
	t1 := t0.Add(30 * time.Minute)
	require.NoError(t, s.UpsertResource(ctx, ws.ID, ResourceUpsert{
		ResourceID: "i-1",
		Service:    "ec2",
		Type:       "t3.medium",
		Name:       "api-server-renamed",
		State:      "stopped",
	}, t1))

	rows, err = s.ListResources(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, firstID, rows[0].ID, "upsert must not mint a new row")
	assert.Equal(t, firstCreated, rows[0].CreatedAt)
	assert.Equal(t, "api-server-renamed", rows[0].Name)
	assert.Equal(t, "stopped", rows[0].State)
	assert.Equal(t, t1, rows[0].LastSeenAt)
	require.NotNil(t, rows[0].EstimatedMonthlyCost)
	assert.Equal(t, 30.37, *rows[0].EstimatedMonthlyCost)

	// Non-nil cost overwrites.
	require.NoError(t, s.UpsertResource(ctx, ws.ID, ResourceUpsert{
		ResourceID:           "i-1",
		Service:              "ec2",
		EstimatedMonthlyCost: floatPtr(70.08),
	}, t1))
	rows, _ = s.ListResources(ctx, ws.ID)
	assert.Equal(t, 70.08, *rows[0].EstimatedMonthlyCost)
}

func TestMarkStaleResources(t *testing.T) {
	s, ws := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.UpsertResource(ctx, ws.ID, ResourceUpsert{ResourceID: "i-old", Service: "ec2", State: "running"}, now.Add(-2*time.Hour)))
	require.NoError(t, s.UpsertResource(ctx, ws.ID, ResourceUpsert{ResourceID: "i-fresh", Service: "ec2", State: "running"}, now))

	touched, err := s.MarkStaleResources(ctx, ws.ID, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), touched)

	rows, err := s.ListResources(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2, "stale sweep is a soft delete; rows remain")
	byID := map[string]models.Resource{}
	for _, r := range rows {
		byID[r.ResourceID] = r
	}
	assert.Equal(t, models.ResourceStateNotFound, byID["i-old"].State)
	assert.Equal(t, "running", byID["i-fresh"].State)

	// Sweeping again touches nothing.
	touched, err = s.MarkStaleResources(ctx, ws.ID, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, touched)
}

func TestUpsertRecommendationPreservesStatus(t *testing.T) {
	s, ws := newTestStore(t)
	ctx := context.Background()

	rec := RecommendationUpsert{
		Type:                    "EBS_ORPHAN",
		ResourceID:              "vol-1",
		Description:             "EBS volume vol-1 has been detached for 30 days; delete it.",
		EstimatedMonthlySavings: 50.00,
		Confidence:              "high",
	}
	require.NoError(t, s.UpsertRecommendation(ctx, ws.ID, rec))

	recs, err := s.ListRecommendations(ctx, ws.ID, RecommendationFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, models.RecStatusNew, recs[0].Status)

	require.NoError(t, s.UpdateRecommendationStatus(ctx, recs[0].ID, models.RecStatusDismissed))

	rec.Description = "EBS volume vol-1 has been detached for 31 days; delete it."
	rec.EstimatedMonthlySavings = 50.00
	require.NoError(t, s.UpsertRecommendation(ctx, ws.ID, rec))

	recs, err = s.ListRecommendations(ctx, ws.ID, RecommendationFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 1, "same (workspace, resource, type) key must not duplicate")
	assert.Equal(t, models.RecStatusDismissed, recs[0].Status, "engine writes never touch user status")
	assert.Contains(t, recs[0].Description, "31 days")
}

func TestListRecommendationsFilterAndOrder(t *testing.T) {
	s, ws := newTestStore(t)
	ctx := context.Background()

	for _, rec := range []RecommendationUpsert{
		{Type: "EBS_ORPHAN", ResourceID: "vol-1", EstimatedMonthlySavings: 50, Confidence: "high", Description: "a"},
		{Type: "EC2_DOWN_SIZE", ResourceID: "i-1", EstimatedMonthlySavings: 9.11, Confidence: "high", Description: "b"},
		{Type: "S3_LIFECYCLE", ResourceID: "bucket", EstimatedMonthlySavings: 12.74, Confidence: "medium", Description: "c"},
	} {
		require.NoError(t, s.UpsertRecommendation(ctx, ws.ID, rec))
	}

	recs, err := s.ListRecommendations(ctx, ws.ID, RecommendationFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "EBS_ORPHAN", recs[0].Type, "largest savings first")

	recs, err = s.ListRecommendations(ctx, ws.ID, RecommendationFilter{Type: "S3_LIFECYCLE"})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	recs, err = s.ListRecommendations(ctx, ws.ID, RecommendationFilter{Status: models.RecStatusDismissed})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestJobRunLifecycle(t *testing.T) {
	s, ws := newTestStore(t)
	ctx := context.Background()
	started := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

	run := &models.JobRun{WorkspaceID: ws.ID, Status: models.JobStatusRunning, StartedAt: started}
	require.NoError(t, s.CreateJobRun(ctx, run))

	latest, err := s.LatestJobRun(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, latest.Status)
	assert.Nil(t, latest.CompletedAt)

	done := started.Add(45 * time.Second)
	require.NoError(t, s.CompleteJobRun(ctx, run.ID, 12, done))
	latest, err = s.LatestJobRun(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, latest.Status)
	assert.Equal(t, 12, latest.RecommendationsFound)
	require.NotNil(t, latest.CompletedAt)
	assert.True(t, !latest.CompletedAt.Before(latest.StartedAt))

	// A later failed run becomes the latest.
	run2 := &models.JobRun{WorkspaceID: ws.ID, Status: models.JobStatusRunning, StartedAt: started.Add(time.Hour)}
	require.NoError(t, s.CreateJobRun(ctx, run2))
	require.NoError(t, s.FailJobRun(ctx, run2.ID, "assume role: access denied", started.Add(time.Hour+time.Second)))

	latest, err = s.LatestJobRun(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, latest.Status)
	assert.Equal(t, "assume role: access denied", latest.ErrorMessage)
}
