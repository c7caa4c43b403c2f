package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/costlens/costlens/pkg/models"
)

// Memory is the in-process Store used by tests and by mock mode. It keeps
// the same keying and update semantics as the Postgres store.
type Memory struct {
	mu              sync.Mutex
	workspaces      map[string]models.Workspace
	resources       map[string]map[string]models.Resource       // workspaceID -> resourceID
	recommendations map[string]map[string]models.Recommendation // workspaceID -> resourceID|type
	runs            []models.JobRun

	// Now is injectable so tests can pin row timestamps.
	Now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		workspaces:      map[string]models.Workspace{},
		resources:       map[string]map[string]models.Resource{},
		recommendations: map[string]map[string]models.Recommendation{},
		Now:             time.Now,
	}
}

func recKey(resourceID, recType string) string { return resourceID + "|" + recType }

func (m *Memory) CreateWorkspace(_ context.Context, ws *models.Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ws.ID == "" {
		ws.ID = uuid.NewString()
	}
	if ws.Status == "" {
		ws.Status = models.WorkspaceStatusPending
	}
	now := m.Now()
	ws.CreatedAt = now
	ws.UpdatedAt = now
	m.workspaces[ws.ID] = *ws
	return nil
}

func (m *Memory) GetWorkspace(_ context.Context, id string) (*models.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ws, nil
}

func (m *Memory) ListWorkspaces(_ context.Context) ([]models.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Workspace, 0, len(m.workspaces))
	for _, ws := range m.workspaces {
		out = append(out, ws)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) UpdateWorkspaceStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[id]
	if !ok {
		return ErrNotFound
	}
	ws.Status = status
	ws.UpdatedAt = m.Now()
	m.workspaces[id] = ws
	return nil
}

func (m *Memory) DeleteWorkspace(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workspaces[id]; !ok {
		return ErrNotFound
	}
	if len(m.resources[id]) > 0 || len(m.recommendations[id]) > 0 {
		return ErrWorkspaceHasChildren
	}
	for _, run := range m.runs {
		if run.WorkspaceID == id {
			return ErrWorkspaceHasChildren
		}
	}
	delete(m.workspaces, id)
	return nil
}

func (m *Memory) UpsertResource(_ context.Context, workspaceID string, rec ResourceUpsert, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.resources[workspaceID]
	if !ok {
		rows = map[string]models.Resource{}
		m.resources[workspaceID] = rows
	}

	row, exists := rows[rec.ResourceID]
	if !exists {
		row = models.Resource{
			ID:          uuid.NewString(),
			WorkspaceID: workspaceID,
			ResourceID:  rec.ResourceID,
			CreatedAt:   m.Now(),
		}
	}
	row.ARN = rec.ARN
	row.Service = rec.Service
	row.Type = rec.Type
	row.Name = rec.Name
	row.Tags = rec.Tags
	row.Metadata = rec.Metadata
	row.State = rec.State
	row.LastSeenAt = now
	row.UpdatedAt = m.Now()
	if rec.EstimatedMonthlyCost != nil || !exists {
		row.EstimatedMonthlyCost = rec.EstimatedMonthlyCost
	}
	rows[rec.ResourceID] = row
	return nil
}

func (m *Memory) ListResources(_ context.Context, workspaceID string) ([]models.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Resource, 0, len(m.resources[workspaceID]))
	for _, row := range m.resources[workspaceID] {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Service == out[j].Service {
			return out[i].ResourceID < out[j].ResourceID
		}
		return out[i].Service < out[j].Service
	})
	return out, nil
}

func (m *Memory) MarkStaleResources(_ context.Context, workspaceID string, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var touched int64
	for id, row := range m.resources[workspaceID] {
		if row.LastSeenAt.Before(cutoff) && row.State != models.ResourceStateNotFound {
			row.State = models.ResourceStateNotFound
			row.UpdatedAt = m.Now()
			m.resources[workspaceID][id] = row
			touched++
		}
	}
	return touched, nil
}

func (m *Memory) UpsertRecommendation(_ context.Context, workspaceID string, rec RecommendationUpsert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.recommendations[workspaceID]
	if !ok {
		rows = map[string]models.Recommendation{}
		m.recommendations[workspaceID] = rows
	}

	key := recKey(rec.ResourceID, rec.Type)
	row, exists := rows[key]
	if !exists {
		row = models.Recommendation{
			ID:          uuid.NewString(),
			WorkspaceID: workspaceID,
			Type:        rec.Type,
			ResourceID:  rec.ResourceID,
			Status:      models.RecStatusNew,
			CreatedAt:   m.Now(),
		}
	}
	row.Description = rec.Description
	row.EstimatedMonthlySavings = rec.EstimatedMonthlySavings
	row.Confidence = rec.Confidence
	row.Metadata = rec.Metadata
	row.UpdatedAt = m.Now()
	rows[key] = row
	return nil
}

func (m *Memory) ListRecommendations(_ context.Context, workspaceID string, filter RecommendationFilter) ([]models.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Recommendation
	for _, row := range m.recommendations[workspaceID] {
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		if filter.Type != "" && row.Type != filter.Type {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EstimatedMonthlySavings == out[j].EstimatedMonthlySavings {
			return recKey(out[i].ResourceID, out[i].Type) < recKey(out[j].ResourceID, out[j].Type)
		}
		return out[i].EstimatedMonthlySavings > out[j].EstimatedMonthlySavings
	})
	return out, nil
}

func (m *Memory) UpdateRecommendationStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for wsID, rows := range m.recommendations {
		for key, row := range rows {
			if row.ID == id {
				row.Status = status
				row.UpdatedAt = m.Now()
				m.recommendations[wsID][key] = row
				return nil
			}
		}
	}
	return ErrNotFound
}

func (m *Memory) CreateJobRun(_ context.Context, run *models.JobRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	m.runs = append(m.runs, *run)
	return nil
}

func (m *Memory) CompleteJobRun(_ context.Context, id string, recommendationsFound int, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == id {
			m.runs[i].Status = models.JobStatusCompleted
			m.runs[i].RecommendationsFound = recommendationsFound
			m.runs[i].CompletedAt = &completedAt
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) FailJobRun(_ context.Context, id, errorMessage string, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == id {
			m.runs[i].Status = models.JobStatusFailed
			m.runs[i].ErrorMessage = errorMessage
			m.runs[i].CompletedAt = &completedAt
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) LatestJobRun(_ context.Context, workspaceID string) (*models.JobRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.JobRun
	for i := range m.runs {
		run := m.runs[i]
		if run.WorkspaceID != workspaceID {
			continue
		}
		if latest == nil || run.StartedAt.After(latest.StartedAt) {
			latest = &run
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	out := *latest
	return &out, nil
}
