// Package store persists workspaces, resource inventory, recommendations,
// and job runs. Two implementations exist: a Postgres-backed one via gorm
// and an in-memory one used by tests and mock mode.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/costlens/costlens/pkg/models"
)

var (
	ErrNotFound = errors.New("store: not found")

	// ErrWorkspaceHasChildren is returned by DeleteWorkspace while resource,
	// recommendation, or job-run rows still reference the workspace.
	ErrWorkspaceHasChildren = errors.New("store: workspace has dependent rows")
)

// ResourceUpsert is the inventory write shape. A nil EstimatedMonthlyCost
// means "leave any previously stored cost alone".
type ResourceUpsert struct {
	ResourceID           string
	ARN                  string
	Service              string
	Type                 string
	Name                 string
	Tags                 models.JSONMap
	Metadata             models.JSONMap
	State                string
	EstimatedMonthlyCost *float64
}

// RecommendationUpsert is the analyzer write shape. Status is absent on
// purpose: inserts start at "new" and updates never touch it.
type RecommendationUpsert struct {
	Type                    string
	ResourceID              string
	Description             string
	EstimatedMonthlySavings float64
	Confidence              string
	Metadata                models.JSONMap
}

// RecommendationFilter narrows ListRecommendations. Zero values match all.
type RecommendationFilter struct {
	Status string
	Type   string
}

type Store interface {
	CreateWorkspace(ctx context.Context, ws *models.Workspace) error
	GetWorkspace(ctx context.Context, id string) (*models.Workspace, error)
	ListWorkspaces(ctx context.Context) ([]models.Workspace, error)
	UpdateWorkspaceStatus(ctx context.Context, id, status string) error
	DeleteWorkspace(ctx context.Context, id string) error

	// UpsertResource is keyed by (workspaceID, ResourceID). Inserts set every
	// field; updates overwrite descriptive fields, refresh LastSeenAt, keep
	// CreatedAt, and skip the cost column when the new cost is nil.
	UpsertResource(ctx context.Context, workspaceID string, rec ResourceUpsert, now time.Time) error
	ListResources(ctx context.Context, workspaceID string) ([]models.Resource, error)

	// MarkStaleResources soft-deletes rows not seen since the cutoff and
	// returns how many rows it touched.
	MarkStaleResources(ctx context.Context, workspaceID string, cutoff time.Time) (int64, error)

	// UpsertRecommendation is keyed by (workspaceID, ResourceID, Type).
	// The engine never writes Status on update.
	UpsertRecommendation(ctx context.Context, workspaceID string, rec RecommendationUpsert) error
	ListRecommendations(ctx context.Context, workspaceID string, filter RecommendationFilter) ([]models.Recommendation, error)
	UpdateRecommendationStatus(ctx context.Context, id, status string) error

	CreateJobRun(ctx context.Context, run *models.JobRun) error
	CompleteJobRun(ctx context.Context, id string, recommendationsFound int, completedAt time.Time) error
	FailJobRun(ctx context.Context, id, errorMessage string, completedAt time.Time) error
	LatestJobRun(ctx context.Context, workspaceID string) (*models.JobRun, error)
}
