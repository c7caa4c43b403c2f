package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/costlens/costlens/pkg/models"
)

// Gorm is the Postgres-backed Store.
type Gorm struct {
	db *gorm.DB
}

// Open connects to Postgres, runs migrations, and returns the store.
func Open(dsn string) (*Gorm, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(
		&models.Workspace{},
		&models.Resource{},
		&models.Recommendation{},
		&models.JobRun{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Gorm{db: db}, nil
}

// NewGorm wraps an already-open gorm handle. Migrations are the caller's
// problem; tests use this with sqlite-compatible handles.
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (s *Gorm) CreateWorkspace(ctx context.Context, ws *models.Workspace) error {
	if ws.Status == "" {
		ws.Status = models.WorkspaceStatusPending
	}
	return s.db.WithContext(ctx).Create(ws).Error
}

func (s *Gorm) GetWorkspace(ctx context.Context, id string) (*models.Workspace, error) {
	var ws models.Workspace
	err := s.db.WithContext(ctx).First(&ws, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

func (s *Gorm) ListWorkspaces(ctx context.Context) ([]models.Workspace, error) {
	var out []models.Workspace
	err := s.db.WithContext(ctx).Order("created_at").Find(&out).Error
	return out, err
}

func (s *Gorm) UpdateWorkspaceStatus(ctx context.Context, id, status string) error {
	res := s.db.WithContext(ctx).Model(&models.Workspace{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Gorm) DeleteWorkspace(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var children int64
		if err := tx.Model(&models.Resource{}).Where("workspace_id = ?", id).Count(&children).Error; err != nil {
			return err
		}
		if children == 0 {
			if err := tx.Model(&models.Recommendation{}).Where("workspace_id = ?", id).Count(&children).Error; err != nil {
				return err
			}
		}
		if children == 0 {
			if err := tx.Model(&models.JobRun{}).Where("workspace_id = ?", id).Count(&children).Error; err != nil {
				return err
			}
		}
		if children > 0 {
			return ErrWorkspaceHasChildren
		}

		res := tx.Delete(&models.Workspace{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// resourceUpdateColumns is the allow-list for conflict updates. created_at
// is absent so the original row keeps its insert time; estimated_monthly_cost
// is appended only when the new value is non-nil.
var resourceUpdateColumns = []string{
	"arn", "service", "type", "name", "tags", "metadata",
	"state", "last_seen_at", "updated_at",
}

func (s *Gorm) UpsertResource(ctx context.Context, workspaceID string, rec ResourceUpsert, now time.Time) error {
	row := models.Resource{
		WorkspaceID:          workspaceID,
		ResourceID:           rec.ResourceID,
		ARN:                  rec.ARN,
		Service:              rec.Service,
		Type:                 rec.Type,
		Name:                 rec.Name,
		Tags:                 rec.Tags,
		Metadata:             rec.Metadata,
		State:                rec.State,
		LastSeenAt:           now,
		EstimatedMonthlyCost: rec.EstimatedMonthlyCost,
	}

	columns := resourceUpdateColumns
	if rec.EstimatedMonthlyCost != nil {
		columns = append(append([]string{}, columns...), "estimated_monthly_cost")
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "resource_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&row).Error
}

func (s *Gorm) ListResources(ctx context.Context, workspaceID string) ([]models.Resource, error) {
	var out []models.Resource
	err := s.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("service, resource_id").
		Find(&out).Error
	return out, err
}

func (s *Gorm) MarkStaleResources(ctx context.Context, workspaceID string, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Resource{}).
		Where("workspace_id = ? AND last_seen_at < ? AND state <> ?",
			workspaceID, cutoff, models.ResourceStateNotFound).
		Update("state", models.ResourceStateNotFound)
	return res.RowsAffected, res.Error
}

// recommendationUpdateColumns deliberately excludes status: user
// acknowledgements and dismissals survive every rerun.
var recommendationUpdateColumns = []string{
	"description", "estimated_monthly_savings", "confidence", "metadata", "updated_at",
}

func (s *Gorm) UpsertRecommendation(ctx context.Context, workspaceID string, rec RecommendationUpsert) error {
	row := models.Recommendation{
		WorkspaceID:             workspaceID,
		Type:                    rec.Type,
		ResourceID:              rec.ResourceID,
		Description:             rec.Description,
		EstimatedMonthlySavings: rec.EstimatedMonthlySavings,
		Confidence:              rec.Confidence,
		Status:                  models.RecStatusNew,
		Metadata:                rec.Metadata,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "resource_id"}, {Name: "type"}},
		DoUpdates: clause.AssignmentColumns(recommendationUpdateColumns),
	}).Create(&row).Error
}

func (s *Gorm) ListRecommendations(ctx context.Context, workspaceID string, filter RecommendationFilter) ([]models.Recommendation, error) {
	q := s.db.WithContext(ctx).Where("workspace_id = ?", workspaceID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	var out []models.Recommendation
	err := q.Order("estimated_monthly_savings DESC").Find(&out).Error
	return out, err
}

func (s *Gorm) UpdateRecommendationStatus(ctx context.Context, id, status string) error {
	res := s.db.WithContext(ctx).Model(&models.Recommendation{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Gorm) CreateJobRun(ctx context.Context, run *models.JobRun) error {
	return s.db.WithContext(ctx).Create(run).Error
}

func (s *Gorm) CompleteJobRun(ctx context.Context, id string, recommendationsFound int, completedAt time.Time) error {
	return s.db.WithContext(ctx).Model(&models.JobRun{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":                models.JobStatusCompleted,
			"recommendations_found": recommendationsFound,
			"completed_at":          completedAt,
		}).Error
}

func (s *Gorm) FailJobRun(ctx context.Context, id, errorMessage string, completedAt time.Time) error {
	return s.db.WithContext(ctx).Model(&models.JobRun{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        models.JobStatusFailed,
			"error_message": errorMessage,
			"completed_at":  completedAt,
		}).Error
}

func (s *Gorm) LatestJobRun(ctx context.Context, workspaceID string) (*models.JobRun, error) {
	var run models.JobRun
	err := s.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("started_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
