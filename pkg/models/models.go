// Package models holds the persisted entities shared by the store, the
// engine, and the HTTP layer.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Workspace statuses.
const (
	WorkspaceStatusPending   = "pending"
	WorkspaceStatusConnected = "connected"
	WorkspaceStatusError     = "error"
)

// Job run statuses.
const (
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Recommendation statuses. Only RecStatusNew is ever written by the engine;
// the others are user state and survive reruns untouched.
const (
	RecStatusNew          = "new"
	RecStatusAcknowledged = "acknowledged"
	RecStatusDismissed    = "dismissed"
)

// ResourceStateNotFound marks a resource the last collection did not return.
// The row stays queryable; nothing is ever hard-deleted by the engine.
const ResourceStateNotFound = "not-found"

// JSONMap is the schema-less metadata bag carried by resources and
// recommendations. gorm's json serializer stores it as a JSON column.
type JSONMap map[string]any

// Workspace is the tenant anchor: one row per connected AWS account.
type Workspace struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	RoleArn      string    `gorm:"not null" json:"roleArn"`
	AWSAccountID string    `gorm:"column:aws_account_id" json:"awsAccountId"`
	Status       string    `gorm:"not null;default:pending" json:"status"`
	UserID       string    `gorm:"index;size:36" json:"userId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Resource is one inventory row, keyed logically by (WorkspaceID,
// ResourceID). LastSeenAt drives the stale sweep.
type Resource struct {
	ID                   string    `gorm:"primaryKey;size:36" json:"id"`
	WorkspaceID          string    `gorm:"index;size:36;not null;uniqueIndex:idx_resource_workspace_resource" json:"workspaceId"`
	ResourceID           string    `gorm:"not null;uniqueIndex:idx_resource_workspace_resource" json:"resourceId"`
	ARN                  string    `gorm:"column:arn" json:"arn,omitempty"`
	Service              string    `gorm:"index;not null" json:"service"`
	Type                 string    `json:"type,omitempty"`
	Name                 string    `json:"name,omitempty"`
	Tags                 JSONMap   `gorm:"serializer:json" json:"tags,omitempty"`
	Metadata             JSONMap   `gorm:"serializer:json" json:"metadata,omitempty"`
	State                string    `json:"state,omitempty"`
	LastSeenAt           time.Time `gorm:"index" json:"lastSeenAt"`
	EstimatedMonthlyCost *float64  `json:"estimatedMonthlyCost,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// Recommendation is one detected optimization opportunity, deduplicated by
// (WorkspaceID, ResourceID, Type). Status belongs to the user after insert.
type Recommendation struct {
	ID                      string    `gorm:"primaryKey;size:36" json:"id"`
	WorkspaceID             string    `gorm:"index;size:36;not null;uniqueIndex:idx_rec_workspace_resource_type" json:"workspaceId"`
	Type                    string    `gorm:"not null;uniqueIndex:idx_rec_workspace_resource_type" json:"type"`
	ResourceID              string    `gorm:"not null;uniqueIndex:idx_rec_workspace_resource_type" json:"resourceId"`
	Description             string    `gorm:"not null" json:"description"`
	EstimatedMonthlySavings float64   `json:"estimatedMonthlySavings"`
	Confidence              string    `json:"confidence"`
	Status                  string    `gorm:"index;not null;default:new" json:"status"`
	Metadata                JSONMap   `gorm:"serializer:json" json:"metadata,omitempty"`
	CreatedAt               time.Time `json:"createdAt"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

// JobRun records one scheduler attempt on one workspace.
type JobRun struct {
	ID                   string     `gorm:"primaryKey;size:36" json:"id"`
	WorkspaceID          string     `gorm:"index;size:36;not null" json:"workspaceId"`
	Status               string     `gorm:"not null" json:"status"`
	RecommendationsFound int        `json:"recommendationsFound"`
	ErrorMessage         string     `json:"errorMessage,omitempty"`
	StartedAt            time.Time  `json:"startedAt"`
	CompletedAt          *time.Time `json:"completedAt,omitempty"`
}

func (w *Workspace) BeforeCreate(*gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

func (r *Resource) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r *Recommendation) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (j *JobRun) BeforeCreate(*gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}
