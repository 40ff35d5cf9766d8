// Package repository defines data access interfaces for reelsmith entities.
// All database access goes through these interfaces, enabling easy testing
// and database backend switching.
package repository

import (
	"context"

	"github.com/reelsmith/reelsmith/internal/models"
)

// ProfileRepository defines operations for video profile persistence.
type ProfileRepository interface {
	// Create creates a new profile together with its reference rows.
	Create(ctx context.Context, profile *models.Profile) error
	// GetByID retrieves a profile by ID with its references loaded in sort
	// order. Returns nil when the profile does not exist.
	GetByID(ctx context.Context, id models.ULID) (*models.Profile, error)
	// GetAll retrieves all profiles with references loaded, newest first.
	GetAll(ctx context.Context) ([]*models.Profile, error)
	// Update updates the profile row (not its references).
	Update(ctx context.Context, profile *models.Profile) error
	// Delete deletes a profile by ID. Reference and job rows cascade at the
	// schema level; asset rows keep a NULL profile_id.
	Delete(ctx context.Context, id models.ULID) error
	// ReplaceReferences atomically replaces the profile's reference image
	// list. Sort order follows slice order.
	ReplaceReferences(ctx context.Context, profileID models.ULID, imageNames []string) error
}

// JobRepository defines operations for video job persistence.
type JobRepository interface {
	// Create creates a new job.
	Create(ctx context.Context, job *models.Job) error
	// GetByID retrieves a job by ID. Returns nil when the job does not exist.
	GetByID(ctx context.Context, id models.ULID) (*models.Job, error)
	// GetAll retrieves all jobs, newest first.
	GetAll(ctx context.Context) ([]*models.Job, error)
	// GetByProfileID retrieves jobs for a profile, newest first.
	GetByProfileID(ctx context.Context, profileID models.ULID) ([]*models.Job, error)
	// Update saves the full job row.
	Update(ctx context.Context, job *models.Job) error
	// RequestCancel durably sets cancel_requested on a job. Returns the
	// refreshed job, or nil when the job does not exist.
	RequestCancel(ctx context.Context, id models.ULID) (*models.Job, error)
	// CompleteWithAsset inserts the asset row and marks the job completed
	// in a single transaction.
	CompleteWithAsset(ctx context.Context, job *models.Job, asset *models.Asset) error
	// SetRunning moves a job to running: progress 5, error cleared,
	// started_at stamped.
	SetRunning(ctx context.Context, id models.ULID) error
	// SetEncoding moves a job to encoding with progress 30.
	SetEncoding(ctx context.Context, id models.ULID) error
	// UpdateProgress writes progress for a job still in running or encoding.
	UpdateProgress(ctx context.Context, id models.ULID, progress float64) error
	// MarkCancelled moves a job to cancelled with progress reset to 0.
	MarkCancelled(ctx context.Context, id models.ULID) error
	// MarkError moves a job to errored with a truncated message.
	MarkError(ctx context.Context, id models.ULID, message string) error
	// IsCancelRequested reads the durable cancel flag. A missing row reads
	// as true so the worker abandons deleted jobs.
	IsCancelRequested(ctx context.Context, id models.ULID) (bool, error)
	// FailInterrupted marks running and encoding jobs as errored with the
	// given message, keeping any error already recorded. Used once at
	// startup; returns the number of rows touched.
	FailInterrupted(ctx context.Context, message string) (int64, error)
	// GetWaitingIDs returns the IDs of waiting jobs in creation order.
	GetWaitingIDs(ctx context.Context) ([]models.ULID, error)
}

// AssetRepository defines operations for video asset persistence.
type AssetRepository interface {
	// Create creates a new asset.
	Create(ctx context.Context, asset *models.Asset) error
	// GetByID retrieves an asset by ID. Returns nil when the asset does not
	// exist.
	GetByID(ctx context.Context, id models.ULID) (*models.Asset, error)
	// GetAll retrieves all assets, newest first.
	GetAll(ctx context.Context) ([]*models.Asset, error)
	// GetByProfileID retrieves assets produced for a profile, newest first.
	GetByProfileID(ctx context.Context, profileID models.ULID) ([]*models.Asset, error)
	// Delete deletes an asset row by ID.
	Delete(ctx context.Context, id models.ULID) error
}
