package repository

import (
	"context"
	"fmt"

	"github.com/reelsmith/reelsmith/internal/models"
	"gorm.io/gorm"
)

// jobRepo implements JobRepository using GORM.
type jobRepo struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepo{db: db}
}

// Create creates a new job.
func (r *jobRepo) Create(ctx context.Context, job *models.Job) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("creating job: %w", err)
	}
	return nil
}

// GetByID retrieves a job by ID.
func (r *jobRepo) GetByID(ctx context.Context, id models.ULID) (*models.Job, error) {
	var job models.Job
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting job by ID: %w", err)
	}
	return &job, nil
}

// GetAll retrieves all jobs, newest first.
func (r *jobRepo) GetAll(ctx context.Context) ([]*models.Job, error) {
	var jobs []*models.Job
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("getting all jobs: %w", err)
	}
	return jobs, nil
}

// GetByProfileID retrieves jobs for a profile, newest first.
func (r *jobRepo) GetByProfileID(ctx context.Context, profileID models.ULID) ([]*models.Job, error) {
	var jobs []*models.Job
	if err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("getting jobs by profile ID: %w", err)
	}
	return jobs, nil
}

// Update saves the full job row.
func (r *jobRepo) Update(ctx context.Context, job *models.Job) error {
	if err := r.db.WithContext(ctx).Save(job).Error; err != nil {
		return fmt.Errorf("updating job: %w", err)
	}
	return nil
}

// RequestCancel durably sets cancel_requested on a job and returns the
// refreshed row. The flag only ever transitions false -> true.
func (r *jobRepo) RequestCancel(ctx context.Context, id models.ULID) (*models.Job, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"cancel_requested": true,
			"updated_at":       models.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("requesting job cancel: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// CompleteWithAsset inserts the asset row and marks the job completed in a
// single transaction, so a crash can never leave a completed job without its
// asset row.
func (r *jobRepo) CompleteWithAsset(ctx context.Context, job *models.Job, asset *models.Asset) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(asset).Error; err != nil {
			return err
		}

		now := models.Now()
		job.Status = models.JobStatusCompleted
		job.Progress = 100
		job.OutputVideoID = &asset.ID
		job.EndedAt = &now
		return tx.Save(job).Error
	})
	if err != nil {
		return fmt.Errorf("completing job with asset: %w", err)
	}
	return nil
}

// SetRunning moves a job to running: progress 5, error cleared, started_at
// stamped.
func (r *jobRepo) SetRunning(ctx context.Context, id models.ULID) error {
	now := models.Now()
	err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     models.JobStatusRunning,
			"progress":   5.0,
			"error":      nil,
			"started_at": now,
			"updated_at": now,
		}).Error
	if err != nil {
		return fmt.Errorf("marking job running: %w", err)
	}
	return nil
}

// SetEncoding moves a job to encoding with progress 30.
func (r *jobRepo) SetEncoding(ctx context.Context, id models.ULID) error {
	err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     models.JobStatusEncoding,
			"progress":   30.0,
			"updated_at": models.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("marking job encoding: %w", err)
	}
	return nil
}

// UpdateProgress writes progress for a job still in running or encoding.
// Terminal rows are never touched.
func (r *jobRepo) UpdateProgress(ctx context.Context, id models.ULID, progress float64) error {
	err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status IN (?, ?)",
			id, models.JobStatusRunning, models.JobStatusEncoding).
		Updates(map[string]any{
			"progress":   progress,
			"updated_at": models.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("updating job progress: %w", err)
	}
	return nil
}

// MarkCancelled moves a job to cancelled with progress reset to 0.
func (r *jobRepo) MarkCancelled(ctx context.Context, id models.ULID) error {
	now := models.Now()
	err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     models.JobStatusCancelled,
			"progress":   0.0,
			"ended_at":   now,
			"updated_at": now,
		}).Error
	if err != nil {
		return fmt.Errorf("marking job cancelled: %w", err)
	}
	return nil
}

// MarkError moves a job to errored with a truncated message.
func (r *jobRepo) MarkError(ctx context.Context, id models.ULID, message string) error {
	now := models.Now()
	err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     models.JobStatusError,
			"error":      models.TruncateError(message),
			"ended_at":   now,
			"updated_at": now,
		}).Error
	if err != nil {
		return fmt.Errorf("marking job errored: %w", err)
	}
	return nil
}

// IsCancelRequested reads the durable cancel flag. A missing row reads as
// true so the worker abandons deleted jobs.
func (r *jobRepo) IsCancelRequested(ctx context.Context, id models.ULID) (bool, error) {
	var flags []bool
	err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", id).
		Limit(1).
		Pluck("cancel_requested", &flags).Error
	if err != nil {
		return false, fmt.Errorf("reading cancel flag: %w", err)
	}
	if len(flags) == 0 {
		return true, nil
	}
	return flags[0], nil
}

// FailInterrupted marks running and encoding jobs as errored with the given
// message, keeping any error or ended_at already recorded. Called once at
// startup before the worker begins; waiting jobs are left intact for
// re-enqueue.
func (r *jobRepo) FailInterrupted(ctx context.Context, message string) (int64, error) {
	now := models.Now()
	result := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("status IN (?, ?)", models.JobStatusRunning, models.JobStatusEncoding).
		Updates(map[string]any{
			"status":     models.JobStatusError,
			"error":      gorm.Expr("COALESCE(error, ?)", models.TruncateError(message)),
			"ended_at":   gorm.Expr("COALESCE(ended_at, ?)", now),
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failing interrupted jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// GetWaitingIDs returns the IDs of waiting jobs in creation order, used to
// refill the queue after a restart.
func (r *jobRepo) GetWaitingIDs(ctx context.Context) ([]models.ULID, error) {
	var ids []models.ULID
	if err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("status = ?", models.JobStatusWaiting).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("getting waiting job IDs: %w", err)
	}
	return ids, nil
}
