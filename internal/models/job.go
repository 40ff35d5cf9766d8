package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// JobStatus represents the current status of a video generation job.
type JobStatus string

const (
	// JobStatusWaiting indicates the job is queued and not yet picked up.
	JobStatusWaiting JobStatus = "waiting"
	// JobStatusRunning indicates the worker is preparing keyframes.
	JobStatusRunning JobStatus = "running"
	// JobStatusEncoding indicates the encoder subprocess is active.
	JobStatusEncoding JobStatus = "encoding"
	// JobStatusCompleted indicates the job produced a video asset.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusError indicates the job failed.
	JobStatusError JobStatus = "error"
	// JobStatusCancelled indicates the job was cancelled.
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal returns true once the job can no longer transition.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusError || s == JobStatusCancelled
}

// MaxJobErrorLen bounds the stored error message.
const MaxJobErrorLen = 2000

// ErrJobProfileRequired is returned when a job is saved without a profile.
var ErrJobProfileRequired = errors.New("job profile_id is required")

// GenerateRequest is the effective generation request persisted with each
// job in the request_json column. Duration and fps are resolved against the
// configured defaults before the job row is written.
type GenerateRequest struct {
	Prompt         *string `json:"prompt"`
	NegativePrompt *string `json:"negative_prompt"`
	DurationSec    int     `json:"duration_sec"`
	FPS            int     `json:"fps"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
}

// Job is a single video generation run bound to a profile.
type Job struct {
	BaseModel

	ProfileID ULID      `gorm:"not null;type:varchar(26);index" json:"profile_id"`
	Status    JobStatus `gorm:"not null;size:20;index" json:"status"`

	// Progress is 0..100 and non-decreasing while the job is non-terminal.
	Progress float64 `gorm:"not null;default:0" json:"progress"`

	// Error holds the failure message, truncated to MaxJobErrorLen.
	Error *string `gorm:"size:2000" json:"error"`

	// OutputVideoID references the produced asset; set only on completion.
	OutputVideoID *ULID `gorm:"type:varchar(26)" json:"output_video_id"`

	// Request is stored as JSON in request_json.
	Request GenerateRequest `gorm:"column:request_json;type:text;serializer:json" json:"request"`

	// CancelRequested is the durable cancellation flag. It only ever
	// transitions false -> true.
	CancelRequested bool `gorm:"not null;default:false" json:"cancel_requested"`

	StartedAt *time.Time `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
}

// TableName returns the table name for Job.
func (Job) TableName() string {
	return "video_jobs"
}

// Validate performs basic validation on the job.
func (j *Job) Validate() error {
	if j.ProfileID.IsZero() {
		return ErrJobProfileRequired
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the job and generates a ULID.
func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if err := j.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return j.Validate()
}

// IsTerminal returns true once the job has reached a terminal state.
func (j *Job) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// TruncateError bounds an error message to MaxJobErrorLen.
func TruncateError(msg string) string {
	if len(msg) > MaxJobErrorLen {
		return msg[:MaxJobErrorLen]
	}
	return msg
}
