// Package handlers provides HTTP API handlers for reelsmith.
package handlers

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/reelsmith/reelsmith/internal/models"
	"github.com/reelsmith/reelsmith/internal/service"
)

// ProfileResponse is the API representation of a video profile.
type ProfileResponse struct {
	ID              string                `json:"id" doc:"Profile ID (ULID)"`
	Name            string                `json:"name"`
	Mode            string                `json:"mode" enum:"fictional,real_identity"`
	ConsentChecked  bool                  `json:"consent_checked"`
	ReferenceImages []string              `json:"reference_images"`
	GenerationLock  models.GenerationLock `json:"generation_lock"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// ProfileFromModel converts a profile model to its API representation.
func ProfileFromModel(p *models.Profile) ProfileResponse {
	return ProfileResponse{
		ID:              p.ID.String(),
		Name:            p.Name,
		Mode:            string(p.Mode),
		ConsentChecked:  p.ConsentChecked,
		ReferenceImages: p.ReferenceImageNames(),
		GenerationLock:  p.GenerationLock,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// JobResponse is the API representation of a video job.
type JobResponse struct {
	ID              string                 `json:"id" doc:"Job ID (ULID)"`
	ProfileID       string                 `json:"profile_id"`
	Status          string                 `json:"status" enum:"waiting,running,encoding,completed,error,cancelled"`
	Progress        float64                `json:"progress"`
	Error           *string                `json:"error,omitempty"`
	OutputVideoID   *string                `json:"output_video_id,omitempty"`
	Request         models.GenerateRequest `json:"request"`
	CancelRequested bool                   `json:"cancel_requested"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
	StartedAt       *time.Time             `json:"started_at,omitempty"`
	EndedAt         *time.Time             `json:"ended_at,omitempty"`
}

// JobFromModel converts a job model to its API representation.
func JobFromModel(j *models.Job) JobResponse {
	resp := JobResponse{
		ID:              j.ID.String(),
		ProfileID:       j.ProfileID.String(),
		Status:          string(j.Status),
		Progress:        j.Progress,
		Error:           j.Error,
		Request:         j.Request,
		CancelRequested: j.CancelRequested,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
		StartedAt:       j.StartedAt,
		EndedAt:         j.EndedAt,
	}
	if j.OutputVideoID != nil {
		id := j.OutputVideoID.String()
		resp.OutputVideoID = &id
	}
	return resp
}

// AssetResponse is the API representation of a video asset.
type AssetResponse struct {
	ID        string    `json:"id" doc:"Asset ID (ULID)"`
	Filename  string    `json:"filename"`
	Duration  float64   `json:"duration" doc:"Duration in seconds"`
	FPS       int       `json:"fps"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
	ProfileID *string   `json:"profile_id,omitempty"`
}

// AssetFromModel converts an asset model to its API representation.
func AssetFromModel(a *models.Asset) AssetResponse {
	resp := AssetResponse{
		ID:        a.ID.String(),
		Filename:  a.Filename,
		Duration:  a.Duration,
		FPS:       a.FPS,
		Width:     a.Width,
		Height:    a.Height,
		CreatedAt: a.CreatedAt,
	}
	if a.ProfileID != nil {
		id := a.ProfileID.String()
		resp.ProfileID = &id
	}
	return resp
}

// mapServiceError converts a service error into the matching huma status
// error. Unknown errors become 500s with a generic message.
func mapServiceError(err error, fallback string) error {
	kind, ok := service.KindOf(err)
	if !ok {
		return huma.Error500InternalServerError(fallback, err)
	}
	switch kind {
	case service.KindNotFound:
		return huma.Error404NotFound(err.Error())
	case service.KindValidation:
		return huma.Error422UnprocessableEntity(err.Error())
	default:
		return huma.Error500InternalServerError(fallback, err)
	}
}
