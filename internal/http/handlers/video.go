package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/reelsmith/reelsmith/internal/models"
	"github.com/reelsmith/reelsmith/internal/service"
)

// VideoHandler handles video generation and asset API endpoints.
type VideoHandler struct {
	videos *service.VideoService
	assets *service.AssetService
}

// NewVideoHandler creates a new video handler.
func NewVideoHandler(videos *service.VideoService, assets *service.AssetService) *VideoHandler {
	return &VideoHandler{videos: videos, assets: assets}
}

// Register registers the video routes with the API.
func (h *VideoHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "generateVideo",
		Method:      "POST",
		Path:        "/v1/videos/generate",
		Summary:     "Generate video",
		Description: "Creates a generation job for a profile and enqueues it",
		Tags:        []string{"Videos"},
	}, h.Generate)

	huma.Register(api, huma.Operation{
		OperationID: "listVideoJobs",
		Method:      "GET",
		Path:        "/v1/videos/jobs",
		Summary:     "List video jobs",
		Tags:        []string{"Videos"},
	}, h.ListJobs)

	huma.Register(api, huma.Operation{
		OperationID: "getVideoJob",
		Method:      "GET",
		Path:        "/v1/videos/jobs/{job_id}",
		Summary:     "Get video job",
		Tags:        []string{"Videos"},
	}, h.GetJob)

	huma.Register(api, huma.Operation{
		OperationID:   "cancelVideoJob",
		Method:        "DELETE",
		Path:          "/v1/videos/jobs/{job_id}",
		Summary:       "Cancel video job",
		Description:   "Requests cancellation; already-finished jobs are a no-op",
		Tags:          []string{"Videos"},
		DefaultStatus: 204,
	}, h.CancelJob)

	huma.Register(api, huma.Operation{
		OperationID: "listVideos",
		Method:      "GET",
		Path:        "/v1/videos",
		Summary:     "List video assets",
		Tags:        []string{"Videos"},
	}, h.ListAssets)

	huma.Register(api, huma.Operation{
		OperationID: "getVideo",
		Method:      "GET",
		Path:        "/v1/videos/{video_id}",
		Summary:     "Get video asset",
		Tags:        []string{"Videos"},
	}, h.GetAsset)
}

// RegisterFileRoutes registers the raw file streaming route on the router.
// File delivery bypasses huma so http.ServeFile can handle range requests.
func (h *VideoHandler) RegisterFileRoutes(r chi.Router) {
	r.Get("/v1/videos/{video_id}/file", h.ServeFile)
}

// GenerateVideoInput is the input for creating a generation job. All
// generation parameters are optional; omitted ones fall back to the
// configured defaults.
type GenerateVideoInput struct {
	Body struct {
		ProfileID      string  `json:"profile_id" doc:"Profile ID (ULID)"`
		Prompt         *string `json:"prompt,omitempty"`
		NegativePrompt *string `json:"negative_prompt,omitempty"`
		DurationSec    *int    `json:"duration_sec,omitempty" minimum:"1" maximum:"30"`
		FPS            *int    `json:"fps,omitempty" minimum:"4" maximum:"60"`
		Width          *int    `json:"width,omitempty" minimum:"256" maximum:"1920" default:"1280"`
		Height         *int    `json:"height,omitempty" minimum:"256" maximum:"1920" default:"720"`
	}
}

// GenerateVideoOutput is the output for creating a generation job.
type GenerateVideoOutput struct {
	Body JobResponse
}

// Generate creates and enqueues a generation job.
func (h *VideoHandler) Generate(ctx context.Context, input *GenerateVideoInput) (*GenerateVideoOutput, error) {
	profileID, err := models.ParseULID(input.Body.ProfileID)
	if err != nil {
		return nil, huma.Error404NotFound("video profile '" + input.Body.ProfileID + "' not found")
	}

	req := models.GenerateRequest{
		Prompt:         input.Body.Prompt,
		NegativePrompt: input.Body.NegativePrompt,
	}
	if input.Body.DurationSec != nil {
		req.DurationSec = *input.Body.DurationSec
	}
	if input.Body.FPS != nil {
		req.FPS = *input.Body.FPS
	}
	if input.Body.Width != nil {
		req.Width = *input.Body.Width
	}
	if input.Body.Height != nil {
		req.Height = *input.Body.Height
	}

	job, err := h.videos.CreateJob(ctx, profileID, req)
	if err != nil {
		return nil, mapServiceError(err, "failed to create job")
	}
	return &GenerateVideoOutput{Body: JobFromModel(job)}, nil
}

// ListVideoJobsInput is the input for listing jobs.
type ListVideoJobsInput struct{}

// ListVideoJobsOutput is the output for listing jobs.
type ListVideoJobsOutput struct {
	Body struct {
		Jobs []JobResponse `json:"jobs"`
	}
}

// ListJobs returns all jobs, newest first.
func (h *VideoHandler) ListJobs(ctx context.Context, input *ListVideoJobsInput) (*ListVideoJobsOutput, error) {
	jobs, err := h.videos.ListJobs(ctx)
	if err != nil {
		return nil, mapServiceError(err, "failed to list jobs")
	}

	resp := &ListVideoJobsOutput{}
	resp.Body.Jobs = make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		resp.Body.Jobs = append(resp.Body.Jobs, JobFromModel(j))
	}
	return resp, nil
}

// GetVideoJobInput is the input for getting a job.
type GetVideoJobInput struct {
	JobID string `path:"job_id" doc:"Job ID (ULID)"`
}

// GetVideoJobOutput is the output for getting a job.
type GetVideoJobOutput struct {
	Body JobResponse
}

// GetJob returns a job by ID.
func (h *VideoHandler) GetJob(ctx context.Context, input *GetVideoJobInput) (*GetVideoJobOutput, error) {
	id, err := models.ParseULID(input.JobID)
	if err != nil {
		return nil, huma.Error404NotFound("video job '" + input.JobID + "' not found")
	}

	job, err := h.videos.GetJob(ctx, id)
	if err != nil {
		return nil, mapServiceError(err, "failed to get job")
	}
	return &GetVideoJobOutput{Body: JobFromModel(job)}, nil
}

// CancelVideoJobInput is the input for cancelling a job.
type CancelVideoJobInput struct {
	JobID string `path:"job_id" doc:"Job ID (ULID)"`
}

// CancelVideoJobOutput is the output for cancelling a job.
type CancelVideoJobOutput struct{}

// CancelJob requests cancellation of a job.
func (h *VideoHandler) CancelJob(ctx context.Context, input *CancelVideoJobInput) (*CancelVideoJobOutput, error) {
	id, err := models.ParseULID(input.JobID)
	if err != nil {
		return nil, huma.Error404NotFound("video job '" + input.JobID + "' not found")
	}

	if err := h.videos.CancelJob(ctx, id); err != nil {
		return nil, mapServiceError(err, "failed to cancel job")
	}
	return &CancelVideoJobOutput{}, nil
}

// ListVideosInput is the input for listing assets.
type ListVideosInput struct{}

// ListVideosOutput is the output for listing assets.
type ListVideosOutput struct {
	Body struct {
		Videos []AssetResponse `json:"videos"`
	}
}

// ListAssets returns all assets, newest first.
func (h *VideoHandler) ListAssets(ctx context.Context, input *ListVideosInput) (*ListVideosOutput, error) {
	assets, err := h.assets.List(ctx)
	if err != nil {
		return nil, mapServiceError(err, "failed to list videos")
	}

	resp := &ListVideosOutput{}
	resp.Body.Videos = make([]AssetResponse, 0, len(assets))
	for _, a := range assets {
		resp.Body.Videos = append(resp.Body.Videos, AssetFromModel(a))
	}
	return resp, nil
}

// GetVideoInput is the input for getting an asset.
type GetVideoInput struct {
	VideoID string `path:"video_id" doc:"Asset ID (ULID)"`
}

// GetVideoOutput is the output for getting an asset.
type GetVideoOutput struct {
	Body AssetResponse
}

// GetAsset returns an asset by ID.
func (h *VideoHandler) GetAsset(ctx context.Context, input *GetVideoInput) (*GetVideoOutput, error) {
	id, err := models.ParseULID(input.VideoID)
	if err != nil {
		return nil, huma.Error404NotFound("video asset '" + input.VideoID + "' not found")
	}

	asset, err := h.assets.Get(ctx, id)
	if err != nil {
		return nil, mapServiceError(err, "failed to get video")
	}
	return &GetVideoOutput{Body: AssetFromModel(asset)}, nil
}

// ServeFile streams the MP4 file for an asset.
func (h *VideoHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	rawID := chi.URLParam(r, "video_id")
	id, err := models.ParseULID(rawID)
	if err != nil {
		http.Error(w, "video asset not found", http.StatusNotFound)
		return
	}

	asset, err := h.assets.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	path, err := h.assets.FilePath(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `inline; filename="`+asset.Filename+`"`)
	http.ServeFile(w, r, path)
}

// writeServiceError maps a service error onto a plain HTTP response for
// routes outside huma.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case service.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case service.IsValidation(err):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
