package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/reelsmith/reelsmith/internal/models"
	"github.com/reelsmith/reelsmith/internal/service"
)

// ProfileHandler handles video profile API endpoints.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Register registers the profile routes with the API.
func (h *ProfileHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "createVideoProfile",
		Method:      "POST",
		Path:        "/v1/video_profiles",
		Summary:     "Create video profile",
		Description: "Creates a named profile of reference images and generation-lock parameters",
		Tags:        []string{"Video Profiles"},
	}, h.Create)

	huma.Register(api, huma.Operation{
		OperationID: "listVideoProfiles",
		Method:      "GET",
		Path:        "/v1/video_profiles",
		Summary:     "List video profiles",
		Tags:        []string{"Video Profiles"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "getVideoProfile",
		Method:      "GET",
		Path:        "/v1/video_profiles/{profile_id}",
		Summary:     "Get video profile",
		Tags:        []string{"Video Profiles"},
	}, h.Get)

	huma.Register(api, huma.Operation{
		OperationID: "updateVideoProfile",
		Method:      "PUT",
		Path:        "/v1/video_profiles/{profile_id}",
		Summary:     "Update video profile",
		Description: "Applies a partial update to a profile",
		Tags:        []string{"Video Profiles"},
	}, h.Update)

	huma.Register(api, huma.Operation{
		OperationID:   "deleteVideoProfile",
		Method:        "DELETE",
		Path:          "/v1/video_profiles/{profile_id}",
		Summary:       "Delete video profile",
		Description:   "Deletes a profile; its jobs cascade and its assets are detached",
		Tags:          []string{"Video Profiles"},
		DefaultStatus: 204,
	}, h.Delete)

	huma.Register(api, huma.Operation{
		OperationID: "attachVideoProfileReferences",
		Method:      "POST",
		Path:        "/v1/video_profiles/{profile_id}/references",
		Summary:     "Attach reference images",
		Description: "Replaces the profile's ordered reference image list",
		Tags:        []string{"Video Profiles"},
	}, h.AttachReferences)
}

// CreateProfileInput is the input for creating a profile.
type CreateProfileInput struct {
	Body struct {
		Name           string                 `json:"name" minLength:"1" maxLength:"200"`
		Mode           string                 `json:"mode" enum:"fictional,real_identity"`
		ConsentChecked bool                   `json:"consent_checked,omitempty"`
		GenerationLock *models.GenerationLock `json:"generation_lock,omitempty"`
	}
}

// CreateProfileOutput is the output for creating a profile.
type CreateProfileOutput struct {
	Body ProfileResponse
}

// Create creates a new profile.
func (h *ProfileHandler) Create(ctx context.Context, input *CreateProfileInput) (*CreateProfileOutput, error) {
	profile, err := h.profiles.Create(ctx,
		input.Body.Name,
		models.ProfileMode(input.Body.Mode),
		input.Body.ConsentChecked,
		input.Body.GenerationLock,
	)
	if err != nil {
		return nil, mapServiceError(err, "failed to create profile")
	}
	return &CreateProfileOutput{Body: ProfileFromModel(profile)}, nil
}

// ListProfilesInput is the input for listing profiles.
type ListProfilesInput struct{}

// ListProfilesOutput is the output for listing profiles.
type ListProfilesOutput struct {
	Body struct {
		Profiles []ProfileResponse `json:"profiles"`
	}
}

// List returns all profiles.
func (h *ProfileHandler) List(ctx context.Context, input *ListProfilesInput) (*ListProfilesOutput, error) {
	profiles, err := h.profiles.List(ctx)
	if err != nil {
		return nil, mapServiceError(err, "failed to list profiles")
	}

	resp := &ListProfilesOutput{}
	resp.Body.Profiles = make([]ProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		resp.Body.Profiles = append(resp.Body.Profiles, ProfileFromModel(p))
	}
	return resp, nil
}

// GetProfileInput is the input for getting a profile.
type GetProfileInput struct {
	ProfileID string `path:"profile_id" doc:"Profile ID (ULID)"`
}

// GetProfileOutput is the output for getting a profile.
type GetProfileOutput struct {
	Body ProfileResponse
}

// Get returns a profile by ID.
func (h *ProfileHandler) Get(ctx context.Context, input *GetProfileInput) (*GetProfileOutput, error) {
	id, err := models.ParseULID(input.ProfileID)
	if err != nil {
		return nil, huma.Error404NotFound("video profile '" + input.ProfileID + "' not found")
	}

	profile, err := h.profiles.Get(ctx, id)
	if err != nil {
		return nil, mapServiceError(err, "failed to get profile")
	}
	return &GetProfileOutput{Body: ProfileFromModel(profile)}, nil
}

// UpdateProfileInput is the input for updating a profile.
type UpdateProfileInput struct {
	ProfileID string `path:"profile_id" doc:"Profile ID (ULID)"`
	Body      struct {
		Name           *string                `json:"name,omitempty" maxLength:"200"`
		Mode           *string                `json:"mode,omitempty" enum:"fictional,real_identity"`
		ConsentChecked *bool                  `json:"consent_checked,omitempty"`
		GenerationLock *models.GenerationLock `json:"generation_lock,omitempty"`
	}
}

// UpdateProfileOutput is the output for updating a profile.
type UpdateProfileOutput struct {
	Body ProfileResponse
}

// Update applies a partial update to a profile.
func (h *ProfileHandler) Update(ctx context.Context, input *UpdateProfileInput) (*UpdateProfileOutput, error) {
	id, err := models.ParseULID(input.ProfileID)
	if err != nil {
		return nil, huma.Error404NotFound("video profile '" + input.ProfileID + "' not found")
	}

	changes := service.ProfileUpdate{
		Name:           input.Body.Name,
		ConsentChecked: input.Body.ConsentChecked,
		GenerationLock: input.Body.GenerationLock,
	}
	if input.Body.Mode != nil {
		mode := models.ProfileMode(*input.Body.Mode)
		changes.Mode = &mode
	}

	profile, err := h.profiles.Update(ctx, id, changes)
	if err != nil {
		return nil, mapServiceError(err, "failed to update profile")
	}
	return &UpdateProfileOutput{Body: ProfileFromModel(profile)}, nil
}

// DeleteProfileInput is the input for deleting a profile.
type DeleteProfileInput struct {
	ProfileID string `path:"profile_id" doc:"Profile ID (ULID)"`
}

// DeleteProfileOutput is the output for deleting a profile.
type DeleteProfileOutput struct{}

// Delete deletes a profile.
func (h *ProfileHandler) Delete(ctx context.Context, input *DeleteProfileInput) (*DeleteProfileOutput, error) {
	id, err := models.ParseULID(input.ProfileID)
	if err != nil {
		// Deleting something that cannot exist is a no-op.
		return &DeleteProfileOutput{}, nil
	}

	if err := h.profiles.Delete(ctx, id); err != nil {
		return nil, mapServiceError(err, "failed to delete profile")
	}
	return &DeleteProfileOutput{}, nil
}

// AttachReferencesInput is the input for replacing reference images.
type AttachReferencesInput struct {
	ProfileID string `path:"profile_id" doc:"Profile ID (ULID)"`
	Body      struct {
		ImageNames []string `json:"image_names"`
	}
}

// AttachReferencesOutput is the output for replacing reference images.
type AttachReferencesOutput struct {
	Body ProfileResponse
}

// AttachReferences replaces the profile's reference image list.
func (h *ProfileHandler) AttachReferences(ctx context.Context, input *AttachReferencesInput) (*AttachReferencesOutput, error) {
	id, err := models.ParseULID(input.ProfileID)
	if err != nil {
		return nil, huma.Error404NotFound("video profile '" + input.ProfileID + "' not found")
	}

	profile, err := h.profiles.SetReferences(ctx, id, input.Body.ImageNames)
	if err != nil {
		return nil, mapServiceError(err, "failed to set references")
	}
	return &AttachReferencesOutput{Body: ProfileFromModel(profile)}, nil
}
