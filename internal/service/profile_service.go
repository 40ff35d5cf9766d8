package service

import (
	"context"
	"log/slog"

	"github.com/reelsmith/reelsmith/internal/config"
	"github.com/reelsmith/reelsmith/internal/imagestore"
	"github.com/reelsmith/reelsmith/internal/models"
	"github.com/reelsmith/reelsmith/internal/repository"
)

// ProfileUpdate carries a partial profile update. Nil fields are left as-is.
type ProfileUpdate struct {
	Name           *string
	Mode           *models.ProfileMode
	ConsentChecked *bool
	GenerationLock *models.GenerationLock
}

// ProfileService provides business logic for video profile management.
type ProfileService struct {
	profiles repository.ProfileRepository
	images   *imagestore.Store
	video    config.VideoConfig
	logger   *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(profiles repository.ProfileRepository, images *imagestore.Store, video config.VideoConfig) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		images:   images,
		video:    video,
		logger:   slog.Default(),
	}
}

// WithLogger sets the logger for the service.
func (s *ProfileService) WithLogger(logger *slog.Logger) *ProfileService {
	s.logger = logger
	return s
}

// Create creates a new profile.
func (s *ProfileService) Create(ctx context.Context, name string, mode models.ProfileMode, consentChecked bool, lock *models.GenerationLock) (*models.Profile, error) {
	profile := &models.Profile{
		Name:           name,
		Mode:           mode,
		ConsentChecked: consentChecked,
		GenerationLock: models.DefaultGenerationLock(),
	}
	if lock != nil {
		profile.GenerationLock = *lock
	}

	if err := profile.Validate(); err != nil {
		return nil, ValidationError("%v", err)
	}
	if err := s.validateMode(profile.Mode, profile.ConsentChecked); err != nil {
		return nil, err
	}

	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, ServiceError(err, "creating profile")
	}

	s.logger.Info("created video profile",
		"id", profile.ID.String(),
		"name", profile.Name,
		"mode", string(profile.Mode),
	)
	return profile, nil
}

// Get retrieves a profile by ID.
func (s *ProfileService) Get(ctx context.Context, id models.ULID) (*models.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, ServiceError(err, "getting profile")
	}
	if profile == nil {
		return nil, NotFoundError("video profile '%s' not found", id)
	}
	return profile, nil
}

// List retrieves all profiles, newest first.
func (s *ProfileService) List(ctx context.Context) ([]*models.Profile, error) {
	profiles, err := s.profiles.GetAll(ctx)
	if err != nil {
		return nil, ServiceError(err, "listing profiles")
	}
	return profiles, nil
}

// Update applies a partial update to a profile. The resulting mode and
// consent combination is validated before anything is written.
func (s *ProfileService) Update(ctx context.Context, id models.ULID, changes ProfileUpdate) (*models.Profile, error) {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if changes.Name != nil {
		profile.Name = *changes.Name
	}
	if changes.Mode != nil {
		profile.Mode = *changes.Mode
	}
	if changes.ConsentChecked != nil {
		profile.ConsentChecked = *changes.ConsentChecked
	}
	if changes.GenerationLock != nil {
		profile.GenerationLock = *changes.GenerationLock
	}

	if err := profile.Validate(); err != nil {
		return nil, ValidationError("%v", err)
	}
	if err := s.validateMode(profile.Mode, profile.ConsentChecked); err != nil {
		return nil, err
	}

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, ServiceError(err, "updating profile")
	}

	s.logger.Info("updated video profile", "id", profile.ID.String())
	return s.Get(ctx, id)
}

// Delete deletes a profile. References and jobs cascade; assets survive with
// a NULL profile_id.
func (s *ProfileService) Delete(ctx context.Context, id models.ULID) error {
	if err := s.profiles.Delete(ctx, id); err != nil {
		return ServiceError(err, "deleting profile")
	}
	s.logger.Info("deleted video profile", "id", id.String())
	return nil
}

// SetReferences replaces the profile's reference image list. Every name is
// cleaned to its base component; blank entries are dropped; each remaining
// image must exist and decode.
func (s *ProfileService) SetReferences(ctx context.Context, id models.ULID, imageNames []string) (*models.Profile, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	cleanNames := make([]string, 0, len(imageNames))
	for _, name := range imageNames {
		clean := imagestore.CleanName(name)
		if clean == "" {
			continue
		}
		cleanNames = append(cleanNames, clean)
	}

	for _, name := range cleanNames {
		if !s.images.Exists(name) {
			return nil, ValidationError("reference image '%s' was not found", name)
		}
		if err := s.images.ValidateDecodable(name); err != nil {
			return nil, ValidationError("reference image '%s' is invalid", name)
		}
	}

	if err := s.profiles.ReplaceReferences(ctx, id, cleanNames); err != nil {
		return nil, ServiceError(err, "replacing references")
	}

	s.logger.Info("set profile references",
		"id", id.String(),
		"count", len(cleanNames),
	)
	return s.Get(ctx, id)
}

// validateMode rejects real-identity profiles without consent when the
// consent marker is required.
func (s *ProfileService) validateMode(mode models.ProfileMode, consentChecked bool) error {
	if mode == models.ProfileModeRealIdentity && s.video.RequireConsent && !consentChecked {
		return ValidationError("consent is required for real identity mode")
	}
	return nil
}
