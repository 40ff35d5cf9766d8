package repository

import (
	"context"
	"fmt"

	"github.com/reelsmith/reelsmith/internal/models"
	"gorm.io/gorm"
)

// profileRepo implements ProfileRepository using GORM.
type profileRepo struct {
	db *gorm.DB
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepo{db: db}
}

// Create creates a new profile together with its reference rows.
func (r *profileRepo) Create(ctx context.Context, profile *models.Profile) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		refs := profile.References
		profile.References = nil
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		for i := range refs {
			refs[i].ProfileID = profile.ID
			refs[i].SortOrder = i
			if err := tx.Create(&refs[i]).Error; err != nil {
				return err
			}
		}
		profile.References = refs
		return nil
	})
	if err != nil {
		return fmt.Errorf("creating profile: %w", err)
	}
	return nil
}

// GetByID retrieves a profile by ID with references in sort order.
func (r *profileRepo) GetByID(ctx context.Context, id models.ULID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting profile by ID: %w", err)
	}
	if err := r.loadReferences(ctx, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetAll retrieves all profiles with references loaded, newest first.
func (r *profileRepo) GetAll(ctx context.Context) ([]*models.Profile, error) {
	var profiles []*models.Profile
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("getting all profiles: %w", err)
	}
	for _, profile := range profiles {
		if err := r.loadReferences(ctx, profile); err != nil {
			return nil, err
		}
	}
	return profiles, nil
}

// Update updates the profile row.
func (r *profileRepo) Update(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Omit("References").Save(profile).Error; err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return nil
}

// Delete deletes a profile by ID. The schema cascades reference and job rows
// and nulls asset profile_ids.
func (r *profileRepo) Delete(ctx context.Context, id models.ULID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Profile{}).Error; err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	return nil
}

// ReplaceReferences atomically replaces the profile's reference image list.
func (r *profileRepo) ReplaceReferences(ctx context.Context, profileID models.ULID, imageNames []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("profile_id = ?", profileID).
			Delete(&models.ProfileReference{}).Error; err != nil {
			return err
		}
		for i, name := range imageNames {
			ref := models.ProfileReference{
				ProfileID: profileID,
				ImageName: name,
				SortOrder: i,
			}
			if err := tx.Create(&ref).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Profile{}).
			Where("id = ?", profileID).
			Update("updated_at", models.Now()).Error
	})
	if err != nil {
		return fmt.Errorf("replacing profile references: %w", err)
	}
	return nil
}

// loadReferences fills profile.References in sort order.
func (r *profileRepo) loadReferences(ctx context.Context, profile *models.Profile) error {
	var refs []models.ProfileReference
	if err := r.db.WithContext(ctx).
		Where("profile_id = ?", profile.ID).
		Order("sort_order ASC").
		Find(&refs).Error; err != nil {
		return fmt.Errorf("loading profile references: %w", err)
	}
	profile.References = refs
	return nil
}
