package repository

import (
	"context"
	"fmt"

	"github.com/reelsmith/reelsmith/internal/models"
	"gorm.io/gorm"
)

// assetRepo implements AssetRepository using GORM.
type assetRepo struct {
	db *gorm.DB
}

// NewAssetRepository creates a new AssetRepository.
func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &assetRepo{db: db}
}

// Create creates a new asset.
func (r *assetRepo) Create(ctx context.Context, asset *models.Asset) error {
	if err := r.db.WithContext(ctx).Create(asset).Error; err != nil {
		return fmt.Errorf("creating asset: %w", err)
	}
	return nil
}

// GetByID retrieves an asset by ID.
func (r *assetRepo) GetByID(ctx context.Context, id models.ULID) (*models.Asset, error) {
	var asset models.Asset
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&asset).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting asset by ID: %w", err)
	}
	return &asset, nil
}

// GetAll retrieves all assets, newest first.
func (r *assetRepo) GetAll(ctx context.Context) ([]*models.Asset, error) {
	var assets []*models.Asset
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("getting all assets: %w", err)
	}
	return assets, nil
}

// GetByProfileID retrieves assets produced for a profile, newest first.
func (r *assetRepo) GetByProfileID(ctx context.Context, profileID models.ULID) ([]*models.Asset, error) {
	var assets []*models.Asset
	if err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at DESC").
		Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("getting assets by profile ID: %w", err)
	}
	return assets, nil
}

// Delete deletes an asset row by ID.
func (r *assetRepo) Delete(ctx context.Context, id models.ULID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Asset{}).Error; err != nil {
		return fmt.Errorf("deleting asset: %w", err)
	}
	return nil
}
