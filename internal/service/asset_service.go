package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/reelsmith/reelsmith/internal/models"
	"github.com/reelsmith/reelsmith/internal/repository"
)

// AssetService provides read access to finished video assets.
type AssetService struct {
	assets     repository.AssetRepository
	outputsDir string
	logger     *slog.Logger
}

// NewAssetService creates a new asset service.
func NewAssetService(assets repository.AssetRepository, outputsDir string) *AssetService {
	return &AssetService{
		assets:     assets,
		outputsDir: outputsDir,
		logger:     slog.Default(),
	}
}

// WithLogger sets the logger for the service.
func (s *AssetService) WithLogger(logger *slog.Logger) *AssetService {
	s.logger = logger
	return s
}

// Get retrieves an asset by ID.
func (s *AssetService) Get(ctx context.Context, id models.ULID) (*models.Asset, error) {
	asset, err := s.assets.GetByID(ctx, id)
	if err != nil {
		return nil, ServiceError(err, "getting asset")
	}
	if asset == nil {
		return nil, NotFoundError("video asset '%s' not found", id)
	}
	return asset, nil
}

// List retrieves all assets, newest first.
func (s *AssetService) List(ctx context.Context) ([]*models.Asset, error) {
	assets, err := s.assets.GetAll(ctx)
	if err != nil {
		return nil, ServiceError(err, "listing assets")
	}
	return assets, nil
}

// ListByProfile retrieves assets produced for one profile, newest first.
func (s *AssetService) ListByProfile(ctx context.Context, profileID models.ULID) ([]*models.Asset, error) {
	assets, err := s.assets.GetByProfileID(ctx, profileID)
	if err != nil {
		return nil, ServiceError(err, "listing assets by profile")
	}
	return assets, nil
}

// FilePath resolves the on-disk file for an asset. The stored path is never
// trusted on its own: the file must exist and must resolve inside the
// outputs directory.
func (s *AssetService) FilePath(ctx context.Context, id models.ULID) (string, error) {
	asset, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	path, err := filepath.Abs(asset.Path)
	if err != nil {
		return "", ValidationError("invalid stored path for video asset '%s'", id)
	}
	if _, err := os.Stat(path); err != nil {
		return "", NotFoundError("file for video asset '%s' not found", id)
	}

	outputs, err := filepath.Abs(s.outputsDir)
	if err != nil {
		return "", ServiceError(err, "resolving outputs directory")
	}
	rel, err := filepath.Rel(outputs, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ValidationError("invalid stored path for video asset '%s'", id)
	}

	return path, nil
}
