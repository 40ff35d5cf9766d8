package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelsmith/reelsmith/internal/models"
	"github.com/reelsmith/reelsmith/internal/repository"
)

func newAssetService(t *testing.T) (*AssetService, repository.AssetRepository, string) {
	t.Helper()
	db := setupServiceTestDB(t)
	repo := repository.NewAssetRepository(db)
	outputs := t.TempDir()
	return NewAssetService(repo, outputs), repo, outputs
}

func storeAsset(t *testing.T, repo repository.AssetRepository, path string) *models.Asset {
	t.Helper()
	asset := &models.Asset{
		Filename:  filepath.Base(path),
		Duration:  4,
		FPS:       24,
		Width:     1280,
		Height:    720,
		Path:      path,
		CreatedAt: models.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), asset))
	return asset
}

func TestAssetService_Get(t *testing.T) {
	svc, repo, outputs := newAssetService(t)
	ctx := context.Background()

	asset := storeAsset(t, repo, filepath.Join(outputs, "clip.mp4"))

	found, err := svc.Get(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, asset.ID, found.ID)

	t.Run("missing asset", func(t *testing.T) {
		_, err := svc.Get(ctx, models.NewULID())
		assert.True(t, IsNotFound(err))
	})
}

func TestAssetService_FilePath(t *testing.T) {
	svc, repo, outputs := newAssetService(t)
	ctx := context.Background()

	path := filepath.Join(outputs, "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("mp4 bytes"), 0o644))
	asset := storeAsset(t, repo, path)

	resolved, err := svc.FilePath(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, mustAbsPath(t, path), resolved)
}

func TestAssetService_FilePath_MissingFile(t *testing.T) {
	svc, repo, outputs := newAssetService(t)

	asset := storeAsset(t, repo, filepath.Join(outputs, "gone.mp4"))

	_, err := svc.FilePath(context.Background(), asset.ID)
	assert.True(t, IsNotFound(err))
}

func TestAssetService_FilePath_OutsideOutputsRejected(t *testing.T) {
	svc, repo, _ := newAssetService(t)

	// A real file, but outside the outputs directory.
	outside := filepath.Join(t.TempDir(), "escape.mp4")
	require.NoError(t, os.WriteFile(outside, []byte("mp4 bytes"), 0o644))
	asset := storeAsset(t, repo, outside)

	_, err := svc.FilePath(context.Background(), asset.ID)
	assert.True(t, IsValidation(err))
}

func TestAssetService_List(t *testing.T) {
	svc, repo, outputs := newAssetService(t)
	ctx := context.Background()

	storeAsset(t, repo, filepath.Join(outputs, "a.mp4"))
	storeAsset(t, repo, filepath.Join(outputs, "b.mp4"))

	assets, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, assets, 2)
}

func mustAbsPath(t *testing.T, path string) string {
	t.Helper()
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	return abs
}
