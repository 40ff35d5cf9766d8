package service

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/reelsmith/reelsmith/internal/config"
	"github.com/reelsmith/reelsmith/internal/imagestore"
	"github.com/reelsmith/reelsmith/internal/models"
	"github.com/reelsmith/reelsmith/internal/repository"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.Profile{}, &models.ProfileReference{}, &models.Job{}, &models.Asset{})
	require.NoError(t, err)

	return db
}

// writePNG writes a small valid PNG named name into dir.
func writePNG(t *testing.T, dir, name string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{G: 255, A: 255})

	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func newProfileService(t *testing.T) (*ProfileService, *imagestore.Store) {
	t.Helper()
	db := setupServiceTestDB(t)
	images := imagestore.New(t.TempDir())
	svc := NewProfileService(
		repository.NewProfileRepository(db),
		images,
		config.VideoConfig{DefaultDurationSec: 4, DefaultFPS: 24, RequireConsent: true, QueueCapacity: 16},
	)
	return svc, images
}

func TestProfileService_Create(t *testing.T) {
	svc, _ := newProfileService(t)
	ctx := context.Background()

	profile, err := svc.Create(ctx, "Ada", models.ProfileModeFictional, false, nil)
	require.NoError(t, err)
	assert.False(t, profile.ID.IsZero())
	assert.Equal(t, "Ada", profile.Name)
	// Lock defaults apply when none is given.
	assert.True(t, profile.GenerationLock.StrictLock)
	assert.Equal(t, 1.0, profile.GenerationLock.ReferenceWeight)
}

func TestProfileService_Create_CustomLock(t *testing.T) {
	svc, _ := newProfileService(t)

	lock := models.GenerationLock{ReferenceWeight: 0.5, StrictLock: false}
	profile, err := svc.Create(context.Background(), "Ada", models.ProfileModeFictional, false, &lock)
	require.NoError(t, err)
	assert.Equal(t, 0.5, profile.GenerationLock.ReferenceWeight)
	assert.False(t, profile.GenerationLock.StrictLock)
}

func TestProfileService_Create_Validation(t *testing.T) {
	svc, _ := newProfileService(t)
	ctx := context.Background()

	t.Run("empty name", func(t *testing.T) {
		_, err := svc.Create(ctx, "", models.ProfileModeFictional, false, nil)
		assert.True(t, IsValidation(err))
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := svc.Create(ctx, "Ada", models.ProfileMode("bogus"), false, nil)
		assert.True(t, IsValidation(err))
	})

	t.Run("real identity without consent", func(t *testing.T) {
		_, err := svc.Create(ctx, "Ada", models.ProfileModeRealIdentity, false, nil)
		require.True(t, IsValidation(err))
		assert.Contains(t, err.Error(), "consent")
	})

	t.Run("real identity with consent", func(t *testing.T) {
		_, err := svc.Create(ctx, "Ada", models.ProfileModeRealIdentity, true, nil)
		assert.NoError(t, err)
	})
}

func TestProfileService_Get_NotFound(t *testing.T) {
	svc, _ := newProfileService(t)

	_, err := svc.Get(context.Background(), models.NewULID())
	assert.True(t, IsNotFound(err))
}

func TestProfileService_Update(t *testing.T) {
	svc, _ := newProfileService(t)
	ctx := context.Background()

	profile, err := svc.Create(ctx, "Before", models.ProfileModeFictional, false, nil)
	require.NoError(t, err)

	name := "After"
	updated, err := svc.Update(ctx, profile.ID, ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Name)
	assert.Equal(t, models.ProfileModeFictional, updated.Mode, "unset fields keep their values")

	t.Run("switching to real identity requires consent", func(t *testing.T) {
		mode := models.ProfileModeRealIdentity
		_, err := svc.Update(ctx, profile.ID, ProfileUpdate{Mode: &mode})
		assert.True(t, IsValidation(err))

		consent := true
		_, err = svc.Update(ctx, profile.ID, ProfileUpdate{Mode: &mode, ConsentChecked: &consent})
		assert.NoError(t, err)
	})

	t.Run("missing profile", func(t *testing.T) {
		_, err := svc.Update(ctx, models.NewULID(), ProfileUpdate{Name: &name})
		assert.True(t, IsNotFound(err))
	})
}

func TestProfileService_SetReferences(t *testing.T) {
	svc, images := newProfileService(t)
	ctx := context.Background()

	profile, err := svc.Create(ctx, "Ada", models.ProfileModeFictional, false, nil)
	require.NoError(t, err)

	writePNG(t, images.Dir(), "front.png")
	writePNG(t, images.Dir(), "side.png")

	updated, err := svc.SetReferences(ctx, profile.ID, []string{"front.png", "side.png"})
	require.NoError(t, err)
	assert.Equal(t, []string{"front.png", "side.png"}, updated.ReferenceImageNames())

	t.Run("names are cleaned and blanks dropped", func(t *testing.T) {
		updated, err := svc.SetReferences(ctx, profile.ID, []string{"  front.png ", "", "../side.png"})
		require.NoError(t, err)
		assert.Equal(t, []string{"front.png", "side.png"}, updated.ReferenceImageNames())
	})

	t.Run("missing image rejected", func(t *testing.T) {
		_, err := svc.SetReferences(ctx, profile.ID, []string{"nope.png"})
		require.True(t, IsValidation(err))
		assert.Contains(t, err.Error(), "nope.png")
	})

	t.Run("undecodable image rejected", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(images.Dir(), "junk.png"), []byte("junk"), 0o644))
		_, err := svc.SetReferences(ctx, profile.ID, []string{"junk.png"})
		assert.True(t, IsValidation(err))
	})

	t.Run("missing profile", func(t *testing.T) {
		_, err := svc.SetReferences(ctx, models.NewULID(), []string{"front.png"})
		assert.True(t, IsNotFound(err))
	})
}

func TestProfileService_Delete(t *testing.T) {
	svc, _ := newProfileService(t)
	ctx := context.Background()

	profile, err := svc.Create(ctx, "Doomed", models.ProfileModeFictional, false, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, profile.ID))

	_, err = svc.Get(ctx, profile.ID)
	assert.True(t, IsNotFound(err))
}
