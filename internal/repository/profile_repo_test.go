package repository

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/reelsmith/reelsmith/internal/models"
)

func setupProfileTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.Profile{}, &models.ProfileReference{})
	require.NoError(t, err)

	return db
}

func TestProfileRepo_Create(t *testing.T) {
	db := setupProfileTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	profile := &models.Profile{
		Name:           "Ada",
		Mode:           models.ProfileModeFictional,
		GenerationLock: models.DefaultGenerationLock(),
		References: []models.ProfileReference{
			{ImageName: "front.png"},
			{ImageName: "side.png"},
		},
	}

	err := repo.Create(ctx, profile)
	require.NoError(t, err)
	assert.False(t, profile.ID.IsZero())

	found, err := repo.GetByID(ctx, profile.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Ada", found.Name)
	require.Len(t, found.References, 2)
	assert.Equal(t, "front.png", found.References[0].ImageName)
	assert.Equal(t, 0, found.References[0].SortOrder)
	assert.Equal(t, "side.png", found.References[1].ImageName)
	assert.Equal(t, 1, found.References[1].SortOrder)
}

func TestProfileRepo_Create_ValidationFails(t *testing.T) {
	db := setupProfileTestDB(t)
	repo := NewProfileRepository(db)

	err := repo.Create(context.Background(), &models.Profile{Mode: models.ProfileModeFictional})
	assert.Error(t, err, "nameless profile must be rejected")
}

func TestProfileRepo_GetByID_NotFound(t *testing.T) {
	db := setupProfileTestDB(t)
	repo := NewProfileRepository(db)

	found, err := repo.GetByID(context.Background(), models.NewULID())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestProfileRepo_GetAll(t *testing.T) {
	db := setupProfileTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	for _, name := range []string{"One", "Two", "Three"} {
		require.NoError(t, repo.Create(ctx, &models.Profile{
			Name: name,
			Mode: models.ProfileModeFictional,
		}))
	}

	profiles, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 3)
}

func TestProfileRepo_Update(t *testing.T) {
	db := setupProfileTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	profile := &models.Profile{
		Name: "Before",
		Mode: models.ProfileModeFictional,
		References: []models.ProfileReference{
			{ImageName: "front.png"},
		},
	}
	require.NoError(t, repo.Create(ctx, profile))

	profile.Name = "After"
	profile.Mode = models.ProfileModeRealIdentity
	profile.ConsentChecked = true
	require.NoError(t, repo.Update(ctx, profile))

	found, err := repo.GetByID(ctx, profile.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "After", found.Name)
	assert.Equal(t, models.ProfileModeRealIdentity, found.Mode)
	assert.True(t, found.ConsentChecked)
	// Update must not disturb reference rows.
	assert.Len(t, found.References, 1)
}

func TestProfileRepo_Delete(t *testing.T) {
	db := setupProfileTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	profile := &models.Profile{Name: "Doomed", Mode: models.ProfileModeFictional}
	require.NoError(t, repo.Create(ctx, profile))
	require.NoError(t, repo.Delete(ctx, profile.ID))

	found, err := repo.GetByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestProfileRepo_ReplaceReferences(t *testing.T) {
	db := setupProfileTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	profile := &models.Profile{
		Name: "Ada",
		Mode: models.ProfileModeFictional,
		References: []models.ProfileReference{
			{ImageName: "old1.png"},
			{ImageName: "old2.png"},
		},
	}
	require.NoError(t, repo.Create(ctx, profile))

	require.NoError(t, repo.ReplaceReferences(ctx, profile.ID, []string{"new1.png", "new2.png", "new3.png"}))

	found, err := repo.GetByID(ctx, profile.ID)
	require.NoError(t, err)
	require.Len(t, found.References, 3)
	assert.Equal(t, []string{"new1.png", "new2.png", "new3.png"}, found.ReferenceImageNames())

	t.Run("replace with empty list clears references", func(t *testing.T) {
		require.NoError(t, repo.ReplaceReferences(ctx, profile.ID, nil))
		found, err := repo.GetByID(ctx, profile.ID)
		require.NoError(t, err)
		assert.Empty(t, found.References)
	})
}

func TestProfileRepo_ReplaceReferences_BumpsUpdatedAt(t *testing.T) {
	db := setupProfileTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	profile := &models.Profile{Name: "Ada", Mode: models.ProfileModeFictional}
	require.NoError(t, repo.Create(ctx, profile))

	// Age the row so the bump is observable.
	stale := models.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.Profile{}).
		Where("id = ?", profile.ID).
		Update("updated_at", stale).Error)

	require.NoError(t, repo.ReplaceReferences(ctx, profile.ID, []string{"front.png"}))

	found, err := repo.GetByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.True(t, found.UpdatedAt.After(stale), "replacing references touches the profile row")
	assert.WithinDuration(t, models.Now(), found.UpdatedAt, time.Minute)
}

func TestProfileRepo_GenerationLockRoundTrip(t *testing.T) {
	db := setupProfileTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	seed := int64(42)
	base := "sdxl-base"
	lock := models.GenerationLock{
		BaseModel:       &base,
		Loras:           []string{"style-a", "style-b"},
		Seed:            &seed,
		ReferenceWeight: 0.8,
		StrictLock:      false,
	}

	profile := &models.Profile{
		Name:           "Locked",
		Mode:           models.ProfileModeFictional,
		GenerationLock: lock,
	}
	require.NoError(t, repo.Create(ctx, profile))

	found, err := repo.GetByID(ctx, profile.ID)
	require.NoError(t, err)
	require.NotNil(t, found.GenerationLock.BaseModel)
	assert.Equal(t, "sdxl-base", *found.GenerationLock.BaseModel)
	assert.Equal(t, []string{"style-a", "style-b"}, found.GenerationLock.Loras)
	require.NotNil(t, found.GenerationLock.Seed)
	assert.Equal(t, int64(42), *found.GenerationLock.Seed)
	assert.Equal(t, 0.8, found.GenerationLock.ReferenceWeight)
	assert.False(t, found.GenerationLock.StrictLock)
}
