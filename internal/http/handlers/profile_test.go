package handlers

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/reelsmith/reelsmith/internal/config"
	"github.com/reelsmith/reelsmith/internal/imagestore"
	"github.com/reelsmith/reelsmith/internal/models"
	"github.com/reelsmith/reelsmith/internal/repository"
	"github.com/reelsmith/reelsmith/internal/service"
)

func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Profile{}, &models.ProfileReference{}, &models.Job{}, &models.Asset{},
	))
	return db
}

func newTestProfileHandler(t *testing.T) (*ProfileHandler, *imagestore.Store) {
	t.Helper()
	db := setupHandlerDB(t)
	images := imagestore.New(t.TempDir())
	svc := service.NewProfileService(
		repository.NewProfileRepository(db),
		images,
		config.VideoConfig{DefaultDurationSec: 4, DefaultFPS: 24, RequireConsent: true, QueueCapacity: 16},
	)
	return NewProfileHandler(svc), images
}

// writeHandlerPNG writes a decodable PNG for reference validation.
func writeHandlerPNG(t *testing.T, dir, name string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{B: 255, A: 255})

	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	return se.GetStatus()
}

func TestProfileHandler_CreateAndGet(t *testing.T) {
	handler, _ := newTestProfileHandler(t)
	ctx := context.Background()

	input := &CreateProfileInput{}
	input.Body.Name = "Ada"
	input.Body.Mode = "fictional"

	created, err := handler.Create(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "Ada", created.Body.Name)
	assert.NotEmpty(t, created.Body.ID)
	assert.True(t, created.Body.GenerationLock.StrictLock)

	got, err := handler.Get(ctx, &GetProfileInput{ProfileID: created.Body.ID})
	require.NoError(t, err)
	assert.Equal(t, created.Body.ID, got.Body.ID)
}

func TestProfileHandler_Create_ConsentRequired(t *testing.T) {
	handler, _ := newTestProfileHandler(t)

	input := &CreateProfileInput{}
	input.Body.Name = "Real"
	input.Body.Mode = "real_identity"

	_, err := handler.Create(context.Background(), input)
	assert.Equal(t, 422, statusOf(t, err))
}

func TestProfileHandler_Get_NotFound(t *testing.T) {
	handler, _ := newTestProfileHandler(t)
	ctx := context.Background()

	t.Run("unknown id", func(t *testing.T) {
		_, err := handler.Get(ctx, &GetProfileInput{ProfileID: models.NewULID().String()})
		assert.Equal(t, 404, statusOf(t, err))
	})

	t.Run("malformed id", func(t *testing.T) {
		_, err := handler.Get(ctx, &GetProfileInput{ProfileID: "not-a-ulid"})
		assert.Equal(t, 404, statusOf(t, err))
	})
}

func TestProfileHandler_Update(t *testing.T) {
	handler, _ := newTestProfileHandler(t)
	ctx := context.Background()

	input := &CreateProfileInput{}
	input.Body.Name = "Before"
	input.Body.Mode = "fictional"
	created, err := handler.Create(ctx, input)
	require.NoError(t, err)

	name := "After"
	update := &UpdateProfileInput{ProfileID: created.Body.ID}
	update.Body.Name = &name

	updated, err := handler.Update(ctx, update)
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Body.Name)
	assert.Equal(t, "fictional", updated.Body.Mode)
}

func TestProfileHandler_Delete(t *testing.T) {
	handler, _ := newTestProfileHandler(t)
	ctx := context.Background()

	input := &CreateProfileInput{}
	input.Body.Name = "Doomed"
	input.Body.Mode = "fictional"
	created, err := handler.Create(ctx, input)
	require.NoError(t, err)

	_, err = handler.Delete(ctx, &DeleteProfileInput{ProfileID: created.Body.ID})
	require.NoError(t, err)

	_, err = handler.Get(ctx, &GetProfileInput{ProfileID: created.Body.ID})
	assert.Equal(t, 404, statusOf(t, err))

	t.Run("malformed id is a no-op", func(t *testing.T) {
		_, err := handler.Delete(ctx, &DeleteProfileInput{ProfileID: "junk"})
		assert.NoError(t, err)
	})
}

func TestProfileHandler_AttachReferences(t *testing.T) {
	handler, images := newTestProfileHandler(t)
	ctx := context.Background()

	input := &CreateProfileInput{}
	input.Body.Name = "Ada"
	input.Body.Mode = "fictional"
	created, err := handler.Create(ctx, input)
	require.NoError(t, err)

	writeHandlerPNG(t, images.Dir(), "front.png")

	attach := &AttachReferencesInput{ProfileID: created.Body.ID}
	attach.Body.ImageNames = []string{"front.png"}

	updated, err := handler.AttachReferences(ctx, attach)
	require.NoError(t, err)
	assert.Equal(t, []string{"front.png"}, updated.Body.ReferenceImages)

	t.Run("missing image is 422", func(t *testing.T) {
		attach := &AttachReferencesInput{ProfileID: created.Body.ID}
		attach.Body.ImageNames = []string{"missing.png"}
		_, err := handler.AttachReferences(ctx, attach)
		assert.Equal(t, 422, statusOf(t, err))
	})
}

func TestProfileHandler_List(t *testing.T) {
	handler, _ := newTestProfileHandler(t)
	ctx := context.Background()

	for _, name := range []string{"One", "Two"} {
		input := &CreateProfileInput{}
		input.Body.Name = name
		input.Body.Mode = "fictional"
		_, err := handler.Create(ctx, input)
		require.NoError(t, err)
	}

	list, err := handler.List(ctx, &ListProfilesInput{})
	require.NoError(t, err)
	assert.Len(t, list.Body.Profiles, 2)
}
