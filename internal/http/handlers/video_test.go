package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/reelsmith/reelsmith/internal/config"
	"github.com/reelsmith/reelsmith/internal/ffmpeg"
	"github.com/reelsmith/reelsmith/internal/imagestore"
	"github.com/reelsmith/reelsmith/internal/models"
	"github.com/reelsmith/reelsmith/internal/repository"
	"github.com/reelsmith/reelsmith/internal/service"
)

func intPtr(v int) *int { return &v }

// noopEncoder satisfies service.Encoder; handler tests never start the worker
// so it is never called.
type noopEncoder struct{}

func (noopEncoder) Start(ffmpeg.EncodeSpec) (service.EncodeHandle, error) {
	return nil, nil
}

type videoHandlerEnv struct {
	handler  *VideoHandler
	db       *gorm.DB
	profiles repository.ProfileRepository
	assets   repository.AssetRepository
	images   *imagestore.Store
	outputs  string
}

func newTestVideoHandler(t *testing.T) *videoHandlerEnv {
	t.Helper()
	db := setupHandlerDB(t)

	storage := config.StorageConfig{
		BaseDir:   t.TempDir(),
		ImageDir:  "images",
		OutputDir: "videos",
		TempDir:   "temp",
	}
	images := imagestore.New(storage.ImagePath())
	require.NoError(t, images.EnsureDir())
	require.NoError(t, os.MkdirAll(storage.OutputPath(), 0o755))

	profileRepo := repository.NewProfileRepository(db)
	jobRepo := repository.NewJobRepository(db)
	assetRepo := repository.NewAssetRepository(db)

	videos := service.NewVideoService(
		jobRepo,
		profileRepo,
		images,
		config.VideoConfig{DefaultDurationSec: 4, DefaultFPS: 24, RequireConsent: true, QueueCapacity: 16},
		storage,
		noopEncoder{},
	)
	assets := service.NewAssetService(assetRepo, storage.OutputPath())

	return &videoHandlerEnv{
		handler:  NewVideoHandler(videos, assets),
		db:       db,
		profiles: profileRepo,
		assets:   assetRepo,
		images:   images,
		outputs:  storage.OutputPath(),
	}
}

func (env *videoHandlerEnv) createProfile(t *testing.T) *models.Profile {
	t.Helper()
	writeHandlerPNG(t, env.images.Dir(), "front.png")
	profile := &models.Profile{
		Name:           "Ada",
		Mode:           models.ProfileModeFictional,
		GenerationLock: models.DefaultGenerationLock(),
		References:     []models.ProfileReference{{ImageName: "front.png"}},
	}
	require.NoError(t, env.profiles.Create(context.Background(), profile))
	return profile
}

func TestVideoHandler_Generate(t *testing.T) {
	env := newTestVideoHandler(t)
	ctx := context.Background()

	profile := env.createProfile(t)

	input := &GenerateVideoInput{}
	input.Body.ProfileID = profile.ID.String()
	input.Body.DurationSec = intPtr(6)

	out, err := env.handler.Generate(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "waiting", out.Body.Status)
	assert.Equal(t, 6, out.Body.Request.DurationSec)
	assert.Equal(t, 24, out.Body.Request.FPS, "fps default resolved")
	assert.Equal(t, 1280, out.Body.Request.Width, "width default resolved")
	assert.Equal(t, 720, out.Body.Request.Height, "height default resolved")

	t.Run("unknown profile", func(t *testing.T) {
		input := &GenerateVideoInput{}
		input.Body.ProfileID = models.NewULID().String()
		_, err := env.handler.Generate(ctx, input)
		assert.Equal(t, 404, statusOf(t, err))
	})

	t.Run("malformed profile id", func(t *testing.T) {
		input := &GenerateVideoInput{}
		input.Body.ProfileID = "junk"
		_, err := env.handler.Generate(ctx, input)
		assert.Equal(t, 404, statusOf(t, err))
	})
}

func TestVideoHandler_Generate_RequestBounds(t *testing.T) {
	env := newTestVideoHandler(t)

	profile := env.createProfile(t)

	router := chi.NewRouter()
	api := humachi.New(router, huma.DefaultConfig("test", "0.0.1"))
	env.handler.Register(api)

	post := func(t *testing.T, body string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/v1/videos/generate", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	tests := []struct {
		name string
		body string
	}{
		{"duration above maximum", `{"profile_id":%q,"duration_sec":60}`},
		{"duration below minimum", `{"profile_id":%q,"duration_sec":0}`},
		{"fps below minimum", `{"profile_id":%q,"fps":2}`},
		{"width above maximum", `{"profile_id":%q,"width":4096}`},
		{"height below minimum", `{"profile_id":%q,"height":64}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, fmt.Sprintf(tt.body, profile.ID.String()))
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}

	t.Run("in-range values accepted", func(t *testing.T) {
		rec := post(t, fmt.Sprintf(
			`{"profile_id":%q,"duration_sec":30,"fps":4,"width":256,"height":1920}`,
			profile.ID.String(),
		))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("omitted dimensions default to 1280x720", func(t *testing.T) {
		rec := post(t, fmt.Sprintf(`{"profile_id":%q}`, profile.ID.String()))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp JobResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1280, resp.Request.Width)
		assert.Equal(t, 720, resp.Request.Height)
	})
}

func TestVideoHandler_JobLifecycleEndpoints(t *testing.T) {
	env := newTestVideoHandler(t)
	ctx := context.Background()

	profile := env.createProfile(t)

	input := &GenerateVideoInput{}
	input.Body.ProfileID = profile.ID.String()
	created, err := env.handler.Generate(ctx, input)
	require.NoError(t, err)

	got, err := env.handler.GetJob(ctx, &GetVideoJobInput{JobID: created.Body.ID})
	require.NoError(t, err)
	assert.Equal(t, created.Body.ID, got.Body.ID)

	list, err := env.handler.ListJobs(ctx, &ListVideoJobsInput{})
	require.NoError(t, err)
	assert.Len(t, list.Body.Jobs, 1)

	_, err = env.handler.CancelJob(ctx, &CancelVideoJobInput{JobID: created.Body.ID})
	require.NoError(t, err)

	got, err = env.handler.GetJob(ctx, &GetVideoJobInput{JobID: created.Body.ID})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", got.Body.Status)

	t.Run("unknown job", func(t *testing.T) {
		_, err := env.handler.GetJob(ctx, &GetVideoJobInput{JobID: models.NewULID().String()})
		assert.Equal(t, 404, statusOf(t, err))

		_, err = env.handler.CancelJob(ctx, &CancelVideoJobInput{JobID: models.NewULID().String()})
		assert.Equal(t, 404, statusOf(t, err))
	})
}

func TestVideoHandler_AssetEndpoints(t *testing.T) {
	env := newTestVideoHandler(t)
	ctx := context.Background()

	asset := &models.Asset{
		Filename:  "clip.mp4",
		Duration:  4,
		FPS:       24,
		Width:     1280,
		Height:    720,
		Path:      filepath.Join(env.outputs, "clip.mp4"),
		CreatedAt: models.Now(),
	}
	require.NoError(t, env.assets.Create(ctx, asset))

	got, err := env.handler.GetAsset(ctx, &GetVideoInput{VideoID: asset.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "clip.mp4", got.Body.Filename)

	list, err := env.handler.ListAssets(ctx, &ListVideosInput{})
	require.NoError(t, err)
	assert.Len(t, list.Body.Videos, 1)

	t.Run("unknown asset", func(t *testing.T) {
		_, err := env.handler.GetAsset(ctx, &GetVideoInput{VideoID: models.NewULID().String()})
		assert.Equal(t, 404, statusOf(t, err))
	})
}

func TestVideoHandler_ServeFile(t *testing.T) {
	env := newTestVideoHandler(t)
	ctx := context.Background()

	path := filepath.Join(env.outputs, "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("mp4 bytes"), 0o644))

	asset := &models.Asset{
		Filename:  "clip.mp4",
		Duration:  4,
		FPS:       24,
		Width:     1280,
		Height:    720,
		Path:      path,
		CreatedAt: models.Now(),
	}
	require.NoError(t, env.assets.Create(ctx, asset))

	router := chi.NewRouter()
	env.handler.RegisterFileRoutes(router)

	t.Run("serves the file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/videos/"+asset.ID.String()+"/file", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "clip.mp4")
		assert.Equal(t, "mp4 bytes", rec.Body.String())
	})

	t.Run("range requests supported", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/videos/"+asset.ID.String()+"/file", nil)
		req.Header.Set("Range", "bytes=0-2")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusPartialContent, rec.Code)
		assert.Equal(t, "mp4", rec.Body.String())
	})

	t.Run("unknown asset is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/videos/"+models.NewULID().String()+"/file", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/videos/junk/file", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealthHandler_GetHealth(t *testing.T) {
	handler := NewHealthHandler("1.2.3")

	out, err := handler.GetHealth(context.Background(), &HealthInput{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Body.Status)
	assert.Equal(t, "1.2.3", out.Body.Version)
	assert.Equal(t, "unconfigured", out.Body.Database)
}

func TestHealthHandler_GetHealth_WithDB(t *testing.T) {
	db := setupHandlerDB(t)
	handler := NewHealthHandler("1.2.3").WithDB(db)

	out, err := handler.GetHealth(context.Background(), &HealthInput{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Body.Status)
	assert.Equal(t, "ok", out.Body.Database)
}
