package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "reelsmith.db", cfg.Database.DSN)
	assert.Equal(t, "./data", cfg.Storage.BaseDir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 4, cfg.Video.DefaultDurationSec)
	assert.Equal(t, 24, cfg.Video.DefaultFPS)
	assert.True(t, cfg.Video.RequireConsent)
	assert.Equal(t, 1024, cfg.Video.QueueCapacity)
	assert.Empty(t, cfg.FFmpeg.BinaryPath)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("REELSMITH_SERVER_PORT", "9090")
	t.Setenv("REELSMITH_DATABASE_DSN", "/tmp/other.db")
	t.Setenv("REELSMITH_VIDEO_DEFAULT_FPS", "30")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/other.db", cfg.Database.DSN)
	assert.Equal(t, 30, cfg.Video.DefaultFPS)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 9999\nvideo:\n  default_duration_sec: 8\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Video.DefaultDurationSec)
	// Untouched keys keep their defaults
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	t.Run("valid defaults", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("bad port", func(t *testing.T) {
		cfg := base()
		cfg.Server.Port = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad driver", func(t *testing.T) {
		cfg := base()
		cfg.Database.Driver = "oracle"
		assert.Error(t, cfg.Validate())
	})

	t.Run("empty dsn", func(t *testing.T) {
		cfg := base()
		cfg.Database.DSN = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("empty base dir", func(t *testing.T) {
		cfg := base()
		cfg.Storage.BaseDir = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := base()
		cfg.Logging.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad fps", func(t *testing.T) {
		cfg := base()
		cfg.Video.DefaultFPS = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestStorageConfig_Paths(t *testing.T) {
	s := StorageConfig{
		BaseDir:   "/data",
		ImageDir:  "images",
		OutputDir: "videos",
		TempDir:   "temp",
	}
	assert.Equal(t, filepath.Join("/data", "images"), s.ImagePath())
	assert.Equal(t, filepath.Join("/data", "videos"), s.OutputPath())
	assert.Equal(t, filepath.Join("/data", "temp"), s.TempPath())
}

func TestServerConfig_Address(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	assert.Equal(t, "127.0.0.1:8080", s.Address())
}
