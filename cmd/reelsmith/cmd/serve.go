package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reelsmith/reelsmith/internal/config"
	"github.com/reelsmith/reelsmith/internal/database"
	"github.com/reelsmith/reelsmith/internal/database/migrations"
	internalhttp "github.com/reelsmith/reelsmith/internal/http"
	"github.com/reelsmith/reelsmith/internal/http/handlers"
	"github.com/reelsmith/reelsmith/internal/imagestore"
	"github.com/reelsmith/reelsmith/internal/maintenance"
	"github.com/reelsmith/reelsmith/internal/repository"
	"github.com/reelsmith/reelsmith/internal/service"
	"github.com/reelsmith/reelsmith/internal/startup"
	"github.com/reelsmith/reelsmith/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reelsmith server",
	Long: `Start the reelsmith HTTP server and generation worker.

The server provides:
- REST API for managing video profiles, generation jobs, and finished videos
- Health check endpoint
- Streaming delivery of generated MP4 files`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server flags
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("database", "reelsmith.db", "Database DSN (file path for sqlite)")
	serveCmd.Flags().String("data-dir", "./data", "Data directory for images, videos, and temp files")

	// Bind flags to viper
	mustBindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	mustBindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	mustBindPFlag("database.dsn", serveCmd.Flags().Lookup("database"))
	mustBindPFlag("storage.base_dir", serveCmd.Flags().Lookup("data-dir"))
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Clean up orphaned temp directories from previous runs. A maxAge of
	// zero removes everything; no job can be in flight before the worker
	// starts.
	orphansRemoved, err := startup.CleanupOrphanedTempDirs(logger, cfg.Storage.TempPath(), 0)
	if err != nil {
		logger.Warn("failed to clean orphaned temp directories",
			slog.String("error", err.Error()),
		)
	} else if orphansRemoved > 0 {
		logger.Info("cleaned orphaned temp directories on startup",
			slog.Int("removed_count", orphansRemoved),
		)
	}

	// Initialize database
	db, err := database.New(cfg.Database, logger, nil)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close()

	// Run migrations
	migrator := migrations.NewMigrator(db.DB, logger)
	migrator.RegisterAll(migrations.AllMigrations())
	if err := migrator.Up(cmd.Context()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Initialize repositories
	profileRepo := repository.NewProfileRepository(db.DB)
	jobRepo := repository.NewJobRepository(db.DB)
	assetRepo := repository.NewAssetRepository(db.DB)

	// Initialize reference image storage
	images := imagestore.New(cfg.Storage.ImagePath())
	if err := images.EnsureDir(); err != nil {
		return fmt.Errorf("creating image directory: %w", err)
	}

	// Initialize services
	profileService := service.NewProfileService(profileRepo, images, cfg.Video).
		WithLogger(logger)

	assetService := service.NewAssetService(assetRepo, cfg.Storage.OutputPath()).
		WithLogger(logger)

	encoder := service.NewFFmpegEncoder(cfg.FFmpeg.BinaryPath)
	videoService := service.NewVideoService(
		jobRepo,
		profileRepo,
		images,
		cfg.Video,
		cfg.Storage,
		encoder,
	).WithLogger(logger)

	if err := videoService.Start(cmd.Context()); err != nil {
		return fmt.Errorf("starting video worker: %w", err)
	}
	defer videoService.Stop()

	// Recurring temp directory sweeps while the server runs
	sweeper, err := maintenance.New(cfg.Storage.TempPath())
	if err != nil {
		return fmt.Errorf("initializing maintenance: %w", err)
	}
	sweeper = sweeper.WithLogger(logger)
	if err := sweeper.Start(cmd.Context()); err != nil {
		return fmt.Errorf("starting maintenance: %w", err)
	}
	defer sweeper.Stop()

	// Initialize HTTP server
	serverConfig := internalhttp.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		CORSOrigins:     cfg.Server.CORSOrigins,
	}
	if serverConfig.ReadTimeout == 0 || serverConfig.WriteTimeout == 0 {
		defaults := internalhttp.DefaultServerConfig()
		if serverConfig.ReadTimeout == 0 {
			serverConfig.ReadTimeout = defaults.ReadTimeout
		}
		if serverConfig.WriteTimeout == 0 {
			serverConfig.WriteTimeout = defaults.WriteTimeout
		}
	}
	server := internalhttp.NewServer(serverConfig, logger, version.Version)

	// Register handlers
	healthHandler := handlers.NewHealthHandler(version.Version).WithDB(db.DB)
	healthHandler.Register(server.API())

	profileHandler := handlers.NewProfileHandler(profileService)
	profileHandler.Register(server.API())

	videoHandler := handlers.NewVideoHandler(videoService, assetService)
	videoHandler.Register(server.API())
	videoHandler.RegisterFileRoutes(server.Router())

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()

	// Start server
	logger.Info("starting reelsmith server",
		slog.String("host", serverConfig.Host),
		slog.Int("port", serverConfig.Port),
		slog.String("version", version.Version),
	)

	return server.ListenAndServe(ctx)
}

// loadConfig unmarshals the global viper state populated by initConfig into
// a validated Config.
func loadConfig() (*config.Config, error) {
	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}
