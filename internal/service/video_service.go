package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/reelsmith/reelsmith/internal/config"
	"github.com/reelsmith/reelsmith/internal/ffmpeg"
	"github.com/reelsmith/reelsmith/internal/imagestore"
	"github.com/reelsmith/reelsmith/internal/models"
	"github.com/reelsmith/reelsmith/internal/repository"
	"github.com/reelsmith/reelsmith/internal/util"
)

// Worker timing. The supervision loop checks the cancel flag and writes a
// progress heartbeat every pollInterval while the encoder runs.
const (
	pollInterval    = 250 * time.Millisecond
	shutdownTimeout = 5 * time.Second
)

// Progress checkpoints reported over a job's life.
const (
	progressEncoding  = 60.0
	progressFinishing = 95.0
)

// Default canvas when a request leaves dimensions unset.
const (
	defaultWidth  = 1280
	defaultHeight = 720
)

// restartErrorMessage is written to jobs found mid-flight at startup.
const restartErrorMessage = "Video generation interrupted by restart"

// minDiskEstimate floors the pre-encode free space requirement at 150 MiB.
const minDiskEstimate = 150 * 1024 * 1024

// EncodeHandle is a running encode that can be watched and terminated.
type EncodeHandle interface {
	Done() <-chan struct{}
	Exited() bool
	ExitErr() error
	Terminate() error
}

// Encoder launches encodes. The production implementation runs ffmpeg; tests
// substitute a stub.
type Encoder interface {
	Start(spec ffmpeg.EncodeSpec) (EncodeHandle, error)
}

// FFmpegEncoder runs encodes with a resolved ffmpeg binary.
type FFmpegEncoder struct {
	binaryPath string
}

// NewFFmpegEncoder creates an encoder. binaryPath may be empty, in which
// case the binary is resolved per encode.
func NewFFmpegEncoder(binaryPath string) *FFmpegEncoder {
	return &FFmpegEncoder{binaryPath: binaryPath}
}

// Start resolves the ffmpeg binary, builds the encode command, and launches
// the subprocess.
func (e *FFmpegEncoder) Start(spec ffmpeg.EncodeSpec) (EncodeHandle, error) {
	binary, err := ffmpeg.ResolveBinary(e.binaryPath)
	if err != nil {
		return nil, err
	}
	proc := ffmpeg.NewProcess(binary, ffmpeg.BuildEncodeArgs(spec))
	if err := proc.Start(); err != nil {
		return nil, err
	}
	return proc, nil
}

// VideoService owns the generation job lifecycle: creation, the single
// worker that drives jobs through their states, cancellation, and restart
// recovery.
type VideoService struct {
	jobs     repository.JobRepository
	profiles repository.ProfileRepository
	images   *imagestore.Store
	video    config.VideoConfig
	storage  config.StorageConfig
	encoder  Encoder
	logger   *slog.Logger

	// diskFree is swappable for tests.
	diskFree func(path string) (uint64, error)

	queue  chan models.ULID
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	active map[string]EncodeHandle
}

// NewVideoService creates a new video service.
func NewVideoService(
	jobs repository.JobRepository,
	profiles repository.ProfileRepository,
	images *imagestore.Store,
	video config.VideoConfig,
	storage config.StorageConfig,
	encoder Encoder,
) *VideoService {
	capacity := video.QueueCapacity
	if capacity < 1 {
		capacity = 1
	}
	return &VideoService{
		jobs:     jobs,
		profiles: profiles,
		images:   images,
		video:    video,
		storage:  storage,
		encoder:  encoder,
		logger:   slog.Default(),
		diskFree: util.FreeSpace,
		queue:    make(chan models.ULID, capacity),
		active:   make(map[string]EncodeHandle),
	}
}

// WithLogger sets the logger for the service.
func (s *VideoService) WithLogger(logger *slog.Logger) *VideoService {
	s.logger = logger
	return s
}

// WithDiskFree overrides free-space probing, for tests.
func (s *VideoService) WithDiskFree(fn func(path string) (uint64, error)) *VideoService {
	s.diskFree = fn
	return s
}

// Start prepares storage directories, recovers jobs interrupted by the last
// shutdown, refills the queue with waiting jobs, and launches the worker.
func (s *VideoService) Start(ctx context.Context) error {
	if err := os.MkdirAll(s.storage.OutputPath(), 0o755); err != nil {
		return fmt.Errorf("creating outputs directory: %w", err)
	}
	if err := os.MkdirAll(s.storage.TempPath(), 0o755); err != nil {
		return fmt.Errorf("creating temp directory: %w", err)
	}

	recovered, err := s.jobs.FailInterrupted(ctx, restartErrorMessage)
	if err != nil {
		return fmt.Errorf("recovering interrupted jobs: %w", err)
	}
	if recovered > 0 {
		s.logger.Warn("marked interrupted jobs as errored", "count", recovered)
	}

	waiting, err := s.jobs.GetWaitingIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing waiting jobs: %w", err)
	}
	for _, id := range waiting {
		select {
		case s.queue <- id:
		default:
			s.logger.Warn("job queue full during startup refill", "job_id", id.String())
		}
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.runWorker(workerCtx)

	s.logger.Info("video worker started", "requeued_jobs", len(waiting))
	return nil
}

// Stop terminates any running encode, stops the worker, and waits up to five
// seconds for it to drain.
func (s *VideoService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}

	s.mu.Lock()
	handles := make([]EncodeHandle, 0, len(s.active))
	for _, h := range s.active {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	for _, h := range handles {
		if err := h.Terminate(); err != nil {
			s.logger.Warn("failed to terminate encoder process", "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		s.logger.Warn("video worker did not stop within timeout")
	}
}

// CreateJob validates the request against the profile, persists a waiting
// job with the resolved parameters, and enqueues it.
func (s *VideoService) CreateJob(ctx context.Context, profileID models.ULID, req models.GenerateRequest) (*models.Job, error) {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, ServiceError(err, "getting profile")
	}
	if profile == nil {
		return nil, NotFoundError("video profile '%s' not found", profileID)
	}
	if profile.Mode == models.ProfileModeRealIdentity && s.video.RequireConsent && !profile.ConsentChecked {
		return nil, ValidationError("consent is required for real identity mode")
	}
	if len(profile.References) == 0 {
		return nil, ValidationError("the profile has no reference images")
	}

	if req.DurationSec <= 0 {
		req.DurationSec = s.video.DefaultDurationSec
	}
	if req.FPS <= 0 {
		req.FPS = s.video.DefaultFPS
	}
	if req.Width <= 0 {
		req.Width = defaultWidth
	}
	if req.Height <= 0 {
		req.Height = defaultHeight
	}

	job := &models.Job{
		ProfileID: profileID,
		Status:    models.JobStatusWaiting,
		Progress:  0,
		Request:   req,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, ServiceError(err, "creating job")
	}

	select {
	case s.queue <- job.ID:
	default:
		// Leave the row waiting; the next restart refill picks it up.
		s.logger.Warn("job queue full, job deferred to next startup", "job_id", job.ID.String())
	}

	s.logger.Info("created video job",
		"job_id", job.ID.String(),
		"profile_id", profileID.String(),
		"duration_sec", req.DurationSec,
		"fps", req.FPS,
	)
	return job, nil
}

// GetJob retrieves a job by ID.
func (s *VideoService) GetJob(ctx context.Context, id models.ULID) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, ServiceError(err, "getting job")
	}
	if job == nil {
		return nil, NotFoundError("video job '%s' not found", id)
	}
	return job, nil
}

// ListJobs retrieves all jobs, newest first.
func (s *VideoService) ListJobs(ctx context.Context) ([]*models.Job, error) {
	jobs, err := s.jobs.GetAll(ctx)
	if err != nil {
		return nil, ServiceError(err, "listing jobs")
	}
	return jobs, nil
}

// CancelJob durably requests cancellation. Terminal jobs are a no-op. A
// waiting job is finalized immediately; a running encode is terminated and
// the worker finalizes the row.
func (s *VideoService) CancelJob(ctx context.Context, id models.ULID) error {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return err
	}
	if job.IsTerminal() {
		return nil
	}

	if _, err := s.jobs.RequestCancel(ctx, id); err != nil {
		return ServiceError(err, "requesting cancel")
	}

	if job.Status == models.JobStatusWaiting {
		if err := s.jobs.MarkCancelled(ctx, id); err != nil {
			return ServiceError(err, "cancelling waiting job")
		}
		s.cleanupTemp(id)
	}

	s.mu.Lock()
	handle := s.active[id.String()]
	s.mu.Unlock()
	if handle != nil {
		if err := handle.Terminate(); err != nil {
			s.logger.Warn("failed to terminate encoder process", "job_id", id.String(), "error", err)
		}
	}

	s.logger.Info("cancel requested for video job", "job_id", id.String())
	return nil
}

// runWorker consumes the queue until the context is cancelled. Jobs run
// strictly one at a time.
func (s *VideoService) runWorker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case id := <-s.queue:
			if err := s.processJob(ctx, id); err != nil {
				if IsCancelled(err) {
					continue
				}
				s.logger.Error("unhandled video worker error",
					"job_id", id.String(),
					"error", err,
				)
			}
		}
	}
}

// processJob drives one job from waiting to a terminal state. Failures are
// written to the row; only cancellation and truly unexpected errors are
// returned.
func (s *VideoService) processJob(ctx context.Context, id models.ULID) error {
	defer s.cleanupTemp(id)

	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job == nil || job.Status != models.JobStatusWaiting {
		return nil
	}

	if cancelled, err := s.jobs.IsCancelRequested(ctx, id); err != nil {
		return err
	} else if cancelled {
		return s.markCancelled(ctx, id)
	}

	profile, err := s.profiles.GetByID(ctx, job.ProfileID)
	if err != nil {
		return err
	}
	if profile == nil {
		return s.markError(ctx, id, fmt.Sprintf("video profile '%s' not found", job.ProfileID))
	}
	if profile.Mode == models.ProfileModeRealIdentity && s.video.RequireConsent && !profile.ConsentChecked {
		return s.markError(ctx, id, "consent is required for real identity mode")
	}

	req := job.Request
	if req.DurationSec <= 0 {
		req.DurationSec = s.video.DefaultDurationSec
	}
	if req.FPS <= 0 {
		req.FPS = s.video.DefaultFPS
	}
	if req.Width <= 0 {
		req.Width = defaultWidth
	}
	if req.Height <= 0 {
		req.Height = defaultHeight
	}

	if err := s.ensureFreeSpace(req); err != nil {
		return s.markError(ctx, id, err.Error())
	}

	if err := s.jobs.SetRunning(ctx, id); err != nil {
		return err
	}

	sourcePaths := make([]string, 0, len(profile.References))
	for _, ref := range profile.References {
		path, err := s.images.Path(ref.ImageName)
		if err != nil {
			return s.markError(ctx, id, fmt.Sprintf("reference image '%s' is invalid", ref.ImageName))
		}
		if _, err := os.Stat(path); err != nil {
			return s.markError(ctx, id, fmt.Sprintf("reference image '%s' was not found", ref.ImageName))
		}
		sourcePaths = append(sourcePaths, path)
	}

	tempJobDir := filepath.Join(s.storage.TempPath(), id.String())
	pattern, count, err := ffmpeg.PrepareKeyframes(tempJobDir, sourcePaths, req.DurationSec, profile.GenerationLock.StrictLock)
	if err != nil {
		return s.markError(ctx, id, err.Error())
	}

	if err := s.jobs.SetEncoding(ctx, id); err != nil {
		return err
	}

	outputFilename := id.String() + ".mp4"
	outputPath := filepath.Join(s.storage.OutputPath(), outputFilename)
	spec := ffmpeg.EncodeSpec{
		InputPattern:  pattern,
		KeyframeCount: count,
		DurationSec:   req.DurationSec,
		FPS:           req.FPS,
		Width:         req.Width,
		Height:        req.Height,
		OutputPath:    outputPath,
	}

	if err := s.superviseEncode(ctx, id, spec); err != nil {
		if IsCancelled(err) {
			if markErr := s.markCancelled(ctx, id); markErr != nil {
				return markErr
			}
			return err
		}
		return s.markError(ctx, id, err.Error())
	}

	// A cancel that lands after a successful exit still wins.
	if cancelled, err := s.jobs.IsCancelRequested(ctx, id); err != nil {
		return err
	} else if cancelled {
		if err := s.markCancelled(ctx, id); err != nil {
			return err
		}
		return CancelledError("video job '%s' cancelled", id)
	}

	asset := &models.Asset{
		Filename:  outputFilename,
		Duration:  float64(req.DurationSec),
		FPS:       req.FPS,
		Width:     req.Width,
		Height:    req.Height,
		CreatedAt: models.Now(),
		Path:      outputPath,
		ProfileID: &profile.ID,
	}
	job.Request = req
	if err := s.jobs.CompleteWithAsset(ctx, job, asset); err != nil {
		return s.markError(ctx, id, err.Error())
	}

	s.logger.Info("video job completed",
		"job_id", id.String(),
		"asset_id", asset.ID.String(),
		"output", outputFilename,
	)
	return nil
}

// superviseEncode runs the encoder and polls it every 250ms, terminating on
// a durable cancel request and heartbeating progress while it runs.
func (s *VideoService) superviseEncode(ctx context.Context, id models.ULID, spec ffmpeg.EncodeSpec) error {
	handle, err := s.encoder.Start(spec)
	if err != nil {
		return err
	}

	key := id.String()
	s.mu.Lock()
	s.active[key] = handle
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.active, key)
		s.mu.Unlock()
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for !handle.Exited() {
		select {
		case <-handle.Done():
		case <-ticker.C:
			cancelled, err := s.jobs.IsCancelRequested(ctx, id)
			if err != nil {
				return err
			}
			if cancelled {
				if termErr := handle.Terminate(); termErr != nil {
					s.logger.Warn("failed to terminate encoder process", "job_id", key, "error", termErr)
				}
				<-handle.Done()
				return CancelledError("video job '%s' cancelled", id)
			}
			if err := s.jobs.UpdateProgress(ctx, id, progressEncoding); err != nil {
				return err
			}
		}
	}

	if exitErr := handle.ExitErr(); exitErr != nil {
		// Termination races a natural exit; a cancel flag decides which
		// one this was.
		if cancelled, err := s.jobs.IsCancelRequested(ctx, id); err == nil && cancelled {
			return CancelledError("video job '%s' cancelled", id)
		}
		return fmt.Errorf("ffmpeg failed: %w", exitErr)
	}

	return s.jobs.UpdateProgress(ctx, id, progressFinishing)
}

// ensureFreeSpace rejects encodes that would not plausibly fit on disk. The
// estimate is a coarse upper bound on raw frame data, floored at 150 MiB.
func (s *VideoService) ensureFreeSpace(req models.GenerateRequest) error {
	free, err := s.diskFree(s.storage.OutputPath())
	if err != nil {
		// Unknown free space is not a reason to refuse the job.
		s.logger.Warn("could not determine free disk space", "error", err)
		return nil
	}

	dur := req.DurationSec
	if dur < 1 {
		dur = 1
	}
	estimated := uint64(req.Width) * uint64(req.Height) * uint64(req.FPS) * uint64(dur) / 2
	if estimated < minDiskEstimate {
		estimated = minDiskEstimate
	}

	if free < estimated {
		return fmt.Errorf("insufficient disk space for video encoding: available %dMB, required %dMB",
			free/(1024*1024), estimated/(1024*1024))
	}
	return nil
}

func (s *VideoService) markCancelled(ctx context.Context, id models.ULID) error {
	if err := s.jobs.MarkCancelled(ctx, id); err != nil {
		return err
	}
	s.logger.Info("video job cancelled", "job_id", id.String())
	return nil
}

func (s *VideoService) markError(ctx context.Context, id models.ULID, message string) error {
	if err := s.jobs.MarkError(ctx, id, message); err != nil {
		return err
	}
	s.logger.Warn("video job failed", "job_id", id.String(), "error", message)
	return nil
}

// cleanupTemp removes the job's keyframe directory, if present.
func (s *VideoService) cleanupTemp(id models.ULID) {
	dir := filepath.Join(s.storage.TempPath(), id.String())
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Warn("failed to remove job temp directory", "path", dir, "error", err)
	}
}
