// Package maintenance runs recurring housekeeping tasks for reelsmith,
// currently limited to sweeping orphaned temp directories left behind by
// crashed or killed encodes.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/reelsmith/reelsmith/internal/startup"
)

// Default maintenance settings.
const (
	// DefaultSchedule sweeps temp directories at the top of every hour.
	DefaultSchedule = "0 * * * *"

	// DefaultMaxAge is how old a temp directory must be before it is
	// considered orphaned. In-flight jobs keep their directory fresh.
	DefaultMaxAge = 2 * time.Hour
)

// Maintenance periodically removes orphaned temp directories.
type Maintenance struct {
	mu sync.Mutex

	tempDir  string
	schedule cron.Schedule
	maxAge   time.Duration
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a maintenance runner for the given temp directory using the
// default hourly schedule.
func New(tempDir string) (*Maintenance, error) {
	return NewWithSchedule(tempDir, DefaultSchedule)
}

// NewWithSchedule creates a maintenance runner with a custom cron expression.
func NewWithSchedule(tempDir, cronExpr string) (*Maintenance, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid maintenance schedule %q: %w", cronExpr, err)
	}
	return &Maintenance{
		tempDir:  tempDir,
		schedule: schedule,
		maxAge:   DefaultMaxAge,
		logger:   slog.Default(),
	}, nil
}

// WithLogger sets a custom logger.
func (m *Maintenance) WithLogger(logger *slog.Logger) *Maintenance {
	m.logger = logger
	return m
}

// WithMaxAge overrides the orphan age threshold.
func (m *Maintenance) WithMaxAge(maxAge time.Duration) *Maintenance {
	if maxAge > 0 {
		m.maxAge = maxAge
	}
	return m
}

// Start launches the background sweep loop.
func (m *Maintenance) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx != nil {
		return fmt.Errorf("maintenance already started")
	}

	m.ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go m.runLoop()

	m.logger.Info("maintenance started",
		slog.String("temp_dir", m.tempDir),
		slog.Duration("max_age", m.maxAge))

	return nil
}

// Stop stops the sweep loop and waits for an in-progress sweep to finish.
func (m *Maintenance) Stop() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()

	m.wg.Wait()

	m.mu.Lock()
	m.ctx = nil
	m.cancel = nil
	m.mu.Unlock()

	m.logger.Info("maintenance stopped")
}

// runLoop sleeps until the next scheduled run, sweeps, and repeats.
func (m *Maintenance) runLoop() {
	defer m.wg.Done()

	for {
		next := m.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-m.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			m.sweep()
		}
	}
}

// sweep removes orphaned temp directories older than the age threshold.
func (m *Maintenance) sweep() {
	removed, err := startup.CleanupOrphanedTempDirs(m.logger, m.tempDir, m.maxAge)
	if err != nil {
		m.logger.Warn("temp directory sweep failed", slog.Any("error", err))
		return
	}
	if removed > 0 {
		m.logger.Info("swept orphaned temp directories", slog.Int("removed_count", removed))
	}
}
