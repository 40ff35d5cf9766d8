package maintenance

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithSchedule_InvalidExpression(t *testing.T) {
	_, err := NewWithSchedule(t.TempDir(), "not a cron expr")
	assert.Error(t, err)
}

func TestNew_DefaultSchedule(t *testing.T) {
	m, err := New(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxAge, m.maxAge)

	// The hourly schedule always has a next run within the next hour.
	next := m.schedule.Next(time.Now())
	assert.True(t, next.Sub(time.Now()) <= time.Hour)
}

func TestWithMaxAge(t *testing.T) {
	m, err := New(t.TempDir())
	require.NoError(t, err)

	m.WithMaxAge(30 * time.Minute)
	assert.Equal(t, 30*time.Minute, m.maxAge)

	// Non-positive values are ignored.
	m.WithMaxAge(0)
	assert.Equal(t, 30*time.Minute, m.maxAge)
}

func TestSweep_RemovesOrphans(t *testing.T) {
	tempDir := t.TempDir()

	orphan := filepath.Join(tempDir, "01DEADJOB")
	require.NoError(t, os.MkdirAll(orphan, 0o755))
	past := time.Now().Add(-3 * time.Hour)
	require.NoError(t, os.Chtimes(orphan, past, past))

	fresh := filepath.Join(tempDir, "01LIVEJOB")
	require.NoError(t, os.MkdirAll(fresh, 0o755))

	m, err := New(tempDir)
	require.NoError(t, err)
	m.sweep()

	_, err = os.Stat(orphan)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

func TestStartStop(t *testing.T) {
	m, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, m.Start(t.Context()))
	assert.Error(t, m.Start(t.Context()), "double start rejected")

	m.Stop()

	// Restart after stop is allowed.
	require.NoError(t, m.Start(t.Context()))
	m.Stop()
}
