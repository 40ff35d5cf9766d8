// Package startup provides utilities for application startup tasks.
package startup

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// CleanupOrphanedTempDirs removes per-job keyframe directories left behind in
// the temp directory by a previous run. Directories younger than maxAge are
// kept so an in-flight job's workspace is never pulled out from under it.
//
// Returns the number of directories removed and any error encountered.
func CleanupOrphanedTempDirs(logger *slog.Logger, tempDir string, maxAge time.Duration) (int, error) {
	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		logger.Debug("temp directory does not exist, skipping cleanup", "path", tempDir)
		return 0, nil
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		logger.Error("failed to read temp directory for cleanup",
			"path", tempDir,
			"error", err,
		)
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	var removed int

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dirPath := filepath.Join(tempDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			logger.Warn("failed to get directory info", "path", dirPath, "error", err)
			continue
		}

		if info.ModTime().After(cutoff) {
			logger.Debug("preserving recent temp directory",
				"path", dirPath,
				"age", time.Since(info.ModTime()).Round(time.Second),
			)
			continue
		}

		if err := os.RemoveAll(dirPath); err != nil {
			logger.Warn("failed to remove orphaned temp directory",
				"path", dirPath,
				"error", err,
			)
			continue
		}

		logger.Info("removed orphaned temp directory", "path", dirPath)
		removed++
	}

	return removed, nil
}
