// Package ffmpeg provides FFmpeg binary detection, keyframe preparation, and
// supervised encoder execution for video generation jobs.
package ffmpeg

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/reelsmith/reelsmith/internal/util"
)

// BinaryEnvVar overrides ffmpeg binary discovery when set.
const BinaryEnvVar = "REELSMITH_FFMPEG_BINARY"

// ResolveBinary locates the ffmpeg executable.
// Search order:
//  1. configuredPath (from configuration, if non-empty)
//  2. REELSMITH_FFMPEG_BINARY environment variable
//  3. ./ffmpeg (current directory)
//  4. ffmpeg on PATH
//  5. WinGet install locations (Windows only)
func ResolveBinary(configuredPath string) (string, error) {
	if configuredPath != "" {
		info, err := os.Stat(configuredPath)
		if err != nil || info.IsDir() {
			return "", fmt.Errorf("configured ffmpeg binary %s not usable", configuredPath)
		}
		return configuredPath, nil
	}

	if path, err := util.FindBinary("ffmpeg", BinaryEnvVar); err == nil {
		return path, nil
	}

	if path, ok := wingetBinary(); ok {
		return path, nil
	}

	return "", fmt.Errorf("ffmpeg is required but was not found; install ffmpeg and retry")
}

// wingetBinary looks for an ffmpeg installed via WinGet. Windows installs
// expose either a Links shim or a versioned package directory.
func wingetBinary() (string, bool) {
	if runtime.GOOS != "windows" {
		return "", false
	}

	localAppData := os.Getenv("LOCALAPPDATA")
	if localAppData == "" {
		return "", false
	}

	link := filepath.Join(localAppData, "Microsoft", "WinGet", "Links", "ffmpeg.exe")
	if info, err := os.Stat(link); err == nil && !info.IsDir() {
		return link, true
	}

	pattern := filepath.Join(localAppData, "Microsoft", "WinGet", "Packages",
		"Gyan.FFmpeg*", "ffmpeg-*", "bin", "ffmpeg.exe")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", false
	}
	for _, candidate := range matches {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}
