package ffmpeg

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Keyframe count bounds. At least two frames are needed for interpolation;
// more than 24 adds nothing at the durations this service produces.
const (
	minKeyframes = 2
	maxKeyframes = 24
)

// KeyframeCount returns how many keyframes to materialize for a clip of the
// given duration: one per second, clamped to [2, 24].
func KeyframeCount(durationSec int) int {
	n := durationSec
	if n < minKeyframes {
		n = minKeyframes
	}
	if n > maxKeyframes {
		n = maxKeyframes
	}
	return n
}

// PrepareKeyframes copies reference images into jobDir as a numbered PNG
// sequence and returns the ffmpeg input pattern plus the frame count.
//
// With strictLock set, every keyframe is the first reference, which maximizes
// identity consistency. Otherwise the references are cycled in sort order.
func PrepareKeyframes(jobDir string, sourcePaths []string, durationSec int, strictLock bool) (string, int, error) {
	if len(sourcePaths) == 0 {
		return "", 0, fmt.Errorf("no reference images available")
	}

	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("creating keyframe directory: %w", err)
	}

	count := KeyframeCount(durationSec)
	for i := 0; i < count; i++ {
		src := sourcePaths[0]
		if !strictLock {
			src = sourcePaths[i%len(sourcePaths)]
		}
		dst := filepath.Join(jobDir, fmt.Sprintf("keyframe_%05d.png", i))
		if err := copyFile(src, dst); err != nil {
			return "", 0, fmt.Errorf("materializing keyframe %d: %w", i, err)
		}
	}

	return filepath.Join(jobDir, "keyframe_%05d.png"), count, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
