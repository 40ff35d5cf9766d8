// Package imagestore resolves reference image names to files on disk.
// Names are stored bare in the database; the store maps them into a single
// images directory and refuses anything that would escape it.
package imagestore

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	// Register image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	// BMP and WebP support from x/image
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Store provides access to reference images under a single directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the images directory.
func (s *Store) Dir() string {
	return s.dir
}

// EnsureDir creates the images directory if it does not exist.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating images directory: %w", err)
	}
	return nil
}

// CleanName strips any path components from an image name. Empty or
// whitespace-only names clean to "".
func CleanName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return filepath.Base(name)
}

// Path returns the absolute path for an image name. The name is reduced to
// its base component first so stored names can never address files outside
// the images directory.
func (s *Store) Path(name string) (string, error) {
	clean := CleanName(name)
	if clean == "" || clean == "." || clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid image name %q", name)
	}
	abs, err := filepath.Abs(filepath.Join(s.dir, clean))
	if err != nil {
		return "", fmt.Errorf("resolving image path: %w", err)
	}
	return abs, nil
}

// Exists reports whether the named image file is present.
func (s *Store) Exists(name string) bool {
	path, err := s.Path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ValidateDecodable checks that the named image exists and decodes as one of
// the registered formats (PNG, JPEG, GIF, BMP, WebP).
func (s *Store) ValidateDecodable(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening image %q: %w", name, err)
	}
	defer f.Close()

	if _, _, err := image.DecodeConfig(f); err != nil {
		return fmt.Errorf("decoding image %q: %w", name, err)
	}
	return nil
}
