package storage

import "path/filepath"

// Storage is a minimal storage wrapper for the base directory used by helpers.
// Originals live under {BaseDir}/originals and cached renders under
// {BaseDir}/renders.
type Storage struct {
	BaseDir string
}

// New creates a new Storage instance with the provided base directory.
func New(baseDir string) *Storage {
	return &Storage{BaseDir: baseDir}
}

// OriginalsDir returns the directory holding source images.
func (s *Storage) OriginalsDir() string {
	return filepath.Join(s.BaseDir, "originals")
}

// RendersDir returns the root of the render cache.
func (s *Storage) RendersDir() string {
	return filepath.Join(s.BaseDir, "renders")
}
