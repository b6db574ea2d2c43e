package storage

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CleanOrphanedTempFiles removes temp files left behind by interrupted
// AtomicWrite calls under dir when they are older than maxAge.
func CleanOrphanedTempFiles(dir string, maxAge time.Duration) error {
	cutoff := time.Now().UTC().Add(-maxAge)
	return walkFiles(dir, func(path string, info fs.FileInfo) {
		if strings.HasPrefix(info.Name(), ".tmp-") && info.ModTime().Before(cutoff) {
			_ = os.Remove(path)
		}
	})
}

// PruneRenders deletes cached renders under dir that were last modified before
// maxAge ago, then removes shard directories left empty. It returns the number
// of files removed.
func PruneRenders(dir string, maxAge time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	removed := 0
	err := walkFiles(dir, func(path string, info fs.FileInfo) {
		if strings.HasPrefix(info.Name(), ".tmp-") || !info.ModTime().Before(cutoff) {
			return
		}
		if os.Remove(path) == nil {
			removed++
		}
	})
	if err != nil {
		return removed, err
	}
	removeEmptyDirs(dir)
	return removed, nil
}

// walkFiles calls fn for every regular file below dir. A missing dir is not
// an error.
func walkFiles(dir string, fn func(path string, info fs.FileInfo)) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil // file vanished mid-walk
		}
		fn(path, info)
		return nil
	})
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// removeEmptyDirs removes empty sub-directories of root, leaving root itself.
func removeEmptyDirs(root string) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(root, e.Name())
		removeEmptyDirs(sub)
		// fails unless empty
		_ = os.Remove(sub)
	}
}
