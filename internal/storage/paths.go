package storage

import (
	"encoding/hex"
	"errors"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ErrInvalidName is returned for original names that are empty, hidden or
// would escape the originals directory.
var ErrInvalidName = errors.New("invalid image name")

// OriginalPath returns the path of the source image called name:
// {baseDir}/originals/{name}. Names may contain sub-directories but never
// "..", absolute paths or dot-files.
func OriginalPath(baseDir, name string) (string, error) {
	if name == "" || strings.ContainsRune(name, '\\') || filepath.IsAbs(name) {
		return "", ErrInvalidName
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	for _, part := range strings.Split(filepath.ToSlash(clean), "/") {
		if part == "" || part == "." || part == ".." || strings.HasPrefix(part, ".") {
			return "", ErrInvalidName
		}
	}
	return filepath.Join(baseDir, "originals", clean), nil
}

// RenderKey derives a stable cache key from the original name and the render
// parameters. The key is a hex BLAKE2b-256 digest.
func RenderKey(name string, params ...string) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(name))
	for _, p := range params {
		// separator keeps ("ab","c") and ("a","bc") apart
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// RenderPath returns the cache path for a render using layout:
// {baseDir}/renders/{key[0:2]}/{key}.{ext}
func RenderPath(baseDir, key, format string) string {
	ext := strings.ToLower(strings.TrimPrefix(format, "."))
	shard := key
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return filepath.Join(baseDir, "renders", shard, key+"."+ext)
}
