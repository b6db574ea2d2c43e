package pipeline

import (
	"bytes"
	"fmt"

	"fitrender/internal/storage"
)

// SaveResult writes res into the render cache under key and returns the final
// path. The write is atomic so concurrent readers never see a partial file.
func SaveResult(store *storage.Storage, key string, res *Result) (string, error) {
	if res == nil {
		return "", fmt.Errorf("save render %s: nil result", key)
	}
	path := storage.RenderPath(store.BaseDir, key, string(res.Format))
	if err := storage.AtomicWrite(path, bytes.NewReader(res.Data)); err != nil {
		return "", fmt.Errorf("save render %s: %w", key, err)
	}
	return path, nil
}
