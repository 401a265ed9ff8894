package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

func localStorageFullpath(baseDir, key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object key '%s'", key)
	}
	return filepath.Join(baseDir, cleaned), nil
}
