package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type LocalObjectStore struct {
	baseDir string
}

var _ ObjectStore = (*LocalObjectStore)(nil)

func NewLocalObjectStore(dir string) (*LocalObjectStore, error) {
	baseDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", dir, err)
	}

	if err := os.MkdirAll(baseDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", baseDir, err)
	}

	return &LocalObjectStore{baseDir: baseDir}, nil
}

// PutObject writes to a temporary file and renames it into place, so readers never
// observe a partially written object.
func (s *LocalObjectStore) PutObject(ctx context.Context, key string, data io.Reader) error {
	path, err := localStorageFullpath(s.baseDir, key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory for %s/%s: %w", s.baseDir, key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create file %s/%s: %w", s.baseDir, key, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file %s/%s: %w", s.baseDir, key, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file %s/%s: %w", s.baseDir, key, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move file into place %s/%s: %w", s.baseDir, key, err)
	}

	return nil
}

func (s *LocalObjectStore) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := localStorageFullpath(s.baseDir, key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, s.baseDir, key)
		}
		return nil, fmt.Errorf("failed to open file %s/%s: %w", s.baseDir, key, err)
	}
	return file, nil
}

func (s *LocalObjectStore) DeleteObject(ctx context.Context, key string) error {
	path, err := localStorageFullpath(s.baseDir, key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file %s/%s: %w", s.baseDir, key, err)
	}
	return nil
}

func (s *LocalObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	path, err := localStorageFullpath(s.baseDir, key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file %s/%s: %w", s.baseDir, key, err)
	}
	return !info.IsDir(), nil
}

func (s *LocalObjectStore) LocalPath(key string) (string, error) {
	return localStorageFullpath(s.baseDir, key)
}
