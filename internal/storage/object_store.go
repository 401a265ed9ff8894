package storage

import (
	"context"
	"errors"
	"io"
)

var ErrObjectNotFound = errors.New("object not found")

// ObjectStore holds the flat data files exchanged between pipeline steps.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data io.Reader) error

	GetObject(ctx context.Context, key string) (io.ReadCloser, error)

	DeleteObject(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)

	// LocalPath returns a filesystem path for the key, for callers that need to
	// hand a real file to another client.
	LocalPath(key string) (string, error)
}
