// Package artifact persists the files a run produces: round scripts,
// prompt transcripts, execution reports, the final deliverable. Backends
// share one run-scoped contract so local runs and the service can swap
// a directory tree for a bucket without touching callers.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store defines operations for persisting run artifacts. Paths are
// slash-separated keys relative to the run, never filesystem paths.
type Store interface {
	Put(ctx context.Context, runID, path string, content []byte) error
	Get(ctx context.Context, runID, path string) ([]byte, error)
	GetURL(ctx context.Context, runID, path string) (string, error)
	List(ctx context.Context, runID string) ([]string, error)
}

var ErrNotFound = errors.New("artifact not found")

// FromConfig builds the store for the configured backend: "file"
// (default), "s3"/"minio", or "memory". S3 reads go through an
// in-memory cache so the gateway does not refetch the same artifact on
// every download.
func FromConfig(backend, dir string, s3 S3Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "file":
		return NewFileStore(dir), nil
	case "s3", "minio":
		s, err := NewS3Store(s3)
		if err != nil {
			return nil, err
		}
		return NewCachedStore(s, 0, 0), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown artifact backend %q", backend)
	}
}
