package artifact

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultCacheEntries = 512
	defaultCacheTTL     = 5 * time.Minute
)

// CachedStore keeps recently read blobs and listings in memory in front
// of a slower origin, typically the S3 backend. Artifacts are written
// once per run, so entries only go stale when another process writes to
// the same run; the TTL bounds that window. Presigned URLs are minted
// locally and are not worth caching.
type CachedStore struct {
	origin Store
	blobs  *expirable.LRU[string, []byte]
	lists  *expirable.LRU[string, []string]
}

func NewCachedStore(origin Store, entries int, ttl time.Duration) *CachedStore {
	if entries <= 0 {
		entries = defaultCacheEntries
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedStore{
		origin: origin,
		blobs:  expirable.NewLRU[string, []byte](entries, nil, ttl),
		lists:  expirable.NewLRU[string, []string](entries, nil, ttl),
	}
}

func (s *CachedStore) Put(ctx context.Context, runID, path string, content []byte) error {
	if err := s.origin.Put(ctx, runID, path, content); err != nil {
		return err
	}
	s.blobs.Add(blobKey(runID, path), append([]byte(nil), content...))
	s.lists.Remove(strings.TrimSpace(runID))
	return nil
}

func (s *CachedStore) Get(ctx context.Context, runID, path string) ([]byte, error) {
	key := blobKey(runID, path)
	if raw, ok := s.blobs.Get(key); ok {
		return append([]byte(nil), raw...), nil
	}
	raw, err := s.origin.Get(ctx, runID, path)
	if err != nil {
		return nil, err
	}
	s.blobs.Add(key, append([]byte(nil), raw...))
	return raw, nil
}

func (s *CachedStore) GetURL(ctx context.Context, runID, path string) (string, error) {
	return s.origin.GetURL(ctx, runID, path)
}

func (s *CachedStore) List(ctx context.Context, runID string) ([]string, error) {
	runID = strings.TrimSpace(runID)
	if list, ok := s.lists.Get(runID); ok {
		return append([]string(nil), list...), nil
	}
	list, err := s.origin.List(ctx, runID)
	if err != nil {
		return nil, err
	}
	s.lists.Add(runID, append([]string(nil), list...))
	return list, nil
}

func blobKey(runID, path string) string {
	return strings.TrimSpace(runID) + "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
}
