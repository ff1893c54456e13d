// Package document puts an in-process read cache in front of a document
// store.
package document

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	memcache "profily/internal/cache/memory"
	docrepo "profily/internal/gateway/repository/document"
)

type CacheConfig struct {
	TTL        time.Duration
	MaxEntries int
	MaxBytes   int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:        5 * time.Minute,
		MaxEntries: 1024,
		MaxBytes:   32 << 20,
	}
}

// Stats is a point-in-time copy of the cache counters.
type Stats struct {
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	NotFound      uint64 `json:"notFound"`
	ReadErrors    uint64 `json:"readErrors"`
	Writes        uint64 `json:"writes"`
	WriteErrors   uint64 `json:"writeErrors"`
	CachedEntries int    `json:"cachedEntries"`
}

type counters struct {
	hits, misses, notFound, readErrors, writes, writeErrors atomic.Uint64
}

// CachedStore reads through and writes through to origin. Only successful
// reads and writes populate the cache.
type CachedStore struct {
	origin docrepo.Store
	docs   *memcache.LRUTTL[string, []byte]
	n      counters
}

func NewCachedStore(origin docrepo.Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	if cfg.MaxBytes < 0 {
		cfg.MaxBytes = def.MaxBytes
	}
	return &CachedStore{
		origin: origin,
		docs:   memcache.NewLRUTTL[string, []byte](cfg.MaxEntries, cfg.MaxBytes, cfg.TTL),
	}
}

// withClock swaps the cache time source in tests.
func (s *CachedStore) withClock(now func() time.Time) *CachedStore {
	s.docs.WithClock(now)
	return s
}

func (s *CachedStore) Put(ctx context.Context, partitionKey, id string, doc []byte) error {
	s.n.writes.Add(1)
	key := cacheKey(partitionKey, id)
	if err := s.origin.Put(ctx, partitionKey, id, doc); err != nil {
		s.n.writeErrors.Add(1)
		s.docs.Delete(key)
		return err
	}
	s.docs.Set(key, clone(doc), len(doc))
	return nil
}

func (s *CachedStore) Get(ctx context.Context, partitionKey, id string) ([]byte, error) {
	key := cacheKey(partitionKey, id)
	if raw, ok := s.docs.Get(key); ok {
		s.n.hits.Add(1)
		return clone(raw), nil
	}
	s.n.misses.Add(1)

	raw, err := s.origin.Get(ctx, partitionKey, id)
	switch {
	case errors.Is(err, docrepo.ErrNotFound):
		s.n.notFound.Add(1)
		return nil, err
	case err != nil:
		s.n.readErrors.Add(1)
		return nil, err
	}
	s.docs.Set(key, clone(raw), len(raw))
	return raw, nil
}

func (s *CachedStore) Delete(ctx context.Context, partitionKey, id string) error {
	s.n.writes.Add(1)
	s.docs.Delete(cacheKey(partitionKey, id))
	if err := s.origin.Delete(ctx, partitionKey, id); err != nil {
		s.n.writeErrors.Add(1)
		return err
	}
	return nil
}

func (s *CachedStore) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		Hits:          s.n.hits.Load(),
		Misses:        s.n.misses.Load(),
		NotFound:      s.n.notFound.Load(),
		ReadErrors:    s.n.readErrors.Load(),
		Writes:        s.n.writes.Load(),
		WriteErrors:   s.n.writeErrors.Load(),
		CachedEntries: s.docs.Len(),
	}
}

func cacheKey(partitionKey, id string) string {
	return strings.TrimSpace(partitionKey) + "\x00" + strings.TrimSpace(id)
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
