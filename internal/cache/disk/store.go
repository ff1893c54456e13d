// Package disk is a size- and age-bounded byte cache persisted under one
// directory. It survives process restarts, which the in-memory caches do not.
package disk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	indexFile = "index.json"
	// flushEvery bounds how many mutations may sit in memory before the
	// index is rewritten.
	flushEvery = 64
)

type Config struct {
	Dir        string
	MaxEntries int
	MaxBytes   int64
	TTL        time.Duration
}

type entry struct {
	File       string    `json:"file"`
	Size       int64     `json:"size"`
	ExpiresAt  time.Time `json:"expiresAt"`
	AccessedAt time.Time `json:"accessedAt"`
}

type index struct {
	Entries map[string]entry `json:"entries"`
}

// Store keeps values in <dir>/data and an LRU/TTL index in <dir>/index.json.
// The index is rewritten every flushEvery mutations and on Flush. Entries
// written after the last flush are lost on a crash; their files are swept on
// the next Open.
type Store struct {
	mu sync.Mutex

	dataDir   string
	indexPath string

	maxEntries int
	maxBytes   int64
	ttl        time.Duration
	now        func() time.Time

	totalBytes int64
	entries    map[string]entry
	dirty      bool
	pending    int
}

func Open(cfg Config) (*Store, error) {
	return open(cfg, time.Now)
}

func open(cfg Config, now func() time.Time) (*Store, error) {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return nil, fmt.Errorf("cache dir is required")
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}

	s := &Store{
		dataDir:    filepath.Join(dir, "data"),
		indexPath:  filepath.Join(dir, indexFile),
		maxEntries: cfg.MaxEntries,
		maxBytes:   cfg.MaxBytes,
		ttl:        cfg.TTL,
		now:        now,
		entries:    map[string]entry{},
	}
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return nil, err
	}
	if err := s.loadIndex(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.pruneLocked(s.now()); err != nil {
		return nil, err
	}
	if err := s.sweepOrphansLocked(); err != nil {
		return nil, err
	}
	return s, s.persistLocked()
}

// Get returns the cached value for key. Expired or missing entries are a
// miss, not an error.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, fmt.Errorf("key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	ent, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !now.Before(ent.ExpiresAt) {
		s.removeLocked(key, ent)
		return nil, false, nil
	}
	raw, err := os.ReadFile(filepath.Join(s.dataDir, ent.File))
	if errors.Is(err, os.ErrNotExist) {
		s.removeLocked(key, ent)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	ent.AccessedAt = now
	s.entries[key] = ent
	s.dirty = true
	return raw, true, nil
}

// Set stores value under key and evicts expired, then least recently used,
// entries until the store is within its bounds.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if s == nil {
		return nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("key is required")
	}
	file := fileName(key)

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if err := os.WriteFile(filepath.Join(s.dataDir, file), value, 0o644); err != nil {
		return err
	}
	if old, ok := s.entries[key]; ok {
		s.totalBytes -= old.Size
	}
	s.entries[key] = entry{
		File:       file,
		Size:       int64(len(value)),
		ExpiresAt:  now.Add(s.ttl),
		AccessedAt: now,
	}
	s.totalBytes += int64(len(value))
	if err := s.pruneLocked(now); err != nil {
		return err
	}
	return s.mutatedLocked()
}

func (s *Store) Delete(_ context.Context, key string) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ent, ok := s.entries[strings.TrimSpace(key)]; ok {
		s.removeLocked(strings.TrimSpace(key), ent)
		return s.mutatedLocked()
	}
	return nil
}

// Flush writes pending mutations and access-time updates to the index.
func (s *Store) Flush() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	return s.persistLocked()
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) mutatedLocked() error {
	s.dirty = true
	s.pending++
	if s.pending < flushEvery {
		return nil
	}
	return s.persistLocked()
}

// sweepOrphansLocked removes data files the index does not reference.
func (s *Store) sweepOrphansLocked() error {
	files, err := os.ReadDir(s.dataDir)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(s.entries))
	for _, ent := range s.entries {
		known[ent.File] = struct{}{}
	}
	for _, f := range files {
		if _, ok := known[f.Name()]; ok || f.IsDir() {
			continue
		}
		_ = os.Remove(filepath.Join(s.dataDir, f.Name()))
	}
	return nil
}

func (s *Store) loadIndex() error {
	raw, err := os.ReadFile(s.indexPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var idx index
	if err := json.Unmarshal(raw, &idx); err != nil {
		// A corrupt index only loses cached data.
		return nil
	}
	for key, ent := range idx.Entries {
		s.entries[key] = ent
		s.totalBytes += ent.Size
	}
	return nil
}

func (s *Store) pruneLocked(now time.Time) error {
	for key, ent := range s.entries {
		if !now.Before(ent.ExpiresAt) {
			s.removeLocked(key, ent)
			continue
		}
		if _, err := os.Stat(filepath.Join(s.dataDir, ent.File)); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			s.removeLocked(key, ent)
		}
	}
	if !s.overLocked() {
		return nil
	}

	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		ai, aj := s.entries[keys[i]].AccessedAt, s.entries[keys[j]].AccessedAt
		if ai.Equal(aj) {
			return keys[i] < keys[j]
		}
		return ai.Before(aj)
	})
	for _, key := range keys {
		if !s.overLocked() {
			break
		}
		s.removeLocked(key, s.entries[key])
	}
	return nil
}

func (s *Store) overLocked() bool {
	if len(s.entries) > s.maxEntries {
		return true
	}
	return s.maxBytes > 0 && s.totalBytes > s.maxBytes
}

func (s *Store) removeLocked(key string, ent entry) {
	delete(s.entries, key)
	s.totalBytes -= ent.Size
	if s.totalBytes < 0 {
		s.totalBytes = 0
	}
	s.dirty = true
	_ = os.Remove(filepath.Join(s.dataDir, ent.File))
}

func (s *Store) persistLocked() error {
	raw, err := json.Marshal(index{Entries: s.entries})
	if err != nil {
		return err
	}
	tmp := s.indexPath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.indexPath); err != nil {
		return err
	}
	s.dirty = false
	s.pending = 0
	return nil
}

func fileName(key string) string {
	return strconv.FormatUint(xxhash.Sum64String(key), 16) + ".bin"
}
