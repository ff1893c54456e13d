package document

import (
	"context"
	"fmt"
	"sync"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
	}
}

func (s *MemoryStore) Put(_ context.Context, partitionKey, id string, doc []byte) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	partitionKey, id, err := normalizeKey(partitionKey, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[partitionKey+"/"+id] = append([]byte(nil), doc...)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, partitionKey, id string) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	partitionKey, id, err := normalizeKey(partitionKey, id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[partitionKey+"/"+id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (s *MemoryStore) Delete(_ context.Context, partitionKey, id string) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	partitionKey, id, err := normalizeKey(partitionKey, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, partitionKey+"/"+id)
	return nil
}
