package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const fileExt = ".json"

// FileStore persists documents as root/<partition>/<id>.json.
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: strings.TrimSpace(root)}
}

func (s *FileStore) Put(_ context.Context, partitionKey, id string, doc []byte) error {
	fullPath, err := s.pathFor(partitionKey, id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return err
	}
	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, doc, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, fullPath)
}

func (s *FileStore) Get(_ context.Context, partitionKey, id string) ([]byte, error) {
	fullPath, err := s.pathFor(partitionKey, id)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(fullPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return raw, err
}

func (s *FileStore) Delete(_ context.Context, partitionKey, id string) error {
	fullPath, err := s.pathFor(partitionKey, id)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) partitionDir(partitionKey string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("store is nil")
	}
	if s.root == "" {
		return "", fmt.Errorf("root is required")
	}
	partitionKey, err := normalizePartition(partitionKey)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, partitionKey), nil
}

func (s *FileStore) pathFor(partitionKey, id string) (string, error) {
	partitionKey, id, err := normalizeKey(partitionKey, id)
	if err != nil {
		return "", err
	}
	dir, err := s.partitionDir(partitionKey)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, id+fileExt), nil
}
