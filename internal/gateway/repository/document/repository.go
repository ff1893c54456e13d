package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store persists JSON documents addressed by (partition key, id).
type Store interface {
	Put(ctx context.Context, partitionKey, id string, doc []byte) error
	Get(ctx context.Context, partitionKey, id string) ([]byte, error)
	Delete(ctx context.Context, partitionKey, id string) error
}

var ErrNotFound = errors.New("document not found")

// normalizeKey trims and validates a document address. Keys double as path
// segments in the file and object stores, so separators and dot segments are
// rejected.
func normalizeKey(partitionKey, id string) (string, string, error) {
	partitionKey, err := normalizePartition(partitionKey)
	if err != nil {
		return "", "", err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "", fmt.Errorf("document id is required")
	}
	if !validSegment(id) {
		return "", "", fmt.Errorf("invalid document id: %s", id)
	}
	return partitionKey, id, nil
}

func normalizePartition(partitionKey string) (string, error) {
	partitionKey = strings.TrimSpace(partitionKey)
	if partitionKey == "" {
		return "", fmt.Errorf("partition key is required")
	}
	if !validSegment(partitionKey) {
		return "", fmt.Errorf("invalid partition key: %s", partitionKey)
	}
	return partitionKey, nil
}

func validSegment(s string) bool {
	return !strings.Contains(s, "..") && !strings.ContainsAny(s, `/\`)
}
