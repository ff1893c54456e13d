// Package techprofile persists tech-stack profiles as JSON documents
// partitioned by user id.
package techprofile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"profily/internal/gateway/repository/document"
	"profily/internal/techstack"
)

// ErrCorrupt marks a stored profile that cannot be decoded.
var ErrCorrupt = errors.New("stored profile is corrupt")

type Repository struct {
	store document.Store
	now   func() time.Time
}

func New(store document.Store) *Repository {
	return &Repository{store: store, now: time.Now}
}

// Get loads the stored profile for userID. ok is false when none exists.
func (r *Repository) Get(ctx context.Context, userID string) (*techstack.Profile, bool, error) {
	if r == nil || r.store == nil {
		return nil, false, fmt.Errorf("repository is nil")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, false, fmt.Errorf("user_id is required")
	}
	raw, err := r.store.Get(ctx, userID, techstack.ProfileID(userID))
	if errors.Is(err, document.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get profile: %w", err)
	}
	var p techstack.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false, fmt.Errorf("%w: decode profile %s: %v", ErrCorrupt, userID, err)
	}
	return &p, true, nil
}

// Upsert replaces the user's profile. The stored copy keeps the original
// createdAt and gets a fresh updatedAt. A corrupt existing document is
// overwritten as if absent.
func (r *Repository) Upsert(ctx context.Context, p *techstack.Profile) (*techstack.Profile, error) {
	if r == nil || r.store == nil {
		return nil, fmt.Errorf("repository is nil")
	}
	if p == nil {
		return nil, fmt.Errorf("profile is nil")
	}
	doc := *p
	doc.UserID = strings.TrimSpace(doc.UserID)
	if doc.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	doc.ID = techstack.ProfileID(doc.UserID)
	doc.Type = techstack.ProfileDocumentType

	now := r.now().UTC()
	existing, ok, err := r.Get(ctx, doc.UserID)
	if err != nil && !errors.Is(err, ErrCorrupt) {
		return nil, err
	}
	if ok && !existing.CreatedAt.IsZero() {
		doc.CreatedAt = existing.CreatedAt
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	raw, err := json.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("encode profile %s: %w", doc.UserID, err)
	}
	if err := r.store.Put(ctx, doc.UserID, doc.ID, raw); err != nil {
		return nil, fmt.Errorf("put profile: %w", err)
	}
	return &doc, nil
}

// Delete removes the user's profile if present.
func (r *Repository) Delete(ctx context.Context, userID string) error {
	if r == nil || r.store == nil {
		return fmt.Errorf("repository is nil")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user_id is required")
	}
	return r.store.Delete(ctx, userID, techstack.ProfileID(userID))
}
