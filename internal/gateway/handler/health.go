package handler

import (
	"net/http"

	doccache "profily/internal/cache/document"
)

// StoreStats reports profile store cache counters.
type StoreStats interface {
	Stats() doccache.Stats
}

type HealthHandler struct {
	store StoreStats
}

// NewHealthHandler accepts a nil store when the profile store is uncached.
func NewHealthHandler(store StoreStats) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"ok": true}
	if h.store != nil {
		body["profileStoreCache"] = h.store.Stats()
	}
	writeJSON(w, http.StatusOK, body)
}
