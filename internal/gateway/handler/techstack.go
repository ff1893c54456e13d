package handler

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"profily/internal/gateway/middleware"
	"profily/internal/techstack"
	"profily/internal/techstack/analyzer"
)

// SourceHeader reports which tier served a tech-stack response.
const SourceHeader = "X-TechStack-Source"

type ProfileService interface {
	GetProfile(ctx context.Context, userID, token string) (*techstack.Profile, analyzer.Source, error)
	RefreshProfile(ctx context.Context, userID, token string) (*techstack.Profile, analyzer.Source, error)
	DeleteProfile(ctx context.Context, userID string) error
}

type TechStackHandler struct {
	svc ProfileService
	log logrus.FieldLogger
}

func NewTechStackHandler(svc ProfileService, log logrus.FieldLogger) *TechStackHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TechStackHandler{svc: svc, log: log}
}

// HandleGet serves GET /api/techstack.
func (h *TechStackHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.svc.GetProfile)
}

// HandleRefresh serves POST /api/techstack/refresh.
func (h *TechStackHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.svc.RefreshProfile)
}

// HandleDelete serves DELETE /api/techstack.
func (h *TechStackHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	if err := h.svc.DeleteProfile(r.Context(), id.ID.String()); err != nil {
		writeError(w, h.log.WithField("user_id", id.ID.String()), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TechStackHandler) serve(
	w http.ResponseWriter,
	r *http.Request,
	load func(ctx context.Context, userID, token string) (*techstack.Profile, analyzer.Source, error),
) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	log := h.log.WithField("user_id", id.ID.String())
	profile, source, err := load(r.Context(), id.ID.String(), id.Token)
	if err != nil {
		writeError(w, log, err)
		return
	}
	w.Header().Set(SourceHeader, string(source))
	writeJSON(w, http.StatusOK, profile)
}
