package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"profily/internal/gateway/middleware"
	"profily/internal/githubapi"
)

type GitHubService interface {
	ListRepositories(ctx context.Context, token string) ([]githubapi.Repository, error)
	RepositoryLanguages(ctx context.Context, token, owner, repo string) ([]githubapi.LanguageStat, error)
	UserStats(ctx context.Context, token string) (*githubapi.Stats, error)
}

type GitHubHandler struct {
	gh  GitHubService
	log logrus.FieldLogger
}

func NewGitHubHandler(gh GitHubService, log logrus.FieldLogger) *GitHubHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &GitHubHandler{gh: gh, log: log}
}

// HandleRepositories serves GET /api/github/repos.
func (h *GitHubHandler) HandleRepositories(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	repos, err := h.gh.ListRepositories(r.Context(), id.Token)
	if err != nil {
		writeError(w, h.log.WithField("user_id", id.ID.String()), err)
		return
	}
	if repos == nil {
		repos = []githubapi.Repository{}
	}
	writeJSON(w, http.StatusOK, repos)
}

// HandleStats serves GET /api/github/stats.
func (h *GitHubHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	stats, err := h.gh.UserStats(r.Context(), id.Token)
	if err != nil {
		writeError(w, h.log.WithField("user_id", id.ID.String()), err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleLanguages serves GET /api/github/repos/{owner}/{repo}/languages.
func (h *GitHubHandler) HandleLanguages(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	owner := strings.TrimSpace(r.PathValue("owner"))
	repo := strings.TrimSpace(r.PathValue("repo"))
	if owner == "" || repo == "" {
		http.Error(w, "owner and repo are required", http.StatusBadRequest)
		return
	}
	langs, err := h.gh.RepositoryLanguages(r.Context(), id.Token, owner, repo)
	if err != nil {
		writeError(w, h.log.WithFields(logrus.Fields{"user_id": id.ID.String(), "repo": owner + "/" + repo}), err)
		return
	}
	if langs == nil {
		langs = []githubapi.LanguageStat{}
	}
	writeJSON(w, http.StatusOK, langs)
}
