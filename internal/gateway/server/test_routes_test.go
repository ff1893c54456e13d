package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	doccache "profily/internal/cache/document"
	"profily/internal/gateway/handler"
	"profily/internal/githubapi"
	"profily/internal/techstack"
	"profily/internal/techstack/analyzer"
)

type fakeProfiles struct {
	gets, refreshes int
	deleted         []string
	err             error
}

func (f *fakeProfiles) GetProfile(_ context.Context, userID, token string) (*techstack.Profile, analyzer.Source, error) {
	f.gets++
	if f.err != nil {
		return nil, "", f.err
	}
	p := techstack.NewProfile(userID, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	p.Categorized = techstack.Categorize([]techstack.Technology{{Name: "Go", Category: techstack.CategoryLanguage}})
	return p, analyzer.SourceCache, nil
}

func (f *fakeProfiles) RefreshProfile(_ context.Context, userID, token string) (*techstack.Profile, analyzer.Source, error) {
	f.refreshes++
	return techstack.NewProfile(userID, time.Now()), analyzer.SourceForcedRefresh, nil
}

func (f *fakeProfiles) DeleteProfile(_ context.Context, userID string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, userID)
	return nil
}

type fakeStoreStats struct{}

func (fakeStoreStats) Stats() doccache.Stats {
	return doccache.Stats{Hits: 3, Misses: 1, CachedEntries: 1}
}

type fakeGitHub struct {
	langOwner, langRepo string
}

func (f *fakeGitHub) ListRepositories(context.Context, string) ([]githubapi.Repository, error) {
	return nil, nil
}

func (f *fakeGitHub) RepositoryLanguages(_ context.Context, _, owner, repo string) ([]githubapi.LanguageStat, error) {
	f.langOwner, f.langRepo = owner, repo
	return []githubapi.LanguageStat{{Name: "Go", Bytes: 10, Percentage: 100}}, nil
}

func (f *fakeGitHub) UserStats(context.Context, string) (*githubapi.Stats, error) {
	return nil, fmt.Errorf("stats: %w", githubapi.ErrRateLimited)
}

func newTestMux(profiles *fakeProfiles, gh *fakeGitHub) http.Handler {
	logger, _ := logtest.NewNullLogger()
	return NewMux(
		handler.NewTechStackHandler(profiles, logger),
		handler.NewGitHubHandler(gh, logger),
		handler.NewHealthHandler(fakeStoreStats{}),
	)
}

func do(h http.Handler, method, path string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authed {
		req.Header.Set("X-User-ID", "u1")
		req.Header.Set("Authorization", "Bearer tok")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetTechStack(t *testing.T) {
	profiles := &fakeProfiles{}
	mux := newTestMux(profiles, &fakeGitHub{})

	rec := do(mux, http.MethodGet, "/api/techstack", true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "cache", rec.Header().Get(handler.SourceHeader))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "techStackProfile-u1", body["id"])
	langs := body["categorized"].(map[string]any)["languages"].([]any)
	assert.Equal(t, "Language", langs[0].(map[string]any)["category"])
}

func TestRefreshRequiresPost(t *testing.T) {
	profiles := &fakeProfiles{}
	mux := newTestMux(profiles, &fakeGitHub{})

	rec := do(mux, http.MethodGet, "/api/techstack/refresh", true)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(mux, http.MethodPost, "/api/techstack/refresh", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "forced_refresh", rec.Header().Get(handler.SourceHeader))
	assert.Equal(t, 1, profiles.refreshes)
}

func TestUnauthenticated(t *testing.T) {
	profiles := &fakeProfiles{}
	mux := newTestMux(profiles, &fakeGitHub{})
	rec := do(mux, http.MethodGet, "/api/techstack", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, profiles.gets)
}

func TestErrorMapping(t *testing.T) {
	mux := newTestMux(&fakeProfiles{err: githubapi.ErrNotFound}, &fakeGitHub{})
	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodGet, "/api/techstack", true).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(mux, http.MethodGet, "/api/github/stats", true).Code)
}

func TestLanguagesRoute(t *testing.T) {
	gh := &fakeGitHub{}
	mux := newTestMux(&fakeProfiles{}, gh)
	rec := do(mux, http.MethodGet, "/api/github/repos/octo/api/languages", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "octo", gh.langOwner)
	assert.Equal(t, "api", gh.langRepo)

	rec = do(mux, http.MethodGet, "/api/github/repos", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestDeleteTechStack(t *testing.T) {
	profiles := &fakeProfiles{}
	mux := newTestMux(profiles, &fakeGitHub{})

	rec := do(mux, http.MethodDelete, "/api/techstack", true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"u1"}, profiles.deleted)

	assert.Equal(t, http.StatusUnauthorized, do(mux, http.MethodDelete, "/api/techstack", false).Code)
}

func TestHealthzReportsStoreCache(t *testing.T) {
	mux := newTestMux(&fakeProfiles{}, &fakeGitHub{})
	rec := do(mux, http.MethodGet, "/healthz", false)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		OK    bool           `json:"ok"`
		Cache doccache.Stats `json:"profileStoreCache"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.OK)
	assert.EqualValues(t, 3, body.Cache.Hits)
	assert.Equal(t, 1, body.Cache.CachedEntries)

	logger, _ := logtest.NewNullLogger()
	bare := NewMux(
		handler.NewTechStackHandler(&fakeProfiles{}, logger),
		handler.NewGitHubHandler(&fakeGitHub{}, logger),
		handler.NewHealthHandler(nil),
	)
	rec = do(bare, http.MethodGet, "/healthz", false)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}
