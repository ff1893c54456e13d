package server

import (
	"net/http"

	"profily/internal/gateway/handler"
	"profily/internal/gateway/middleware"
)

func NewMux(
	techStackHandler *handler.TechStackHandler,
	gitHubHandler *handler.GitHubHandler,
	healthHandler *handler.HealthHandler,
) http.Handler {
	api := http.NewServeMux()

	// Tech stack
	api.HandleFunc("GET /api/techstack", techStackHandler.HandleGet)
	api.HandleFunc("DELETE /api/techstack", techStackHandler.HandleDelete)
	api.HandleFunc("POST /api/techstack/refresh", techStackHandler.HandleRefresh)

	// GitHub passthrough
	api.HandleFunc("GET /api/github/repos", gitHubHandler.HandleRepositories)
	api.HandleFunc("GET /api/github/stats", gitHubHandler.HandleStats)
	api.HandleFunc("GET /api/github/repos/{owner}/{repo}/languages", gitHubHandler.HandleLanguages)

	mux := http.NewServeMux()
	mux.Handle("/api/", middleware.WithIdentity(api))
	mux.HandleFunc("GET /healthz", healthHandler.HandleHealth)

	// Middleware
	return middleware.CORS(mux)
}
