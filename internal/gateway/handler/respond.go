package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"profily/internal/githubapi"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps gateway and context errors onto HTTP statuses.
func writeError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, githubapi.ErrRateLimited):
		status, msg = http.StatusTooManyRequests, "github rate limit exceeded"
	case errors.Is(err, githubapi.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, githubapi.ErrNoToken):
		status, msg = http.StatusUnauthorized, "github token is required"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusServiceUnavailable, "request cancelled"
	}
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
	} else {
		log.WithError(err).Warn("request failed")
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
