package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/offcuts/internal/apperr"
	"github.com/starford/offcuts/internal/marketservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc  *marketservice.Service
	auth *Authenticator
}

// NewHandler creates a new Handler.
func NewHandler(svc *marketservice.Service, auth *Authenticator) *Handler {
	return &Handler{svc: svc, auth: auth}
}

// writeError maps a service error onto an HTTP status. Unexpected errors are logged.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput),
		errors.Is(err, apperr.ErrMalformedFilter),
		errors.Is(err, apperr.ErrCorruptBackup):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody("invalid login or password"))
	case errors.Is(err, apperr.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody("forbidden"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("already exists"))
	case errors.Is(err, apperr.ErrStoreUnavailable):
		slog.Error(op+" failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, errorBody("store unavailable"))
	default:
		slog.Error(op+" failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func forbidden(w http.ResponseWriter) {
	writeJSON(w, http.StatusForbidden, errorBody("forbidden"))
}

// announcementKey extracts the owner login and number from the URL.
func announcementKey(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	login := chi.URLParam(r, "login")
	number, err := strconv.ParseInt(chi.URLParam(r, "number"), 10, 64)
	if err != nil || number < 1 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid announcement number"))
		return "", 0, false
	}
	return login, number, true
}
