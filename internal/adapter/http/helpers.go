package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/corkboard/corkboard/internal/domain"
	"github.com/corkboard/corkboard/internal/domain/activity"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// headerConnectionID carries the actor's WebSocket connection ID on HTTP
// mutations so the broadcast router can suppress the echo to that one
// connection. Absent header means no suppression.
const headerConnectionID = "X-Connection-ID"

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		if err.Error() == "http: request body too large" {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}

// urlParam is a short alias for chi.URLParam.
func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// connID extracts the actor's WebSocket connection ID, if any.
func connID(r *http.Request) string {
	return r.Header.Get(headerConnectionID)
}

// pageFrom reads limit/offset query parameters into an activity.Page.
func pageFrom(r *http.Request) activity.Page {
	var p activity.Page
	p.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	p.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return p
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeDomainError(w http.ResponseWriter, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, fallbackMsg)
	case errors.Is(err, domain.ErrNoAccess):
		// Same status as not-found so probing cannot confirm existence.
		writeError(w, http.StatusNotFound, fallbackMsg)
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "resource was modified by another request")
	case errors.Is(err, domain.ErrInvalidPosition):
		writeError(w, http.StatusBadRequest, "position out of range")
	case errors.Is(err, domain.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")
		writeError(w, http.StatusBadRequest, msg)
	case errors.Is(err, domain.ErrOrderingCorruption):
		slog.Error("ordering corruption detected", "error", err)
		writeError(w, http.StatusInternalServerError, "board ordering is corrupted")
	case strings.Contains(err.Error(), "invalid input syntax"):
		writeError(w, http.StatusBadRequest, "invalid identifier format")
	case strings.Contains(err.Error(), "unique constraint") || strings.Contains(err.Error(), "SQLSTATE 23505"):
		writeError(w, http.StatusConflict, "resource already exists")
	case strings.Contains(err.Error(), "validate:"):
		writeError(w, http.StatusBadRequest, strings.TrimSpace(strings.TrimPrefix(err.Error(), "validate:")))
	default:
		slog.Error("unhandled domain error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeInternalError logs the actual error server-side and returns a generic message to the client.
func writeInternalError(w http.ResponseWriter, err error) {
	slog.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
