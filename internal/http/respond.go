package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Error: message})
}

// respondStoreError maps a store failure to a response: wrapped
// core.ErrNotFound becomes a 404 naming the resource, anything else a
// logged 500 with no internals leaked.
func respondStoreError(w http.ResponseWriter, r *http.Request, err error, resource string) {
	if errors.Is(err, core.ErrNotFound) {
		respondError(w, http.StatusNotFound, resource+" not found")
		return
	}
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Store operation failed",
		"error", err,
		"resource", resource,
		"path", r.URL.Path)
	respondError(w, http.StatusInternalServerError, "internal error")
}

// decodeJSON reads the request body into dst. On failure it writes the
// 400 and reports false; handlers return immediately.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
