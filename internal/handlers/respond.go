// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"notea/internal/workspace"
)

// maxBodyBytes bounds request bodies; a note at the content limit fits.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes {"error": msg} with the given status code.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// idParam parses the {id} URL parameter.
func idParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// writeWorkspaceError maps workspace sentinels to HTTP statuses.
func writeWorkspaceError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, workspace.ErrNotFound):
		writeError(w, http.StatusNotFound, "Category not found.")
	case errors.Is(err, workspace.ErrGeneral):
		writeError(w, http.StatusBadRequest, "The General category cannot be renamed or deleted.")
	case errors.Is(err, workspace.ErrReservedName):
		writeError(w, http.StatusBadRequest, "General is a reserved category name.")
	case errors.Is(err, workspace.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "Server is shutting down.")
	default:
		slog.Error(action+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}
