// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"notea/internal/markdown"
	"notea/internal/middleware"
	"notea/internal/models"
	"notea/internal/workspace"
)

// NoteRepo is the note persistence the handlers use. store.NoteStore
// implements it.
type NoteRepo interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Note, error)
	ListByCategory(ctx context.Context, userID, categoryID uuid.UUID) ([]models.Note, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Note, error)
	Create(ctx context.Context, n *models.Note) (*models.Note, error)
	Update(ctx context.Context, id uuid.UUID, title, content string) (*models.Note, error)
	ChangeCategory(ctx context.Context, id, categoryID uuid.UUID) (*models.Note, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PreviewCache stores computed previews. cache.PreviewCache implements it.
type PreviewCache interface {
	Get(ctx context.Context, noteID uuid.UUID, updatedAt time.Time) (string, bool)
	Set(ctx context.Context, noteID uuid.UUID, updatedAt time.Time, preview string)
	Invalidate(ctx context.Context, noteID uuid.UUID)
}

// Notes serves note listing and editing.
type Notes struct {
	notes      NoteRepo
	workspaces *workspace.Registry
	previews   PreviewCache // optional
}

// NewNotes creates the note handler group. previews may be nil.
func NewNotes(notes NoteRepo, workspaces *workspace.Registry, previews PreviewCache) *Notes {
	return &Notes{notes: notes, workspaces: workspaces, previews: previews}
}

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Format  string `json:"format,omitempty"` // html (default) or markdown
}

// body returns the request's content as HTML, or a message for the client.
func (req noteRequest) body() (string, string) {
	content, err := markdown.Convert(req.Format, req.Content)
	if err != nil {
		return "", `format must be "html" or "markdown".`
	}
	if msg := validateNote(req.Title, content); msg != "" {
		return "", msg
	}
	return content, ""
}

type noteCategoryRequest struct {
	CategoryID uuid.UUID `json:"category_id"`
}

type noteListResponse struct {
	Category *models.Category `json:"category"`
	Notes    []models.Note    `json:"notes"`
}

// List returns the notes of one category with previews. Without a
// category parameter the active category is used; the General category
// lists every note.
func (n *Notes) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserIDFromCtx(ctx)

	ws, err := n.workspaces.Open(ctx, userID)
	if err != nil {
		writeWorkspaceError(w, err, "list notes")
		return
	}

	var (
		category models.Category
		found    bool
	)
	if raw := r.URL.Query().Get("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "category must be a UUID.")
			return
		}
		if category, found = ws.Find(id); !found {
			writeError(w, http.StatusNotFound, "Category not found.")
			return
		}
	} else {
		category, found = ws.Active()
	}

	var notes []models.Note
	if !found || category.IsGeneral() {
		notes, err = n.notes.ListByUser(ctx, userID)
	} else {
		notes, err = n.notes.ListByCategory(ctx, userID, category.ID)
	}
	if err != nil {
		slog.Error("list notes failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	for i := range notes {
		notes[i].Preview = n.preview(ctx, &notes[i])
	}
	if notes == nil {
		notes = []models.Note{}
	}

	resp := noteListResponse{Notes: notes}
	if found {
		resp.Category = &category
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one note.
func (n *Notes) Get(w http.ResponseWriter, r *http.Request) {
	note, ok := n.owned(w, r)
	if !ok {
		return
	}
	note.Preview = n.preview(r.Context(), note)
	writeJSON(w, http.StatusOK, note)
}

// Create files a new note under the active category.
func (n *Notes) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req noteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	content, msg := req.body()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	userID := middleware.UserIDFromCtx(ctx)
	ws, err := n.workspaces.Open(ctx, userID)
	if err != nil {
		writeWorkspaceError(w, err, "create note")
		return
	}

	note := &models.Note{UserID: userID, Title: req.Title, Content: content}
	if active, ok := ws.Active(); ok {
		note.CategoryID = &active.ID
	}

	created, err := n.notes.Create(ctx, note)
	if err != nil {
		slog.Error("create note failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	created.Preview = n.preview(ctx, created)
	writeJSON(w, http.StatusCreated, created)
}

// Update replaces a note's title and content.
func (n *Notes) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	note, ok := n.owned(w, r)
	if !ok {
		return
	}
	var req noteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	content, msg := req.body()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	updated, err := n.notes.Update(ctx, note.ID, req.Title, content)
	if err != nil {
		slog.Error("update note failed", "note_id", note.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "Note not found.")
		return
	}
	if n.previews != nil {
		n.previews.Invalidate(ctx, note.ID)
	}
	updated.Preview = n.preview(ctx, updated)
	writeJSON(w, http.StatusOK, updated)
}

// ChangeCategory moves a note to another of the user's categories.
func (n *Notes) ChangeCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	note, ok := n.owned(w, r)
	if !ok {
		return
	}
	var req noteCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ws, err := n.workspaces.Open(ctx, note.UserID)
	if err != nil {
		writeWorkspaceError(w, err, "change note category")
		return
	}
	if _, found := ws.Find(req.CategoryID); !found {
		writeError(w, http.StatusNotFound, "Category not found.")
		return
	}

	moved, err := n.notes.ChangeCategory(ctx, note.ID, req.CategoryID)
	if err != nil {
		slog.Error("change note category failed", "note_id", note.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	if moved == nil {
		writeError(w, http.StatusNotFound, "Note not found.")
		return
	}
	moved.Preview = n.preview(ctx, moved)
	writeJSON(w, http.StatusOK, moved)
}

// Delete removes a note.
func (n *Notes) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	note, ok := n.owned(w, r)
	if !ok {
		return
	}
	if err := n.notes.Delete(ctx, note.ID); err != nil {
		slog.Error("delete note failed", "note_id", note.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	if n.previews != nil {
		n.previews.Invalidate(ctx, note.ID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// owned loads the {id} note and checks that the caller owns it. Notes of
// other users are reported as missing.
func (n *Notes) owned(w http.ResponseWriter, r *http.Request) (*models.Note, bool) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Note not found.")
		return nil, false
	}
	note, err := n.notes.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("load note failed", "note_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return nil, false
	}
	if note == nil || note.UserID != middleware.UserIDFromCtx(r.Context()) {
		writeError(w, http.StatusNotFound, "Note not found.")
		return nil, false
	}
	return note, true
}

// preview returns the note's preview, from the cache when possible.
func (n *Notes) preview(ctx context.Context, note *models.Note) string {
	if n.previews != nil {
		if p, ok := n.previews.Get(ctx, note.ID, note.UpdatedAt); ok {
			return p
		}
	}
	p := notePreview(note.Content)
	if n.previews != nil {
		n.previews.Set(ctx, note.ID, note.UpdatedAt, p)
	}
	return p
}
