// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"notea/internal/middleware"
	"notea/internal/models"
	"notea/internal/reorder"
	"notea/internal/workspace"
)

// Categories serves the sidebar: listing, CRUD, reordering and drag events.
type Categories struct {
	workspaces *workspace.Registry
}

// NewCategories creates the category handler group.
func NewCategories(workspaces *workspace.Registry) *Categories {
	return &Categories{workspaces: workspaces}
}

type categoryRequest struct {
	Name string `json:"name"`
}

type reorderRequest struct {
	SourceID uuid.UUID `json:"source_id"`
	TargetID uuid.UUID `json:"target_id"`
}

type dragRequest struct {
	Kind     string     `json:"kind"` // start, end or cancel
	ActiveID uuid.UUID  `json:"active_id"`
	OverID   *uuid.UUID `json:"over_id"`
	DX       float64    `json:"dx"`
	DY       float64    `json:"dy"`
}

type reorderResponse struct {
	Changed bool `json:"changed"`
	workspace.State
}

type dragResponse struct {
	Outcome string `json:"outcome"`
	workspace.State
}

type toggleResponse struct {
	ID       uuid.UUID `json:"id"`
	Expanded bool      `json:"expanded"`
}

// do runs fn against the caller's workspace and reports failures.
func (c *Categories) do(w http.ResponseWriter, r *http.Request, action string, fn func(*workspace.Workspace) error) bool {
	userID := middleware.UserIDFromCtx(r.Context())
	if err := c.workspaces.Do(r.Context(), userID, fn); err != nil {
		writeWorkspaceError(w, err, action)
		return false
	}
	return true
}

// List returns the categories in display order with the sidebar state.
func (c *Categories) List(w http.ResponseWriter, r *http.Request) {
	var state workspace.State
	if c.do(w, r, "list categories", func(ws *workspace.Workspace) error {
		state = ws.State()
		return nil
	}) {
		writeJSON(w, http.StatusOK, state)
	}
}

// Create adds a category at the end of the list.
func (c *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateCategoryName(req.Name); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	var created *models.Category
	if c.do(w, r, "create category", func(ws *workspace.Workspace) (err error) {
		created, err = ws.AddCategory(r.Context(), strings.TrimSpace(req.Name))
		return err
	}) {
		writeJSON(w, http.StatusCreated, created)
	}
}

// Rename changes a category's name.
func (c *Categories) Rename(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Category not found.")
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateCategoryName(req.Name); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	var renamed *models.Category
	if c.do(w, r, "rename category", func(ws *workspace.Workspace) (err error) {
		renamed, err = ws.RenameCategory(r.Context(), id, strings.TrimSpace(req.Name))
		return err
	}) {
		writeJSON(w, http.StatusOK, renamed)
	}
}

// Delete removes a category; its notes become uncategorized.
func (c *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Category not found.")
		return
	}
	if c.do(w, r, "delete category", func(ws *workspace.Workspace) error {
		return ws.DeleteCategory(r.Context(), id)
	}) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// Activate makes a category the active one.
func (c *Categories) Activate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Category not found.")
		return
	}
	var active *models.Category
	if c.do(w, r, "activate category", func(ws *workspace.Workspace) (err error) {
		active, err = ws.ActivateCategory(r.Context(), id)
		return err
	}) {
		writeJSON(w, http.StatusOK, active)
	}
}

// Toggle expands or collapses a category in the sidebar.
func (c *Categories) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Category not found.")
		return
	}
	var expanded bool
	if c.do(w, r, "toggle category", func(ws *workspace.Workspace) (err error) {
		expanded, err = ws.ToggleExpanded(id)
		return err
	}) {
		writeJSON(w, http.StatusOK, toggleResponse{ID: id, Expanded: expanded})
	}
}

// Reorder moves source into target's slot. A no-op move still answers 200
// with the unchanged order.
func (c *Categories) Reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var resp reorderResponse
	if c.do(w, r, "reorder categories", func(ws *workspace.Workspace) (err error) {
		resp.Changed, err = ws.Reorder(req.SourceID, req.TargetID)
		resp.State = ws.State()
		return err
	}) {
		writeJSON(w, http.StatusOK, resp)
	}
}

// Drag feeds one drag event to the sidebar's gesture.
func (c *Categories) Drag(w http.ResponseWriter, r *http.Request) {
	var req dragRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var ev reorder.Event
	switch req.Kind {
	case "start":
		ev = reorder.DragStart{ActiveID: req.ActiveID, DX: req.DX, DY: req.DY}
	case "end":
		ev = reorder.DragEnd{OverID: req.OverID}
	case "cancel":
		ev = reorder.DragCancel{}
	default:
		writeError(w, http.StatusBadRequest, `kind must be "start", "end" or "cancel".`)
		return
	}

	var resp dragResponse
	if c.do(w, r, "drag category", func(ws *workspace.Workspace) error {
		outcome, err := ws.Drag(ev)
		resp.Outcome = outcome.String()
		resp.State = ws.State()
		return err
	}) {
		writeJSON(w, http.StatusOK, resp)
	}
}
