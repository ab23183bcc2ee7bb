// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package workspace holds the live, per-user category sidebar: the
// optimistic ordering, the drag gesture, the expanded groups and the
// debounced position writes that follow a reorder.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"notea/internal/models"
	"notea/internal/reorder"
)

var (
	// ErrNotFound is returned when a category id is not part of the workspace.
	ErrNotFound = errors.New("workspace: category not found")
	// ErrClosed is returned by operations on a torn-down workspace.
	ErrClosed = errors.New("workspace: closed")
	// ErrGeneral is returned when renaming or deleting the General category.
	ErrGeneral = errors.New("workspace: the General category cannot be changed")
	// ErrReservedName is returned when a category would be named General.
	ErrReservedName = errors.New("workspace: General is a reserved category name")
)

// CategoryRepo is the persistence a workspace needs. store.CategoryStore
// implements it.
type CategoryRepo interface {
	reorder.PositionWriter
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Category, error)
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
	Rename(ctx context.Context, id uuid.UUID, name string) (*models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, userID, id uuid.UUID) error
}

// State is a consistent read of a workspace, as served to the client.
type State struct {
	Version    uint64            `json:"version"`
	Dragging   bool              `json:"dragging"`
	Expanded   []uuid.UUID       `json:"expanded"`
	Categories []models.Category `json:"categories"`
}

// Workspace is one user's mounted sidebar. Every method is safe for
// concurrent use; operations are serialized per workspace.
type Workspace struct {
	userID uuid.UUID
	repo   CategoryRepo
	logger *slog.Logger

	mu       sync.Mutex
	list     *reorder.List[models.Category]
	gesture  *reorder.Gesture
	expanded map[uuid.UUID]bool
	saved    map[uuid.UUID]bool
	dropErr  error
	closed   bool

	lastUsed atomic.Int64
}

func newWorkspace(userID uuid.UUID, categories []models.Category, repo CategoryRepo, opts Options) *Workspace {
	logger := opts.Logger.With("user_id", userID)
	sink := reorder.NewSink(repo, reorder.SinkOptions{
		QuietPeriod:  opts.QuietPeriod,
		WriteTimeout: opts.WriteTimeout,
		Clock:        opts.Clock,
		Logger:       logger,
		Name:         "categories",
	})

	w := &Workspace{
		userID:   userID,
		repo:     repo,
		logger:   logger,
		list:     reorder.NewList(categories, sink),
		expanded: make(map[uuid.UUID]bool),
	}
	w.gesture = reorder.NewGesture(reorder.GestureHooks{
		OnDragStart: w.collapseAll,
		OnDragStop:  w.restoreExpanded,
		OnDrop: func(source, target uuid.UUID) {
			_, w.dropErr = w.reorderLocked(source, target)
		},
	})
	w.touch(opts.Now())
	return w
}

// UserID returns the owner of the workspace.
func (w *Workspace) UserID() uuid.UUID { return w.userID }

// Categories returns the categories in display order.
func (w *Workspace) Categories() []models.Category {
	return w.list.Items()
}

// Version increments on every local change to the category sequence.
func (w *Workspace) Version() uint64 {
	return w.list.Version()
}

// Dragging reports whether a drag gesture is in progress.
func (w *Workspace) Dragging() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gesture.State() == reorder.Dragging
}

// Expanded returns the ids of expanded categories in display order.
func (w *Workspace) Expanded() []uuid.UUID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.expandedLocked(w.list.Items())
}

// State returns the categories, version, drag state and expanded set read
// together.
func (w *Workspace) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	items := w.list.Items()
	return State{
		Version:    w.list.Version(),
		Dragging:   w.gesture.State() == reorder.Dragging,
		Expanded:   w.expandedLocked(items),
		Categories: items,
	}
}

// Active returns the active category, if any.
func (w *Workspace) Active() (models.Category, bool) {
	for _, c := range w.list.Items() {
		if c.IsActive {
			return c, true
		}
	}
	return models.Category{}, false
}

// Find returns the category with id.
func (w *Workspace) Find(id uuid.UUID) (models.Category, bool) {
	return w.list.Find(id)
}

// Pending returns the positions waiting to be persisted, or nil.
func (w *Workspace) Pending() []reorder.Position {
	return w.list.Sink().Pending()
}

// Reorder moves source into target's slot. The new order is visible
// immediately and persisted after the quiet period. Dropping a category
// onto itself, or naming an unknown id, changes nothing.
func (w *Workspace) Reorder(source, target uuid.UUID) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false, ErrClosed
	}
	return w.reorderLocked(source, target)
}

func (w *Workspace) reorderLocked(source, target uuid.UUID) (bool, error) {
	changed, err := w.list.Move(source, target)
	if errors.Is(err, reorder.ErrSinkClosed) {
		return changed, ErrClosed
	}
	if changed {
		w.logger.Debug("categories reordered", "source", source, "target", target)
	}
	return changed, err
}

// Drag feeds one pointer event to the gesture machine. A drop reorders the
// categories the same way Reorder does.
func (w *Workspace) Drag(ev reorder.Event) (reorder.Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return reorder.Ignored, ErrClosed
	}
	if start, ok := ev.(reorder.DragStart); ok {
		if _, found := w.list.Find(start.ActiveID); !found {
			return reorder.Ignored, ErrNotFound
		}
	}

	w.dropErr = nil
	outcome := w.gesture.Handle(ev)
	return outcome, w.dropErr
}

// collapseAll runs on drag start. Caller holds w.mu.
func (w *Workspace) collapseAll() {
	w.saved = w.expanded
	w.expanded = make(map[uuid.UUID]bool)
}

// restoreExpanded runs when a drag ends or is cancelled. Caller holds w.mu.
func (w *Workspace) restoreExpanded() {
	if w.saved == nil {
		return
	}
	w.expanded = w.saved
	w.saved = nil
}

// ToggleExpanded flips whether a category's notes are shown and returns the
// new state.
func (w *Workspace) ToggleExpanded(id uuid.UUID) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false, ErrClosed
	}
	if _, ok := w.list.Find(id); !ok {
		return false, ErrNotFound
	}
	if w.expanded[id] {
		delete(w.expanded, id)
		return false, nil
	}
	w.expanded[id] = true
	return true, nil
}

func (w *Workspace) expandedLocked(items []models.Category) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(w.expanded))
	for _, c := range items {
		if w.expanded[c.ID] {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// AddCategory creates a category after the last one in the local order.
func (w *Workspace) AddCategory(ctx context.Context, name string) (*models.Category, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrClosed
	}
	if models.IsReservedName(name) {
		return nil, ErrReservedName
	}

	position := 0
	for _, c := range w.list.Items() {
		if c.Position >= position {
			position = c.Position + 1
		}
	}

	created, err := w.repo.Create(ctx, &models.Category{
		UserID:   w.userID,
		Name:     name,
		Position: position,
	})
	if err != nil {
		return nil, fmt.Errorf("add category: %w", err)
	}
	w.list.Append(*created)
	return created, nil
}

// RenameCategory changes a category's name in the store and locally.
func (w *Workspace) RenameCategory(ctx context.Context, id uuid.UUID, name string) (*models.Category, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrClosed
	}
	current, ok := w.list.Find(id)
	if !ok {
		return nil, ErrNotFound
	}
	if current.IsGeneral() {
		return nil, ErrGeneral
	}
	if models.IsReservedName(name) {
		return nil, ErrReservedName
	}

	renamed, err := w.repo.Rename(ctx, id, name)
	if err != nil {
		return nil, fmt.Errorf("rename category: %w", err)
	}
	if renamed == nil {
		w.list.Remove(id)
		return nil, ErrNotFound
	}

	// Keep the local position; a reorder may be waiting to be written.
	current.Name = renamed.Name
	current.UpdatedAt = renamed.UpdatedAt
	w.list.Replace(current)
	return &current, nil
}

// DeleteCategory removes a category. Its notes become uncategorized and the
// remaining categories keep their positions.
func (w *Workspace) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	current, ok := w.list.Find(id)
	if !ok {
		return ErrNotFound
	}
	if current.IsGeneral() {
		return ErrGeneral
	}

	if err := w.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	w.list.Remove(id)
	delete(w.expanded, id)
	delete(w.saved, id)
	return nil
}

// ActivateCategory makes id the active category. The local state changes
// first; a failed store update is logged and not reverted.
func (w *Workspace) ActivateCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrClosed
	}
	if _, ok := w.list.Find(id); !ok {
		return nil, ErrNotFound
	}

	items := w.list.Items()
	var active models.Category
	for i := range items {
		items[i].IsActive = items[i].ID == id
		if items[i].IsActive {
			active = items[i]
		}
	}
	w.list.Apply(items)

	if err := w.repo.SetActive(ctx, w.userID, id); err != nil {
		w.logger.Error("failed to update active category", "category_id", id, "error", err)
	}
	return &active, nil
}

// Close flushes pending position writes and rejects further changes. It is
// safe to call more than once.
func (w *Workspace) Close(ctx context.Context) reorder.FlushResult {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return reorder.FlushResult{}
	}
	w.closed = true
	w.mu.Unlock()

	res := w.list.Close(ctx)
	w.logger.Debug("workspace closed", "written", res.Written, "failed", res.Failed)
	return res
}

// Closed reports whether Close has been called.
func (w *Workspace) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *Workspace) touch(now time.Time) {
	w.lastUsed.Store(now.UnixNano())
}

func (w *Workspace) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, w.lastUsed.Load()))
}
