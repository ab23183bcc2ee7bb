// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"notea/internal/reorder"
)

// DefaultIdleTTL is how long an unused workspace stays mounted.
const DefaultIdleTTL = 30 * time.Minute

// Options configure every workspace a Registry mounts.
type Options struct {
	QuietPeriod  time.Duration
	WriteTimeout time.Duration
	IdleTTL      time.Duration
	Clock        reorder.Clock
	Logger       *slog.Logger
	Now          func() time.Time
}

// Registry owns the mounted workspaces, one per user.
type Registry struct {
	repo CategoryRepo
	opts Options

	mu      sync.Mutex
	spaces  map[uuid.UUID]*Workspace
	closing map[uuid.UUID]chan struct{} // closed once the user's teardown flush returns
	closed  bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRegistry creates an empty registry. Call StartSweeper to unmount idle
// workspaces in the background.
func NewRegistry(repo CategoryRepo, opts Options) *Registry {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = reorder.DefaultWriteTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{
		repo:    repo,
		opts:    opts,
		spaces:  make(map[uuid.UUID]*Workspace),
		closing: make(map[uuid.UUID]chan struct{}),
		stopCh:  make(chan struct{}),
	}
}

// Open returns the user's workspace, mounting it from the store on first
// use. While the user's previous workspace is still flushing, Open waits
// for the flush so the new one is mounted from the written order.
func (r *Registry) Open(ctx context.Context, userID uuid.UUID) (*Workspace, error) {
	for {
		ws, wait, err := r.lookup(userID)
		if ws != nil || err != nil {
			return ws, err
		}
		if wait != nil {
			if err := waitFor(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		categories, err := r.repo.ListByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("mount workspace: %w", err)
		}

		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return nil, ErrClosed
		}
		// Double-check: a concurrent request may have mounted it meanwhile.
		if ws, ok := r.spaces[userID]; ok {
			ws.touch(r.opts.Now())
			r.mu.Unlock()
			return ws, nil
		}
		// A workspace mounted and torn down while we read: the rows are stale.
		if _, busy := r.closing[userID]; busy {
			r.mu.Unlock()
			continue
		}
		ws = newWorkspace(userID, categories, r.repo, r.opts)
		r.spaces[userID] = ws
		r.mu.Unlock()
		r.opts.Logger.Debug("workspace mounted", "user_id", userID, "categories", len(categories))
		return ws, nil
	}
}

// lookup returns the mounted workspace, or the channel to wait on while the
// user's workspace is being closed. Both nil means nothing is mounted.
func (r *Registry) lookup(userID uuid.UUID) (*Workspace, <-chan struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, nil, ErrClosed
	}
	if ws, ok := r.spaces[userID]; ok {
		ws.touch(r.opts.Now())
		return ws, nil, nil
	}
	if ch, ok := r.closing[userID]; ok {
		return nil, ch, nil
	}
	return nil, nil, nil
}

func waitFor(ctx context.Context, ch <-chan struct{}) error {
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn against the user's workspace. If the workspace was torn down
// between Open and fn, it is mounted again and fn retried once.
func (r *Registry) Do(ctx context.Context, userID uuid.UUID, fn func(*Workspace) error) error {
	ws, err := r.Open(ctx, userID)
	if err != nil {
		return err
	}
	err = fn(ws)
	if !errors.Is(err, ErrClosed) {
		return err
	}
	ws, err = r.Open(ctx, userID)
	if err != nil {
		return err
	}
	return fn(ws)
}

// Mounted reports whether the user has a live workspace.
func (r *Registry) Mounted(userID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.spaces[userID]
	return ok
}

// Len returns the number of mounted workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spaces)
}

// Close unmounts the user's workspace, flushing pending writes. It returns
// false when nothing was mounted.
func (r *Registry) Close(ctx context.Context, userID uuid.UUID) bool {
	r.mu.Lock()
	ws, ok := r.spaces[userID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	r.unmountLocked(userID)
	r.mu.Unlock()

	r.closeAll(ctx, map[uuid.UUID]*Workspace{userID: ws})
	return true
}

// unmountLocked moves a mounted workspace to the closing set. Caller holds
// r.mu and must pass the workspace to closeAll.
func (r *Registry) unmountLocked(userID uuid.UUID) {
	delete(r.spaces, userID)
	if _, ok := r.closing[userID]; !ok {
		r.closing[userID] = make(chan struct{})
	}
}

// Sweep unmounts every workspace unused for longer than the idle TTL and
// returns how many it closed.
func (r *Registry) Sweep(ctx context.Context) int {
	now := r.opts.Now()

	r.mu.Lock()
	idle := make(map[uuid.UUID]*Workspace)
	for id, ws := range r.spaces {
		if ws.idleSince(now) > r.opts.IdleTTL {
			idle[id] = ws
			r.unmountLocked(id)
		}
	}
	r.mu.Unlock()

	if len(idle) > 0 {
		r.closeAll(ctx, idle)
		r.opts.Logger.Info("idle workspaces closed", "count", len(idle))
	}
	return len(idle)
}

// StartSweeper runs Sweep every interval until Shutdown.
func (r *Registry) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), r.opts.WriteTimeout)
				r.Sweep(ctx)
				cancel()
			case <-r.stopCh:
				return
			}
		}
	}()
}

// Shutdown stops the sweeper and closes every workspace, flushing their
// pending writes. Later Open calls return ErrClosed.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.stopOnce.Do(func() { close(r.stopCh) })

	r.mu.Lock()
	r.closed = true
	all := make(map[uuid.UUID]*Workspace, len(r.spaces))
	for id, ws := range r.spaces {
		all[id] = ws
		r.unmountLocked(id)
	}
	var waits []chan struct{}
	for id, ch := range r.closing {
		if _, ours := all[id]; !ours {
			waits = append(waits, ch)
		}
	}
	r.mu.Unlock()

	r.closeAll(ctx, all)
	// Teardowns started earlier by logout or the sweeper.
	for _, ch := range waits {
		if err := waitFor(ctx, ch); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// closeAll closes the given workspaces in parallel, then clears their
// closing markers so waiting Opens proceed.
func (r *Registry) closeAll(ctx context.Context, spaces map[uuid.UUID]*Workspace) {
	var g errgroup.Group
	for _, ws := range spaces {
		g.Go(func() error {
			ws.Close(ctx)
			return nil
		})
	}
	g.Wait()

	r.mu.Lock()
	for id := range spaces {
		if ch, ok := r.closing[id]; ok {
			delete(r.closing, id)
			close(ch)
		}
	}
	r.mu.Unlock()
}
