// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package workspace

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"notea/internal/models"
	"notea/internal/testutil"
)

func TestRegistryOpenMountsOnce(t *testing.T) {
	user := uuid.New()
	repo := newMemRepo(user, models.GeneralCategory, "Work")
	reg := NewRegistry(repo, Options{Clock: testutil.NewFakeClock()})

	var wg sync.WaitGroup
	got := make([]*Workspace, 20)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ws, err := reg.Open(context.Background(), user)
			if err != nil {
				t.Errorf("Open: %v", err)
			}
			got[i] = ws
		}()
	}
	wg.Wait()

	for _, ws := range got[1:] {
		if ws != got[0] {
			t.Fatal("concurrent Open mounted more than one workspace")
		}
	}
	if reg.Len() != 1 || !reg.Mounted(user) {
		t.Errorf("len %d mounted %v", reg.Len(), reg.Mounted(user))
	}
}

func TestRegistryCloseFlushesOnLogout(t *testing.T) {
	f := newFixture(t)
	f.ws.Reorder(byName(t, f.ws, "Ideas"), byName(t, f.ws, "Work"))

	if !f.reg.Close(context.Background(), f.user) {
		t.Fatal("Close returned false for mounted workspace")
	}
	if got := f.repo.stored(t, f.user); got != "General,Ideas,Work,Personal" {
		t.Errorf("stored: got %s", got)
	}
	if f.reg.Mounted(f.user) {
		t.Error("still mounted after Close")
	}
	if f.reg.Close(context.Background(), f.user) {
		t.Error("second Close returned true")
	}

	// The next visit mounts fresh from the store.
	ws, err := f.reg.Open(context.Background(), f.user)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if ws == f.ws || joinNames(ws.Categories()) != "General,Ideas,Work,Personal" {
		t.Errorf("reopened: %s", joinNames(ws.Categories()))
	}
}

func TestRegistrySweepClosesIdle(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	busy, idle := uuid.New(), uuid.New()
	repo := newMemRepo(idle, models.GeneralCategory, "A", "B")
	reg := NewRegistry(repo, Options{
		IdleTTL: 10 * time.Minute,
		Clock:   testutil.NewFakeClock(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:     clock,
	})
	ctx := context.Background()

	idleWS, _ := reg.Open(ctx, idle)
	reg.Open(ctx, busy)
	cats := idleWS.Categories()
	idleWS.Reorder(cats[2].ID, cats[1].ID)

	now = now.Add(8 * time.Minute)
	reg.Open(ctx, busy)

	now = now.Add(5 * time.Minute)
	if n := reg.Sweep(ctx); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if reg.Mounted(idle) || !reg.Mounted(busy) {
		t.Errorf("mounted: idle=%v busy=%v", reg.Mounted(idle), reg.Mounted(busy))
	}
	if !idleWS.Closed() {
		t.Error("swept workspace not closed")
	}
	if got := repo.stored(t, idle); got != "General,B,A" {
		t.Errorf("idle teardown did not flush: %s", got)
	}
}

func TestRegistryShutdown(t *testing.T) {
	f := newFixture(t)
	f.ws.Reorder(byName(t, f.ws, "Work"), byName(t, f.ws, "Personal"))

	if err := f.reg.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := f.repo.stored(t, f.user); got != "General,Personal,Work,Ideas" {
		t.Errorf("stored: got %s", got)
	}
	if _, err := f.reg.Open(context.Background(), f.user); !errors.Is(err, ErrClosed) {
		t.Errorf("Open after shutdown: got %v", err)
	}
	// Idempotent.
	if err := f.reg.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}

func TestRegistryDoRetriesAfterTeardown(t *testing.T) {
	f := newFixture(t)
	stale := f.ws
	calls := 0

	err := f.reg.Do(context.Background(), f.user, func(ws *Workspace) error {
		calls++
		if calls == 1 {
			// Torn down between lookup and use.
			f.reg.Close(context.Background(), f.user)
			_, err := ws.Reorder(uuid.Nil, uuid.Nil)
			return err
		}
		if ws == stale {
			t.Error("retry reused the closed workspace")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
}

func TestRegistryOpenWaitsForLogoutFlush(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.ws.Reorder(byName(t, f.ws, "Work"), byName(t, f.ws, "Ideas")); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if got := joinNames(f.ws.Categories()); got != "General,Personal,Ideas,Work" {
		t.Fatalf("local order: %s", got)
	}

	entered, release := f.repo.holdWrites()
	defer release()

	closed := make(chan struct{})
	go func() {
		f.reg.Close(ctx, f.user)
		close(closed)
	}()
	<-entered // the logout flush is writing

	opened := make(chan *Workspace, 1)
	go func() {
		ws, err := f.reg.Open(ctx, f.user)
		if err != nil {
			t.Errorf("Open: %v", err)
		}
		opened <- ws
	}()

	select {
	case ws := <-opened:
		t.Fatalf("mounted while the flush was in flight: %s", joinNames(ws.Categories()))
	case <-time.After(50 * time.Millisecond):
	}

	release()
	<-closed
	select {
	case ws := <-opened:
		if ws == nil {
			t.Fatal("Open returned no workspace")
		}
		if got := joinNames(ws.Categories()); got != "General,Personal,Ideas,Work" {
			t.Errorf("remounted order: got %s", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Open did not return after the flush")
	}
	if got := f.repo.stored(t, f.user); got != "General,Personal,Ideas,Work" {
		t.Errorf("stored: got %s", got)
	}
}

func TestRegistryOpenWaitIsBoundedByContext(t *testing.T) {
	f := newFixture(t)
	f.ws.Reorder(byName(t, f.ws, "Work"), byName(t, f.ws, "Ideas"))

	entered, release := f.repo.holdWrites()
	defer release()
	go f.reg.Close(context.Background(), f.user)
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := f.reg.Open(ctx, f.user); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Open: got %v, want deadline exceeded", err)
	}
}

func TestRegistryShutdownWaitsForTimerFiredWrites(t *testing.T) {
	f := newFixture(t)
	f.ws.Reorder(byName(t, f.ws, "Ideas"), byName(t, f.ws, "Work"))

	entered, release := f.repo.holdWrites()
	defer release()
	go f.clock.Advance(time.Second)
	<-entered // the debounced write has started on its own

	done := make(chan error, 1)
	go func() { done <- f.reg.Shutdown(context.Background()) }()

	select {
	case <-done:
		t.Fatal("Shutdown returned while positions were still being written")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Shutdown: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown did not return")
	}
	if got := f.repo.stored(t, f.user); got != "General,Ideas,Work,Personal" {
		t.Errorf("stored: got %s", got)
	}
}
