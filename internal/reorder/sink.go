// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package reorder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultQuietPeriod is how long the sink waits after the last schedule
	// before writing.
	DefaultQuietPeriod = 1000 * time.Millisecond

	// DefaultWriteTimeout bounds each individual position write.
	DefaultWriteTimeout = 10 * time.Second
)

// ErrSinkClosed is returned by Schedule after Close.
var ErrSinkClosed = errors.New("reorder: sink closed")

// PositionWriter persists the position of a single item. Writes for
// different ids are independent and may run concurrently.
type PositionWriter interface {
	UpdatePosition(ctx context.Context, id uuid.UUID, position int) error
}

// SinkOptions configures a Sink. Zero values select the defaults.
type SinkOptions struct {
	QuietPeriod  time.Duration
	WriteTimeout time.Duration
	Clock        Clock
	Logger       *slog.Logger

	// Name identifies the collection in log lines, e.g. "categories".
	Name string
}

// FlushResult summarizes one flush.
type FlushResult struct {
	Written int
	Failed  int
}

// Sink coalesces position snapshots and writes only the latest one once
// the quiet period passes without a newer schedule. A sink must live as
// long as the collection it mirrors: building a new one per request
// resets the timer identity and nothing is ever coalesced.
type Sink struct {
	writer       PositionWriter
	quiet        time.Duration
	writeTimeout time.Duration
	clock        Clock
	logger       *slog.Logger
	name         string

	mu      sync.Mutex
	pending []Position
	timer   Timer
	gen     uint64
	closed  bool

	// inflight counts batches being written, including timer-fired ones.
	// Adds happen under mu and never after closed is set.
	inflight sync.WaitGroup

	flushes atomic.Int64
}

// NewSink returns a sink that writes through writer.
func NewSink(writer PositionWriter, opts SinkOptions) *Sink {
	if opts.QuietPeriod <= 0 {
		opts.QuietPeriod = DefaultQuietPeriod
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Name == "" {
		opts.Name = "items"
	}
	return &Sink{
		writer:       writer,
		quiet:        opts.QuietPeriod,
		writeTimeout: opts.WriteTimeout,
		clock:        opts.Clock,
		logger:       opts.Logger,
		name:         opts.Name,
	}
}

// Schedule records snapshot as the state to persist and restarts the quiet
// period. Any snapshot scheduled earlier and not yet written is discarded.
func (s *Sink) Schedule(snapshot []Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}

	if s.timer != nil {
		s.timer.Stop()
	}
	s.pending = append([]Position(nil), snapshot...)
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.quiet, func() { s.fire(gen) })
	return nil
}

// Pending returns a copy of the snapshot waiting to be written, or nil.
func (s *Sink) Pending() []Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	return append([]Position(nil), s.pending...)
}

// Flushes returns how many batches the sink has written so far.
func (s *Sink) Flushes() int64 {
	return s.flushes.Load()
}

// Flush cancels the timer and writes the pending snapshot right away. It
// is a no-op when nothing is pending.
func (s *Sink) Flush(ctx context.Context) FlushResult {
	s.mu.Lock()
	snapshot := s.take()
	s.mu.Unlock()

	if snapshot == nil {
		return FlushResult{}
	}
	defer s.inflight.Done()
	return s.write(ctx, snapshot)
}

// Close flushes whatever is pending and makes later Schedule calls fail.
// It returns once every write the sink started has finished, or when ctx
// is done, whichever comes first.
func (s *Sink) Close(ctx context.Context) FlushResult {
	s.mu.Lock()
	s.closed = true
	snapshot := s.take()
	s.mu.Unlock()

	var res FlushResult
	if snapshot != nil {
		res = s.write(ctx, snapshot)
		s.inflight.Done()
	}

	if err := s.wait(ctx); err != nil {
		s.logger.Warn("sink closed with writes still in flight", "collection", s.name, "error", err)
	}
	return res
}

// wait blocks until no write is in flight or ctx is done.
func (s *Sink) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// take detaches the pending snapshot and stops its timer. A non-nil
// snapshot is counted in flight; the caller calls inflight.Done after
// writing it. Caller holds s.mu.
func (s *Sink) take() []Position {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	snapshot := s.pending
	s.pending = nil
	s.gen++
	if snapshot != nil {
		s.inflight.Add(1)
	}
	return snapshot
}

// fire runs when a timer elapses. A timer that lost the race with a newer
// Schedule carries an old generation and does nothing.
func (s *Sink) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.pending == nil {
		s.mu.Unlock()
		return
	}
	snapshot := s.pending
	s.pending = nil
	s.timer = nil
	s.inflight.Add(1)
	s.mu.Unlock()

	defer s.inflight.Done()
	s.write(context.Background(), snapshot)
}

// write issues one update per item in parallel. Failures are logged and
// counted; successful writes are kept.
func (s *Sink) write(ctx context.Context, snapshot []Position) FlushResult {
	var (
		g      errgroup.Group
		failed atomic.Int64
	)

	for _, p := range snapshot {
		g.Go(func() error {
			wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
			defer cancel()

			if err := s.writer.UpdatePosition(wctx, p.ID, p.Position); err != nil {
				failed.Add(1)
				s.logger.Warn("position update failed",
					"collection", s.name,
					"id", p.ID,
					"position", p.Position,
					"error", err,
				)
			}
			return nil
		})
	}
	g.Wait()
	s.flushes.Add(1)

	res := FlushResult{
		Written: len(snapshot) - int(failed.Load()),
		Failed:  int(failed.Load()),
	}
	if res.Failed > 0 {
		s.logger.Error("failed to update one or more positions",
			"collection", s.name,
			"failed", res.Failed,
			"written", res.Written,
		)
	} else {
		s.logger.Debug("positions persisted", "collection", s.name, "count", res.Written)
	}
	return res
}
