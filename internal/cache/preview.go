// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// preview.go caches the plain-text previews derived from note HTML, so a
// note list does not re-parse every body on each request. Keys embed the
// note's updated_at, so an edited note misses and is recomputed.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// previewKeyPrefix is the Valkey key prefix for cached previews.
	previewKeyPrefix = "preview:"

	// DefaultPreviewTTL is how long a preview stays cached.
	DefaultPreviewTTL = time.Hour
)

// PreviewCache stores note previews in Valkey.
type PreviewCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPreviewCache creates a preview cache backed by the given Valkey client.
func NewPreviewCache(client *redis.Client, ttl time.Duration) *PreviewCache {
	if ttl == 0 {
		ttl = DefaultPreviewTTL
	}
	return &PreviewCache{client: client, ttl: ttl}
}

// Get returns the cached preview for a note version.
func (pc *PreviewCache) Get(ctx context.Context, noteID uuid.UUID, updatedAt time.Time) (string, bool) {
	val, err := pc.client.Get(ctx, PreviewKey(noteID, updatedAt)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		slog.Warn("preview cache get error", "note_id", noteID, "error", err)
		return "", false
	}
	return val, true
}

// Set stores the preview for a note version.
func (pc *PreviewCache) Set(ctx context.Context, noteID uuid.UUID, updatedAt time.Time, preview string) {
	if err := pc.client.Set(ctx, PreviewKey(noteID, updatedAt), preview, pc.ttl).Err(); err != nil {
		slog.Warn("preview cache set error", "note_id", noteID, "error", err)
	}
}

// Invalidate removes every cached version of a note's preview.
func (pc *PreviewCache) Invalidate(ctx context.Context, noteID uuid.UUID) {
	var cursor uint64
	for {
		keys, nextCursor, err := pc.client.Scan(ctx, cursor, previewKeyPrefix+noteID.String()+":*", 100).Result()
		if err != nil {
			slog.Warn("preview cache scan error", "note_id", noteID, "error", err)
			return
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("preview cache delete error", "note_id", noteID, "error", err)
			}
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	slog.Debug("preview cache invalidated", "note_id", noteID)
}

// PreviewKey returns the cache key for one version of a note.
func PreviewKey(noteID uuid.UUID, updatedAt time.Time) string {
	return fmt.Sprintf("%s%s:%d", previewKeyPrefix, noteID, updatedAt.UnixNano())
}
