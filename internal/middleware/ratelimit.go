// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitOptions configures a RateLimiter.
type RateLimitOptions struct {
	Limit  int           // attempts allowed per window
	Window time.Duration // window length, starting at a client's first attempt

	// Key picks the client a request is counted against. Defaults to
	// ClientIP.
	Key func(*http.Request) string
	// Now defaults to time.Now.
	Now func() time.Time
}

// attempts counts one client's requests in its current window.
type attempts struct {
	count int
	reset time.Time
}

// RateLimiter caps requests per client in fixed windows. Sign-in routes
// use it to slow down password guessing.
type RateLimiter struct {
	opts RateLimitOptions

	mu      sync.Mutex
	clients map[string]*attempts
}

// NewRateLimiter creates a limiter. Call Run to drop expired windows in the
// background.
func NewRateLimiter(opts RateLimitOptions) *RateLimiter {
	if opts.Limit <= 0 {
		opts.Limit = 1
	}
	if opts.Window <= 0 {
		opts.Window = time.Minute
	}
	if opts.Key == nil {
		opts.Key = ClientIP
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &RateLimiter{opts: opts, clients: make(map[string]*attempts)}
}

// Allow counts one attempt for key. When the window is used up it reports
// false and how long until the next attempt is accepted.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := rl.opts.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	a, ok := rl.clients[key]
	if !ok || !now.Before(a.reset) {
		a = &attempts{reset: now.Add(rl.opts.Window)}
		rl.clients[key] = a
	}
	if a.count >= rl.opts.Limit {
		return false, a.reset.Sub(now)
	}
	a.count++
	return true, 0
}

// Sweep forgets clients whose window has ended and returns how many were
// dropped.
func (rl *RateLimiter) Sweep() int {
	now := rl.opts.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	dropped := 0
	for key, a := range rl.clients {
		if !now.Before(a.reset) {
			delete(rl.clients, key)
			dropped++
		}
	}
	return dropped
}

// Run calls Sweep once per window until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(rl.opts.Window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header in whole seconds.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := rl.Allow(rl.opts.Key(r))
		if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
			writeError(w, http.StatusTooManyRequests, "too many attempts, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the address a request came from. The leftmost
// X-Forwarded-For entry wins, then X-Real-IP, then RemoteAddr without its
// port. Header values that are not IP addresses are ignored.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
