package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
)

// RateLimiter is a per-connection sliding window limiter.
// Why sliding window: a burst right after a window boundary cannot double
// the allowed rate the way it can with fixed windows.
type RateLimiter struct {
	maxRequests int
	window      time.Duration
	requests    map[string][]time.Time // connectionID -> timestamps of recent requests
	mu          sync.Mutex
}

func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		requests:    make(map[string][]time.Time),
	}
}

// Allow records a request for connectionID and reports whether it fits in
// the current window.
func (r *RateLimiter) Allow(connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-r.window)

	recent := lo.Filter(r.requests[connectionID], func(ts time.Time, _ int) bool {
		return ts.After(cutoff)
	})

	if len(recent) >= r.maxRequests {
		// Denied requests are not recorded, so a client that backs off
		// recovers as soon as the window slides.
		r.requests[connectionID] = recent
		return false
	}

	r.requests[connectionID] = append(recent, now)
	return true
}

// Cleanup forgets connections with no request inside the window.
func (r *RateLimiter) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-r.window)
	for connID, timestamps := range r.requests {
		if !lo.SomeBy(timestamps, func(ts time.Time) bool { return ts.After(cutoff) }) {
			delete(r.requests, connID)
		}
	}
}

func (r *RateLimiter) RemoveConnection(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.requests, connectionID)
}

// ConnectionHealth tracks the last message time of each connection.
// Why separate from RateLimiter: the limiter forgets a connection once its
// window is empty, which is exactly when health needs to remember it.
type ConnectionHealth struct {
	lastActivity map[string]time.Time
	mu           sync.RWMutex
}

func NewConnectionHealth() *ConnectionHealth {
	return &ConnectionHealth{
		lastActivity: make(map[string]time.Time),
	}
}

func (h *ConnectionHealth) UpdateActivity(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastActivity[connectionID] = time.Now()
}

// IsInactive reports whether a tracked connection has been quiet longer than
// timeout. Untracked connections are never inactive.
func (h *ConnectionHealth) IsInactive(connectionID string, timeout time.Duration) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	lastActivity, exists := h.lastActivity[connectionID]
	if !exists {
		return false
	}

	return time.Since(lastActivity) > timeout
}

func (h *ConnectionHealth) GetInactiveConnections(timeout time.Duration) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := time.Now()
	inactive := lo.PickBy(h.lastActivity, func(_ string, last time.Time) bool {
		return now.Sub(last) > timeout
	})
	return lo.Keys(inactive)
}

func (h *ConnectionHealth) RemoveConnection(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.lastActivity, connectionID)
}

var validMessageTypes = map[string]bool{
	"ping":          true,
	"open_table":    true,
	"join_table":    true,
	"record_played": true,
	"advise":        true,
	"leave_table":   true,
	"rejoin_table":  true,
}

func ValidateMessageType(msgType string) error {
	if !validMessageTypes[msgType] {
		return fmt.Errorf("INVALID_MESSAGE_TYPE: Unknown message type '%s'", msgType)
	}
	return nil
}

func ValidateUsername(username string) error {
	if len(username) == 0 {
		return fmt.Errorf("USERNAME_INVALID: Username cannot be empty")
	}
	if len(username) > 20 {
		return fmt.Errorf("USERNAME_INVALID: Username too long (max 20 characters)")
	}
	return nil
}
