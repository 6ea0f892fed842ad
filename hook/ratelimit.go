package hook

import (
	"sync"
	"time"

	"github.com/ocppcore/chargepoint/message"
)

const (
	_defaultExpiryWindowMultiplier = 3
	_defaultCleanupInterval        = 2
)

type rateLimiter struct {
	count       int
	windowStart time.Time
	lastAccess  time.Time
}

// RateLimitHook counts how many outgoing messages of a given type
// leave in a fixed window (a new window starts with the first send
// after the previous one lapsed), independent of the engine's own
// attempt-budget retry policy. It observes OnOutgoing and exposes
// Allow for a host to consult before calling PushRequest.
type RateLimitHook struct {
	*Base
	mu           sync.RWMutex
	limiters     map[message.Type]*rateLimiter
	maxRate      int
	window       time.Duration
	cleanupTimer *time.Timer
}

// NewRateLimitHook creates a hook allowing at most maxRate sends of
// any one message type per window.
func NewRateLimitHook(maxRate int, window time.Duration) *RateLimitHook {
	h := &RateLimitHook{
		Base:     &Base{id: "rate-limit"},
		limiters: make(map[message.Type]*rateLimiter),
		maxRate:  maxRate,
		window:   window,
	}
	h.startCleanup()
	return h
}

func (h *RateLimitHook) Provides(event Event) bool { return event == OnOutgoing }

// OnOutgoing records the send for accounting purposes; it never
// blocks or errors, since by the time a message is outgoing it has
// already left the queue. Use Allow to gate PushRequest up front.
func (h *RateLimitHook) OnOutgoing(msg *message.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.touch(msg.Type)
}

// Allow reports whether another message of typ may be sent within the
// current window, without consuming a slot in the counter.
func (h *RateLimitHook) Allow(typ message.Type) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	limiter, exists := h.limiters[typ]
	if !exists {
		return true
	}
	if time.Since(limiter.windowStart) > h.window {
		return true
	}
	return limiter.count < h.maxRate
}

func (h *RateLimitHook) touch(typ message.Type) {
	now := time.Now()
	limiter, exists := h.limiters[typ]
	if !exists || now.Sub(limiter.windowStart) > h.window {
		h.limiters[typ] = &rateLimiter{count: 1, windowStart: now, lastAccess: now}
		return
	}
	limiter.lastAccess = now
	limiter.count++
}

// Stop stops the background cleanup timer.
func (h *RateLimitHook) Stop() {
	if h.cleanupTimer != nil {
		h.cleanupTimer.Stop()
	}
}

// TypeCount returns the current window's count for typ.
func (h *RateLimitHook) TypeCount(typ message.Type) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	limiter, exists := h.limiters[typ]
	if !exists {
		return 0
	}
	return limiter.count
}

// ResetAll clears every tracked counter.
func (h *RateLimitHook) ResetAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.limiters = make(map[message.Type]*rateLimiter)
}

func (h *RateLimitHook) startCleanup() {
	cleanupInterval := h.window * _defaultCleanupInterval
	if cleanupInterval < time.Minute {
		cleanupInterval = time.Minute
	}
	h.cleanupTimer = time.AfterFunc(cleanupInterval, func() {
		h.cleanup()
		h.startCleanup()
	})
}

func (h *RateLimitHook) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	expiry := h.window * _defaultExpiryWindowMultiplier
	for typ, limiter := range h.limiters {
		if now.Sub(limiter.lastAccess) > expiry {
			delete(h.limiters, typ)
		}
	}
}
