package ratelimit

import (
	"container/list"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// defaultMaxClients bounds the client map when Config.MaxClients is unset.
const defaultMaxClients = 10000

// windowSpec pairs a window with its period and configured limit.
type windowSpec struct {
	window Window
	period time.Duration
}

// checkOrder is the fixed evaluation order: minute, then hour, then day.
var checkOrder = []windowSpec{
	{WindowMinute, time.Minute},
	{WindowHour, time.Hour},
	{WindowDay, 24 * time.Hour},
}

// counter is one (count, windowStart) pair. Each window resets
// independently once its own period has elapsed.
type counter struct {
	count int
	start time.Time
}

// clientState holds the three window counters for one client identity.
type clientState struct {
	windows  map[Window]*counter
	lastSeen time.Time
	elem     *list.Element
}

// Limiter tracks request counts per client identity against
// minute/hour/day caps.
//
// The check-then-increment sequence in Allow runs under the limiter's
// mutex, so two concurrent requests for the same client cannot both
// observe "under limit" and both be admitted past the cap.
type Limiter struct {
	config Config

	clients map[string]*clientState

	// lru orders clients from least to most recently seen, for
	// eviction past MaxClients. Values are client ID strings.
	lru *list.List

	mu sync.Mutex

	// now is the clock source, replaceable in tests.
	now func() time.Time
}

// NewLimiter creates a rate limiter with the given configuration.
func NewLimiter(config Config) *Limiter {
	if config.MaxClients <= 0 {
		config.MaxClients = defaultMaxClients
	}

	return &Limiter{
		config:  config,
		clients: make(map[string]*clientState),
		lru:     list.New(),
		now:     time.Now,
	}
}

// Identify derives the client identity for a request.
//
// An explicit X-API-Key credential wins; otherwise the first hop of
// X-Forwarded-For is preferred over the transport address. The result
// is best-effort and spoofable via the forwarding header.
func Identify(r *http.Request) string {
	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return "api_key:" + apiKey
	}

	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, found := strings.Cut(forwarded, ","); found || first != "" {
			ip = strings.TrimSpace(first)
		}
	}

	return "ip:" + ip
}

// Allow checks whether a request from clientID may proceed, and counts
// it against all three windows if so. Windows are reset when due, then
// checked in order minute, hour, day; the first window at or over its
// limit denies the request, and a denial increments nothing.
func (l *Limiter) Allow(clientID string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	state := l.touch(clientID, now)

	for _, spec := range checkOrder {
		limit := l.limitFor(spec.window)
		if limit <= 0 {
			continue
		}

		c := state.windows[spec.window]
		if now.Sub(c.start) > spec.period {
			c.count = 0
			c.start = now
		}

		if c.count >= limit {
			return Decision{
				Window:     spec.window,
				Reason:     fmt.Sprintf("rate limit exceeded: %d requests per %s", limit, spec.window),
				RetryAfter: c.start.Add(spec.period).Sub(now),
			}
		}
	}

	for _, spec := range checkOrder {
		state.windows[spec.window].count++
	}

	return Decision{Allowed: true}
}

// RemainingFor returns the per-window remaining budgets for a client
// after applying any due resets. A client that has never been seen gets
// the full limits; no state is created for it.
func (l *Limiter) RemainingFor(clientID string) Remaining {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.clients[clientID]
	if !ok {
		return Remaining{
			Minute: l.config.PerMinute,
			Hour:   l.config.PerHour,
			Day:    l.config.PerDay,
		}
	}

	now := l.now()
	l.resetDue(state, now)

	return Remaining{
		Minute: remainingCount(l.config.PerMinute, state.windows[WindowMinute].count),
		Hour:   remainingCount(l.config.PerHour, state.windows[WindowHour].count),
		Day:    remainingCount(l.config.PerDay, state.windows[WindowDay].count),
	}
}

// MinuteStatusFor returns the minute-window status used to populate
// X-RateLimit-* response headers.
func (l *Limiter) MinuteStatusFor(clientID string) MinuteStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	status := MinuteStatus{
		Limit:     l.config.PerMinute,
		Remaining: l.config.PerMinute,
		Reset:     now.Add(time.Minute),
	}

	state, ok := l.clients[clientID]
	if !ok {
		return status
	}

	l.resetDue(state, now)
	c := state.windows[WindowMinute]
	status.Remaining = remainingCount(l.config.PerMinute, c.count)
	status.Reset = c.start.Add(time.Minute)

	return status
}

// Sweep evicts clients idle longer than maxIdle and returns how many
// were removed. Intended to run periodically; the day window is the
// natural maxIdle since older state could never matter again.
func (l *Limiter) Sweep(maxIdle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	evicted := 0

	for elem := l.lru.Front(); elem != nil; {
		next := elem.Next()
		clientID := elem.Value.(string)
		state := l.clients[clientID]

		if now.Sub(state.lastSeen) > maxIdle {
			l.lru.Remove(elem)
			delete(l.clients, clientID)
			evicted++
		}
		elem = next
	}

	return evicted
}

// TrackedClients returns the number of client identities currently held.
func (l *Limiter) TrackedClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// touch returns the state for clientID, creating it lazily, marking it
// most recently seen, and evicting the least recently seen client when
// the map is over capacity. Caller must hold the lock.
func (l *Limiter) touch(clientID string, now time.Time) *clientState {
	state, ok := l.clients[clientID]
	if ok {
		state.lastSeen = now
		l.lru.MoveToBack(state.elem)
		return state
	}

	state = &clientState{
		windows: map[Window]*counter{
			WindowMinute: {start: now},
			WindowHour:   {start: now},
			WindowDay:    {start: now},
		},
		lastSeen: now,
	}
	state.elem = l.lru.PushBack(clientID)
	l.clients[clientID] = state

	for len(l.clients) > l.config.MaxClients {
		oldest := l.lru.Front()
		if oldest == nil {
			break
		}
		l.lru.Remove(oldest)
		delete(l.clients, oldest.Value.(string))
	}

	return state
}

// resetDue resets any windows whose period has elapsed. Caller must
// hold the lock.
func (l *Limiter) resetDue(state *clientState, now time.Time) {
	for _, spec := range checkOrder {
		c := state.windows[spec.window]
		if now.Sub(c.start) > spec.period {
			c.count = 0
			c.start = now
		}
	}
}

// limitFor returns the configured limit for a window.
func (l *Limiter) limitFor(w Window) int {
	switch w {
	case WindowMinute:
		return l.config.PerMinute
	case WindowHour:
		return l.config.PerHour
	case WindowDay:
		return l.config.PerDay
	default:
		return 0
	}
}

// remainingCount returns max(0, limit-count).
func remainingCount(limit, count int) int {
	if limit <= 0 {
		return 0
	}
	if count >= limit {
		return 0
	}
	return limit - count
}
