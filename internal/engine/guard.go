package engine

import (
	"sync"
	"time"
)

// SessionGuard is a reference-counted set of active edit sessions, one per
// focused input field. While any session is active, every refresh entry
// point must no-op so an in-flight keystroke is never clobbered by a fetch
// re-rendering the same field.
//
// Sessions end deterministically when the field loses focus. As a backstop
// against a caller that leaks a session, entries older than the maximum
// lifetime are ignored by Active and reaped on the next Start or End.
type SessionGuard struct {
	mu sync.Mutex

	clock       func() time.Time
	maxLifetime time.Duration

	// sessions maps session ID to refcount and first-start time.
	sessions map[string]*sessionState
}

type sessionState struct {
	count   int
	started time.Time
}

// NewSessionGuard creates a guard. A non-positive maxLifetime falls back
// to the 2-minute default.
func NewSessionGuard(maxLifetime time.Duration) *SessionGuard {
	if maxLifetime <= 0 {
		maxLifetime = 2 * time.Minute
	}
	return &SessionGuard{
		clock:       time.Now,
		maxLifetime: maxLifetime,
		sessions:    make(map[string]*sessionState),
	}
}

// Start registers an active edit session. Starting the same ID again
// increments its refcount and refreshes its lifetime.
func (g *SessionGuard) Start(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.reapExpired()

	if state, ok := g.sessions[id]; ok {
		state.count++
		state.started = g.clock()
		return
	}
	g.sessions[id] = &sessionState{count: 1, started: g.clock()}
}

// End releases one reference to the session. The last release removes it.
// Ending an unknown session is a no-op.
func (g *SessionGuard) End(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.reapExpired()

	state, ok := g.sessions[id]
	if !ok {
		return
	}
	state.count--
	if state.count <= 0 {
		delete(g.sessions, id)
	}
}

// Active reports whether any live session exists. Expired sessions do not
// count.
func (g *SessionGuard) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := g.clock().Add(-g.maxLifetime)
	for _, state := range g.sessions {
		if state.started.After(cutoff) {
			return true
		}
	}
	return false
}

// reapExpired drops sessions past the maximum lifetime. Caller holds mu.
func (g *SessionGuard) reapExpired() {
	cutoff := g.clock().Add(-g.maxLifetime)
	for id, state := range g.sessions {
		if !state.started.After(cutoff) {
			delete(g.sessions, id)
		}
	}
}
