package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry holds the live sessions. The HTTP handlers and the background
// tick sweeper share one instance.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
	listener Listener
}

// NewRegistry builds an empty registry. nowFn and listener are handed to
// every session it creates.
func NewRegistry(nowFn func() time.Time, listener Listener) *Registry {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Registry{
		sessions: make(map[string]*Session),
		now:      nowFn,
		listener: listener,
	}
}

// Create registers a fresh NotStarted session for the given user.
func (r *Registry) Create(email string) *Session {
	s := New(uuid.NewString(), email, r.now, r.listener)
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()
	return s
}

// Get looks up a session by ID.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Remove drops a session from the registry.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep polls Tick on every live session, force-completing any whose
// countdown expired since the last interaction.
func (r *Registry) Sweep(now time.Time) {
	r.mu.RLock()
	live := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.RUnlock()
	for _, s := range live {
		s.Tick(now)
	}
}
