package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sculpt-ml/sculpt/internal/graph"
)

// ErrUnknownSession is returned when a session id is stale, expired, or was
// never issued.
var ErrUnknownSession = errors.New("unknown session")

// Session scopes one uploaded model's live graph state and its undo
// history. All mutations of a session (edit, undo, save) must run under its
// lock; operations on different sessions are fully independent.
type Session struct {
	ID        string
	Filename  string
	Digest    string // blake3 hex digest of the uploaded bytes
	CreatedAt time.Time

	mu      sync.Mutex
	model   *graph.Model
	history *History
}

// Lock acquires the session's mutation lock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session's mutation lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Model returns the current committed graph. Callers that mutate session
// state must hold the lock.
func (s *Session) Model() *graph.Model { return s.model }

// SetModel installs a new committed graph. Callers must hold the lock.
func (s *Session) SetModel(m *graph.Model) { s.model = m }

// History returns the session's undo stack. Callers that mutate it must
// hold the lock.
func (s *Session) History() *History { return s.history }

// Registry maps session ids to live sessions. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	maxDepth int
}

// NewRegistry creates an empty registry whose sessions get undo stacks
// bounded to maxDepth.
func NewRegistry(maxDepth int) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		maxDepth: maxDepth,
	}
}

// Create registers a new session for the given model and returns it.
func (r *Registry) Create(m *graph.Model, filename, digest string) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Filename:  filename,
		Digest:    digest,
		CreatedAt: time.Now(),
		model:     m,
		history:   NewHistory(r.maxDepth),
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSession, id)
	}
	return s, nil
}

// Destroy removes the session and drops its history.
func (r *Registry) Destroy(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSession, id)
	}
	s.Lock()
	s.history.Clear()
	s.Unlock()
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
