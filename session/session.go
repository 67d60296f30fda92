// Package session holds per-conversation state and the process-wide
// registry that maps session ids to it. A session owns the dataset, the
// immutable tool registry, the append-only history, and the active thread;
// all access to one session is serialized through its mutex.
package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/RubenCasal/Data-Assistant/dataset"
	"github.com/RubenCasal/Data-Assistant/graph"
	"github.com/RubenCasal/Data-Assistant/oracle"
	"github.com/RubenCasal/Data-Assistant/tool"
)

// ErrNotFound reports a lookup for a session id that is not registered.
var ErrNotFound = errors.New("session not found")

// Session is one user's dataset, conversation and execution state. Exactly
// one thread is active per session; a terminal thread is replaced by the
// next turn's thread.
type Session struct {
	ID      string
	Dataset *dataset.Dataset
	Tools   *tool.Registry
	Thread  *graph.Thread

	history []oracle.Message
	mu      sync.Mutex
}

// Lock serializes one turn against the session. Concurrent turns for the
// same session block here; other sessions are unaffected.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session after a turn.
func (s *Session) Unlock() { s.mu.Unlock() }

// Append adds messages to the conversation history. History is append-only
// and never reordered or truncated. Caller must hold the session lock.
func (s *Session) Append(msgs ...oracle.Message) {
	s.history = append(s.history, msgs...)
}

// History returns a snapshot of the conversation. Caller must hold the
// session lock.
func (s *Session) History() []oracle.Message {
	out := make([]oracle.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Registry is the process-wide session table. Lookups and inserts are safe
// under concurrent access from multiple request paths.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry constructs an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create registers a new session under the given id. The id is allocated
// by the caller because the tool registry binds chart artifacts to it
// before the session exists.
func (r *Registry) Create(id string, ds *dataset.Dataset, tools *tool.Registry, thread *graph.Thread) *Session {
	sess := &Session{
		ID:      id,
		Dataset: ds,
		Tools:   tools,
		Thread:  thread,
	}
	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()
	return sess
}

// Get returns the session registered under id or ErrNotFound.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Evict removes a session. Evicting an unknown id is a no-op.
func (r *Registry) Evict(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// NewID returns a fresh session-scoped identifier.
func NewID() string { return uuid.NewString() }
