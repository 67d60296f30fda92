package artifact

import "sync"

// InMemoryStore is a process-local Store implementation suited to tests and
// single-process deployments. Bytes are copied on save and retrieval so
// callers cannot mutate internal buffers. No retention limits or eviction
// are enforced.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte // sessionID -> ref -> bytes
}

// NewInMemoryStore returns an empty in-memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[string]map[string][]byte)}
}

// Save stores a copy of the artifact bytes; the reference is the name itself.
func (s *InMemoryStore) Save(sessionID, name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[sessionID]; !ok {
		s.data[sessionID] = make(map[string][]byte)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.data[sessionID][name] = cp
	return name, nil
}

// Get returns a copy of the stored bytes or ErrNotFound.
func (s *InMemoryStore) Get(sessionID, ref string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.data[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	b, ok := m[ref]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp, nil
}

// List returns a snapshot of the references stored for the session.
func (s *InMemoryStore) List(sessionID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.data[sessionID]
	if !ok {
		return []string{}, nil
	}
	refs := make([]string, 0, len(m))
	for ref := range m {
		refs = append(refs, ref)
	}
	return refs, nil
}

// Delete removes the artifact or returns ErrNotFound.
func (s *InMemoryStore) Delete(sessionID, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.data[sessionID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m[ref]; !ok {
		return ErrNotFound
	}
	delete(m, ref)
	return nil
}
