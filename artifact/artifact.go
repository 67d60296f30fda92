// Package artifact stores generated binary results (chart payloads) outside
// the conversation. The core only produces and remembers reference names;
// rendering and durable persistence belong to the store implementation.
package artifact

import "errors"

// ErrNotFound is returned when the requested artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

// Store persists artifacts per session under caller-chosen names and returns
// the reference used to retrieve them later.
type Store interface {
	// Save stores (or overwrites) the artifact bytes and returns its
	// reference.
	Save(sessionID, name string, data []byte) (string, error)
	// Get returns the artifact bytes for a previously returned reference.
	Get(sessionID, ref string) ([]byte, error)
	// List returns the references stored for a session.
	List(sessionID string) ([]string, error)
	// Delete removes an artifact.
	Delete(sessionID, ref string) error
}
