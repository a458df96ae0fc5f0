package wizard

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"household/internal/domain/fault"
)

// ErrUnknownSession is returned for ids the registry does not hold.
var ErrUnknownSession = fmt.Errorf("workflow not found: %w", fault.ErrNotFound)

type entry struct {
	mu      sync.Mutex
	session *Session
}

// Registry holds open sessions. Calls on one session are serialized.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	newID    func() string
}

// NewRegistry returns an empty registry. A nil newID uses random UUIDs.
func NewRegistry(newID func() string) *Registry {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Registry{sessions: make(map[string]*entry), newID: newID}
}

// Open creates a session and returns its snapshot.
func (r *Registry) Open(mode Mode, familyID string) Snapshot {
	s := NewSession(r.newID(), mode, familyID)
	r.mu.Lock()
	r.sessions[s.ID] = &entry{session: s}
	r.mu.Unlock()
	slog.Info("workflow_event", "event", "workflow_opened", "workflow_id", s.ID, "mode", mode)
	return s.Snapshot()
}

// With runs fn with exclusive access to the session.
func (r *Registry) With(id string, fn func(*Session) error) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return ErrUnknownSession
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// Close forgets a session.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
