package session

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNoEngine = errors.New("session: no engine attached")
)

// Directory is the registry of open sessions.
type Directory struct {
	mu       sync.RWMutex
	sessions map[string]Session
	order    []string
}

// NewDirectory creates an empty session directory.
func NewDirectory() *Directory {
	return &Directory{
		sessions: make(map[string]Session),
	}
}

// Register adds a session. Registering an ID twice is an error.
func (d *Directory) Register(s Session) error {
	if s == nil || s.ID() == "" {
		return fmt.Errorf("session: id is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.sessions[s.ID()]; exists {
		return fmt.Errorf("session: already registered: %s", s.ID())
	}
	d.sessions[s.ID()] = s
	d.order = append(d.order, s.ID())
	return nil
}

// Remove drops a session from the directory.
func (d *Directory) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sessions[id]; !ok {
		return
	}
	delete(d.sessions, id)
	for i, sid := range d.order {
		if sid == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Get returns the session with the given ID.
func (d *Directory) Get(id string) (Session, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.sessions[id]
	return s, ok
}

// CurrentSessions returns the open sessions in registration order.
func (d *Directory) CurrentSessions() []Session {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Session, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.sessions[id])
	}
	return out
}

// Len returns the number of open sessions.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}
