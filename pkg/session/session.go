// Package session tracks the browsing sessions an embedder currently has
// open, so that policy decisions can mark per-session feature state and fan
// out reloads when a site exception changes.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// State is the per-session gate state for a feature (WebXR, DRM).
type State int

const (
	StateUnset State = iota
	StateAllowed
	StateBlocked
)

func (s State) String() string {
	switch s {
	case StateAllowed:
		return "allowed"
	case StateBlocked:
		return "blocked"
	default:
		return "unset"
	}
}

// Session is the surface a registered browsing session exposes to the
// arbitration layer.
type Session interface {
	ID() string
	CurrentURI() string

	// Reload reloads the session's current page. bypassCache forces a
	// network fetch instead of serving cached content.
	Reload(ctx context.Context, bypassCache bool) error

	SetWebXRState(State)
	SetDRMState(State)
}

// Engine is the minimal per-session surface of the embedded browsing engine.
// Handle delegates navigation concerns to it and keeps the policy state the
// engine has no notion of.
type Engine interface {
	CurrentURI() string
	Reload(ctx context.Context, bypassCache bool) error
}

// Handle is the default Session implementation handed to embedders.
type Handle struct {
	id     string
	engine Engine

	mu    sync.Mutex
	webXR State
	drm   State
}

// NewHandle wraps an engine session with a generated ID.
func NewHandle(engine Engine) *Handle {
	return &Handle{
		id:     uuid.NewString(),
		engine: engine,
	}
}

func (h *Handle) ID() string { return h.id }

func (h *Handle) CurrentURI() string {
	if h.engine == nil {
		return ""
	}
	return h.engine.CurrentURI()
}

func (h *Handle) Reload(ctx context.Context, bypassCache bool) error {
	if h.engine == nil {
		return ErrNoEngine
	}
	return h.engine.Reload(ctx, bypassCache)
}

func (h *Handle) SetWebXRState(s State) {
	h.mu.Lock()
	h.webXR = s
	h.mu.Unlock()
}

func (h *Handle) SetDRMState(s State) {
	h.mu.Lock()
	h.drm = s
	h.mu.Unlock()
}

// WebXRState returns the last WebXR verdict applied to this session.
func (h *Handle) WebXRState() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.webXR
}

// DRMState returns the last DRM verdict applied to this session.
func (h *Handle) DRMState() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.drm
}
