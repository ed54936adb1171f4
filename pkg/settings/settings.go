// Package settings persists the global policy switches the permission
// arbiter consults: audible autoplay, the WebXR kill switch, and the
// tri-state protected-media decision.
package settings

import (
	"strconv"
	"sync"

	"github.com/odvcencio/webgate/pkg/errors"
	"github.com/odvcencio/webgate/pkg/permission"
)

const (
	keyAutoplayEnabled = "autoplay_enabled"
	keyWebXREnabled    = "webxr_enabled"
	keyDRMDecision     = "drm_decision"
)

// Store is the persistence surface Manager needs. *storage.Store satisfies
// it.
type Store interface {
	GetSettings(keys []string) (map[string]string, error)
	SetSetting(key, value string) error
}

// Defaults are the values used for keys with no persisted row.
type Defaults struct {
	AutoplayEnabled bool
	WebXREnabled    bool
}

// Manager caches the policy switches in memory and writes changes through to
// the store. It satisfies the arbiter's Settings interface.
type Manager struct {
	store Store

	mu       sync.RWMutex
	autoplay bool
	webxr    bool
	drm      permission.DRMDecision
}

// NewManager loads persisted values, falling back to defaults for anything
// unset. WebXR defaults to enabled and audible autoplay to disabled unless
// the caller says otherwise.
func NewManager(store Store, defaults Defaults) (*Manager, error) {
	m := &Manager{
		store:    store,
		autoplay: defaults.AutoplayEnabled,
		webxr:    defaults.WebXREnabled,
		drm:      permission.DRMUnset,
	}

	values, err := store.GetSettings([]string{keyAutoplayEnabled, keyWebXREnabled, keyDRMDecision})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageRead, "load settings")
	}
	if v, ok := values[keyAutoplayEnabled]; ok {
		m.autoplay = v == "true"
	}
	if v, ok := values[keyWebXREnabled]; ok {
		m.webxr = v == "true"
	}
	if v, ok := values[keyDRMDecision]; ok {
		m.drm = parseDRM(v)
	}
	return m, nil
}

func (m *Manager) AutoplayEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.autoplay
}

func (m *Manager) WebXREnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.webxr
}

func (m *Manager) DRMDecision() permission.DRMDecision {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drm
}

// SetAutoplayEnabled persists and applies the audible autoplay switch.
func (m *Manager) SetAutoplayEnabled(enabled bool) error {
	if err := m.store.SetSetting(keyAutoplayEnabled, strconv.FormatBool(enabled)); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageWrite, "persist autoplay setting")
	}
	m.mu.Lock()
	m.autoplay = enabled
	m.mu.Unlock()
	return nil
}

// SetWebXREnabled persists and applies the global WebXR switch.
func (m *Manager) SetWebXREnabled(enabled bool) error {
	if err := m.store.SetSetting(keyWebXREnabled, strconv.FormatBool(enabled)); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageWrite, "persist webxr setting")
	}
	m.mu.Lock()
	m.webxr = enabled
	m.mu.Unlock()
	return nil
}

// SetDRMDecision persists and applies the protected-media choice. Setting
// DRMUnset clears the persisted row, so the first-time dialog shows again.
func (m *Manager) SetDRMDecision(d permission.DRMDecision) error {
	value := ""
	if d != permission.DRMUnset {
		value = d.String()
	}
	if err := m.store.SetSetting(keyDRMDecision, value); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageWrite, "persist drm decision")
	}
	m.mu.Lock()
	m.drm = d
	m.mu.Unlock()
	return nil
}

func parseDRM(v string) permission.DRMDecision {
	switch v {
	case "allow":
		return permission.DRMAllow
	case "deny":
		return permission.DRMDeny
	default:
		return permission.DRMUnset
	}
}
