package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	uri     string
	reloads int
	bypass  bool
}

func (e *fakeEngine) CurrentURI() string { return e.uri }

func (e *fakeEngine) Reload(_ context.Context, bypassCache bool) error {
	e.reloads++
	e.bypass = bypassCache
	return nil
}

func TestHandleStates(t *testing.T) {
	h := NewHandle(&fakeEngine{uri: "https://example.com/page"})
	require.NotEmpty(t, h.ID())

	assert.Equal(t, StateUnset, h.WebXRState())
	assert.Equal(t, StateUnset, h.DRMState())

	h.SetWebXRState(StateAllowed)
	h.SetDRMState(StateBlocked)
	assert.Equal(t, StateAllowed, h.WebXRState())
	assert.Equal(t, StateBlocked, h.DRMState())
}

func TestHandleReloadDelegates(t *testing.T) {
	engine := &fakeEngine{uri: "https://example.com"}
	h := NewHandle(engine)

	require.NoError(t, h.Reload(context.Background(), true))
	assert.Equal(t, 1, engine.reloads)
	assert.True(t, engine.bypass)
}

func TestHandleWithoutEngine(t *testing.T) {
	h := &Handle{id: "orphan"}
	assert.Equal(t, "", h.CurrentURI())
	assert.ErrorIs(t, h.Reload(context.Background(), false), ErrNoEngine)
}

func TestDirectoryRegisterAndRemove(t *testing.T) {
	d := NewDirectory()

	a := NewHandle(&fakeEngine{uri: "https://a.test"})
	b := NewHandle(&fakeEngine{uri: "https://b.test"})
	require.NoError(t, d.Register(a))
	require.NoError(t, d.Register(b))

	assert.Error(t, d.Register(a), "duplicate registration")
	assert.Equal(t, 2, d.Len())

	got, ok := d.Get(a.ID())
	require.True(t, ok)
	assert.Equal(t, "https://a.test", got.CurrentURI())

	sessions := d.CurrentSessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, a.ID(), sessions[0].ID())
	assert.Equal(t, b.ID(), sessions[1].ID())

	d.Remove(a.ID())
	_, ok = d.Get(a.ID())
	assert.False(t, ok)
	assert.Equal(t, 1, d.Len())

	// Removing an unknown ID is a no-op.
	d.Remove("missing")
	assert.Equal(t, 1, d.Len())
}
