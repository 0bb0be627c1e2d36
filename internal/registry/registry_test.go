package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tthsd/engine/internal/config"
	"github.com/tthsd/engine/internal/events"
	"github.com/tthsd/engine/internal/session"
)

func newTestSession(id int) *session.Session {
	return session.New(id, "sess", nil, &config.RuntimeConfig{}, events.New(nil, nil))
}

func TestRegistry_CreateAssignsMonotonicIDs(t *testing.T) {
	r := New()
	first := r.Create(newTestSession)
	second := r.Create(newTestSession)
	require.NotEqual(t, first.ID, second.ID)
	require.Greater(t, second.ID, first.ID)
}

func TestRegistry_GetUnknownID(t *testing.T) {
	r := New()
	_, err := r.Get(999)
	require.Error(t, err)
}

func TestRegistry_RemoveThenGetMisses(t *testing.T) {
	r := New()
	sess := r.Create(newTestSession)
	_, err := r.Get(sess.ID)
	require.NoError(t, err)

	r.Remove(sess.ID)
	_, err = r.Get(sess.ID)
	require.Error(t, err)
}

func TestRegistry_IDsNotReusedAfterRemoval(t *testing.T) {
	r := New()
	first := r.Create(newTestSession)
	r.Remove(first.ID)
	second := r.Create(newTestSession)
	require.NotEqual(t, first.ID, second.ID)
}
