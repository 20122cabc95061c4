package websocket

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterReportsFirstConnection(t *testing.T) {
	r := NewRegistry()

	online, err := r.Register("u1", newFakeConn("c1", "u1"))
	require.NoError(t, err)
	assert.True(t, online)

	online, err = r.Register("u1", newFakeConn("c2", "u1"))
	require.NoError(t, err)
	assert.False(t, online, "second device must not report a transition")

	assert.Len(t, r.ConnectionsFor("u1"), 2)
	assert.True(t, r.IsOnline("u1"))
}

func TestRegistryRegisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	conn := newFakeConn("c1", "u1")

	_, err := r.Register("u1", conn)
	require.NoError(t, err)
	online, err := r.Register("u1", conn)
	require.NoError(t, err)

	assert.False(t, online)
	users, conns := r.Stats()
	assert.Equal(t, 1, users)
	assert.Equal(t, 1, conns)
}

func TestRegistryRejectsInvalidInput(t *testing.T) {
	r := NewRegistry()

	_, err := r.Register("", newFakeConn("c1", ""))
	assert.ErrorIs(t, err, ErrInvalidUserID)

	_, err = r.Register("   ", newFakeConn("c1", ""))
	assert.ErrorIs(t, err, ErrInvalidUserID)

	_, err = r.Register("u1", nil)
	assert.ErrorIs(t, err, ErrInvalidConnection)

	_, err = r.Register("u1", newFakeConn("", "u1"))
	assert.ErrorIs(t, err, ErrInvalidConnection)

	_, err = r.Register("u1", newFakeConn("c1", "u2"))
	assert.ErrorIs(t, err, ErrInvalidConnection)

	assert.Empty(t, r.OnlineUserIDs())
	assert.Empty(t, r.ConnectionsFor("u2"))
}

func TestRegistryUnregisterReportsLastConnection(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Register("u1", newFakeConn("c1", "u1"))
	_, _ = r.Register("u1", newFakeConn("c2", "u1"))

	assert.False(t, r.Unregister("u1", "c1"))
	assert.True(t, r.IsOnline("u1"))

	assert.True(t, r.Unregister("u1", "c2"))
	assert.False(t, r.IsOnline("u1"))
	assert.Empty(t, r.ConnectionsFor("u1"))
	assert.NotContains(t, r.OnlineUserIDs(), "u1")
}

func TestRegistryUnregisterUnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Register("u1", newFakeConn("c1", "u1"))

	assert.False(t, r.Unregister("u2", "c1"))
	assert.False(t, r.Unregister("u1", "missing"))
	assert.True(t, r.IsOnline("u1"))
}

func TestRegistryOnlineUserIDsSorted(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"carol", "alice", "bob"} {
		_, err := r.Register(id, newFakeConn("c-"+id, id))
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"alice", "bob", "carol"}, r.OnlineUserIDs())
	assert.Len(t, r.AllConnections(), 3)
}

func TestRegistrySnapshotsAreDetached(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Register("u1", newFakeConn("c1", "u1"))

	conns := r.ConnectionsFor("u1")
	ids := r.OnlineUserIDs()
	r.Unregister("u1", "c1")

	assert.Len(t, conns, 1)
	assert.Equal(t, []string{"u1"}, ids)
}

func TestRegistryConcurrentChurn(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := fmt.Sprintf("u%d", i%5)
			connID := fmt.Sprintf("c%d", i)
			_, err := r.Register(userID, newFakeConn(connID, userID))
			assert.NoError(t, err)
			_ = r.OnlineUserIDs()
			r.Unregister(userID, connID)
		}(i)
	}
	wg.Wait()

	users, conns := r.Stats()
	assert.Zero(t, users)
	assert.Zero(t, conns)
	assert.Empty(t, r.OnlineUserIDs())
}
