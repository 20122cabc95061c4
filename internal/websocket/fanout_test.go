package websocket

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFanout(t *testing.T, conns ...*fakeConn) (*Registry, *Fanout) {
	t.Helper()
	r := NewRegistry()
	for _, c := range conns {
		_, err := r.Register(c.userID, c)
		require.NoError(t, err)
	}
	return r, NewFanout(r, nil)
}

func TestEmitReachesEveryDeviceOfEveryTarget(t *testing.T) {
	a1, a2 := newFakeConn("a1", "a"), newFakeConn("a2", "a")
	b1 := newFakeConn("b1", "b")
	c1 := newFakeConn("c1", "c")
	_, f := newTestFanout(t, a1, a2, b1, c1)

	deliveries := f.Emit([]string{"a", "b"}, EventNewMessage, map[string]string{"content": "hi"})

	assert.Len(t, deliveries, 3)
	for _, conn := range []*fakeConn{a1, a2, b1} {
		events := conn.received(t)
		require.Len(t, events, 1, conn.id)
		assert.Equal(t, EventNewMessage, events[0].Event)
		assert.NotEmpty(t, events[0].ID)
		assert.NotZero(t, events[0].Timestamp)
	}
	assert.Empty(t, c1.received(t))
}

func TestEmitSkipsOfflineAndDuplicateTargets(t *testing.T) {
	b1 := newFakeConn("b1", "b")
	_, f := newTestFanout(t, b1)

	deliveries := f.Emit([]string{"offline", "b", "b"}, EventTyping, TypingPayload{ConversationID: "c"})

	require.Len(t, deliveries, 1)
	assert.Equal(t, "b1", deliveries[0].ConnID)
	assert.Len(t, b1.received(t), 1)
}

func TestEmitToNobody(t *testing.T) {
	_, f := newTestFanout(t)

	assert.Empty(t, f.Emit(nil, EventTyping, nil))
	assert.Empty(t, f.Emit([]string{}, EventTyping, nil))
}

func TestEmitContinuesPastFailingConnection(t *testing.T) {
	broken := newFakeConn("b1", "b")
	broken.err = errors.New("socket closed")
	panicky := newFakeConn("b2", "b")
	panicky.panics = true
	healthy := newFakeConn("c1", "c")
	_, f := newTestFanout(t, broken, panicky, healthy)

	deliveries := f.Emit([]string{"b", "c"}, EventNewMessage, "x")

	require.Len(t, deliveries, 3)
	byConn := map[string]error{}
	for _, d := range deliveries {
		byConn[d.ConnID] = d.Err
	}
	assert.EqualError(t, byConn["b1"], "socket closed")
	assert.ErrorIs(t, byConn["b2"], ErrPushPanic)
	assert.NoError(t, byConn["c1"])
	assert.Len(t, healthy.received(t), 1)
}

func TestEmitPreservesOrderPerConnection(t *testing.T) {
	b1 := newFakeConn("b1", "b")
	_, f := newTestFanout(t, b1)

	f.Emit([]string{"b"}, EventTyping, TypingPayload{ConversationID: "c"})
	f.Emit([]string{"b"}, EventStopTyping, TypingPayload{ConversationID: "c"})
	f.Emit([]string{"b"}, EventNewMessage, "m")

	events := b1.received(t)
	require.Len(t, events, 3)
	assert.Equal(t, EventTyping, events[0].Event)
	assert.Equal(t, EventStopTyping, events[1].Event)
	assert.Equal(t, EventNewMessage, events[2].Event)
}

func TestEmitRejectsUnknownEvent(t *testing.T) {
	b1 := newFakeConn("b1", "b")
	_, f := newTestFanout(t, b1)

	assert.Nil(t, f.Emit([]string{"b"}, EventName("bogus"), nil))
	assert.Empty(t, b1.received(t))
}

func TestBroadcastReachesAllConnections(t *testing.T) {
	a1, b1, b2 := newFakeConn("a1", "a"), newFakeConn("b1", "b"), newFakeConn("b2", "b")
	_, f := newTestFanout(t, a1, b1, b2)

	deliveries := f.Broadcast(EventOnlineUsers, []string{"a", "b"})

	assert.Len(t, deliveries, 3)
	for _, conn := range []*fakeConn{a1, b1, b2} {
		events := conn.received(t)
		require.Len(t, events, 1)
		assert.Equal(t, []string{"a", "b"}, decodeData[[]string](t, events[0]))
	}
}

func TestSendToSingleConnection(t *testing.T) {
	a1, a2 := newFakeConn("a1", "a"), newFakeConn("a2", "a")
	_, f := newTestFanout(t, a1, a2)

	require.NoError(t, f.SendTo(a2, EventOnlineUsers, []string{"a"}))

	assert.Empty(t, a1.received(t))
	assert.Len(t, a2.received(t), 1)
}
