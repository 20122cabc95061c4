package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"chat-realtime/internal/models"

	"github.com/stretchr/testify/require"
)

// fakeConn records every frame pushed to it.
type fakeConn struct {
	id     string
	userID string

	mu     sync.Mutex
	frames [][]byte
	err    error
	panics bool
}

func newFakeConn(id, userID string) *fakeConn {
	return &fakeConn{id: id, userID: userID}
}

func (f *fakeConn) ID() string     { return f.id }
func (f *fakeConn) UserID() string { return f.userID }

func (f *fakeConn) Send(data []byte) error {
	if f.panics {
		panic("transport exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeConn) received(t *testing.T) []receivedEvent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	events := make([]receivedEvent, 0, len(f.frames))
	for _, frame := range f.frames {
		events = append(events, decodeEvent(t, frame))
	}
	return events
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

type receivedEvent struct {
	ID        string          `json:"id"`
	Event     EventName       `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

func decodeEvent(t *testing.T, frame []byte) receivedEvent {
	t.Helper()
	var ev receivedEvent
	require.NoError(t, json.Unmarshal(frame, &ev))
	return ev
}

func decodeData[T any](t *testing.T, ev receivedEvent) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(ev.Data, &v))
	return v
}

// fakeStore serves participant lists from memory.
type fakeStore struct {
	mu    sync.Mutex
	convs map[string][]string
	err   error
}

func newFakeStore(convs map[string][]string) *fakeStore {
	return &fakeStore{convs: convs}
}

func (s *fakeStore) ParticipantUserIDs(_ context.Context, conversationID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	ids, ok := s.convs[conversationID]
	if !ok {
		return nil, models.ErrConversationNotFound
	}
	return append([]string(nil), ids...), nil
}

func (s *fakeStore) set(conversationID string, ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs[conversationID] = ids
}
