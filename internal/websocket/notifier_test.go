package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"chat-realtime/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	key   string
	value []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{key: key, value: value})
	return p.err
}

type notifierFixture struct {
	notifier *Notifier
	conns    map[string]*fakeConn
}

func newNotifierFixture(t *testing.T, convs map[string][]string, opts ...NotifierOption) *notifierFixture {
	t.Helper()
	r := NewRegistry()
	conns := map[string]*fakeConn{}
	for _, userID := range []string{"a", "b", "c"} {
		c := newFakeConn(userID+"1", userID)
		_, err := r.Register(userID, c)
		require.NoError(t, err)
		conns[userID] = c
	}
	rooms := NewRooms(newFakeStore(convs), nil)
	return &notifierFixture{
		notifier: NewNotifier(rooms, NewFanout(r, nil), nil, opts...),
		conns:    conns,
	}
}

func testConversation(id string, members ...string) *models.ConversationResponse {
	conv := &models.ConversationResponse{ID: id, IsGroup: true, Admins: []string{}}
	for _, m := range members {
		conv.Participants = append(conv.Participants, models.ParticipantResponse{User: models.UserSummary{ID: m}})
	}
	return conv
}

func TestConversationCreatedSkipsCreator(t *testing.T) {
	fx := newNotifierFixture(t, nil)

	fx.notifier.ConversationCreated(context.Background(), testConversation("conv1", "a", "b", "c"), "a")

	assert.Empty(t, fx.conns["a"].received(t))
	for _, id := range []string{"b", "c"} {
		events := fx.conns[id].received(t)
		require.Len(t, events, 1)
		assert.Equal(t, EventNewConversation, events[0].Event)
		conv := decodeData[models.ConversationResponse](t, events[0])
		assert.Equal(t, "conv1", conv.ID)
	}
}

func TestMessageSentReachesOtherParticipants(t *testing.T) {
	fx := newNotifierFixture(t, map[string][]string{"conv1": {"a", "b"}})
	msg := &models.MessageResponse{ID: "m1", ConversationID: "conv1", Sender: models.UserSummary{ID: "a"}, Content: "hello"}

	fx.notifier.MessageSent(context.Background(), msg, nil)

	assert.Empty(t, fx.conns["a"].received(t))
	assert.Empty(t, fx.conns["c"].received(t))
	events := fx.conns["b"].received(t)
	require.Len(t, events, 1)
	assert.Equal(t, EventNewMessage, events[0].Event)

	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(events[0].Data, &data))
	assert.Contains(t, data, "message")
	assert.NotContains(t, data, "conversation", "existing conversations are not attached")
}

func TestMessageSentAttachesNewConversation(t *testing.T) {
	fx := newNotifierFixture(t, map[string][]string{"conv1": {"a", "b"}})
	msg := &models.MessageResponse{ID: "m1", ConversationID: "conv1", Sender: models.UserSummary{ID: "a"}}

	fx.notifier.MessageSent(context.Background(), msg, testConversation("conv1", "a", "b"))

	events := fx.conns["b"].received(t)
	require.Len(t, events, 1)
	var data struct {
		Message      models.MessageResponse      `json:"message"`
		Conversation models.ConversationResponse `json:"conversation"`
	}
	require.NoError(t, json.Unmarshal(events[0].Data, &data))
	assert.Equal(t, "m1", data.Message.ID)
	assert.Equal(t, "conv1", data.Conversation.ID)
}

func TestParticipantsAddedNotifiesOnlyNewMembers(t *testing.T) {
	fx := newNotifierFixture(t, nil)

	fx.notifier.ParticipantsAdded(context.Background(), testConversation("conv1", "a", "b", "c"), []string{"c"})

	assert.Empty(t, fx.conns["a"].received(t))
	assert.Empty(t, fx.conns["b"].received(t))
	events := fx.conns["c"].received(t)
	require.Len(t, events, 1)
	assert.Equal(t, EventAddedToConversation, events[0].Event)
	notice := decodeData[struct {
		Message string `json:"message"`
	}](t, events[0])
	assert.Equal(t, "You have been added to a conversation", notice.Message)
}

func TestRoleChangesNotifyTheAffectedUser(t *testing.T) {
	fx := newNotifierFixture(t, nil)
	ctx := context.Background()
	conv := testConversation("conv1", "a", "b")

	fx.notifier.AdminPromoted(ctx, conv, "b")
	fx.notifier.AdminDemoted(ctx, conv, "b")
	fx.notifier.OwnershipTransferred(ctx, conv, "b")
	fx.notifier.ParticipantRemoved(ctx, conv, "b")

	events := fx.conns["b"].received(t)
	require.Len(t, events, 4)
	assert.Equal(t, EventPromotedToAdmin, events[0].Event)
	assert.Equal(t, EventDemotedFromAdmin, events[1].Event)
	assert.Equal(t, EventOwnershipTransferred, events[2].Event)
	assert.Equal(t, EventRemovedFromConversation, events[3].Event)
	assert.Empty(t, fx.conns["a"].received(t))
}

func TestMessagesSeenSkipsReader(t *testing.T) {
	fx := newNotifierFixture(t, map[string][]string{"conv1": {"a", "b", "c"}})

	fx.notifier.MessagesSeen(context.Background(), "conv1", models.UserSummary{ID: "a", FullName: "Alice"})

	assert.Empty(t, fx.conns["a"].received(t))
	events := fx.conns["b"].received(t)
	require.Len(t, events, 1)
	payload := decodeData[SeenPayload](t, events[0])
	assert.Equal(t, "conv1", payload.ConversationID)
	assert.Equal(t, "Alice", payload.User.FullName)
}

func TestNotifierPublishesSameEnvelope(t *testing.T) {
	pub := &fakePublisher{}
	fx := newNotifierFixture(t, map[string][]string{"conv1": {"a", "b"}}, WithPublisher(pub))
	msg := &models.MessageResponse{ID: "m1", ConversationID: "conv1", Sender: models.UserSummary{ID: "a"}}

	fx.notifier.MessageSent(context.Background(), msg, nil)

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "conv1", pub.msgs[0].key)
	pushed := fx.conns["b"].received(t)
	require.Len(t, pushed, 1)
	assert.Equal(t, pushed[0].ID, decodeEvent(t, pub.msgs[0].value).ID)
}

func TestNotifierPublishFailureKeepsFanout(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker unavailable")}
	fx := newNotifierFixture(t, nil, WithPublisher(pub))

	fx.notifier.AdminPromoted(context.Background(), testConversation("conv1", "a", "b"), "b")

	assert.Len(t, fx.conns["b"].received(t), 1)
	assert.Len(t, pub.msgs, 1)
}
