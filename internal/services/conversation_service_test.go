package services

import (
	"context"
	"testing"

	"chat-realtime/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createGroup(t *testing.T, f *serviceFixture, owner string, others ...string) *models.ConversationResponse {
	t.Helper()
	conv, err := f.conversations.Create(context.Background(), owner, &models.CreateConversationRequest{
		IsGroup:      true,
		Name:         "team",
		Participants: others,
	})
	require.NoError(t, err)
	return conv
}

func TestConversationService_CreateGroup(t *testing.T) {
	f := newServiceFixture()

	conv := createGroup(t, f, "1", "2", "3", "1", "2")

	assert.Equal(t, []string{"1", "2", "3"}, participantIDs(conv))
	assert.Equal(t, "1", conv.Owner)
	assert.Equal(t, "team", conv.Name)
	assert.Empty(t, conv.Admins)
	assert.Equal(t, "bob", conv.Participants[0].User.Username)

	require.Equal(t, []string{"created"}, f.notifier.kinds())
	assert.Equal(t, []string{"1"}, f.notifier.last().userIDs)
}

func TestConversationService_CreateValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.CreateConversationRequest
		want error
	}{
		{"group with one other", models.CreateConversationRequest{IsGroup: true, Participants: []string{"2", "1"}}, ErrTooFewParticipants},
		{"direct with two others", models.CreateConversationRequest{Participants: []string{"2", "3"}}, ErrDirectParticipants},
		{"direct with self", models.CreateConversationRequest{Participants: []string{"1"}}, ErrDirectParticipants},
		{"unknown user", models.CreateConversationRequest{IsGroup: true, Participants: []string{"2", "99"}}, ErrUnknownParticipants},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture()
			_, err := f.conversations.Create(ctx, "1", &tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, f.notifier.kinds())
		})
	}
}

func TestConversationService_CreateDirectReturnsExisting(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	first, err := f.conversations.Create(ctx, "1", &models.CreateConversationRequest{Participants: []string{"2"}})
	require.NoError(t, err)
	assert.Empty(t, first.Owner)

	second, err := f.conversations.Create(ctx, "2", &models.CreateConversationRequest{Participants: []string{"1"}})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, []string{"created"}, f.notifier.kinds())
}

func TestConversationService_GetRequiresMembership(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()
	conv := createGroup(t, f, "1", "2", "3")

	got, err := f.conversations.Get(ctx, "2", conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)

	_, err = f.conversations.Get(ctx, "4", conv.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.conversations.Get(ctx, "1", "not-an-id")
	assert.ErrorIs(t, err, models.ErrConversationNotFound)
}

func TestConversationService_ListWithUnreadAndLastMessage(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()
	conv := createGroup(t, f, "1", "2", "3")

	for _, text := range []string{"one", "two"} {
		_, err := f.messages.Send(ctx, "1", &models.SendMessageRequest{ConversationID: conv.ID, Content: text}, nil)
		require.NoError(t, err)
	}

	list, err := f.conversations.List(ctx, "2")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.EqualValues(t, 2, list[0].UnreadCount)
	require.NotNil(t, list[0].LastMessage)
	assert.Equal(t, "two", list[0].LastMessage.Content)
	assert.Equal(t, "alice", list[0].LastMessage.Sender.Username)

	list, err = f.conversations.List(ctx, "1")
	require.NoError(t, err)
	assert.Zero(t, list[0].UnreadCount)

	list, err = f.conversations.List(ctx, "5")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestConversationService_UpdateAvatar(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()
	group := createGroup(t, f, "1", "2", "3")

	updated, err := f.conversations.Update(ctx, "2", group.ID, " renamed ", fileHeader("a.png"))
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, "http://media/avatars/"+group.ID+"/a.png", updated.Avatar)

	direct, err := f.conversations.Create(ctx, "1", &models.CreateConversationRequest{Participants: []string{"2"}})
	require.NoError(t, err)
	_, err = f.conversations.Update(ctx, "1", direct.ID, "", fileHeader("a.png"))
	assert.ErrorIs(t, err, ErrAvatarForDirect)
}

func TestConversationService_MuteAndLastSeen(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()
	conv := createGroup(t, f, "1", "2", "3")
	sent, err := f.messages.Send(ctx, "2", &models.SendMessageRequest{ConversationID: conv.ID, Content: "hi"}, nil)
	require.NoError(t, err)

	require.NoError(t, f.conversations.Mute(ctx, "1", conv.ID, true))
	require.NoError(t, f.conversations.MarkLastSeen(ctx, "1", conv.ID, sent.Message.ID))
	assert.ErrorIs(t, f.conversations.MarkLastSeen(ctx, "1", conv.ID, "bogus"), ErrInvalidRequest)
	assert.ErrorIs(t, f.conversations.Mute(ctx, "5", conv.ID, true), models.ErrConversationNotFound)

	got, err := f.conversations.Get(ctx, "1", conv.ID)
	require.NoError(t, err)
	for _, p := range got.Participants {
		if p.User.ID == "1" {
			assert.True(t, p.IsMuted)
			assert.Equal(t, sent.Message.ID, p.LastSeenMessage)
		}
	}
}

func TestConversationService_AddParticipants(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()
	conv := createGroup(t, f, "1", "2", "3")

	updated, err := f.conversations.AddParticipants(ctx, "2", conv.ID, []string{"3", "4", "4", "5"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, participantIDs(updated))

	last := f.notifier.last()
	assert.Equal(t, "added", last.kind)
	assert.Equal(t, []string{"4", "5"}, last.userIDs)

	_, err = f.conversations.AddParticipants(ctx, "1", conv.ID, []string{"99"})
	assert.ErrorIs(t, err, ErrUnknownParticipants)

	direct, err := f.conversations.Create(ctx, "1", &models.CreateConversationRequest{Participants: []string{"2"}})
	require.NoError(t, err)
	_, err = f.conversations.AddParticipants(ctx, "1", direct.ID, []string{"3"})
	assert.ErrorIs(t, err, ErrNotGroup)
}

// leavingConversations drops a member right after the conversation is read,
// the way a concurrent leave would.
type leavingConversations struct {
	*memConversations
	leaver string
}

func (r *leavingConversations) FindByID(ctx context.Context, id string) (*models.Conversation, error) {
	conv, err := r.memConversations.FindByID(ctx, id)
	if err != nil || r.leaver == "" {
		return conv, err
	}
	leaver := r.leaver
	r.leaver = ""
	_, err = r.memConversations.RemoveParticipant(ctx, id, leaver)
	return conv, err
}

func TestConversationService_AddParticipantsKeepsConcurrentLeave(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()
	conv := createGroup(t, f, "1", "2", "3")

	convs := &leavingConversations{memConversations: f.convs, leaver: "3"}
	svc := NewConversationService(convs, f.msgs, f.users, f.media, f.notifier, discardLogger())

	updated, err := svc.AddParticipants(ctx, "1", conv.ID, []string{"4"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "4"}, participantIDs(updated))

	stored, err := f.convs.ParticipantUserIDs(ctx, conv.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2", "4"}, stored)
}

func TestConversationService_RemoveParticipant(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()
	conv := createGroup(t, f, "1", "2", "3", "4")

	_, err := f.conversations.RemoveParticipant(ctx, "2", conv.ID, "3")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.conversations.RemoveParticipant(ctx, "1", conv.ID, "1")
	assert.ErrorIs(t, err, ErrCannotRemoveOwner)

	_, err = f.conversations.AssignAdmin(ctx, "1", conv.ID, "2")
	require.NoError(t, err)

	updated, err := f.conversations.RemoveParticipant(ctx, "2", conv.ID, "3")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "4"}, participantIDs(updated))

	last := f.notifier.last()
	assert.Equal(t, "removed", last.kind)
	assert.Equal(t, []string{"3"}, last.userIDs)

	_, err = f.conversations.RemoveParticipant(ctx, "1", conv.ID, "3")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestConversationService_AdminRoles(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()
	conv := createGroup(t, f, "1", "2", "3")

	_, err := f.conversations.AssignAdmin(ctx, "2", conv.ID, "3")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.conversations.AssignAdmin(ctx, "1", conv.ID, "5")
	assert.ErrorIs(t, err, ErrNotParticipant)

	updated, err := f.conversations.AssignAdmin(ctx, "1", conv.ID, "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, updated.Admins)
	assert.Equal(t, "promoted", f.notifier.last().kind)

	_, err = f.conversations.AssignAdmin(ctx, "1", conv.ID, "2")
	assert.ErrorIs(t, err, ErrAlreadyAdmin)

	updated, err = f.conversations.RemoveAdmin(ctx, "1", conv.ID, "2")
	require.NoError(t, err)
	assert.Empty(t, updated.Admins)
	assert.Equal(t, "demoted", f.notifier.last().kind)

	_, err = f.conversations.RemoveAdmin(ctx, "1", conv.ID, "2")
	assert.ErrorIs(t, err, ErrNotAdmin)
}

func TestConversationService_TransferOwnership(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()
	conv := createGroup(t, f, "1", "2", "3")
	_, err := f.conversations.AssignAdmin(ctx, "1", conv.ID, "2")
	require.NoError(t, err)

	_, err = f.conversations.TransferOwnership(ctx, "1", conv.ID, "1")
	assert.ErrorIs(t, err, ErrAlreadyOwner)
	_, err = f.conversations.TransferOwnership(ctx, "1", conv.ID, "5")
	assert.ErrorIs(t, err, ErrNotParticipant)

	updated, err := f.conversations.TransferOwnership(ctx, "1", conv.ID, "2")
	require.NoError(t, err)
	assert.Equal(t, "2", updated.Owner)
	assert.Equal(t, []string{"1"}, updated.Admins)

	last := f.notifier.last()
	assert.Equal(t, "ownership", last.kind)
	assert.Equal(t, []string{"2"}, last.userIDs)

	_, err = f.conversations.TransferOwnership(ctx, "1", conv.ID, "3")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestConversationService_LeaveHandsOverOwnership(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()
	conv := createGroup(t, f, "1", "2", "3")
	_, err := f.conversations.AssignAdmin(ctx, "1", conv.ID, "3")
	require.NoError(t, err)

	resp, err := f.conversations.Leave(ctx, "1", conv.ID)
	require.NoError(t, err)
	assert.False(t, resp.Deleted)
	require.NotNil(t, resp.Conversation)
	assert.Equal(t, "3", resp.Conversation.Owner)
	assert.Empty(t, resp.Conversation.Admins)
	assert.Equal(t, []string{"2", "3"}, participantIDs(resp.Conversation))
	assert.Equal(t, "ownership", f.notifier.last().kind)

	_, err = f.conversations.Leave(ctx, "1", conv.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestConversationService_LeaveLastMemberDeletes(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()
	conv, err := f.conversations.Create(ctx, "1", &models.CreateConversationRequest{Participants: []string{"2"}})
	require.NoError(t, err)
	_, err = f.messages.Send(ctx, "1", &models.SendMessageRequest{ConversationID: conv.ID, Content: "bye"}, nil)
	require.NoError(t, err)

	resp, err := f.conversations.Leave(ctx, "1", conv.ID)
	require.NoError(t, err)
	assert.False(t, resp.Deleted)

	resp, err = f.conversations.Leave(ctx, "2", conv.ID)
	require.NoError(t, err)
	assert.True(t, resp.Deleted)
	assert.Nil(t, resp.Conversation)
	assert.Zero(t, f.msgs.count())

	_, err = f.conversations.Get(ctx, "2", conv.ID)
	assert.ErrorIs(t, err, models.ErrConversationNotFound)
}

func TestConversationService_SearchGroups(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()
	team := createGroup(t, f, "1", "2", "3")
	_, err := f.conversations.Create(ctx, "4", &models.CreateConversationRequest{IsGroup: true, Name: "Team B", Participants: []string{"2", "5"}})
	require.NoError(t, err)
	_, err = f.conversations.Create(ctx, "1", &models.CreateConversationRequest{Participants: []string{"4"}})
	require.NoError(t, err)

	groups, err := f.conversations.SearchGroups(ctx, "1", "TEA")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, team.ID, groups[0].ID)
	assert.Equal(t, 3, groups[0].ParticipantCount)

	groups, err = f.conversations.SearchGroups(ctx, "2", "team")
	require.NoError(t, err)
	assert.Len(t, groups, 2)

	groups, err = f.conversations.SearchGroups(ctx, "1", "  ")
	require.NoError(t, err)
	assert.Empty(t, groups)
}
