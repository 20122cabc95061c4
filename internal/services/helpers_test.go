package services

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"chat-realtime/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memConversations is an in-memory ConversationRepository.
type memConversations struct {
	mu    sync.Mutex
	convs map[primitive.ObjectID]*models.Conversation
	order []primitive.ObjectID
}

func newMemConversations() *memConversations {
	return &memConversations{convs: map[primitive.ObjectID]*models.Conversation{}}
}

func cloneConversation(c *models.Conversation) *models.Conversation {
	out := *c
	out.Participants = slices.Clone(c.Participants)
	out.Admins = slices.Clone(c.Admins)
	if out.Admins == nil {
		out.Admins = []string{}
	}
	return &out
}

func (r *memConversations) Create(_ context.Context, conv *models.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conv.ID.IsZero() {
		conv.ID = primitive.NewObjectID()
	}
	if conv.Admins == nil {
		conv.Admins = []string{}
	}
	conv.CreatedAt, conv.UpdatedAt = time.Now(), time.Now()
	r.convs[conv.ID] = cloneConversation(conv)
	r.order = append(r.order, conv.ID)
	return nil
}

func (r *memConversations) get(id string) (*models.Conversation, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrConversationNotFound
	}
	conv, ok := r.convs[oid]
	if !ok {
		return nil, models.ErrConversationNotFound
	}
	return conv, nil
}

func (r *memConversations) FindByID(_ context.Context, id string) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return cloneConversation(conv), nil
}

func (r *memConversations) ListForUser(_ context.Context, userID string) ([]models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Conversation{}
	for i := len(r.order) - 1; i >= 0; i-- {
		if conv, ok := r.convs[r.order[i]]; ok && conv.HasParticipant(userID) {
			out = append(out, *cloneConversation(conv))
		}
	}
	return out, nil
}

func (r *memConversations) FindDirect(_ context.Context, userA, userB string) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conv := range r.convs {
		if !conv.IsGroup && conv.HasParticipant(userA) && conv.HasParticipant(userB) {
			return cloneConversation(conv), nil
		}
	}
	return nil, models.ErrConversationNotFound
}

func (r *memConversations) SearchGroups(_ context.Context, userID, query string, limit int) ([]models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Conversation{}
	for _, id := range r.order {
		conv, ok := r.convs[id]
		if !ok || !conv.IsGroup || !conv.HasParticipant(userID) {
			continue
		}
		if strings.Contains(strings.ToLower(conv.Name), strings.ToLower(query)) && len(out) < limit {
			out = append(out, *cloneConversation(conv))
		}
	}
	return out, nil
}

func (r *memConversations) ParticipantUserIDs(_ context.Context, id string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return conv.ParticipantIDs(), nil
}

func (r *memConversations) Save(_ context.Context, conv *models.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.convs[conv.ID]; !ok {
		return models.ErrConversationNotFound
	}
	r.convs[conv.ID] = cloneConversation(conv)
	return nil
}

func (r *memConversations) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrConversationNotFound
	}
	delete(r.convs, oid)
	return nil
}

func (r *memConversations) updateParticipant(id, userID string, fn func(*models.Participant)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, err := r.get(id)
	if err != nil {
		return err
	}
	for i := range conv.Participants {
		if conv.Participants[i].UserID == userID {
			fn(&conv.Participants[i])
			return nil
		}
	}
	return models.ErrConversationNotFound
}

func (r *memConversations) SetLastSeen(_ context.Context, id, userID string, messageID primitive.ObjectID) error {
	return r.updateParticipant(id, userID, func(p *models.Participant) { p.LastSeenMessage = &messageID })
}

func (r *memConversations) SetMuted(_ context.Context, id, userID string, muted bool) error {
	return r.updateParticipant(id, userID, func(p *models.Participant) { p.IsMuted = muted })
}

func (r *memConversations) SetLastMessage(_ context.Context, id, messageID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conv, ok := r.convs[id]; ok {
		conv.LastMessage = &messageID
	}
	return nil
}

func (r *memConversations) AddParticipants(_ context.Context, id string, userIDs []string) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, err := r.get(id)
	if err != nil {
		return nil, err
	}
	for _, uid := range userIDs {
		if !conv.HasParticipant(uid) {
			conv.Participants = append(conv.Participants, models.Participant{UserID: uid})
		}
	}
	return cloneConversation(conv), nil
}

func (r *memConversations) RemoveParticipant(_ context.Context, id, userID string) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, err := r.get(id)
	if err != nil {
		return nil, err
	}
	conv.Participants = slices.DeleteFunc(conv.Participants, func(p models.Participant) bool { return p.UserID == userID })
	conv.Admins = slices.DeleteFunc(conv.Admins, func(a string) bool { return a == userID })
	return cloneConversation(conv), nil
}

// memMessages is an in-memory MessageRepository.
type memMessages struct {
	mu   sync.Mutex
	msgs []*models.Message
}

func (r *memMessages) Create(_ context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	msg.CreatedAt = time.Now()
	cp := *msg
	cp.SeenBy = slices.Clone(msg.SeenBy)
	r.msgs = append(r.msgs, &cp)
	return nil
}

func (r *memMessages) find(id primitive.ObjectID) *models.Message {
	for _, m := range r.msgs {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (r *memMessages) FindByID(_ context.Context, id string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrMessageNotFound
	}
	m := r.find(oid)
	if m == nil {
		return nil, models.ErrMessageNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memMessages) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Message{}
	for _, id := range ids {
		if m := r.find(id); m != nil {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *memMessages) ListByConversation(_ context.Context, convID primitive.ObjectID, viewerID string) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Message{}
	for _, m := range r.msgs {
		if m.ConversationID == convID && !slices.Contains(m.DeletedFor, viewerID) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *memMessages) CountUnread(_ context.Context, convID primitive.ObjectID, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.msgs {
		if m.ConversationID == convID && !slices.Contains(m.SeenBy, userID) {
			n++
		}
	}
	return n, nil
}

func (r *memMessages) MarkSeen(_ context.Context, convID primitive.ObjectID, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.msgs {
		if m.ConversationID == convID && !slices.Contains(m.SeenBy, userID) {
			m.SeenBy = append(m.SeenBy, userID)
			n++
		}
	}
	return n, nil
}

func (r *memMessages) DeleteForUser(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	oid, _ := primitive.ObjectIDFromHex(id)
	m := r.find(oid)
	if m == nil {
		return models.ErrMessageNotFound
	}
	m.DeletedFor = append(m.DeletedFor, userID)
	return nil
}

func (r *memMessages) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	oid, _ := primitive.ObjectIDFromHex(id)
	before := len(r.msgs)
	r.msgs = slices.DeleteFunc(r.msgs, func(m *models.Message) bool { return m.ID == oid })
	if len(r.msgs) == before {
		return models.ErrMessageNotFound
	}
	return nil
}

func (r *memMessages) DeleteByConversation(_ context.Context, convID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = slices.DeleteFunc(r.msgs, func(m *models.Message) bool { return m.ConversationID == convID })
	return nil
}

func (r *memMessages) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

// fakeDirectory knows the users "1" to "5".
type fakeDirectory map[string]models.UserSummary

func newFakeDirectory() fakeDirectory {
	d := fakeDirectory{}
	for _, name := range []string{"alice", "bob", "carol", "dave", "erin"} {
		id := string(rune('1' + len(d)))
		d[id] = models.UserSummary{ID: id, Username: name}
	}
	return d
}

func (d fakeDirectory) Summaries(_ context.Context, ids []string) (map[string]models.UserSummary, error) {
	out := map[string]models.UserSummary{}
	for _, id := range ids {
		if s, ok := d[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

type fakeUploader struct {
	folders []string
	err     error
}

func (u *fakeUploader) Upload(_ context.Context, folder string, file *multipart.FileHeader) (*models.Media, error) {
	if u.err != nil {
		return nil, u.err
	}
	u.folders = append(u.folders, folder)
	return &models.Media{URL: "http://media/" + folder + "/" + file.Filename, Type: models.MediaTypeFile, FileName: file.Filename}, nil
}

type notification struct {
	kind    string
	conv    *models.ConversationResponse
	msg     *models.MessageResponse
	userIDs []string
}

// recordingNotifier captures every notification in call order.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []notification
}

func (n *recordingNotifier) record(c notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	sort.Strings(c.userIDs)
	n.calls = append(n.calls, c)
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.calls))
	for _, c := range n.calls {
		out = append(out, c.kind)
	}
	return out
}

func (n *recordingNotifier) last() notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.calls) == 0 {
		return notification{}
	}
	return n.calls[len(n.calls)-1]
}

func (n *recordingNotifier) ConversationCreated(_ context.Context, conv *models.ConversationResponse, creatorID string) {
	n.record(notification{kind: "created", conv: conv, userIDs: []string{creatorID}})
}

func (n *recordingNotifier) MessageSent(_ context.Context, msg *models.MessageResponse, created *models.ConversationResponse) {
	n.record(notification{kind: "message", msg: msg, conv: created})
}

func (n *recordingNotifier) ParticipantsAdded(_ context.Context, conv *models.ConversationResponse, added []string) {
	n.record(notification{kind: "added", conv: conv, userIDs: slices.Clone(added)})
}

func (n *recordingNotifier) ParticipantRemoved(_ context.Context, conv *models.ConversationResponse, userID string) {
	n.record(notification{kind: "removed", conv: conv, userIDs: []string{userID}})
}

func (n *recordingNotifier) AdminPromoted(_ context.Context, conv *models.ConversationResponse, userID string) {
	n.record(notification{kind: "promoted", conv: conv, userIDs: []string{userID}})
}

func (n *recordingNotifier) AdminDemoted(_ context.Context, conv *models.ConversationResponse, userID string) {
	n.record(notification{kind: "demoted", conv: conv, userIDs: []string{userID}})
}

func (n *recordingNotifier) OwnershipTransferred(_ context.Context, conv *models.ConversationResponse, newOwnerID string) {
	n.record(notification{kind: "ownership", conv: conv, userIDs: []string{newOwnerID}})
}

func (n *recordingNotifier) MessagesSeen(_ context.Context, conversationID string, user models.UserSummary) {
	n.record(notification{kind: "seen", userIDs: []string{user.ID, conversationID}})
}

type serviceFixture struct {
	convs    *memConversations
	msgs     *memMessages
	users    fakeDirectory
	media    *fakeUploader
	notifier *recordingNotifier

	conversations *ConversationService
	messages      *MessageService
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		convs:    newMemConversations(),
		msgs:     &memMessages{},
		users:    newFakeDirectory(),
		media:    &fakeUploader{},
		notifier: &recordingNotifier{},
	}
	f.conversations = NewConversationService(f.convs, f.msgs, f.users, f.media, f.notifier, discardLogger())
	f.messages = NewMessageService(f.convs, f.msgs, f.users, f.media, f.notifier, discardLogger())
	return f
}

func participantIDs(conv *models.ConversationResponse) []string {
	ids := make([]string, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		ids = append(ids, p.User.ID)
	}
	sort.Strings(ids)
	return ids
}

func fileHeader(name string) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: strings.TrimSpace(name), Size: 4}
}
