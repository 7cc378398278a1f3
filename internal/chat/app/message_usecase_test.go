package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"
)

type messageFixture struct {
	msgRepo   *MockMessageRepository
	roomRepo  *MockRoomRepository
	userRepo  *MockUserRepository
	notifRepo *MockNotificationRepository
	presence  *PresenceRegistry
	uc        *MessageUseCase
}

func newMessageFixture() *messageFixture {
	f := &messageFixture{
		msgRepo:   new(MockMessageRepository),
		roomRepo:  new(MockRoomRepository),
		userRepo:  new(MockUserRepository),
		notifRepo: new(MockNotificationRepository),
		presence:  NewPresenceRegistry(),
	}
	notifier := NewNotificationUseCase(f.notifRepo, time.Second)
	router := NewFanoutRouter(f.presence, f.roomRepo, notifier, nil, nil, "node-test", time.Second)
	f.uc = NewMessageUseCase(f.msgRepo, f.roomRepo, f.userRepo, nil, router, time.Second)
	return f
}

func (f *messageFixture) user(id, name string, blocked ...string) *domain.User {
	u := &domain.User{ID: id, Username: name, Blocked: blocked}
	f.userRepo.On("FindByID", mock.Anything, id).Return(u, nil)
	return u
}

func TestSendDirect_DeliversAndNotifies(t *testing.T) {
	f := newMessageFixture()
	f.user("alice", "Alice")
	f.user("bob", "Bob")

	handle := &fakePusher{}
	f.presence.Register("bob", handle)

	f.msgRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.notifRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	msg, err := f.uc.SendDirect(context.Background(), "alice", "bob", "hello", domain.MessageTypeText, nil)

	assert.NoError(t, err)
	assert.Equal(t, "bob", msg.RecipientID)
	assert.Equal(t, []string{"receive_message", "new_notification"}, handle.actions())

	f.msgRepo.AssertExpectations(t)
	f.notifRepo.AssertExpectations(t)
}

func TestSendDirect_BlockedSenderPersistsNothing(t *testing.T) {
	f := newMessageFixture()
	f.user("alice", "Alice")
	f.user("bob", "Bob", "alice")

	_, err := f.uc.SendDirect(context.Background(), "alice", "bob", "hello", domain.MessageTypeText, nil)

	assert.True(t, errors.Is(err, domain.ErrForbidden))
	f.msgRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.notifRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSendDirect_UnknownRecipient(t *testing.T) {
	f := newMessageFixture()
	f.user("alice", "Alice")
	f.userRepo.On("FindByID", mock.Anything, "ghost").Return(nil, nil)

	_, err := f.uc.SendDirect(context.Background(), "alice", "ghost", "hello", domain.MessageTypeText, nil)

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSendDirect_NotificationFailureDoesNotFailSend(t *testing.T) {
	f := newMessageFixture()
	f.user("alice", "Alice")
	f.user("bob", "Bob")

	f.msgRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.notifRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("mongo down"))

	msg, err := f.uc.SendDirect(context.Background(), "alice", "bob", "hello", domain.MessageTypeText, nil)

	assert.NoError(t, err)
	assert.NotNil(t, msg)
}

func TestSendRoom_NonMemberForbidden(t *testing.T) {
	f := newMessageFixture()
	f.user("mallory", "Mallory")

	room := domain.NewRoom("creator", "Go Club", "", []string{"m1"})
	f.roomRepo.On("FindByID", mock.Anything, room.ID).Return(room, nil)

	_, err := f.uc.SendRoom(context.Background(), "mallory", room.ID, "hi", domain.MessageTypeText, nil)

	assert.True(t, errors.Is(err, domain.ErrForbidden))
	f.msgRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSendRoom_OfflineMemberStillGetsNotification(t *testing.T) {
	f := newMessageFixture()
	f.user("creator", "Creator")

	room := domain.NewRoom("creator", "Go Club", "", []string{"offline-bob"})
	f.roomRepo.On("FindByID", mock.Anything, room.ID).Return(room, nil)
	f.msgRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	var captured *domain.Notification
	f.notifRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(*domain.Notification)
	}).Return(nil)

	_, err := f.uc.SendRoom(context.Background(), "creator", room.ID, "hi all", domain.MessageTypeText, nil)

	assert.NoError(t, err)
	assert.NotNil(t, captured)
	assert.Equal(t, "offline-bob", captured.RecipientID)
	assert.Equal(t, room.ID, captured.RoomID)
	assert.False(t, captured.IsRead)
}

func TestSendRoom_SenderExcludedFromFanout(t *testing.T) {
	f := newMessageFixture()
	f.user("creator", "Creator")

	room := domain.NewRoom("creator", "Go Club", "", []string{"bob"})
	f.roomRepo.On("FindByID", mock.Anything, room.ID).Return(room, nil)
	f.msgRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.notifRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	senderHandle := &fakePusher{}
	bobHandle := &fakePusher{}
	f.presence.Register("creator", senderHandle)
	f.presence.Register("bob", bobHandle)

	_, err := f.uc.SendRoom(context.Background(), "creator", room.ID, "hi", domain.MessageTypeText, nil)

	assert.NoError(t, err)
	assert.Empty(t, senderHandle.responses())
	assert.Equal(t, []string{"receive_message", "new_notification"}, bobHandle.actions())
}

func TestEdit_OnlySender(t *testing.T) {
	f := newMessageFixture()
	msg, _ := domain.NewDirectMessage("alice", "bob", "original", domain.MessageTypeText, nil)
	f.msgRepo.On("FindByID", mock.Anything, msg.ID).Return(msg, nil)

	_, err := f.uc.Edit(context.Background(), "bob", msg.ID, "hacked")

	assert.True(t, errors.Is(err, domain.ErrForbidden))
	f.msgRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestEdit_AfterDeleteKeepsPlaceholder(t *testing.T) {
	f := newMessageFixture()
	msg, _ := domain.NewDirectMessage("alice", "bob", "original", domain.MessageTypeText, nil)
	msg.Tombstone(time.Now().Unix())

	f.msgRepo.On("FindByID", mock.Anything, msg.ID).Return(msg, nil)
	f.msgRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := f.uc.Edit(context.Background(), "alice", msg.ID, "resurrect")

	assert.NoError(t, err)
	assert.True(t, updated.IsEdited)
	assert.Equal(t, domain.DeletedPlaceholder, updated.Content)
}

func TestDelete_RoomAdminMayDelete(t *testing.T) {
	f := newMessageFixture()
	room := domain.NewRoom("admin", "Go Club", "", []string{"poster"})
	msg, _ := domain.NewRoomMessage("poster", room.ID, "spam", domain.MessageTypeText, nil)

	f.msgRepo.On("FindByID", mock.Anything, msg.ID).Return(msg, nil)
	f.roomRepo.On("FindByID", mock.Anything, room.ID).Return(room, nil)
	f.msgRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	deleted, err := f.uc.Delete(context.Background(), "admin", msg.ID)

	assert.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
	assert.Equal(t, domain.DeletedPlaceholder, deleted.Content)
}

func TestDelete_StrangerForbidden(t *testing.T) {
	f := newMessageFixture()
	msg, _ := domain.NewDirectMessage("alice", "bob", "hi", domain.MessageTypeText, nil)
	f.msgRepo.On("FindByID", mock.Anything, msg.ID).Return(msg, nil)

	_, err := f.uc.Delete(context.Background(), "mallory", msg.ID)

	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestReact_ParticipantTogglesAndRebroadcasts(t *testing.T) {
	f := newMessageFixture()
	msg, _ := domain.NewDirectMessage("alice", "bob", "hi", domain.MessageTypeText, nil)

	f.msgRepo.On("FindByID", mock.Anything, msg.ID).Return(msg, nil)
	f.msgRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	aliceHandle := &fakePusher{}
	f.presence.Register("alice", aliceHandle)

	reacted, err := f.uc.React(context.Background(), "bob", msg.ID, "👍")

	assert.NoError(t, err)
	assert.Len(t, reacted.Reactions, 1)
	assert.Contains(t, aliceHandle.actions(), "message_updated")
}

func TestReact_NoNotificationEitherDirection(t *testing.T) {
	f := newMessageFixture()
	msg, _ := domain.NewDirectMessage("alice", "bob", "hi", domain.MessageTypeText, nil)

	f.msgRepo.On("FindByID", mock.Anything, msg.ID).Return(msg, nil)
	f.msgRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

	aliceHandle := &fakePusher{}
	f.presence.Register("alice", aliceHandle)

	_, err := f.uc.React(context.Background(), "bob", msg.ID, "👍")
	assert.NoError(t, err)
	_, err = f.uc.React(context.Background(), "bob", msg.ID, "👍")
	assert.NoError(t, err)

	f.notifRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.NotContains(t, aliceHandle.actions(), "new_notification")
}

func TestReact_NonParticipantForbidden(t *testing.T) {
	f := newMessageFixture()
	msg, _ := domain.NewDirectMessage("alice", "bob", "hi", domain.MessageTypeText, nil)
	f.msgRepo.On("FindByID", mock.Anything, msg.ID).Return(msg, nil)

	_, err := f.uc.React(context.Background(), "mallory", msg.ID, "👍")

	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestMarkRead_IdempotentSkipsSecondUpdate(t *testing.T) {
	f := newMessageFixture()
	msg, _ := domain.NewDirectMessage("alice", "bob", "hi", domain.MessageTypeText, nil)

	f.msgRepo.On("FindByID", mock.Anything, msg.ID).Return(msg, nil)
	f.msgRepo.On("Update", mock.Anything, mock.Anything).Return(nil).Once()
	f.notifRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := f.uc.MarkRead(context.Background(), "bob", msg.ID)
	assert.NoError(t, err)

	_, err = f.uc.MarkRead(context.Background(), "bob", msg.ID)
	assert.NoError(t, err)

	f.msgRepo.AssertNumberOfCalls(t, "Update", 1)
}

func TestFetchDirect_BlockedEitherWay(t *testing.T) {
	f := newMessageFixture()
	f.user("alice", "Alice", "bob")
	f.user("bob", "Bob")

	_, err := f.uc.FetchDirect(context.Background(), "alice", "bob", 1, 20)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = f.uc.FetchDirect(context.Background(), "bob", "alice", 1, 20)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestFetchRoom_MemberOnly(t *testing.T) {
	f := newMessageFixture()
	room := domain.NewRoom("creator", "Go Club", "", nil)
	f.roomRepo.On("FindByID", mock.Anything, room.ID).Return(room, nil)

	_, err := f.uc.FetchRoom(context.Background(), "stranger", room.ID, 1, 20)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	f.msgRepo.On("FindByRoom", mock.Anything, room.ID, int64(1), int64(20)).Return([]domain.Message{}, nil)
	msgs, err := f.uc.FetchRoom(context.Background(), "creator", room.ID, 1, 20)
	assert.NoError(t, err)
	assert.Empty(t, msgs)
}
