package app

import (
	"context"
	"time"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"
	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/repository"
	errprocess "github.com/bhanuudhay/baat-cheet-backend/pkg/err"
)

// conversationKey stable lock key for a direct-message pair, independent of
// which side is sending
func conversationKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "dm:" + a + ":" + b
}

func roomKey(roomID string) string {
	return "room:" + roomID
}

// MessageUseCase message operations. Sends hold the conversation's (or
// room's) lock across persist and fan-out so two messages persisted in
// order are broadcast in the same order.
type MessageUseCase struct {
	messages    repository.MessageRepository
	rooms       repository.RoomRepository
	users       repository.UserRepository
	attachments repository.AttachmentStore
	router      *FanoutRouter
	locks       *keyedMutex
	timeout     time.Duration
}

// NewMessageUseCase create a MessageUseCase. attachments may be nil when no
// blob store is configured.
func NewMessageUseCase(
	messages repository.MessageRepository,
	rooms repository.RoomRepository,
	users repository.UserRepository,
	attachments repository.AttachmentStore,
	router *FanoutRouter,
	timeout time.Duration,
) *MessageUseCase {
	return &MessageUseCase{
		messages:    messages,
		rooms:       rooms,
		users:       users,
		attachments: attachments,
		router:      router,
		locks:       newKeyedMutex(),
		timeout:     timeout,
	}
}

// SendDirect persists and fans out a direct message. The recipient's block
// list is checked before anything is written, a blocked sender gets
// ErrForbidden and no message exists afterwards.
func (uc *MessageUseCase) SendDirect(ctx context.Context, senderID, recipientID, content string, t domain.MessageType, upload *domain.AttachmentUpload) (*domain.Message, error) {
	opCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	sender, err := uc.fetchUser(opCtx, senderID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, errprocess.Wrap(domain.ErrNotAuthenticated, "unknown sender "+senderID, nil)
	}
	recipient, err := uc.fetchUser(opCtx, recipientID)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, errprocess.Wrap(domain.ErrNotFound, "recipient "+recipientID, nil)
	}
	if recipient.HasBlocked(senderID) {
		return nil, errprocess.Wrap(domain.ErrForbidden, "recipient has blocked sender", nil)
	}

	att, err := uc.storeAttachment(opCtx, upload)
	if err != nil {
		return nil, err
	}
	msg, err := domain.NewDirectMessage(senderID, recipientID, content, t, att)
	if err != nil {
		return nil, err
	}

	unlock := uc.locks.Lock(conversationKey(senderID, recipientID))
	defer unlock()

	if err := uc.messages.Create(opCtx, msg); err != nil {
		return nil, errprocess.Wrap(domain.ErrExternalUnavailable, "persist message", err)
	}
	uc.router.DeliverDirect(opCtx, msg, sender.Username)
	return msg, nil
}

// SendRoom persists and fans out a room message. Only current members may
// send, the audience is resolved again at delivery time.
func (uc *MessageUseCase) SendRoom(ctx context.Context, senderID, roomID, content string, t domain.MessageType, upload *domain.AttachmentUpload) (*domain.Message, error) {
	opCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	sender, err := uc.fetchUser(opCtx, senderID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, errprocess.Wrap(domain.ErrNotAuthenticated, "unknown sender "+senderID, nil)
	}
	room, err := uc.fetchRoom(opCtx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsMember(senderID) {
		return nil, errprocess.Wrap(domain.ErrForbidden, "sender is not a room member", nil)
	}

	att, err := uc.storeAttachment(opCtx, upload)
	if err != nil {
		return nil, err
	}
	msg, err := domain.NewRoomMessage(senderID, roomID, content, t, att)
	if err != nil {
		return nil, err
	}

	unlock := uc.locks.Lock(roomKey(roomID))
	defer unlock()

	if err := uc.messages.Create(opCtx, msg); err != nil {
		return nil, errprocess.Wrap(domain.ErrExternalUnavailable, "persist message", err)
	}
	uc.router.DeliverRoom(opCtx, msg, sender.Username)
	return msg, nil
}

// Edit rewrites a message's content. Sender only. A tombstoned message
// keeps its placeholder content, the edit mark is recorded but the deleted
// text is never resurrected.
func (uc *MessageUseCase) Edit(ctx context.Context, userID, messageID, content string) (*domain.Message, error) {
	opCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	msg, err := uc.fetchMessage(opCtx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, errprocess.Wrap(domain.ErrForbidden, "only the sender may edit", nil)
	}

	if !msg.IsDeleted {
		msg.Content = content
	}
	msg.IsEdited = true
	msg.EditedAt = time.Now().Unix()

	if err := uc.messages.Update(opCtx, msg); err != nil {
		return nil, errprocess.Wrap(domain.ErrExternalUnavailable, "update message", err)
	}
	uc.router.Rebroadcast(opCtx, msg)
	return msg, nil
}

// Delete tombstones a message. Allowed for the sender, and for room admins
// on messages in their room. The record survives with placeholder content.
func (uc *MessageUseCase) Delete(ctx context.Context, userID, messageID string) (*domain.Message, error) {
	opCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	msg, err := uc.fetchMessage(opCtx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		allowed := false
		if msg.RoomID != "" {
			room, err := uc.fetchRoom(opCtx, msg.RoomID)
			if err == nil && room.IsAdmin(userID) {
				allowed = true
			}
		}
		if !allowed {
			return nil, errprocess.Wrap(domain.ErrForbidden, "not allowed to delete this message", nil)
		}
	}

	msg.Tombstone(time.Now().Unix())
	if err := uc.messages.Update(opCtx, msg); err != nil {
		return nil, errprocess.Wrap(domain.ErrExternalUnavailable, "update message", err)
	}
	uc.router.Rebroadcast(opCtx, msg)
	return msg, nil
}

// React toggles the caller's (user, emoji) reaction on a message they can
// see. Both directions only rebroadcast the mutated message, no
// notification is generated.
func (uc *MessageUseCase) React(ctx context.Context, userID, messageID, emoji string) (*domain.Message, error) {
	opCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	msg, err := uc.fetchMessage(opCtx, messageID)
	if err != nil {
		return nil, err
	}
	if err := uc.requireParticipant(opCtx, userID, msg); err != nil {
		return nil, err
	}

	msg.ToggleReaction(userID, emoji)
	if err := uc.messages.Update(opCtx, msg); err != nil {
		return nil, errprocess.Wrap(domain.ErrExternalUnavailable, "update message", err)
	}
	uc.router.Rebroadcast(opCtx, msg)
	return msg, nil
}

// MarkRead records the caller's read receipt. Repeat reads are no-ops and
// trigger no broadcast or notification.
func (uc *MessageUseCase) MarkRead(ctx context.Context, userID, messageID string) (*domain.Message, error) {
	opCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	msg, err := uc.fetchMessage(opCtx, messageID)
	if err != nil {
		return nil, err
	}
	if err := uc.requireParticipant(opCtx, userID, msg); err != nil {
		return nil, err
	}

	if !msg.MarkRead(userID, time.Now().Unix()) {
		return msg, nil
	}
	if err := uc.messages.Update(opCtx, msg); err != nil {
		return nil, errprocess.Wrap(domain.ErrExternalUnavailable, "update message", err)
	}
	uc.router.Rebroadcast(opCtx, msg)
	uc.router.NotifyRead(opCtx, msg, userID)
	return msg, nil
}

// FetchDirect returns one page of the conversation between the caller and
// peerID in chronological order. A block in either direction hides the
// history.
func (uc *MessageUseCase) FetchDirect(ctx context.Context, userID, peerID string, page, limit int64) ([]domain.Message, error) {
	opCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	caller, err := uc.fetchUser(opCtx, userID)
	if err != nil {
		return nil, err
	}
	peer, err := uc.fetchUser(opCtx, peerID)
	if err != nil {
		return nil, err
	}
	if peer == nil {
		return nil, errprocess.Wrap(domain.ErrNotFound, "user "+peerID, nil)
	}
	if peer.HasBlocked(userID) || (caller != nil && caller.HasBlocked(peerID)) {
		return nil, errprocess.Wrap(domain.ErrForbidden, "conversation is blocked", nil)
	}

	msgs, err := uc.messages.FindDirect(opCtx, userID, peerID, page, limit)
	if err != nil {
		return nil, errprocess.Wrap(domain.ErrExternalUnavailable, "fetch conversation", err)
	}
	return msgs, nil
}

// FetchRoom returns one page of a room's history in chronological order.
// Members only.
func (uc *MessageUseCase) FetchRoom(ctx context.Context, userID, roomID string, page, limit int64) ([]domain.Message, error) {
	opCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	room, err := uc.fetchRoom(opCtx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsMember(userID) {
		return nil, errprocess.Wrap(domain.ErrForbidden, "not a room member", nil)
	}

	msgs, err := uc.messages.FindByRoom(opCtx, roomID, page, limit)
	if err != nil {
		return nil, errprocess.Wrap(domain.ErrExternalUnavailable, "fetch room history", err)
	}
	return msgs, nil
}

func (uc *MessageUseCase) fetchUser(ctx context.Context, userID string) (*domain.User, error) {
	u, err := uc.users.FindByID(ctx, userID)
	if err != nil {
		return nil, errprocess.Wrap(domain.ErrExternalUnavailable, "find user", err)
	}
	return u, nil
}

func (uc *MessageUseCase) fetchRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	room, err := uc.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, errprocess.Wrap(domain.ErrExternalUnavailable, "find room", err)
	}
	if room == nil || !room.IsActive {
		return nil, errprocess.Wrap(domain.ErrNotFound, "room "+roomID, nil)
	}
	return room, nil
}

func (uc *MessageUseCase) fetchMessage(ctx context.Context, messageID string) (*domain.Message, error) {
	msg, err := uc.messages.FindByID(ctx, messageID)
	if err != nil {
		return nil, errprocess.Wrap(domain.ErrExternalUnavailable, "find message", err)
	}
	if msg == nil {
		return nil, errprocess.Wrap(domain.ErrNotFound, "message "+messageID, nil)
	}
	return msg, nil
}

// requireParticipant a user may act on a direct message they sent or
// received, or on a room message in a room they belong to
func (uc *MessageUseCase) requireParticipant(ctx context.Context, userID string, msg *domain.Message) error {
	if msg.RecipientID != "" {
		if userID == msg.SenderID || userID == msg.RecipientID {
			return nil
		}
		return errprocess.Wrap(domain.ErrForbidden, "not a conversation participant", nil)
	}
	room, err := uc.fetchRoom(ctx, msg.RoomID)
	if err != nil {
		return err
	}
	if !room.IsMember(userID) {
		return errprocess.Wrap(domain.ErrForbidden, "not a room member", nil)
	}
	return nil
}

func (uc *MessageUseCase) storeAttachment(ctx context.Context, upload *domain.AttachmentUpload) (*domain.Attachment, error) {
	if upload == nil {
		return nil, nil
	}
	if uc.attachments == nil {
		return nil, errprocess.Wrap(domain.ErrExternalUnavailable, "attachment store not configured", nil)
	}
	att, err := uc.attachments.Store(ctx, upload)
	if err != nil {
		return nil, errprocess.Wrap(domain.ErrExternalUnavailable, "store attachment", err)
	}
	return att, nil
}
