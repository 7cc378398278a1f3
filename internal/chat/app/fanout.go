package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"
	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/repository"
	"github.com/bhanuudhay/baat-cheet-backend/pkg/logger"
)

// keyedMutex per-key mutual exclusion. Serializes persist-then-broadcast
// sequences for one room or one conversation without a global lock.
// Entries are refcounted and evicted once the last holder unlocks, so the
// map does not grow with every conversation the process has ever seen.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock acquires the mutex for key, returning its unlock function
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// FanoutRouter delivers an already-persisted message (or a transient
// event) to every reachable connection in its audience and initiates
// notification generation for the rest. Everything past the message's
// persistence is best-effort: a dead handle, a relay error, a failed
// notification or audit write never fails the triggering operation.
type FanoutRouter struct {
	presence *PresenceRegistry
	rooms    repository.RoomRepository
	notifier *NotificationUseCase
	pubsub   repository.PubSub
	events   repository.EventStream
	nodeID   string
	timeout  time.Duration
}

// NewFanoutRouter create a FanoutRouter. pubsub and events may be nil.
func NewFanoutRouter(
	presence *PresenceRegistry,
	rooms repository.RoomRepository,
	notifier *NotificationUseCase,
	pubsub repository.PubSub,
	events repository.EventStream,
	nodeID string,
	timeout time.Duration,
) *FanoutRouter {
	return &FanoutRouter{
		presence: presence,
		rooms:    rooms,
		notifier: notifier,
		pubsub:   pubsub,
		events:   events,
		nodeID:   nodeID,
		timeout:  timeout,
	}
}

// DeliverDirect fans a persisted direct message out to its single
// recipient: live push to every handle, durable notification regardless of
// reachability, notification push when reachable.
func (r *FanoutRouter) DeliverDirect(ctx context.Context, msg *domain.Message, senderName string) {
	resp := messageResponse(domain.ReceiveMessage, msg)
	delivered := r.deliverTo(ctx, msg.RecipientID, resp)

	content := fmt.Sprintf("%s sent you a message", senderName)
	r.notify(ctx, msg.RecipientID, msg.SenderID, domain.NotificationMessage, msg.ID, "", content)

	r.audit(ctx, msg, []string{msg.RecipientID}, delivered)
}

// DeliverRoom fans a persisted room message out to the room's current
// member set, evaluated now rather than at creation time, excluding the
// sender. A resolver miss (room deleted mid-flight) is an empty audience,
// not a failure.
func (r *FanoutRouter) DeliverRoom(ctx context.Context, msg *domain.Message, senderName string) {
	audience, roomName := r.resolveAudience(ctx, msg.RoomID, msg.SenderID)
	if len(audience) == 0 {
		return
	}

	resp := messageResponse(domain.ReceiveMessage, msg)
	content := fmt.Sprintf("%s sent a message in %s", senderName, roomName)

	delivered := 0
	for _, memberID := range audience {
		delivered += r.deliverTo(ctx, memberID, resp)
		r.notify(ctx, memberID, msg.SenderID, domain.NotificationMessage, msg.ID, msg.RoomID, content)
	}

	r.audit(ctx, msg, audience, delivered)
}

// Rebroadcast pushes the full mutated message (edit/delete/react/read) to
// the same audience a fresh delivery would resolve, with no secondary
// notifications.
func (r *FanoutRouter) Rebroadcast(ctx context.Context, msg *domain.Message) {
	resp := messageResponse(domain.MessageUpdated, msg)

	if msg.RecipientID != "" {
		r.deliverTo(ctx, msg.RecipientID, resp)
		if msg.SenderID != msg.RecipientID {
			r.deliverTo(ctx, msg.SenderID, resp)
		}
		return
	}

	audience, _ := r.resolveAudience(ctx, msg.RoomID, "")
	for _, memberID := range audience {
		r.deliverTo(ctx, memberID, resp)
	}
}

// NotifyRead generates the single read-receipt notification to the
// message's original sender, and only when the reader is someone else
func (r *FanoutRouter) NotifyRead(ctx context.Context, msg *domain.Message, readerID string) {
	if readerID == msg.SenderID {
		return
	}
	r.notify(ctx, msg.SenderID, readerID, domain.NotificationRead, msg.ID, msg.RoomID, "Your message was read")
}

// Typing transient indicator: direct push to the named peer's reachable
// handles only, never persisted, silently dropped when unreachable
func (r *FanoutRouter) Typing(ctx context.Context, senderID, peerID string, isTyping bool) {
	r.deliverTo(ctx, peerID, typingResponse(senderID, "", isTyping))
}

// TypingRoom transient typing indicator to the room's current members
func (r *FanoutRouter) TypingRoom(ctx context.Context, senderID, roomID string, isTyping bool) {
	audience, _ := r.resolveAudience(ctx, roomID, senderID)
	resp := typingResponse(senderID, roomID, isTyping)
	for _, memberID := range audience {
		r.deliverTo(ctx, memberID, resp)
	}
}

func typingResponse(senderID, roomID string, isTyping bool) domain.WSResponse {
	payload := map[string]interface{}{
		"user_id":   senderID,
		"is_typing": isTyping,
	}
	if roomID != "" {
		payload["room_id"] = roomID
	}
	return domain.WSResponse{
		Action:  string(domain.UserTyping),
		Success: true,
		Payload: payload,
	}
}

// resolveAudience returns the room's current member ids minus excludeID,
// and the room name. Unknown or inactive rooms resolve to no audience.
func (r *FanoutRouter) resolveAudience(ctx context.Context, roomID, excludeID string) ([]string, string) {
	opCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	room, err := r.rooms.FindByID(opCtx, roomID)
	if err != nil {
		logger.Log.Errorf("audience resolve failed:", err, zap.String("roomID", roomID))
		return nil, ""
	}
	if room == nil || !room.IsActive {
		logger.Log.Warn("audience resolve: room gone", zap.String("roomID", roomID))
		return nil, ""
	}

	audience := make([]string, 0, len(room.Members))
	for _, id := range room.MemberIDs() {
		if id != excludeID {
			audience = append(audience, id)
		}
	}
	return audience, room.Name
}

// deliverTo pushes resp to the recipient's local handles and relays the
// envelope for handles registered on other nodes. Returns local deliveries.
func (r *FanoutRouter) deliverTo(ctx context.Context, recipientID string, resp domain.WSResponse) int {
	delivered := r.presence.PushTo(recipientID, resp)

	if r.pubsub != nil {
		ev := domain.RelayEvent{NodeID: r.nodeID, Resp: resp}
		if err := r.pubsub.Publish(ctx, repository.UserChannel(recipientID), ev); err != nil {
			logger.Log.Errorf("relay publish failed:", err, zap.String("recipientID", recipientID))
		}
	}
	return delivered
}

// notify persists a notification for the recipient and pushes it when the
// recipient is reachable. Soft failure: a nil notification is simply not
// pushed.
func (r *FanoutRouter) notify(ctx context.Context, recipientID, senderID string, t domain.NotificationType, messageID, roomID, content string) {
	n := r.notifier.Create(ctx, recipientID, senderID, t, messageID, roomID, content)
	if n == nil {
		return
	}
	r.deliverTo(ctx, recipientID, domain.WSResponse{
		Action:  string(domain.NewNotificationPush),
		Success: true,
		Payload: map[string]interface{}{"notification": n},
	})
}

// audit emits the best-effort delivery record
func (r *FanoutRouter) audit(ctx context.Context, msg *domain.Message, recipients []string, delivered int) {
	if r.events == nil {
		return
	}
	opCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ev := domain.DeliveryEvent{
		MessageID:  msg.ID,
		SenderID:   msg.SenderID,
		RoomID:     msg.RoomID,
		Recipients: recipients,
		Delivered:  delivered,
		At:         time.Now().Unix(),
	}
	if err := r.events.Record(opCtx, ev); err != nil {
		logger.Log.Errorf("delivery audit failed:", err, zap.String("messageID", msg.ID))
	}
}

func messageResponse(action domain.Action, msg *domain.Message) domain.WSResponse {
	return domain.WSResponse{
		Action:  string(action),
		Success: true,
		Payload: map[string]interface{}{"message": msg},
	}
}
