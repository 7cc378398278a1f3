package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType closed set of delivery-worthy event kinds
type NotificationType string

const (
	// NotificationMessage a new message for the recipient
	NotificationMessage NotificationType = "message"
	// NotificationReaction reserved; reactions only rebroadcast the message
	NotificationReaction NotificationType = "reaction"
	// NotificationRead the recipient's message was read
	NotificationRead NotificationType = "read"
	// NotificationTyping reserved; typing events are transient and never persisted
	NotificationTyping NotificationType = "typing"
)

// Notification a durable record of a delivery-worthy event, created as a
// side effect of fan-out and mutated only by read-state transitions
type Notification struct {
	ID          string           `bson:"_id" json:"id"`
	RecipientID string           `bson:"recipient_id" json:"recipient_id"`
	SenderID    string           `bson:"sender_id" json:"sender_id"`
	Type        NotificationType `bson:"type" json:"type"`
	MessageID   string           `bson:"message_id,omitempty" json:"message_id,omitempty"`
	RoomID      string           `bson:"room_id,omitempty" json:"room_id,omitempty"`
	Content     string           `bson:"content" json:"content"`
	IsRead      bool             `bson:"is_read" json:"is_read"`
	ReadAt      int64            `bson:"read_at,omitempty" json:"read_at,omitempty"`
	CreatedAt   int64            `bson:"created_at" json:"created_at"`
}

// NewNotification builds an unread notification record
func NewNotification(recipientID, senderID string, t NotificationType, messageID, roomID, content string) *Notification {
	return &Notification{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        t,
		MessageID:   messageID,
		RoomID:      roomID,
		Content:     content,
		CreatedAt:   time.Now().Unix(),
	}
}

// MarkRead flips the read flag. Returns false when already read (idempotent).
func (n *Notification) MarkRead(at int64) bool {
	if n.IsRead {
		return false
	}
	n.IsRead = true
	n.ReadAt = at
	return true
}
