package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageType message payload type
type MessageType string

const (
	// MessageTypeText plain text message
	MessageTypeText MessageType = "text"
	// MessageTypeFile message carrying an attachment
	MessageTypeFile MessageType = "file"
)

// DeletedPlaceholder replaces the content of a tombstoned message
const DeletedPlaceholder = "This message was deleted"

// Attachment descriptor of an uploaded blob referenced by a message
type Attachment struct {
	URL         string `bson:"url" json:"url"`
	Name        string `bson:"name" json:"name"`
	Size        int64  `bson:"size" json:"size"`
	ContentType string `bson:"content_type" json:"content_type"`
}

// AttachmentUpload raw attachment bytes carried on a send request,
// stored to the blob store before the message is persisted
type AttachmentUpload struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// ReadReceipt one user's read mark, at most one per user per message
type ReadReceipt struct {
	UserID string `bson:"user_id" json:"user_id"`
	ReadAt int64  `bson:"read_at" json:"read_at"`
}

// Reaction one (user, emoji) pair, at most one per message
type Reaction struct {
	UserID string `bson:"user_id" json:"user_id"`
	Emoji  string `bson:"emoji" json:"emoji"`
}

// Message a persisted direct or room message. Exactly one of RecipientID
// and RoomID is set; the constructors enforce it so an invalid message is
// never handed to the store.
type Message struct {
	ID          string        `bson:"_id" json:"id"`
	SenderID    string        `bson:"sender_id" json:"sender_id"`
	RecipientID string        `bson:"recipient_id,omitempty" json:"recipient_id,omitempty"`
	RoomID      string        `bson:"room_id,omitempty" json:"room_id,omitempty"`
	Content     string        `bson:"content" json:"content"`
	Type        MessageType   `bson:"type" json:"type"`
	Attachment  *Attachment   `bson:"attachment,omitempty" json:"attachment,omitempty"`
	IsEdited    bool          `bson:"is_edited" json:"is_edited"`
	EditedAt    int64         `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
	IsDeleted   bool          `bson:"is_deleted" json:"is_deleted"`
	DeletedAt   int64         `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	ReadBy      []ReadReceipt `bson:"read_by,omitempty" json:"read_by,omitempty"`
	Reactions   []Reaction    `bson:"reactions,omitempty" json:"reactions,omitempty"`
	CreatedAt   int64         `bson:"created_at" json:"created_at"`
}

func newMessage(senderID, recipientID, roomID, content string, t MessageType, att *Attachment) (*Message, error) {
	if senderID == "" {
		return nil, ErrNotAuthenticated
	}
	if (recipientID == "") == (roomID == "") {
		return nil, ErrMessageTarget
	}
	if t == "" {
		t = MessageTypeText
	}
	return &Message{
		ID:          uuid.New().String(),
		SenderID:    senderID,
		RecipientID: recipientID,
		RoomID:      roomID,
		Content:     content,
		Type:        t,
		Attachment:  att,
		CreatedAt:   time.Now().Unix(),
	}, nil
}

// NewDirectMessage build a direct message addressed to a single recipient
func NewDirectMessage(senderID, recipientID, content string, t MessageType, att *Attachment) (*Message, error) {
	return newMessage(senderID, recipientID, "", content, t, att)
}

// NewRoomMessage build a message addressed to a room's member set
func NewRoomMessage(senderID, roomID, content string, t MessageType, att *Attachment) (*Message, error) {
	return newMessage(senderID, "", roomID, content, t, att)
}

// IsReadBy reports whether userID already has a read receipt
func (m *Message) IsReadBy(userID string) bool {
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// MarkRead appends a read receipt for userID. Returns false when the user
// already read the message (idempotent).
func (m *Message) MarkRead(userID string, at int64) bool {
	if m.IsReadBy(userID) {
		return false
	}
	m.ReadBy = append(m.ReadBy, ReadReceipt{UserID: userID, ReadAt: at})
	return true
}

// ToggleReaction adds the (user, emoji) reaction, or removes it when already
// present. Returns true when the reaction was added.
func (m *Message) ToggleReaction(userID, emoji string) bool {
	for i, r := range m.Reactions {
		if r.UserID == userID && r.Emoji == emoji {
			m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
			return false
		}
	}
	m.Reactions = append(m.Reactions, Reaction{UserID: userID, Emoji: emoji})
	return true
}

// Tombstone marks the message deleted and discards the original content.
// The record is kept for referential integrity, never hard-deleted.
func (m *Message) Tombstone(at int64) {
	m.IsDeleted = true
	m.DeletedAt = at
	m.Content = DeletedPlaceholder
}
