package domain

// Action websocket request action
type Action string

const (
	// Authenticate websocket action authenticate
	Authenticate Action = "authenticate"
	// Logout websocket action logout
	Logout Action = "logout"

	// SendDirect websocket action send_direct
	SendDirect Action = "send_direct"
	// SendRoom websocket action send_room
	SendRoom Action = "send_room"
	// EditMessage websocket action edit_message
	EditMessage Action = "edit_message"
	// DeleteMessage websocket action delete_message
	DeleteMessage Action = "delete_message"
	// ReactMessage websocket action react_message
	ReactMessage Action = "react_message"
	// ReadMessage websocket action read_message
	ReadMessage Action = "read_message"
	// Typing websocket action typing
	Typing Action = "typing"
	// History websocket action history
	History Action = "history"

	// CreateRoom websocket action create_room
	CreateRoom Action = "create_room"
	// AddMembers websocket action add_members
	AddMembers Action = "add_members"
	// RemoveMember websocket action remove_member
	RemoveMember Action = "remove_member"
	// LeaveRoom websocket action leave_room
	LeaveRoom Action = "leave_room"

	// GetNotifications websocket action get_notifications
	GetNotifications Action = "get_notifications"
	// ReadNotification websocket action read_notification
	ReadNotification Action = "read_notification"
	// ReadAllNotifications websocket action read_all_notifications
	ReadAllNotifications Action = "read_all_notifications"
	// DeleteNotification websocket action delete_notification
	DeleteNotification Action = "delete_notification"
)

// Server-initiated push actions
const (
	// ReceiveMessage a newly persisted message for this connection
	ReceiveMessage Action = "receive_message"
	// MessageUpdated a mutated message rebroadcast (edit/delete/react/read)
	MessageUpdated Action = "message_updated"
	// NewNotificationPush a freshly created notification
	NewNotificationPush Action = "new_notification"
	// PresenceChanged a user's online/offline transition
	PresenceChanged Action = "presence"
	// UserTyping transient typing indicator from a peer
	UserTyping Action = "user_typing"
)

// WSRequest websocket request envelope
type WSRequest struct {
	Action         string            `json:"action"`
	Token          string            `json:"token,omitempty"`
	RecipientID    string            `json:"recipient_id,omitempty"`
	RoomID         string            `json:"room_id,omitempty"`
	RoomName       string            `json:"room_name,omitempty"`
	Description    string            `json:"description,omitempty"`
	Members        []string          `json:"members,omitempty"`
	MessageID      string            `json:"message_id,omitempty"`
	Content        string            `json:"content,omitempty"`
	Type           string            `json:"type,omitempty"`
	Emoji          string            `json:"emoji,omitempty"`
	IsTyping       bool              `json:"is_typing,omitempty"`
	Attachment     *AttachmentUpload `json:"attachment,omitempty"`
	NotificationID string            `json:"notification_id,omitempty"`
	Page           int64             `json:"page,omitempty"`
	Limit          int64             `json:"limit,omitempty"`
}

// WSResponse websocket response envelope
type WSResponse struct {
	Action  string                 `json:"action"`
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// RelayEvent envelope published on the per-user redis channel so other
// nodes can reach handles registered there. NodeID lets the publishing
// node's own subscribers drop the copy they already delivered locally.
type RelayEvent struct {
	NodeID string     `json:"node_id"`
	Resp   WSResponse `json:"resp"`
}

// DeliveryEvent audit record of one fan-out, written to the event stream
// after the live pushes complete. Best-effort.
type DeliveryEvent struct {
	MessageID  string   `json:"message_id"`
	SenderID   string   `json:"sender_id"`
	RoomID     string   `json:"room_id,omitempty"`
	Recipients []string `json:"recipients"`
	Delivered  int      `json:"delivered"`
	At         int64    `json:"at"`
}
