package app

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"
)

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Create mock create message
func (m *MockMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// FindByID mock find message by id
func (m *MockMessageRepository) FindByID(ctx context.Context, messageID string) (*domain.Message, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// Update mock update message
func (m *MockMessageRepository) Update(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// FindDirect mock find direct conversation page
func (m *MockMessageRepository) FindDirect(ctx context.Context, userA, userB string, page, limit int64) ([]domain.Message, error) {
	args := m.Called(ctx, userA, userB, page, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByRoom mock find room history page
func (m *MockMessageRepository) FindByRoom(ctx context.Context, roomID string, page, limit int64) ([]domain.Message, error) {
	args := m.Called(ctx, roomID, page, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRoomRepository Mock RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

// Create mock create room
func (m *MockRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

// FindByID mock find room by id
func (m *MockRoomRepository) FindByID(ctx context.Context, roomID string) (*domain.Room, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Room), args.Error(1)
	}
	return nil, args.Error(1)
}

// Update mock update room
func (m *MockRoomRepository) Update(ctx context.Context, room *domain.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

// FindByMember mock find rooms by member
func (m *MockRoomRepository) FindByMember(ctx context.Context, userID string) ([]domain.Room, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Room), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUserRepository Mock UserRepository
type MockUserRepository struct {
	mock.Mock
}

// FindByID mock find user by id
func (m *MockUserRepository) FindByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// UpdateStatus mock update user status mirror
func (m *MockUserRepository) UpdateStatus(ctx context.Context, userID string, status domain.UserStatus, lastSeen int64) error {
	args := m.Called(ctx, userID, status, lastSeen)
	return args.Error(0)
}

// MockNotificationRepository Mock NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

// Create mock create notification
func (m *MockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// FindByID mock find notification scoped to its recipient
func (m *MockNotificationRepository) FindByID(ctx context.Context, notificationID, recipientID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID, recipientID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Notification), args.Error(1)
	}
	return nil, args.Error(1)
}

// Update mock update notification
func (m *MockNotificationRepository) Update(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// MarkAllRead mock mark all of the recipient's notifications read
func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, recipientID string, at int64) error {
	args := m.Called(ctx, recipientID, at)
	return args.Error(0)
}

// Delete mock delete notification
func (m *MockNotificationRepository) Delete(ctx context.Context, notificationID, recipientID string) error {
	args := m.Called(ctx, notificationID, recipientID)
	return args.Error(0)
}

// FindByRecipient mock find notification page
func (m *MockNotificationRepository) FindByRecipient(ctx context.Context, recipientID string, page, limit int64) ([]domain.Notification, error) {
	args := m.Called(ctx, recipientID, page, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Notification), args.Error(1)
	}
	return nil, args.Error(1)
}

// CountUnread mock count unread notifications
func (m *MockNotificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

// MockPubSub Mock PubSub
type MockPubSub struct {
	mock.Mock
}

// Publish mock relay publish
func (m *MockPubSub) Publish(ctx context.Context, channel string, ev domain.RelayEvent) error {
	args := m.Called(ctx, channel, ev)
	return args.Error(0)
}

// Subscribe mock relay subscribe
func (m *MockPubSub) Subscribe(ctx context.Context, channel string, handler func(ev domain.RelayEvent)) error {
	args := m.Called(ctx, channel, handler)
	return args.Error(0)
}

// MockEventStream Mock EventStream
type MockEventStream struct {
	mock.Mock
}

// Record mock delivery audit record
func (m *MockEventStream) Record(ctx context.Context, ev domain.DeliveryEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

// MockAttachmentStore Mock AttachmentStore
type MockAttachmentStore struct {
	mock.Mock
}

// Store mock attachment upload
func (m *MockAttachmentStore) Store(ctx context.Context, upload *domain.AttachmentUpload) (*domain.Attachment, error) {
	args := m.Called(ctx, upload)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Attachment), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockSessionValidator Mock SessionValidator
type MockSessionValidator struct {
	mock.Mock
}

// Validate mock token validation
func (m *MockSessionValidator) Validate(ctx context.Context, tokenStr string) (string, error) {
	args := m.Called(ctx, tokenStr)
	return args.String(0), args.Error(1)
}

// fakePusher records every pushed response, failing on demand
type fakePusher struct {
	mu     sync.Mutex
	pushed []domain.WSResponse
	fail   bool
}

func (f *fakePusher) Push(resp domain.WSResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return domain.ErrExternalUnavailable
	}
	f.pushed = append(f.pushed, resp)
	return nil
}

func (f *fakePusher) responses() []domain.WSResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.WSResponse, len(f.pushed))
	copy(out, f.pushed)
	return out
}

func (f *fakePusher) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.pushed))
	for _, r := range f.pushed {
		out = append(out, r.Action)
	}
	return out
}
