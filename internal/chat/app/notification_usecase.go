package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"
	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/repository"
	errprocess "github.com/bhanuudhay/baat-cheet-backend/pkg/err"
	"github.com/bhanuudhay/baat-cheet-backend/pkg/logger"
)

// NotificationUseCase notification lifecycle. Creation is soft: a storage
// failure is logged and swallowed so message delivery never depends on it.
type NotificationUseCase struct {
	repo    repository.NotificationRepository
	timeout time.Duration
}

func NewNotificationUseCase(repo repository.NotificationRepository, timeout time.Duration) *NotificationUseCase {
	return &NotificationUseCase{repo: repo, timeout: timeout}
}

// Create persists a notification and returns it, or nil when persistence
// fails. Callers must treat nil as "no notification", not as an error.
func (uc *NotificationUseCase) Create(ctx context.Context, recipientID, senderID string, t domain.NotificationType, messageID, roomID, content string) *domain.Notification {
	opCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	n := domain.NewNotification(recipientID, senderID, t, messageID, roomID, content)
	if err := uc.repo.Create(opCtx, n); err != nil {
		logger.Log.Errorf("notification create failed:", err,
			zap.String("recipientID", recipientID),
			zap.String("messageID", messageID))
		return nil
	}
	return n
}

// List returns one page of the recipient's notifications, newest first,
// together with the total unread count.
func (uc *NotificationUseCase) List(ctx context.Context, recipientID string, page, limit int64) ([]domain.Notification, int64, error) {
	opCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	notifications, err := uc.repo.FindByRecipient(opCtx, recipientID, page, limit)
	if err != nil {
		return nil, 0, errprocess.Wrap(domain.ErrExternalUnavailable, "list notifications", err)
	}
	unread, err := uc.repo.CountUnread(opCtx, recipientID)
	if err != nil {
		return nil, 0, errprocess.Wrap(domain.ErrExternalUnavailable, "count unread", err)
	}
	return notifications, unread, nil
}

// MarkRead marks one of the recipient's own notifications read. Repeated
// calls are no-ops.
func (uc *NotificationUseCase) MarkRead(ctx context.Context, recipientID, notificationID string) (*domain.Notification, error) {
	opCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	n, err := uc.repo.FindByID(opCtx, notificationID, recipientID)
	if err != nil {
		return nil, errprocess.Wrap(domain.ErrExternalUnavailable, "find notification", err)
	}
	if n == nil {
		return nil, errprocess.Wrap(domain.ErrNotFound, "notification "+notificationID, nil)
	}
	if !n.MarkRead(time.Now().Unix()) {
		return n, nil
	}
	if err := uc.repo.Update(opCtx, n); err != nil {
		return nil, errprocess.Wrap(domain.ErrExternalUnavailable, "update notification", err)
	}
	return n, nil
}

// MarkAllRead marks every unread notification of the recipient read.
func (uc *NotificationUseCase) MarkAllRead(ctx context.Context, recipientID string) error {
	opCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	if err := uc.repo.MarkAllRead(opCtx, recipientID, time.Now().Unix()); err != nil {
		return errprocess.Wrap(domain.ErrExternalUnavailable, "mark all read", err)
	}
	return nil
}

// Delete removes one of the recipient's own notifications.
func (uc *NotificationUseCase) Delete(ctx context.Context, recipientID, notificationID string) error {
	opCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	n, err := uc.repo.FindByID(opCtx, notificationID, recipientID)
	if err != nil {
		return errprocess.Wrap(domain.ErrExternalUnavailable, "find notification", err)
	}
	if n == nil {
		return errprocess.Wrap(domain.ErrNotFound, "notification "+notificationID, nil)
	}
	if err := uc.repo.Delete(opCtx, notificationID, recipientID); err != nil {
		return errprocess.Wrap(domain.ErrExternalUnavailable, "delete notification", err)
	}
	return nil
}
