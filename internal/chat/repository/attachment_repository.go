package repository

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"
	"github.com/bhanuudhay/baat-cheet-backend/pkg/database"
)

// AttachmentStore blob store for message attachments. Store runs before
// the message is persisted, so its failure fails the send.
type AttachmentStore interface {
	Store(ctx context.Context, upload *domain.AttachmentUpload) (*domain.Attachment, error)
}

type minioAttachmentStore struct {
	mc *database.MinIOClient
}

// NewMinIOAttachmentStore create an AttachmentStore backed by minio
func NewMinIOAttachmentStore(mc *database.MinIOClient) AttachmentStore {
	return &minioAttachmentStore{mc: mc}
}

func (s *minioAttachmentStore) Store(ctx context.Context, upload *domain.AttachmentUpload) (*domain.Attachment, error) {
	objectName := fmt.Sprintf("%s_%s", uuid.New().String(), upload.Name)
	size := int64(len(upload.Data))

	_, err := s.mc.Client.PutObject(ctx, s.mc.BucketName, objectName,
		bytes.NewReader(upload.Data), size,
		minio.PutObjectOptions{ContentType: upload.ContentType},
	)
	if err != nil {
		return nil, err
	}

	return &domain.Attachment{
		URL:         s.mc.ObjectURL(objectName),
		Name:        upload.Name,
		Size:        size,
		ContentType: upload.ContentType,
	}, nil
}
