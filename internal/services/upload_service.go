package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	support_errors "support-chat/pkg/errors"

	"github.com/google/uuid"
)

// ObjectStorage abstracts the object store; only putting bytes and getting a
// public URL back is relevant to messaging.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

var allowedMimePrefixes = []string{"image/", "video/", "audio/", "application/", "text/"}

// UploadService stores message attachments and produces the fields the
// message row carries.
type UploadService struct {
	storage  ObjectStorage
	maxBytes int64
}

func NewUploadService(storage ObjectStorage, maxBytes int64) *UploadService {
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	return &UploadService{storage: storage, maxBytes: maxBytes}
}

// Store validates and uploads one attachment, returning the message
// attachment fields.
func (s *UploadService) Store(ctx context.Context, conversationID uuid.UUID, fileName, contentType string, data []byte) (AttachmentInput, error) {
	if s.storage == nil {
		return AttachmentInput{}, support_errors.ErrUpstreamUnavailable
	}
	if len(data) == 0 || fileName == "" {
		return AttachmentInput{}, support_errors.ErrInvalidInput
	}
	if int64(len(data)) > s.maxBytes {
		return AttachmentInput{}, support_errors.ErrTooLarge
	}
	if !mimeAllowed(contentType) {
		return AttachmentInput{}, support_errors.ErrInvalidInput
	}

	key := buildObjectKey(conversationID, fileName)
	url, err := s.storage.Put(ctx, key, data, contentType)
	if err != nil {
		return AttachmentInput{}, err
	}

	return AttachmentInput{
		URL:  url,
		Name: fileName,
		Mime: contentType,
		Size: int64(len(data)),
	}, nil
}

func mimeAllowed(contentType string) bool {
	for _, prefix := range allowedMimePrefixes {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

func buildObjectKey(conversationID uuid.UUID, fileName string) string {
	ext := path.Ext(fileName)
	return fmt.Sprintf("attachments/%s/%d-%s%s",
		conversationID, time.Now().UnixNano(), uuid.NewString()[:8], ext)
}
