package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"support-chat/internal/mocks"
	support_errors "support-chat/pkg/errors"
)

func TestStoreValidation(t *testing.T) {
	storage := new(mocks.ObjectStorageMock)
	svc := NewUploadService(storage, 100)
	convID := uuid.New()

	_, err := svc.Store(context.Background(), convID, "a.png", "image/png", nil)
	assert.ErrorIs(t, err, support_errors.ErrInvalidInput)

	_, err = svc.Store(context.Background(), convID, "", "image/png", []byte("x"))
	assert.ErrorIs(t, err, support_errors.ErrInvalidInput)

	_, err = svc.Store(context.Background(), convID, "a.bin", "x-weird/thing", []byte("x"))
	assert.ErrorIs(t, err, support_errors.ErrInvalidInput)

	_, err = svc.Store(context.Background(), convID, "big.png", "image/png", make([]byte, 101))
	assert.ErrorIs(t, err, support_errors.ErrTooLarge)

	storage.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStoreUploadsAndReturnsAttachment(t *testing.T) {
	storage := new(mocks.ObjectStorageMock)
	svc := NewUploadService(storage, 1024)
	convID := uuid.New()
	data := []byte("fake image bytes")

	var key string
	storage.On("Put", mock.Anything, mock.Anything, data, "image/png").
		Run(func(args mock.Arguments) { key = args.String(1) }).
		Return("https://cdn.example/k", nil).Once()

	att, err := svc.Store(context.Background(), convID, "receipt.png", "image/png", data)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example/k", att.URL)
	assert.Equal(t, "receipt.png", att.Name)
	assert.Equal(t, "image/png", att.Mime)
	assert.Equal(t, int64(len(data)), att.Size)

	// Keys are namespaced by conversation and keep the extension.
	assert.True(t, strings.HasPrefix(key, "attachments/"+convID.String()+"/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	storage.AssertExpectations(t)
}

func TestStoreWithoutBackend(t *testing.T) {
	svc := NewUploadService(nil, 0)
	_, err := svc.Store(context.Background(), uuid.New(), "a.png", "image/png", []byte("x"))
	assert.ErrorIs(t, err, support_errors.ErrUpstreamUnavailable)
}
