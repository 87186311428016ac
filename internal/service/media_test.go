package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/thornlink/thorn/backend/internal/mocks"
	"github.com/thornlink/thorn/backend/internal/models"
	"github.com/thornlink/thorn/backend/internal/service"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestMediaUpload(t *testing.T) {
	client := new(mocks.MockObjectPutter)
	media := service.NewMediaServiceWithClient(client, "thorn-media", "https://media.thorn.test", nil)
	owner := uuid.New()

	var put *s3.PutObjectInput
	client.On("PutObject", mock.Anything, mock.AnythingOfType("*s3.PutObjectInput")).
		Run(func(args mock.Arguments) { put = args.Get(1).(*s3.PutObjectInput) }).
		Return(&s3.PutObjectOutput{}, nil)

	url, err := media.Upload(context.Background(), owner, service.SlotBanner, bytes.NewReader(pngHeader))
	require.NoError(t, err)

	require.NotNil(t, put)
	key := *put.Key
	assert.Equal(t, "thorn-media", *put.Bucket)
	assert.Equal(t, "image/png", *put.ContentType)
	assert.True(t, strings.HasPrefix(key, "profiles/"+owner.String()+"/banner-"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.Equal(t, "https://media.thorn.test/"+key, url)
	client.AssertExpectations(t)
}

func TestMediaUploadRejectsBadInput(t *testing.T) {
	client := new(mocks.MockObjectPutter)
	media := service.NewMediaServiceWithClient(client, "thorn-media", "https://media.thorn.test", nil)

	tests := []struct {
		name string
		body []byte
	}{
		{"empty", nil},
		{"not an image", []byte("<html><body>hi</body></html>")},
		{"too large", append(append([]byte{}, pngHeader...), make([]byte, service.MaxMediaSize)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := media.Upload(context.Background(), uuid.New(), service.SlotBackground, bytes.NewReader(tt.body))
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
	client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
}

func TestMediaUploadStorageFailure(t *testing.T) {
	client := new(mocks.MockObjectPutter)
	media := service.NewMediaServiceWithClient(client, "thorn-media", "https://media.thorn.test", nil)
	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	_, err := media.Upload(context.Background(), uuid.New(), service.SlotBackground, bytes.NewReader(pngHeader))
	assert.ErrorIs(t, err, models.ErrTransport)
}

func TestParseMediaSlot(t *testing.T) {
	slot, err := service.ParseMediaSlot("background")
	require.NoError(t, err)
	assert.Equal(t, service.SlotBackground, slot)

	patch := slot.Patch("https://m/x.png")
	assert.Nil(t, patch.BannerURL)
	assert.Equal(t, "https://m/x.png", *patch.BackgroundURL)

	patch = service.SlotBanner.Patch("https://m/y.png")
	assert.Equal(t, "https://m/y.png", *patch.BannerURL)

	_, err = service.ParseMediaSlot("avatar")
	assert.ErrorIs(t, err, models.ErrValidation)
}
