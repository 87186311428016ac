package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/thornlink/thorn/backend/config"
	"github.com/thornlink/thorn/backend/internal/logging"
	"github.com/thornlink/thorn/backend/internal/models"
)

// MaxMediaSize is the largest banner or background image accepted.
const MaxMediaSize = 5 << 20

// MediaSlot is the profile field an uploaded image is meant for.
type MediaSlot string

const (
	SlotBanner     MediaSlot = "banner"
	SlotBackground MediaSlot = "background"
)

// ParseMediaSlot validates a slot name from a request path.
func ParseMediaSlot(s string) (MediaSlot, error) {
	switch slot := MediaSlot(s); slot {
	case SlotBanner, SlotBackground:
		return slot, nil
	}
	return "", models.NewValidationError("slot", "slot must be banner or background")
}

// Patch stages url into the profile field of the slot.
func (s MediaSlot) Patch(url string) models.ProfilePatch {
	if s == SlotBackground {
		return models.ProfilePatch{BackgroundURL: &url}
	}
	return models.ProfilePatch{BannerURL: &url}
}

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ObjectPutter is the part of the S3 client the media service needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// MediaService stores profile images in S3.
type MediaService struct {
	client  ObjectPutter
	bucket  string
	baseURL string
	log     logging.Logger
}

// NewMediaService creates a MediaService from the S3 configuration
func NewMediaService(s3Config *config.S3Config, log logging.Logger) *MediaService {
	return NewMediaServiceWithClient(s3Config.Client, s3Config.BucketName, s3Config.BaseURL, log)
}

func NewMediaServiceWithClient(client ObjectPutter, bucket, baseURL string, log logging.Logger) *MediaService {
	if log == nil {
		log = logging.Nop{}
	}
	return &MediaService{client: client, bucket: bucket, baseURL: baseURL, log: log}
}

// Upload stores the image read from r and returns its public URL. The type
// is sniffed from the content, not taken from the client.
func (m *MediaService) Upload(ctx context.Context, ownerID uuid.UUID, slot MediaSlot, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxMediaSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return "", models.NewValidationError("file", "file is empty")
	}
	if len(data) > MaxMediaSize {
		return "", models.NewValidationError("file", "file exceeds 5 MiB")
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", models.NewValidationError("file", "unsupported image type "+contentType)
	}

	key := fmt.Sprintf("profiles/%s/%s-%s.%s", ownerID, slot, uuid.New(), ext)
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(m.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", &models.TransportError{Op: "upload media", Err: err}
	}

	publicURL := m.baseURL + "/" + key
	m.log.Info(ctx, "media uploaded", "owner_id", ownerID, "slot", slot, "key", key, "bytes", len(data))
	return publicURL, nil
}
