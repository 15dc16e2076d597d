package storage

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/oksasatya/go-ddd-identity/internal/application"
	"github.com/oksasatya/go-ddd-identity/pkg/helpers"
)

// MaxAvatarBytes caps a single upload.
const MaxAvatarBytes = 5 << 20

// GCSAvatars stores avatar images in a Cloud Storage bucket.
type GCSAvatars struct {
	Client *storage.Client
	Bucket string
}

func NewGCSAvatars(client *storage.Client, bucket string) *GCSAvatars {
	return &GCSAvatars{Client: client, Bucket: bucket}
}

func (g *GCSAvatars) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	if g.Client == nil || g.Bucket == "" {
		return "", fmt.Errorf("gcs not configured")
	}
	url, err := helpers.UploadObject(ctx, g.Client, g.Bucket, objectPath, contentType, io.LimitReader(r, MaxAvatarBytes))
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	return url, nil
}

var _ application.AvatarStorage = (*GCSAvatars)(nil)
