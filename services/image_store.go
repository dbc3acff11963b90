package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/h2non/filetype"

	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/errs"
)

// MaxImageSize is the largest upload accepted, checked before any network call.
const MaxImageSize int64 = 5 * 1024 * 1024

// ImageFile is an image picked by the admin, not yet stored anywhere.
type ImageFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadedImage is what the image store hands back after a successful upload.
type UploadedImage struct {
	URL      string `json:"secure_url"`
	PublicID string `json:"public_id"`
}

// ImageStore uploads an image and returns where it can be fetched from.
type ImageStore interface {
	Upload(ctx context.Context, file ImageFile) (UploadedImage, error)
}

// CheckImage rejects files that are not images or exceed MaxImageSize.
func CheckImage(file ImageFile) error {
	if !strings.HasPrefix(file.ContentType, "image/") {
		return errs.NewUnsupportedMediaTypeError(file.ContentType)
	}
	if file.Size > MaxImageSize {
		return errs.NewMaxBodySizeExceededError(MaxImageSize)
	}
	return nil
}

// SniffContentType reads the leading bytes of r to detect its type.
// It returns the detected MIME type (empty when unknown), its usual extension
// and a reader that still yields the full content.
func SniffContentType(r io.Reader) (mime string, ext string, body io.Reader, err error) {
	header := make([]byte, 261)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", "", nil, fmt.Errorf("read file header: %w", err)
	}
	header = header[:n]
	body = io.MultiReader(bytes.NewReader(header), r)

	kind, err := filetype.Match(header)
	if err != nil || kind == filetype.Unknown {
		return "", "", body, nil
	}
	return kind.MIME.Value, kind.Extension, body, nil
}

// NewImageStore builds the store selected by IMAGE_STORE ("cloudinary" or "s3").
// Missing credentials do not fail here; the store refuses each upload instead.
//
// Cloudinary reads:
//   - CLOUDINARY_CLOUD_NAME
//   - CLOUDINARY_UPLOAD_PRESET
//   - CLOUDINARY_BASE_URL: optional, defaults to https://api.cloudinary.com
//
// S3 reads:
//   - S3_BUCKET
//   - S3_PREFIX: optional key prefix, defaults to "projects/"
//   - S3_PUBLIC_BASE_URL: optional, defaults to the virtual-hosted bucket URL
func NewImageStore(ctx context.Context, c map[string]string) (ImageStore, error) {
	timeout := config.GetDuration(c, "UPLOAD_TIMEOUT", defaultUploadTimeout)

	switch store := strings.ToLower(config.GetString(c, "IMAGE_STORE", "cloudinary")); store {
	case "cloudinary":
		return NewCloudinaryStore(
			config.GetString(c, "CLOUDINARY_CLOUD_NAME", ""),
			config.GetString(c, "CLOUDINARY_UPLOAD_PRESET", ""),
			WithBaseURL(config.GetString(c, "CLOUDINARY_BASE_URL", cloudinaryBaseURL)),
			WithTimeout(timeout),
		), nil
	case "s3":
		return NewS3StoreFromConfig(ctx, c)
	default:
		return nil, errs.NewConfigError("IMAGE_STORE", fmt.Errorf("unknown image store %q", store))
	}
}
