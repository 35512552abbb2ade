// Package storage uploads user images to S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/monocle-dev/wishlist/internal/common"
)

// DefaultMaxImageBytes bounds a single upload unless configured otherwise.
const DefaultMaxImageBytes int64 = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageStore persists an image body under key and returns its public URL.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// ValidateImage checks the declared content type and size of an upload and
// returns the file extension to store it under.
func ValidateImage(contentType string, size, maxBytes int64) (string, error) {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))

	ext, ok := imageExtensions[mediaType]
	if !ok {
		return "", common.Validation("Unsupported image type %q", mediaType)
	}

	if size <= 0 {
		return "", common.Validation("Image is empty")
	}

	if maxBytes > 0 && size > maxBytes {
		return "", common.Validation("Image exceeds %d bytes", maxBytes)
	}

	return ext, nil
}

// NewKey builds "<prefix>/<yyyy>/<mm>/<uuid><ext>".
func NewKey(prefix string, now time.Time, ext string) string {
	return fmt.Sprintf("%s/%04d/%02d/%s%s", strings.Trim(prefix, "/"), now.Year(), int(now.Month()), uuid.New(), ext)
}
