package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/wishlist/internal/common"
	"github.com/monocle-dev/wishlist/internal/storage"
)

const imageFormField = "image"

// uploadImage stores the multipart "image" file under prefix and returns its
// URL. The upload is not rolled back if a later database write fails.
func (h *Handler) uploadImage(ctx *gin.Context, prefix string) (string, bool) {
	if h.images == nil {
		h.fail(ctx, common.Validation("Image uploads are not configured"))
		return "", false
	}

	file, err := ctx.FormFile(imageFormField)
	if err != nil {
		h.fail(ctx, common.Validation("An image file is required"))
		return "", false
	}

	contentType := file.Header.Get("Content-Type")

	ext, err := storage.ValidateImage(contentType, file.Size, h.cfg.MaxUploadBytes)
	if err != nil {
		h.fail(ctx, err)
		return "", false
	}

	body, err := file.Open()
	if err != nil {
		h.fail(ctx, fmt.Errorf("open upload: %w", err))
		return "", false
	}
	defer body.Close()

	key := storage.NewKey(prefix, h.now(), ext)

	url, err := h.images.Put(ctx.Request.Context(), key, contentType, body, file.Size)
	if err != nil {
		h.fail(ctx, fmt.Errorf("upload image: %w", err))
		return "", false
	}

	h.logger.Info(ctx.Request.Context(), "image uploaded", "key", key, "size", file.Size)

	return url, true
}
