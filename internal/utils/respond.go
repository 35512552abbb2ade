package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/wishlist/internal/common"
	"github.com/monocle-dev/wishlist/internal/logging"
	"github.com/monocle-dev/wishlist/internal/types"
)

const internalErrorMessage = "Internal server error"

func RespondOK(ctx *gin.Context, status int, data interface{}) {
	ctx.JSON(status, types.Response{Success: true, Data: data})
}

func RespondMessage(ctx *gin.Context, status int, message string, data interface{}) {
	ctx.JSON(status, types.Response{Success: true, Data: data, Message: message})
}

func RespondFail(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, types.Response{Success: false, Message: message})
}

// RespondError writes the envelope for err. Errors without a known kind are
// logged and reported as a generic 500.
func RespondError(ctx *gin.Context, logger logging.Logger, err error) {
	status := StatusFor(err)

	if status == http.StatusInternalServerError {
		logger.Error(ctx.Request.Context(), "request failed",
			"method", ctx.Request.Method,
			"path", ctx.FullPath(),
			"error", err,
		)
		RespondFail(ctx, status, internalErrorMessage)
		return
	}

	RespondFail(ctx, status, common.PublicMessage(err, http.StatusText(status)))
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
