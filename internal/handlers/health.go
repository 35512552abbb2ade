package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/wishlist/internal/types"
	"github.com/monocle-dev/wishlist/internal/utils"
)

func (h *Handler) HealthCheck(ctx *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx.Request.Context())
	}

	if err != nil {
		h.logger.Error(ctx.Request.Context(), "health check failed", "error", err)
		ctx.JSON(http.StatusServiceUnavailable, types.Response{Success: false, Message: "Database unavailable"})
		return
	}

	body := gin.H{
		"status":    "ok",
		"timestamp": h.now().Format(time.RFC3339),
	}

	if h.jobs != nil {
		body["scheduler"] = h.jobs.Status()
	}

	utils.RespondOK(ctx, http.StatusOK, body)
}
