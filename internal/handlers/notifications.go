package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/wishlist/internal/common"
	"github.com/monocle-dev/wishlist/internal/models"
	"github.com/monocle-dev/wishlist/internal/services"
	"github.com/monocle-dev/wishlist/internal/utils"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

type notificationPage struct {
	Items  []models.Notification `json:"items"`
	Total  int64                 `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

type TestNotificationRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (h *Handler) ListNotifications(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	limit, err := utils.GetIntQuery(ctx, "limit", defaultNotificationLimit, 1, maxNotificationLimit)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	offset, err := utils.GetIntQuery(ctx, "offset", 0, 0, 1<<30)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	q := h.dbc(ctx).Model(&models.Notification{}).Where("user_id = ?", principal.ID)
	if ctx.Query("unread") == "true" {
		q = q.Where("is_read = ?", false)
	}

	page := notificationPage{Items: []models.Notification{}, Limit: limit, Offset: offset}

	if err := q.Count(&page.Total).Error; err != nil {
		h.fail(ctx, fmt.Errorf("count notifications: %w", err))
		return
	}

	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&page.Items).Error; err != nil {
		h.fail(ctx, fmt.Errorf("load notifications: %w", err))
		return
	}

	utils.RespondOK(ctx, http.StatusOK, page)
}

func (h *Handler) UnreadCount(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	var count int64

	err := h.dbc(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", principal.ID, false).
		Count(&count).Error
	if err != nil {
		h.fail(ctx, fmt.Errorf("count unread notifications: %w", err))
		return
	}

	utils.RespondOK(ctx, http.StatusOK, gin.H{"count": count})
}

func (h *Handler) MarkNotificationRead(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	id, err := utils.GetIDParam(ctx, "notificationId")
	if err != nil {
		h.fail(ctx, err)
		return
	}

	res := h.dbc(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, principal.ID).
		Update("is_read", true)
	if res.Error != nil {
		h.fail(ctx, fmt.Errorf("mark notification read: %w", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		h.fail(ctx, common.NotFound("Notification not found"))
		return
	}

	utils.RespondMessage(ctx, http.StatusOK, "Notification marked as read", nil)
}

func (h *Handler) MarkAllNotificationsRead(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	res := h.dbc(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", principal.ID, false).
		Update("is_read", true)
	if res.Error != nil {
		h.fail(ctx, fmt.Errorf("mark all notifications read: %w", res.Error))
		return
	}

	utils.RespondOK(ctx, http.StatusOK, gin.H{"updated": res.RowsAffected})
}

func (h *Handler) DeleteNotification(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	id, err := utils.GetIDParam(ctx, "notificationId")
	if err != nil {
		h.fail(ctx, err)
		return
	}

	res := h.dbc(ctx).Where("id = ? AND user_id = ?", id, principal.ID).Delete(&models.Notification{})
	if res.Error != nil {
		h.fail(ctx, fmt.Errorf("delete notification: %w", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		h.fail(ctx, common.NotFound("Notification not found"))
		return
	}

	utils.RespondMessage(ctx, http.StatusOK, "Notification deleted", nil)
}

func (h *Handler) ClearNotifications(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	res := h.dbc(ctx).Where("user_id = ?", principal.ID).Delete(&models.Notification{})
	if res.Error != nil {
		h.fail(ctx, fmt.Errorf("clear notifications: %w", res.Error))
		return
	}

	utils.RespondOK(ctx, http.StatusOK, gin.H{"deleted": res.RowsAffected})
}

// CreateTestNotification sends the caller a notification. It is only routed
// when test endpoints are enabled.
func (h *Handler) CreateTestNotification(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	var body TestNotificationRequest
	if ctx.Request.ContentLength > 0 && !h.bind(ctx, &body) {
		return
	}

	if body.Title == "" {
		body.Title = "Test notification"
	}
	if body.Message == "" {
		body.Message = "This is a test notification."
	}

	n, err := h.notifier.Emit(ctx.Request.Context(), h.db, services.NotificationInput{
		RecipientID: principal.ID,
		Type:        models.NotificationTest,
		Title:       body.Title,
		Message:     body.Message,
	})
	if err != nil {
		h.fail(ctx, err)
		return
	}

	utils.RespondOK(ctx, http.StatusCreated, n)
}
