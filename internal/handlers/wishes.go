package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/wishlist/internal/common"
	"github.com/monocle-dev/wishlist/internal/models"
	"github.com/monocle-dev/wishlist/internal/services"
	"github.com/monocle-dev/wishlist/internal/types"
	"github.com/monocle-dev/wishlist/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateWishRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
	ImageURL    string `json:"image_url" binding:"omitempty,url"`
	Link        string `json:"link" binding:"omitempty,url"`
}

type UpdateWishRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	ImageURL    *string `json:"image_url" binding:"omitempty,url"`
	Link        *string `json:"link" binding:"omitempty,url"`
}

type ReorderWishesRequest struct {
	WishIDs []uint `json:"wish_ids" binding:"required,min=1"`
}

func (h *Handler) ListWishes(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	wishes, err := h.ownWishes(h.dbc(ctx), principal.ID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	utils.RespondOK(ctx, http.StatusOK, toWishResponses(wishes, principal.ID))
}

func (h *Handler) CreateWish(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	var body CreateWishRequest
	if !h.bind(ctx, &body) {
		return
	}

	title := strings.TrimSpace(body.Title)
	if title == "" {
		h.fail(ctx, common.Validation("Title is required"))
		return
	}

	wish := models.Wish{
		UserID:      principal.ID,
		Title:       title,
		Description: strings.TrimSpace(body.Description),
		ImageURL:    body.ImageURL,
		Link:        body.Link,
	}

	err := h.dbc(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Wish{}).Where("user_id = ?", principal.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("count wishes: %w", err)
		}

		if count >= models.MaxWishesPerUser {
			return common.Validation("You can have at most %d wishes", models.MaxWishesPerUser)
		}

		wish.Position = int(count) + 1

		if err := tx.Create(&wish).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return common.Conflict("Wish list changed concurrently, please retry")
			}
			return fmt.Errorf("create wish: %w", err)
		}

		return nil
	})
	if err != nil {
		h.fail(ctx, err)
		return
	}

	utils.RespondOK(ctx, http.StatusCreated, toWishResponse(wish, principal.ID))
}

// ReservedWishes lists the wishes the caller has reserved for others.
func (h *Handler) ReservedWishes(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	var wishes []models.Wish

	err := h.dbc(ctx).Preload("User").
		Where("reserved_by = ? AND is_reserved = ?", principal.ID, true).
		Order("reserved_at DESC").
		Find(&wishes).Error
	if err != nil {
		h.fail(ctx, fmt.Errorf("load reserved wishes: %w", err))
		return
	}

	results := make([]types.ReservedWishResponse, 0, len(wishes))
	for _, w := range wishes {
		results = append(results, types.ReservedWishResponse{
			WishResponse: toWishResponse(w, principal.ID),
			Owner:        summarize(w.User),
			ReservedAt:   w.ReservedAt,
		})
	}

	utils.RespondOK(ctx, http.StatusOK, results)
}

// ReorderWishes assigns positions 1..n in the order given. The list must
// name every wish of the caller exactly once.
func (h *Handler) ReorderWishes(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	var body ReorderWishesRequest
	if !h.bind(ctx, &body) {
		return
	}

	var wishes []models.Wish

	err := h.dbc(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := h.ownWishes(tx, principal.ID)
		if err != nil {
			return err
		}

		if err := checkPermutation(current, body.WishIDs); err != nil {
			return err
		}

		// Park every row on a negative position first so the unique
		// (user_id, position) index never sees two rows on the same slot.
		for i, id := range body.WishIDs {
			if err := tx.Model(&models.Wish{}).Where("id = ?", id).Update("position", -(i + 1)).Error; err != nil {
				return fmt.Errorf("park wish %d: %w", id, err)
			}
		}

		err = tx.Model(&models.Wish{}).
			Where("user_id = ? AND position < 0", principal.ID).
			Update("position", gorm.Expr("-position")).Error
		if err != nil {
			return fmt.Errorf("apply positions: %w", err)
		}

		wishes, err = h.ownWishes(tx, principal.ID)
		return err
	})
	if err != nil {
		h.fail(ctx, err)
		return
	}

	utils.RespondOK(ctx, http.StatusOK, toWishResponses(wishes, principal.ID))
}

func checkPermutation(current []models.Wish, ids []uint) error {
	if len(ids) != len(current) {
		return common.Validation("wish_ids must list all of your wishes")
	}

	owned := make(map[uint]bool, len(current))
	for _, w := range current {
		owned[w.ID] = true
	}

	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !owned[id] || seen[id] {
			return common.Validation("wish_ids must list all of your wishes exactly once")
		}
		seen[id] = true
	}

	return nil
}

func (h *Handler) GetWish(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	wish, err := h.wishFromParam(ctx)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	if wish.UserID != principal.ID {
		a, err := h.accessTo(ctx.Request.Context(), principal.ID, wish.UserID)
		if err != nil {
			h.fail(ctx, err)
			return
		}

		if a.blocked {
			h.fail(ctx, common.NotFound("Wish not found"))
			return
		}

		if err := a.requireView(); err != nil {
			h.fail(ctx, err)
			return
		}

		if limit := a.wishLimit(); limit > 0 && wish.Position > limit {
			h.fail(ctx, common.Forbidden("This wish is not visible to you"))
			return
		}
	}

	utils.RespondOK(ctx, http.StatusOK, toWishResponse(wish, principal.ID))
}

func (h *Handler) UpdateWish(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	var body UpdateWishRequest
	if !h.bind(ctx, &body) {
		return
	}

	wish, err := h.ownedWishFromParam(ctx, principal.ID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	updates := make(map[string]interface{})

	if body.Title != nil {
		title := strings.TrimSpace(*body.Title)
		if title == "" {
			h.fail(ctx, common.Validation("Title cannot be empty"))
			return
		}
		updates["title"] = title
	}

	if body.Description != nil {
		updates["description"] = strings.TrimSpace(*body.Description)
	}

	if body.ImageURL != nil {
		updates["image_url"] = *body.ImageURL
	}

	if body.Link != nil {
		updates["link"] = *body.Link
	}

	if len(updates) == 0 {
		h.fail(ctx, common.Validation("No valid fields to update"))
		return
	}

	if err := h.dbc(ctx).Model(&wish).Updates(updates).Error; err != nil {
		h.fail(ctx, fmt.Errorf("update wish: %w", err))
		return
	}

	if err := h.dbc(ctx).First(&wish, wish.ID).Error; err != nil {
		h.fail(ctx, fmt.Errorf("reload wish: %w", err))
		return
	}

	utils.RespondOK(ctx, http.StatusOK, toWishResponse(wish, principal.ID))
}

// DeleteWish removes the wish, closes the gap in positions and tells the
// reserver, if any, that the reservation is gone.
func (h *Handler) DeleteWish(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	wish, err := h.ownedWishFromParam(ctx, principal.ID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	// The notification follows the row as it was deleted, not the lookup above.
	err = h.dbc(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Wish
		err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
			Where("id = ? AND user_id = ?", wish.ID, principal.ID).
			First(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.NotFound("Wish not found")
		}
		if err != nil {
			return fmt.Errorf("load wish: %w", err)
		}
		wish = current

		res := tx.Delete(&models.Wish{}, wish.ID)
		if res.Error != nil {
			return fmt.Errorf("delete wish: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return common.NotFound("Wish not found")
		}

		return compactPositions(tx, principal.ID, wish.Position)
	})
	if err != nil {
		h.fail(ctx, err)
		return
	}

	if wish.IsReserved && wish.ReservedBy != nil {
		h.notifier.EmitBestEffort(ctx.Request.Context(), h.db, services.NotificationInput{
			RecipientID:   *wish.ReservedBy,
			Type:          models.NotificationWishCancelled,
			Title:         "Reservation cancelled",
			Message:       fmt.Sprintf("%q was removed from the wish list, so your reservation was cancelled.", wish.Title),
			RelatedUserID: uintPtr(principal.ID),
			Metadata: map[string]interface{}{
				"reason":     services.ReasonWishDeleted,
				"wish_title": wish.Title,
			},
		})
	}

	utils.RespondMessage(ctx, http.StatusOK, "Wish deleted successfully", nil)
}

// compactPositions shifts the wishes after removed up by one. Rows pass
// through negative positions to keep the unique index satisfied.
func compactPositions(tx *gorm.DB, userID uint, removed int) error {
	err := tx.Model(&models.Wish{}).
		Where("user_id = ? AND position > ?", userID, removed).
		Update("position", gorm.Expr("1 - position")).Error
	if err != nil {
		return fmt.Errorf("shift positions: %w", err)
	}

	err = tx.Model(&models.Wish{}).
		Where("user_id = ? AND position < 0", userID).
		Update("position", gorm.Expr("-position")).Error
	if err != nil {
		return fmt.Errorf("restore positions: %w", err)
	}

	return nil
}

func (h *Handler) UploadWishImage(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	wish, err := h.ownedWishFromParam(ctx, principal.ID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	url, ok := h.uploadImage(ctx, fmt.Sprintf("wishes/%d", principal.ID))
	if !ok {
		return
	}

	if err := h.dbc(ctx).Model(&wish).Update("image_url", url).Error; err != nil {
		h.fail(ctx, fmt.Errorf("save wish image: %w", err))
		return
	}

	wish.ImageURL = url

	utils.RespondOK(ctx, http.StatusOK, toWishResponse(wish, principal.ID))
}

// ReserveWish claims another user's wish for the caller. Only an accepted
// contact of the owner may reserve, and an existing reservation is never
// overwritten.
func (h *Handler) ReserveWish(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	wish, err := h.wishFromParam(ctx)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	if wish.UserID == principal.ID {
		h.fail(ctx, common.Validation("You cannot reserve your own wish"))
		return
	}

	contact, err := h.isAcceptedContact(ctx.Request.Context(), wish.UserID, principal.ID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	if !contact {
		h.fail(ctx, common.Forbidden("Only contacts can reserve this wish"))
		return
	}

	now := h.now()

	res := h.dbc(ctx).Model(&models.Wish{}).
		Where("id = ? AND is_reserved = ?", wish.ID, false).
		Updates(map[string]interface{}{
			"is_reserved": true,
			"reserved_by": principal.ID,
			"reserved_at": now,
		})
	if res.Error != nil {
		h.fail(ctx, fmt.Errorf("reserve wish: %w", res.Error))
		return
	}

	if res.RowsAffected == 0 {
		h.fail(ctx, common.Conflict("Wish is already reserved"))
		return
	}

	h.notifier.EmitBestEffort(ctx.Request.Context(), h.db, services.NotificationInput{
		RecipientID:   wish.UserID,
		Type:          models.NotificationWishReserved,
		Title:         "Wish reserved",
		Message:       fmt.Sprintf("Someone reserved %q from your wish list.", wish.Title),
		RelatedWishID: uintPtr(wish.ID),
	})

	wish.IsReserved = true
	wish.ReservedBy = uintPtr(principal.ID)
	wish.ReservedAt = &now

	utils.RespondMessage(ctx, http.StatusOK, "Wish reserved successfully", toWishResponse(wish, principal.ID))
}

// CancelReservation releases the caller's reservation of a wish.
func (h *Handler) CancelReservation(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	wish, err := h.wishFromParam(ctx)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	res := h.dbc(ctx).Model(&models.Wish{}).
		Where("id = ? AND is_reserved = ? AND reserved_by = ?", wish.ID, true, principal.ID).
		Updates(map[string]interface{}{
			"is_reserved": false,
			"reserved_by": nil,
			"reserved_at": nil,
		})
	if res.Error != nil {
		h.fail(ctx, fmt.Errorf("cancel reservation: %w", res.Error))
		return
	}

	if res.RowsAffected == 0 {
		h.fail(ctx, common.Forbidden("You have not reserved this wish"))
		return
	}

	h.notifier.EmitBestEffort(ctx.Request.Context(), h.db, services.NotificationInput{
		RecipientID:   wish.UserID,
		Type:          models.NotificationWishCancelled,
		Title:         "Reservation cancelled",
		Message:       fmt.Sprintf("A reservation of %q was cancelled.", wish.Title),
		RelatedWishID: uintPtr(wish.ID),
		Metadata: map[string]interface{}{
			"reason": services.ReasonHolderCancel,
		},
	})

	wish.IsReserved = false
	wish.ReservedBy = nil
	wish.ReservedAt = nil

	utils.RespondMessage(ctx, http.StatusOK, "Reservation cancelled", toWishResponse(wish, principal.ID))
}

func (h *Handler) ownWishes(tx *gorm.DB, userID uint) ([]models.Wish, error) {
	var wishes []models.Wish

	if err := tx.Where("user_id = ?", userID).Order("position").Find(&wishes).Error; err != nil {
		return nil, fmt.Errorf("load wishes: %w", err)
	}

	return wishes, nil
}

func (h *Handler) wishFromParam(ctx *gin.Context) (models.Wish, error) {
	var wish models.Wish

	id, err := utils.GetIDParam(ctx, "wishId")
	if err != nil {
		return wish, err
	}

	err = h.dbc(ctx).First(&wish, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return wish, common.NotFound("Wish not found")
	}
	if err != nil {
		return wish, fmt.Errorf("load wish %d: %w", id, err)
	}

	return wish, nil
}

// ownedWishFromParam treats wishes of other users as absent.
func (h *Handler) ownedWishFromParam(ctx *gin.Context, userID uint) (models.Wish, error) {
	wish, err := h.wishFromParam(ctx)
	if err != nil {
		return wish, err
	}

	if wish.UserID != userID {
		return models.Wish{}, common.NotFound("Wish not found")
	}

	return wish, nil
}

func toWishResponse(w models.Wish, viewerID uint) types.WishResponse {
	resp := types.WishResponse{
		ID:          w.ID,
		UserID:      w.UserID,
		Title:       w.Title,
		Description: w.Description,
		ImageURL:    w.ImageURL,
		Link:        w.Link,
		Position:    w.Position,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}

	if w.UserID != viewerID {
		reserved := w.IsReserved
		mine := w.IsReserved && w.ReservedBy != nil && *w.ReservedBy == viewerID
		resp.IsReserved = &reserved
		resp.ReservedByMe = &mine
	}

	return resp
}

func toWishResponses(wishes []models.Wish, viewerID uint) []types.WishResponse {
	out := make([]types.WishResponse, 0, len(wishes))
	for _, w := range wishes {
		out = append(out, toWishResponse(w, viewerID))
	}
	return out
}
