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
)

type VoteRequest struct {
	ToUserID  uint   `json:"to_user_id" binding:"required"`
	Value     int    `json:"value" binding:"required,oneof=1 -1"`
	PromiseID string `json:"promise_id" binding:"max=128"`
}

// CreateVote records a +1/-1 vote about another user, at most once per
// (voter, target, promise).
func (h *Handler) CreateVote(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	var body VoteRequest
	if !h.bind(ctx, &body) {
		return
	}

	if body.ToUserID == principal.ID {
		h.fail(ctx, common.Validation("You cannot vote for yourself"))
		return
	}

	if _, err := h.loadUser(ctx.Request.Context(), body.ToUserID); err != nil {
		h.fail(ctx, err)
		return
	}

	vote := models.ReputationVote{
		FromUserID: principal.ID,
		ToUserID:   body.ToUserID,
		Value:      body.Value,
	}
	if promise := strings.TrimSpace(body.PromiseID); promise != "" {
		vote.PromiseID = &promise
	}

	err := h.dbc(ctx).Transaction(func(tx *gorm.DB) error {
		// NULL promise ids are distinct to the unique index.
		if vote.PromiseID == nil {
			var n int64
			err := tx.Model(&models.ReputationVote{}).
				Where("from_user_id = ? AND to_user_id = ? AND promise_id IS NULL", vote.FromUserID, vote.ToUserID).
				Count(&n).Error
			if err != nil {
				return fmt.Errorf("check existing vote: %w", err)
			}
			if n > 0 {
				return common.Conflict("You have already voted for this user")
			}
		}

		if err := tx.Create(&vote).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return common.Conflict("You have already voted for this user")
			}
			return fmt.Errorf("create vote: %w", err)
		}

		return nil
	})
	if err != nil {
		h.fail(ctx, err)
		return
	}

	verb := "upvoted"
	if vote.Value == models.VoteNegative {
		verb = "downvoted"
	}

	h.notifier.EmitBestEffort(ctx.Request.Context(), h.db, services.NotificationInput{
		RecipientID:   vote.ToUserID,
		Type:          models.NotificationReputationVote,
		Title:         "New reputation vote",
		Message:       fmt.Sprintf("%s %s you.", principalName(principal), verb),
		RelatedUserID: uintPtr(principal.ID),
		Metadata:      map[string]interface{}{"value": vote.Value},
	})

	summary, err := h.reputationOf(ctx, vote.ToUserID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	utils.RespondMessage(ctx, http.StatusCreated, "Vote recorded", summary)
}

func (h *Handler) GetReputation(ctx *gin.Context) {
	if _, ok := h.principal(ctx); !ok {
		return
	}

	userID, err := utils.GetIDParam(ctx, "userId")
	if err != nil {
		h.fail(ctx, err)
		return
	}

	if _, err := h.loadUser(ctx.Request.Context(), userID); err != nil {
		h.fail(ctx, err)
		return
	}

	summary, err := h.reputationOf(ctx, userID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	utils.RespondOK(ctx, http.StatusOK, summary)
}

func (h *Handler) reputationOf(ctx *gin.Context, userID uint) (types.ReputationResponse, error) {
	summary := types.ReputationResponse{UserID: userID}

	var rows []struct {
		Value int
		Count int64
	}

	err := h.dbc(ctx).Model(&models.ReputationVote{}).
		Select("value, COUNT(*) AS count").
		Where("to_user_id = ?", userID).
		Group("value").
		Scan(&rows).Error
	if err != nil {
		return summary, fmt.Errorf("summarize votes: %w", err)
	}

	for _, r := range rows {
		switch r.Value {
		case models.VotePositive:
			summary.Positive = r.Count
		case models.VoteNegative:
			summary.Negative = r.Count
		}
	}
	summary.Score = summary.Positive - summary.Negative

	return summary, nil
}
