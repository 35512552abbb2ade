package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/wishlist/internal/common"
	"github.com/monocle-dev/wishlist/internal/models"
	"github.com/monocle-dev/wishlist/internal/services"
	"github.com/monocle-dev/wishlist/internal/types"
	"github.com/monocle-dev/wishlist/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContactRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

func (h *Handler) ListContacts(ctx *gin.Context) {
	h.respondContacts(ctx, "owner_id = ? AND status = ?", models.ContactStatusAccepted)
}

// IncomingRequests lists pending requests addressed to the caller.
func (h *Handler) IncomingRequests(ctx *gin.Context) {
	h.respondContacts(ctx, "target_id = ? AND status = ?", models.ContactStatusPending)
}

// SentRequests lists the caller's own pending requests.
func (h *Handler) SentRequests(ctx *gin.Context) {
	h.respondContacts(ctx, "owner_id = ? AND status = ?", models.ContactStatusPending)
}

func (h *Handler) respondContacts(ctx *gin.Context, query string, status models.ContactStatus) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	contacts, err := h.listContacts(ctx, query, principal.ID, status)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	utils.RespondOK(ctx, http.StatusOK, toContactResponses(contacts, principal.ID))
}

// CreateContact sends a contact request. A pending request in the other
// direction is accepted instead, making both users contacts at once.
func (h *Handler) CreateContact(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	var body ContactRequest
	if !h.bind(ctx, &body) {
		return
	}

	if body.UserID == principal.ID {
		h.fail(ctx, common.Validation("You cannot add yourself as a contact"))
		return
	}

	target, err := h.loadUser(ctx.Request.Context(), body.UserID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	var (
		contact      models.Contact
		autoAccepted bool
	)

	err = h.dbc(ctx).Transaction(func(tx *gorm.DB) error {
		var inbound models.Contact
		err := tx.Where("owner_id = ? AND target_id = ?", target.ID, principal.ID).First(&inbound).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load inbound contact: %w", err)
		}

		if inbound.Status == models.ContactStatusBlocked {
			return common.Forbidden("You cannot send a request to this user")
		}

		var outbound models.Contact
		err = tx.Where("owner_id = ? AND target_id = ?", principal.ID, target.ID).First(&outbound).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load outbound contact: %w", err)
		}

		switch outbound.Status {
		case models.ContactStatusAccepted:
			return common.Conflict("User is already in your contacts")
		case models.ContactStatusPending:
			return common.Conflict("Contact request already sent")
		case models.ContactStatusRejected:
			return common.Conflict("Contact request already exists")
		}

		status := models.ContactStatusPending
		if inbound.Status == models.ContactStatusPending {
			status = models.ContactStatusAccepted
			autoAccepted = true

			if err := tx.Model(&inbound).Update("status", models.ContactStatusAccepted).Error; err != nil {
				return fmt.Errorf("accept inbound request: %w", err)
			}
		}

		contact = models.Contact{OwnerID: principal.ID, TargetID: target.ID, Status: status}

		// A blocked outbound row is replaced: sending a request lifts the block.
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}).Create(&contact).Error
		if err != nil {
			return fmt.Errorf("create contact: %w", err)
		}

		return tx.Where("owner_id = ? AND target_id = ?", principal.ID, target.ID).First(&contact).Error
	})
	if err != nil {
		h.fail(ctx, err)
		return
	}

	contact.Target = target

	if autoAccepted {
		h.notifier.EmitBestEffort(ctx.Request.Context(), h.db, services.NotificationInput{
			RecipientID:   target.ID,
			Type:          models.NotificationContactAccepted,
			Title:         "Contact request accepted",
			Message:       fmt.Sprintf("%s accepted your contact request.", principalName(principal)),
			RelatedUserID: uintPtr(principal.ID),
		})

		utils.RespondMessage(ctx, http.StatusOK, "Contact request accepted", toContactResponse(contact, principal.ID))
		return
	}

	h.notifier.EmitBestEffort(ctx.Request.Context(), h.db, services.NotificationInput{
		RecipientID:   target.ID,
		Type:          models.NotificationContactRequest,
		Title:         "New contact request",
		Message:       fmt.Sprintf("%s wants to add you as a contact.", principalName(principal)),
		RelatedUserID: uintPtr(principal.ID),
	})

	utils.RespondMessage(ctx, http.StatusCreated, "Contact request sent", toContactResponse(contact, principal.ID))
}

// AcceptContact accepts an incoming request and creates the reciprocal row.
func (h *Handler) AcceptContact(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	request, err := h.incomingRequest(ctx, principal.ID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	err = h.dbc(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Contact{}).
			Where("id = ? AND status = ?", request.ID, models.ContactStatusPending).
			Update("status", models.ContactStatusAccepted)
		if res.Error != nil {
			return fmt.Errorf("accept request: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return common.NotFound("Contact request not found")
		}

		reciprocal := models.Contact{OwnerID: principal.ID, TargetID: request.OwnerID, Status: models.ContactStatusAccepted}

		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "target_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}).Create(&reciprocal).Error
		if err != nil {
			return fmt.Errorf("create reciprocal contact: %w", err)
		}

		return nil
	})
	if err != nil {
		h.fail(ctx, err)
		return
	}

	h.notifier.EmitBestEffort(ctx.Request.Context(), h.db, services.NotificationInput{
		RecipientID:   request.OwnerID,
		Type:          models.NotificationContactAccepted,
		Title:         "Contact request accepted",
		Message:       fmt.Sprintf("%s accepted your contact request.", principalName(principal)),
		RelatedUserID: uintPtr(principal.ID),
	})

	request.Status = models.ContactStatusAccepted

	utils.RespondMessage(ctx, http.StatusOK, "Contact request accepted", toContactResponse(request, principal.ID))
}

func (h *Handler) RejectContact(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	request, err := h.incomingRequest(ctx, principal.ID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	res := h.dbc(ctx).Model(&models.Contact{}).
		Where("id = ? AND status = ?", request.ID, models.ContactStatusPending).
		Update("status", models.ContactStatusRejected)
	if res.Error != nil {
		h.fail(ctx, fmt.Errorf("reject request: %w", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		h.fail(ctx, common.NotFound("Contact request not found"))
		return
	}

	h.notifier.EmitBestEffort(ctx.Request.Context(), h.db, services.NotificationInput{
		RecipientID:   request.OwnerID,
		Type:          models.NotificationContactRejected,
		Title:         "Contact request declined",
		Message:       fmt.Sprintf("%s declined your contact request.", principalName(principal)),
		RelatedUserID: uintPtr(principal.ID),
	})

	request.Status = models.ContactStatusRejected

	utils.RespondMessage(ctx, http.StatusOK, "Contact request rejected", toContactResponse(request, principal.ID))
}

func (h *Handler) BlockUser(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	var body ContactRequest
	if !h.bind(ctx, &body) {
		return
	}

	if err := h.lifecycle.BlockUser(ctx.Request.Context(), principal.ID, body.UserID); err != nil {
		h.fail(ctx, err)
		return
	}

	utils.RespondMessage(ctx, http.StatusOK, "User blocked", nil)
}

// DeleteContact ends a contact relationship from either side, cancelling
// reservations between the two users.
func (h *Handler) DeleteContact(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	contactID, err := utils.GetIDParam(ctx, "contactId")
	if err != nil {
		h.fail(ctx, err)
		return
	}

	if err := h.lifecycle.DeleteContact(ctx.Request.Context(), principal.ID, contactID); err != nil {
		h.fail(ctx, err)
		return
	}

	utils.RespondMessage(ctx, http.StatusOK, "Contact deleted successfully", nil)
}

// incomingRequest loads the pending request named by the path that is
// addressed to userID.
func (h *Handler) incomingRequest(ctx *gin.Context, userID uint) (models.Contact, error) {
	var contact models.Contact

	id, err := utils.GetIDParam(ctx, "contactId")
	if err != nil {
		return contact, err
	}

	err = h.dbc(ctx).Preload("Owner").
		Where("id = ? AND target_id = ? AND status = ?", id, userID, models.ContactStatusPending).
		First(&contact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return contact, common.NotFound("Contact request not found")
	}
	if err != nil {
		return contact, fmt.Errorf("load contact request %d: %w", id, err)
	}

	return contact, nil
}

func (h *Handler) listContacts(ctx *gin.Context, query string, args ...interface{}) ([]models.Contact, error) {
	var contacts []models.Contact

	err := h.dbc(ctx).Preload("Owner").Preload("Target").
		Where(query, args...).
		Order("updated_at DESC").
		Find(&contacts).Error
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}

	return contacts, nil
}

// toContactResponse presents the row from the side of viewerID: User is the
// other party.
func toContactResponse(c models.Contact, viewerID uint) types.ContactResponse {
	peer := c.Target
	if c.OwnerID != viewerID {
		peer = c.Owner
	}

	return types.ContactResponse{
		ID:        c.ID,
		Status:    string(c.Status),
		User:      summarize(peer),
		CreatedAt: c.CreatedAt,
	}
}

func toContactResponses(contacts []models.Contact, viewerID uint) []types.ContactResponse {
	out := make([]types.ContactResponse, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, toContactResponse(c, viewerID))
	}
	return out
}

func principalName(p types.Principal) string {
	return models.User{Nickname: p.Nickname, RealName: p.RealName}.DisplayName()
}
