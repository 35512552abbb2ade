package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/wishlist/internal/common"
	"github.com/monocle-dev/wishlist/internal/models"
	"github.com/monocle-dev/wishlist/internal/utils"
)

type PrivacyResponse struct {
	ShowAge           bool `json:"show_age"`
	ShowEmail         bool `json:"show_email"`
	ShowFullWishList  bool `json:"show_full_wish_list"`
	ShowContacts      bool `json:"show_contacts"`
	ShowLocation      bool `json:"show_location"`
	ShowPostalAddress bool `json:"show_postal_address"`
	IsPublicProfile   bool `json:"is_public_profile"`
}

// UpdatePrivacyRequest changes only the toggles that are present.
type UpdatePrivacyRequest struct {
	ShowAge           *bool `json:"show_age"`
	ShowEmail         *bool `json:"show_email"`
	ShowFullWishList  *bool `json:"show_full_wish_list"`
	ShowContacts      *bool `json:"show_contacts"`
	ShowLocation      *bool `json:"show_location"`
	ShowPostalAddress *bool `json:"show_postal_address"`
	IsPublicProfile   *bool `json:"is_public_profile"`
}

func (r UpdatePrivacyRequest) updates() map[string]interface{} {
	updates := make(map[string]interface{})

	set := func(column string, v *bool) {
		if v != nil {
			updates[column] = *v
		}
	}

	set("show_age", r.ShowAge)
	set("show_email", r.ShowEmail)
	set("show_full_wish_list", r.ShowFullWishList)
	set("show_contacts", r.ShowContacts)
	set("show_location", r.ShowLocation)
	set("show_postal_address", r.ShowPostalAddress)
	set("is_public_profile", r.IsPublicProfile)

	return updates
}

func (h *Handler) GetPrivacy(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	settings, err := h.privacyFor(ctx.Request.Context(), principal.ID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	utils.RespondOK(ctx, http.StatusOK, toPrivacyResponse(settings))
}

func (h *Handler) UpdatePrivacy(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	var body UpdatePrivacyRequest
	if !h.bind(ctx, &body) {
		return
	}

	updates := body.updates()
	if len(updates) == 0 {
		h.fail(ctx, common.Validation("No valid fields to update"))
		return
	}

	settings, err := h.privacyFor(ctx.Request.Context(), principal.ID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	if err := h.dbc(ctx).Model(&settings).Updates(updates).Error; err != nil {
		h.fail(ctx, fmt.Errorf("update privacy settings: %w", err))
		return
	}

	if err := h.dbc(ctx).First(&settings, settings.ID).Error; err != nil {
		h.fail(ctx, fmt.Errorf("reload privacy settings: %w", err))
		return
	}

	utils.RespondMessage(ctx, http.StatusOK, "Privacy settings updated", toPrivacyResponse(settings))
}

func toPrivacyResponse(s models.PrivacySettings) PrivacyResponse {
	return PrivacyResponse{
		ShowAge:           s.ShowAge,
		ShowEmail:         s.ShowEmail,
		ShowFullWishList:  s.ShowFullWishList,
		ShowContacts:      s.ShowContacts,
		ShowLocation:      s.ShowLocation,
		ShowPostalAddress: s.ShowPostalAddress,
		IsPublicProfile:   s.IsPublicProfile,
	}
}
