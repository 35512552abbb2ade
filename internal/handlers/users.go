package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/wishlist/internal/birthday"
	"github.com/monocle-dev/wishlist/internal/common"
	"github.com/monocle-dev/wishlist/internal/models"
	"github.com/monocle-dev/wishlist/internal/types"
	"github.com/monocle-dev/wishlist/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const searchLimit = 20

type UpdateUserRequest struct {
	Email           *string `json:"email" binding:"omitempty,email"`
	Nickname        *string `json:"nickname" binding:"omitempty,min=3,max=30,alphanum"`
	RealName        *string `json:"real_name" binding:"omitempty,min=1,max=100"`
	BirthDate       *string `json:"birth_date"`
	City            *string `json:"city" binding:"omitempty,max=100"`
	Country         *string `json:"country" binding:"omitempty,max=100"`
	PostalAddress   *string `json:"postal_address" binding:"omitempty,max=500"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     string  `json:"new_password" binding:"omitempty,min=8"`
}

type DeleteUserRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) SearchUsers(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	q := strings.ToLower(strings.TrimSpace(ctx.Query("q")))
	if len(q) < 2 {
		h.fail(ctx, common.Validation("Search query must be at least 2 characters"))
		return
	}

	pattern := "%" + q + "%"

	var users []models.User

	err := h.dbc(ctx).
		Where("LOWER(nickname) LIKE ? OR LOWER(real_name) LIKE ?", pattern, pattern).
		Where("id <> ?", principal.ID).
		Where("id NOT IN (?)", h.db.Model(&models.Contact{}).
			Select("owner_id").
			Where("target_id = ? AND status = ?", principal.ID, models.ContactStatusBlocked)).
		Order("nickname").
		Limit(searchLimit).
		Find(&users).Error
	if err != nil {
		h.fail(ctx, fmt.Errorf("search users: %w", err))
		return
	}

	results := make([]types.UserSummary, 0, len(users))
	for _, u := range users {
		results = append(results, summarize(u))
	}

	utils.RespondOK(ctx, http.StatusOK, results)
}

func (h *Handler) GetUserProfile(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	userID, err := utils.GetIDParam(ctx, "userId")
	if err != nil {
		h.fail(ctx, err)
		return
	}

	user, err := h.loadUser(ctx.Request.Context(), userID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	a, err := h.accessTo(ctx.Request.Context(), principal.ID, userID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	if a.blocked {
		h.fail(ctx, common.NotFound("User not found"))
		return
	}

	utils.RespondOK(ctx, http.StatusOK, h.buildProfile(user, a))
}

func (h *Handler) buildProfile(u models.User, a access) types.ProfileResponse {
	profile := types.ProfileResponse{
		ID:           u.ID,
		Nickname:     u.Nickname,
		RealName:     u.RealName,
		ProfileImage: u.ProfileImage,
		IsContact:    a.contact,
		IsPublic:     a.privacy.IsPublicProfile,
		CanView:      a.canView(),
	}

	if !profile.CanView {
		return profile
	}

	if a.self || a.privacy.ShowEmail {
		profile.Email = &u.Email
	}

	if a.self || a.privacy.ShowAge {
		age := birthday.Age(u.BirthDate, h.now())
		profile.Age = &age
	}

	if a.self || a.privacy.ShowLocation {
		profile.City = &u.City
		profile.Country = &u.Country
	}

	if a.self || a.privacy.ShowPostalAddress {
		profile.PostalAddress = &u.PostalAddress
	}

	return profile
}

func (h *Handler) UpdateUser(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	var body UpdateUserRequest
	if !h.bind(ctx, &body) {
		return
	}

	user, err := h.loadUser(ctx.Request.Context(), principal.ID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	updates := make(map[string]interface{})

	email, nickname := user.Email, user.Nickname

	if body.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*body.Email))
		updates["email"] = email
	}

	if body.Nickname != nil {
		nickname = strings.TrimSpace(*body.Nickname)
		updates["nickname"] = nickname
	}

	if body.RealName != nil {
		updates["real_name"] = strings.TrimSpace(*body.RealName)
	}

	if body.BirthDate != nil {
		d, err := parseBirthDate(*body.BirthDate, h.now())
		if err != nil {
			h.fail(ctx, err)
			return
		}
		updates["birth_date"] = d
	}

	if body.City != nil {
		updates["city"] = strings.TrimSpace(*body.City)
	}

	if body.Country != nil {
		updates["country"] = strings.TrimSpace(*body.Country)
	}

	if body.PostalAddress != nil {
		updates["postal_address"] = strings.TrimSpace(*body.PostalAddress)
	}

	if body.NewPassword != "" {
		if body.CurrentPassword == "" {
			h.fail(ctx, common.Validation("Current password is required to change password"))
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.CurrentPassword)) != nil {
			h.fail(ctx, common.Validation("Current password is incorrect"))
			return
		}

		passwordHash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			h.fail(ctx, fmt.Errorf("hash new password: %w", err))
			return
		}

		updates["password_hash"] = string(passwordHash)
	}

	if len(updates) == 0 {
		h.fail(ctx, common.Validation("No valid fields to update"))
		return
	}

	err = h.dbc(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUnique(tx, email, nickname, user.ID); err != nil {
			return err
		}

		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return common.Conflict("Email or nickname already exists")
			}
			return fmt.Errorf("update user: %w", err)
		}

		return tx.First(&user, user.ID).Error
	})
	if err != nil {
		h.fail(ctx, err)
		return
	}

	utils.RespondMessage(ctx, http.StatusOK, "User updated successfully", gin.H{"user": toUserResponse(user)})
}

// DeleteUser removes the caller's account and everything it owns after the
// password is confirmed.
func (h *Handler) DeleteUser(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	var body DeleteUserRequest
	if !h.bind(ctx, &body) {
		return
	}

	user, err := h.loadUser(ctx.Request.Context(), principal.ID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)) != nil {
		h.fail(ctx, common.Validation("Incorrect password"))
		return
	}

	if err := h.lifecycle.HandleAccountDeletion(ctx.Request.Context(), user.ID); err != nil {
		h.fail(ctx, err)
		return
	}

	h.setTokenCookie(ctx, "", -1)

	utils.RespondMessage(ctx, http.StatusOK, "Account deleted successfully", nil)
}

func (h *Handler) UploadAvatar(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	url, ok := h.uploadImage(ctx, fmt.Sprintf("avatars/%d", principal.ID))
	if !ok {
		return
	}

	err := h.dbc(ctx).Model(&models.User{}).
		Where("id = ?", principal.ID).
		Update("profile_image", url).Error
	if err != nil {
		h.fail(ctx, fmt.Errorf("save profile image: %w", err))
		return
	}

	utils.RespondOK(ctx, http.StatusOK, gin.H{"profile_image": url})
}

// UpcomingBirthdays lists the caller's contacts whose birthday falls within
// the requested number of days, soonest first.
func (h *Handler) UpcomingBirthdays(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	days, err := utils.GetIntQuery(ctx, "days", 30, 0, 366)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	var contacts []models.Contact

	err = h.dbc(ctx).Preload("Target").
		Where("owner_id = ? AND status = ?", principal.ID, models.ContactStatusAccepted).
		Find(&contacts).Error
	if err != nil {
		h.fail(ctx, fmt.Errorf("load contacts: %w", err))
		return
	}

	now := h.now()
	results := make([]types.BirthdayResponse, 0)

	for _, c := range contacts {
		until := birthday.DaysUntil(c.Target.BirthDate, now)
		if until > days {
			continue
		}

		next := birthday.Next(c.Target.BirthDate, now)

		entry := types.BirthdayResponse{
			User:      summarize(c.Target),
			Date:      next.Format(dateLayout),
			DaysUntil: until,
		}

		privacy, err := h.privacyFor(ctx.Request.Context(), c.TargetID)
		if err != nil {
			h.fail(ctx, err)
			return
		}

		if privacy.ShowAge {
			turns := birthday.Age(c.Target.BirthDate, next)
			entry.TurnsAge = &turns
		}

		results = append(results, entry)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].DaysUntil != results[j].DaysUntil {
			return results[i].DaysUntil < results[j].DaysUntil
		}
		return results[i].User.Nickname < results[j].User.Nickname
	})

	utils.RespondOK(ctx, http.StatusOK, results)
}

func (h *Handler) GetUserWishes(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
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

	a, err := h.accessTo(ctx.Request.Context(), principal.ID, userID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	if err := a.requireView(); err != nil {
		h.fail(ctx, err)
		return
	}

	q := h.dbc(ctx).Where("user_id = ?", userID).Order("position")
	if limit := a.wishLimit(); limit > 0 {
		q = q.Limit(limit)
	}

	var wishes []models.Wish
	if err := q.Find(&wishes).Error; err != nil {
		h.fail(ctx, fmt.Errorf("load wishes: %w", err))
		return
	}

	utils.RespondOK(ctx, http.StatusOK, toWishResponses(wishes, principal.ID))
}

func (h *Handler) GetUserContacts(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
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

	a, err := h.accessTo(ctx.Request.Context(), principal.ID, userID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	if err := a.requireView(); err != nil {
		h.fail(ctx, err)
		return
	}

	if !a.canSeeContacts() {
		h.fail(ctx, common.Forbidden("This user's contacts are private"))
		return
	}

	contacts, err := h.listContacts(ctx, "owner_id = ? AND status = ?", userID, models.ContactStatusAccepted)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	utils.RespondOK(ctx, http.StatusOK, toContactResponses(contacts, userID))
}
