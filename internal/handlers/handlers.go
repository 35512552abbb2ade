package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/wishlist/internal/auth"
	"github.com/monocle-dev/wishlist/internal/common"
	"github.com/monocle-dev/wishlist/internal/config"
	"github.com/monocle-dev/wishlist/internal/logging"
	"github.com/monocle-dev/wishlist/internal/models"
	"github.com/monocle-dev/wishlist/internal/scheduler"
	"github.com/monocle-dev/wishlist/internal/services"
	"github.com/monocle-dev/wishlist/internal/storage"
	"github.com/monocle-dev/wishlist/internal/types"
	"github.com/monocle-dev/wishlist/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Deps struct {
	DB        *gorm.DB
	Logger    logging.Logger
	Issuer    *auth.Issuer
	Lifecycle *services.ContactLifecycle
	Notifier  *services.Notifier
	Images    storage.ImageStore // nil disables uploads
	Jobs      *scheduler.Scheduler
	Config    *config.Config
}

// Handler serves the HTTP API. All state lives in the injected store.
type Handler struct {
	db        *gorm.DB
	logger    logging.Logger
	issuer    *auth.Issuer
	lifecycle *services.ContactLifecycle
	notifier  *services.Notifier
	images    storage.ImageStore
	jobs      *scheduler.Scheduler
	cfg       *config.Config
	now       func() time.Time
}

func New(d Deps) *Handler {
	return &Handler{
		db:        d.DB,
		logger:    d.Logger,
		issuer:    d.Issuer,
		lifecycle: d.Lifecycle,
		notifier:  d.Notifier,
		images:    d.Images,
		jobs:      d.Jobs,
		cfg:       d.Config,
		now:       time.Now,
	}
}

func (h *Handler) fail(ctx *gin.Context, err error) {
	utils.RespondError(ctx, h.logger, err)
}

// bind decodes the JSON body into dst and answers 400 when it is invalid.
func (h *Handler) bind(ctx *gin.Context, dst interface{}) bool {
	if err := ctx.ShouldBindJSON(dst); err != nil {
		h.logger.Debug(ctx.Request.Context(), "failed to bind JSON", "path", ctx.FullPath(), "error", err)
		utils.RespondFail(ctx, http.StatusBadRequest, "Invalid request")
		return false
	}
	return true
}

// principal returns the caller or answers 401.
func (h *Handler) principal(ctx *gin.Context) (types.Principal, bool) {
	user, err := utils.GetCurrentUser(ctx)
	if err != nil {
		h.fail(ctx, err)
		return types.Principal{}, false
	}
	return user, true
}

func (h *Handler) dbc(ctx *gin.Context) *gorm.DB {
	return h.db.WithContext(ctx.Request.Context())
}

func (h *Handler) loadUser(ctx context.Context, id uint) (models.User, error) {
	var user models.User

	err := h.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, common.NotFound("User not found")
	}
	if err != nil {
		return user, fmt.Errorf("load user %d: %w", id, err)
	}

	return user, nil
}

// privacyFor returns the user's settings, creating the defaults on first
// read. Concurrent first reads insert at most one row.
func (h *Handler) privacyFor(ctx context.Context, userID uint) (models.PrivacySettings, error) {
	db := h.db.WithContext(ctx)

	defaults := models.DefaultPrivacySettings(userID)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&defaults).Error
	if err != nil {
		return models.PrivacySettings{}, fmt.Errorf("ensure privacy settings: %w", err)
	}

	var settings models.PrivacySettings
	if err := db.Where("user_id = ?", userID).First(&settings).Error; err != nil {
		return models.PrivacySettings{}, fmt.Errorf("load privacy settings: %w", err)
	}

	return settings, nil
}

// access describes what a viewer may see of an owner's data.
type access struct {
	self    bool
	contact bool
	blocked bool
	privacy models.PrivacySettings
}

func (a access) canView() bool {
	if a.self {
		return true
	}
	if a.blocked {
		return false
	}
	return a.contact || a.privacy.IsPublicProfile
}

// requireView fails with NotFound for blocked viewers and Forbidden for
// viewers of a private profile.
func (a access) requireView() error {
	if a.blocked {
		return common.NotFound("User not found")
	}
	if !a.canView() {
		return common.Forbidden("This profile is private")
	}
	return nil
}

// wishLimit is the number of wishes the viewer may see, or 0 for all.
func (a access) wishLimit() int {
	if a.self || a.contact || a.privacy.ShowFullWishList {
		return 0
	}
	return 3
}

func (a access) canSeeContacts() bool {
	return a.self || (a.canView() && a.privacy.ShowContacts)
}

func (h *Handler) accessTo(ctx context.Context, viewerID, ownerID uint) (access, error) {
	if viewerID == ownerID {
		return access{self: true}, nil
	}

	var row models.Contact
	err := h.db.WithContext(ctx).
		Where("owner_id = ? AND target_id = ?", ownerID, viewerID).
		First(&row).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return access{}, fmt.Errorf("load contact: %w", err)
	}

	privacy, err := h.privacyFor(ctx, ownerID)
	if err != nil {
		return access{}, err
	}

	return access{
		contact: row.Status == models.ContactStatusAccepted,
		blocked: row.Status == models.ContactStatusBlocked,
		privacy: privacy,
	}, nil
}

// isAcceptedContact reports whether owner has accepted viewer as a contact.
func (h *Handler) isAcceptedContact(ctx context.Context, ownerID, viewerID uint) (bool, error) {
	var n int64

	err := h.db.WithContext(ctx).Model(&models.Contact{}).
		Where("owner_id = ? AND target_id = ? AND status = ?", ownerID, viewerID, models.ContactStatusAccepted).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check contact: %w", err)
	}

	return n > 0, nil
}

func (h *Handler) setTokenCookie(ctx *gin.Context, token string, maxAge int) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     types.TokenCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.cfg.Domain,
		MaxAge:   maxAge,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}

func summarize(u models.User) types.UserSummary {
	return types.UserSummary{
		ID:           u.ID,
		Nickname:     u.Nickname,
		RealName:     u.RealName,
		ProfileImage: u.ProfileImage,
	}
}

func uintPtr(v uint) *uint {
	return &v
}
