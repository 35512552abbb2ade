package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/wishlist/internal/common"
	"github.com/monocle-dev/wishlist/internal/models"
	"github.com/monocle-dev/wishlist/internal/types"
	"github.com/monocle-dev/wishlist/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type CreateUserRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Nickname  string `json:"nickname" binding:"required,min=3,max=30,alphanum"`
	Password  string `json:"password" binding:"required,min=8"`
	RealName  string `json:"real_name" binding:"required,max=100"`
	BirthDate string `json:"birth_date" binding:"required"`
}

type LoginUserRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	User  types.UserResponse `json:"user"`
	Token string             `json:"token"`
}

func (h *Handler) CreateUser(ctx *gin.Context) {
	var body CreateUserRequest

	if !h.bind(ctx, &body) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))
	nickname := strings.TrimSpace(body.Nickname)

	birthDate, err := parseBirthDate(body.BirthDate, h.now())
	if err != nil {
		h.fail(ctx, err)
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		h.fail(ctx, fmt.Errorf("hash password: %w", err))
		return
	}

	user := models.User{
		Email:        email,
		Nickname:     nickname,
		PasswordHash: string(passwordHash),
		RealName:     strings.TrimSpace(body.RealName),
		BirthDate:    birthDate,
	}

	err = h.dbc(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUnique(tx, email, nickname, 0); err != nil {
			return err
		}

		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return common.Conflict("Email or nickname already exists")
			}
			return fmt.Errorf("create user: %w", err)
		}

		privacy := models.DefaultPrivacySettings(user.ID)
		if err := tx.Create(&privacy).Error; err != nil {
			return fmt.Errorf("create privacy settings: %w", err)
		}

		return nil
	})
	if err != nil {
		h.fail(ctx, err)
		return
	}

	h.logger.Info(ctx.Request.Context(), "user registered", "user_id", user.ID)

	h.respondWithToken(ctx, http.StatusCreated, user)
}

func (h *Handler) LoginUser(ctx *gin.Context) {
	var body LoginUserRequest

	if !h.bind(ctx, &body) {
		return
	}

	login := strings.TrimSpace(body.Login)

	var user models.User

	err := h.dbc(ctx).
		Where("email = ? OR nickname = ?", strings.ToLower(login), login).
		First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.fail(ctx, common.Unauthorized("Invalid login or password"))
			return
		}
		h.fail(ctx, fmt.Errorf("load user for login: %w", err))
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)) != nil {
		h.fail(ctx, common.Unauthorized("Invalid login or password"))
		return
	}

	h.respondWithToken(ctx, http.StatusOK, user)
}

func (h *Handler) Me(ctx *gin.Context) {
	principal, ok := h.principal(ctx)
	if !ok {
		return
	}

	user, err := h.loadUser(ctx.Request.Context(), principal.ID)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	utils.RespondOK(ctx, http.StatusOK, gin.H{"user": toUserResponse(user)})
}

func (h *Handler) LogoutUser(ctx *gin.Context) {
	h.setTokenCookie(ctx, "", -1)

	utils.RespondMessage(ctx, http.StatusOK, "Logged out successfully", nil)
}

func (h *Handler) respondWithToken(ctx *gin.Context, status int, user models.User) {
	token, err := h.issuer.GenerateJWT(user.ID, user.Email)
	if err != nil {
		h.fail(ctx, fmt.Errorf("generate jwt: %w", err))
		return
	}

	h.setTokenCookie(ctx, token, int(h.issuer.TTL().Seconds()))

	utils.RespondOK(ctx, status, authResponse{User: toUserResponse(user), Token: token})
}

// ensureUnique rejects an email or nickname already used by a user other
// than exceptID.
func ensureUnique(tx *gorm.DB, email, nickname string, exceptID uint) error {
	var existing models.User

	q := tx.Where("email = ? OR nickname = ?", email, nickname)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}

	err := q.First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check existing user: %w", err)
	}

	if existing.Email == email {
		return common.Conflict("Email already exists")
	}
	return common.Conflict("Nickname already exists")
}

func parseBirthDate(raw string, now time.Time) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, common.Validation("birth_date must be formatted as YYYY-MM-DD")
	}

	if d.After(now) {
		return time.Time{}, common.Validation("birth_date cannot be in the future")
	}

	return d, nil
}

func toUserResponse(u models.User) types.UserResponse {
	return types.UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Nickname:      u.Nickname,
		RealName:      u.RealName,
		BirthDate:     u.BirthDate.Format(dateLayout),
		ProfileImage:  u.ProfileImage,
		City:          u.City,
		Country:       u.Country,
		PostalAddress: u.PostalAddress,
		CreatedAt:     u.CreatedAt,
	}
}
