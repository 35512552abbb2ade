package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/wishlist/internal/auth"
	"github.com/monocle-dev/wishlist/internal/logging"
	"github.com/monocle-dev/wishlist/internal/models"
	"github.com/monocle-dev/wishlist/internal/types"
	"github.com/monocle-dev/wishlist/internal/utils"
	"gorm.io/gorm"
)

// AuthMiddleware resolves the caller from an "Authorization: Bearer" header
// or, failing that, the token cookie.
func AuthMiddleware(conn *gorm.DB, issuer *auth.Issuer, logger logging.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, ok := extractToken(ctx)

		if !ok {
			utils.RespondFail(ctx, http.StatusUnauthorized, "Authorization token is required")
			return
		}

		claims, err := issuer.VerifyJWT(tokenString)

		if err != nil {
			utils.RespondFail(ctx, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		var user models.User

		err = conn.WithContext(ctx.Request.Context()).
			Select("id", "nickname", "real_name").
			Where("id = ?", claims.UserID).
			First(&user).Error

		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondFail(ctx, http.StatusUnauthorized, "User not found")
				return
			}
			logger.Error(ctx.Request.Context(), "failed to load authenticated user", "user_id", claims.UserID, "error", err)
			utils.RespondFail(ctx, http.StatusInternalServerError, "Internal server error")
			return
		}

		ctx.Set(types.ContextUserKey, types.Principal{
			ID:       user.ID,
			Nickname: user.Nickname,
			RealName: user.RealName,
		})
		ctx.Next()
	}
}

func extractToken(ctx *gin.Context) (string, bool) {
	if authHeader := ctx.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)

		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}

		return parts[1], true
	}

	cookie, err := ctx.Cookie(types.TokenCookieName)

	if err != nil || cookie == "" {
		return "", false
	}

	return cookie, true
}
