package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/wishlist/internal/common"
	"github.com/monocle-dev/wishlist/internal/types"
)

func GetCurrentUser(ctx *gin.Context) (types.Principal, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return types.Principal{}, common.Unauthorized("User not authenticated")
	}

	principal, ok := user.(types.Principal)

	if !ok {
		return types.Principal{}, common.Unauthorized("Invalid user type in context")
	}

	return principal, nil
}

func GetCurrentUserID(ctx *gin.Context) (uint, error) {
	user, err := GetCurrentUser(ctx)

	if err != nil {
		return 0, err
	}

	return user.ID, nil
}
