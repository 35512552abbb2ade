package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/wishlist/internal/common"
)

// GetIDParam parses a positive numeric path parameter.
func GetIDParam(ctx *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)

	if err != nil || id == 0 {
		return 0, common.Validation("Invalid %s", name)
	}

	return uint(id), nil
}

// GetIntQuery reads an integer query parameter, clamped to [min, max].
func GetIntQuery(ctx *gin.Context, name string, def, min, max int) (int, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, common.Validation("Invalid %s", name)
	}

	if v < min {
		v = min
	}
	if v > max {
		v = max
	}

	return v, nil
}
