package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/wishlist/internal/common"
	"github.com/monocle-dev/wishlist/internal/logging"
	"github.com/monocle-dev/wishlist/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{common.NotFound("x"), http.StatusNotFound},
		{common.Validation("x"), http.StatusBadRequest},
		{common.Conflict("x"), http.StatusBadRequest},
		{common.Unauthorized("x"), http.StatusUnauthorized},
		{common.Forbidden("x"), http.StatusForbidden},
		{fmt.Errorf("wrapped: %w", common.NotFound("x")), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func respond(err error) (*httptest.ResponseRecorder, types.Response) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RespondError(ctx, logging.Discard(), err)

	var body types.Response
	_ = json.Unmarshal(rec.Body.Bytes(), &body)

	return rec, body
}

func TestRespondError_KnownKind(t *testing.T) {
	rec, body := respond(common.Forbidden("Only contacts can reserve this wish"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "Only contacts can reserve this wish", body.Message)
}

func TestRespondError_HidesInternalDetail(t *testing.T) {
	rec, body := respond(errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body.Message)
}

func TestGetIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for raw, ok := range map[string]bool{"42": true, "0": false, "-1": false, "abc": false} {
		ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
		ctx.Params = gin.Params{{Key: "wishId", Value: raw}}

		id, err := GetIDParam(ctx, "wishId")
		if ok {
			require.NoError(t, err)
			assert.Equal(t, uint(42), id)
			continue
		}
		assert.ErrorIs(t, err, common.ErrValidation, raw)
	}
}
