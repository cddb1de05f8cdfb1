package apperror

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusByCode(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrCodeOrderNotFound:     http.StatusNotFound,
		ErrCodeReplyNotFound:     http.StatusNotFound,
		ErrCodeUnauthorized:      http.StatusUnauthorized,
		ErrCodePermissionDenied:  http.StatusForbidden,
		ErrCodeSelfPurchase:      http.StatusForbidden,
		ErrCodeRateLimited:       http.StatusTooManyRequests,
		ErrCodeDirectoryDown:     http.StatusServiceUnavailable,
		ErrCodeInternal:          http.StatusInternalServerError,
		ErrCodeInvalidTransition: http.StatusBadRequest,
		ErrCodeDisputeExists:     http.StatusBadRequest,
		ErrCodeProposalExpired:   http.StatusBadRequest,
	}
	for code, status := range cases {
		assert.Equal(t, status, New(code, "x").HTTPStatus, code)
	}
}

func TestIsComparesByCode(t *testing.T) {
	err := fmt.Errorf("review: %w", New(ErrCodeReviewExists, "другой текст"))

	assert.ErrorIs(t, err, ErrReviewExists)
	assert.NotErrorIs(t, err, ErrReplyExists)
	assert.Equal(t, ErrCodeReviewExists, CodeOf(err))
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(sql.ErrConnDone, ErrCodeInternal, "ошибка базы")

	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.Contains(t, err.Error(), "caused by")
	assert.Equal(t, ErrCodeInternal, CodeOf(errors.New("plain")))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNotFound(ErrDisputeNotFound))
	assert.False(t, IsNotFound(ErrForbidden))
	assert.True(t, IsForbidden(ErrSelfPurchase))
	assert.True(t, IsValidation(Validation("reason", "слишком коротко")))

	err := ValidationFields(map[string]string{"rating": "a", "comment": "b"})
	assert.Len(t, err.Fields, 2)
}
