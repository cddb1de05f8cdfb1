package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-orders/internal/logger"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Discard()
}

func perform(handler gin.HandlerFunc, body string) (*httptest.ResponseRecorder, Envelope) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	handler(c)

	var env Envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestError_AppError(t *testing.T) {
	w, env := perform(func(c *gin.Context) { Error(c, apperror.ErrDisputeExists) }, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "dispute_already_exists", env.Code)
	assert.Equal(t, apperror.ErrDisputeExists.Message, env.Error)
}

func TestError_HidesInternalCause(t *testing.T) {
	w, env := perform(func(c *gin.Context) { Error(c, errors.New("pq: connection refused")) }, "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", env.Code)
	assert.NotContains(t, env.Error, "pq")
}

func TestError_ValidationDetails(t *testing.T) {
	w, env := perform(func(c *gin.Context) { Error(c, apperror.Validation("reason", "слишком коротко")) }, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]string{"reason": "слишком коротко"}, env.Details)
}

type bindTarget struct {
	GigID       int64  `json:"gig_id" binding:"required,gt=0"`
	PackageType string `json:"package_type" binding:"required,oneof=basic standard premium"`
}

func TestBindError_FieldDetailsUseJSONNames(t *testing.T) {
	w, env := perform(func(c *gin.Context) {
		var req bindTarget
		err := c.ShouldBindJSON(&req)
		require.Error(t, err)
		BindError(c, err)
	}, `{"package_type":"gold"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", env.Code)
	assert.Contains(t, env.Details, "gig_id")
	assert.Contains(t, env.Details, "package_type")
}

func TestBindError_WrongType(t *testing.T) {
	_, env := perform(func(c *gin.Context) {
		var req bindTarget
		BindError(c, c.ShouldBindJSON(&req))
	}, `{"gig_id":"семь","package_type":"basic"}`)

	assert.Equal(t, "validation_error", env.Code)
	assert.Contains(t, env.Details, "gig_id")
}

func TestOKAndCreated(t *testing.T) {
	w, env := perform(func(c *gin.Context) { Created(c, gin.H{"id": 1}) }, "")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)

	w, env = perform(func(c *gin.Context) { Message(c, "отзыв удалён") }, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "отзыв удалён", env.Message)
}
