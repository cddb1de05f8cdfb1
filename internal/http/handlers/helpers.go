package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/http/middleware"
	"github.com/ignatzorin/freelance-orders/internal/http/response"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
)

// currentActor пишет 401 и возвращает false, если пользователь не установлен.
func currentActor(c *gin.Context) (entity.ActorIdentity, bool) {
	actor, ok := middleware.Actor(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized)
		return entity.ActorIdentity{}, false
	}
	return actor, true
}

// pathID берёт id, уже разобранный IDValidator, либо разбирает параметр сам.
func pathID(c *gin.Context, name string) (int64, bool) {
	if id, ok := middleware.ParamID(c, name); ok {
		return id, true
	}
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, apperror.Validation(name, "параметр "+name+" должен быть положительным целым"))
		return 0, false
	}
	return id, true
}

// bindOptionalJSON допускает пустое тело для запросов, где все поля необязательны.
func bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		response.BindError(c, err)
		return false
	}
	return true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.BindError(c, err)
		return false
	}
	return true
}
