package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-orders/internal/http/response"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
)

const paramKeyPrefix = "param:"

// IDValidator проверяет, что параметр пути положительное целое, и сохраняет его в контексте.
// Использование: orders.GET("/:id", IDValidator("id"), handler.Get)
func IDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param(paramName), 10, 64)
		if err != nil || id <= 0 {
			response.Error(c, apperror.Validation(paramName, "параметр "+paramName+" должен быть положительным целым"))
			return
		}
		c.Set(paramKeyPrefix+paramName, id)
		c.Next()
	}
}

// ParamID возвращает идентификатор, разобранный IDValidator.
func ParamID(c *gin.Context, paramName string) (int64, bool) {
	id, ok := c.Get(paramKeyPrefix + paramName)
	if !ok {
		return 0, false
	}
	v, ok := id.(int64)
	return v, ok
}
