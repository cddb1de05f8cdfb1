package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/http/response"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
)

// ContextActorKey ключ gin.Context с entity.ActorIdentity текущего пользователя.
const ContextActorKey = "actor"

// TokenParser проверяет access токен.
type TokenParser interface {
	ParseAccess(token string) (entity.ActorIdentity, error)
}

// AuthMiddleware проверяет JWT access токен и кладёт пользователя в контекст.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			response.Error(c, apperror.ErrUnauthorized)
			return
		}

		actor, err := tokens.ParseAccess(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Error(c, apperror.New(apperror.ErrCodeUnauthorized, "токен невалиден"))
			return
		}

		c.Set(ContextActorKey, actor)
		c.Next()
	}
}

// Actor возвращает пользователя, установленного AuthMiddleware.
func Actor(c *gin.Context) (entity.ActorIdentity, bool) {
	raw, ok := c.Get(ContextActorKey)
	if !ok {
		return entity.ActorIdentity{}, false
	}
	actor, ok := raw.(entity.ActorIdentity)
	return actor, ok
}
