package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-orders/internal/http/response"
	"github.com/ignatzorin/freelance-orders/internal/logger"
)

// ErrorHandler отдаёт ошибки, добавленные через c.Error, если обработчик сам ничего не ответил.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		response.Error(c, c.Errors.Last().Err)
	}
}

// Recovery перехватывает панику обработчика и отвечает internal_error в общем конверте.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Log.WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": c.GetString(response.RequestIDKey),
			"panic":      fmt.Sprint(recovered),
		}).Error("паника при обработке запроса")

		response.Error(c, fmt.Errorf("panic: %v", recovered))
	})
}
