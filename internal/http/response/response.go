// Package response единый конверт JSON-ответов API.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-orders/internal/logger"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
)

// RequestIDKey ключ gin.Context, под которым middleware кладёт идентификатор запроса.
const RequestIDKey = "request_id"

const internalMessage = "внутренняя ошибка сервера"

// Ошибки валидатора называют поля так же, как они приходят в JSON.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Message успешный ответ без данных, например после удаления.
func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message})
}

// Error пишет ошибку в конверт. Неизвестные ошибки отдаются как internal_error
// с общим текстом, причина остаётся только в логе.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.Wrap(err, apperror.ErrCodeInternal, internalMessage)
	}

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Log.WithFields(logrus.Fields{
			"path":       c.FullPath(),
			"method":     c.Request.Method,
			"request_id": c.GetString(RequestIDKey),
			"code":       appErr.Code,
			"error":      err.Error(),
		}).Error("ошибка обработки запроса")
	}

	message := appErr.Message
	if appErr.Code == apperror.ErrCodeInternal {
		message = internalMessage
	}

	c.AbortWithStatusJSON(appErr.HTTPStatus, Envelope{
		Success: false,
		Error:   message,
		Code:    string(appErr.Code),
		Details: appErr.Fields,
	})
}

// BindError переводит ошибку биндинга gin в ошибку валидации с детализацией по полям.
func BindError(c *gin.Context, err error) {
	Error(c, FromBinding(err))
}

func FromBinding(err error) *apperror.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldName(fe)] = describe(fe)
		}
		return apperror.ValidationFields(fields)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperror.Validation(typeErr.Field, "неверный тип значения")
	}
	return apperror.Wrap(err, apperror.ErrCodeValidation, "некорректное тело запроса")
}

// fieldName имя поля из json-тега. Вложенные структуры запросов плоские, поэтому пути не нужны.
func fieldName(fe validator.FieldError) string {
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "обязательное поле"
	case "min", "gte":
		return fmt.Sprintf("значение должно быть не меньше %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("значение должно быть не больше %s", fe.Param())
	case "gt":
		return fmt.Sprintf("значение должно быть больше %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("допустимые значения: %s", fe.Param())
	default:
		return "некорректное значение"
	}
}
