package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode стабильный машиночитаемый тег ошибки. Клиенты сверяются по нему,
// поэтому значения не переименовываются.
type ErrorCode string

const (
	ErrCodeValidation        ErrorCode = "validation_error"
	ErrCodeUnauthorized      ErrorCode = "unauthorized"
	ErrCodePermissionDenied  ErrorCode = "permission_denied"
	ErrCodeSelfPurchase      ErrorCode = "self_purchase"
	ErrCodeGigInactive       ErrorCode = "gig_inactive"
	ErrCodeInternal          ErrorCode = "internal_error"
	ErrCodeRateLimited       ErrorCode = "rate_limited"
	ErrCodeDirectoryDown     ErrorCode = "user_directory_unavailable"
	ErrCodeInvalidTransition ErrorCode = "invalid_status_transition"

	ErrCodeOrderNotFound    ErrorCode = "order_not_found"
	ErrCodeGigNotFound      ErrorCode = "gig_not_found"
	ErrCodePackageNotFound  ErrorCode = "package_not_found"
	ErrCodeDisputeNotFound  ErrorCode = "dispute_not_found"
	ErrCodeReviewNotFound   ErrorCode = "review_not_found"
	ErrCodeReplyNotFound    ErrorCode = "reply_not_found"
	ErrCodeProposalNotFound ErrorCode = "proposal_not_found"

	ErrCodeDisputeExists          ErrorCode = "dispute_already_exists"
	ErrCodeDisputeClosed          ErrorCode = "dispute_closed"
	ErrCodeDisputeAlreadyResolved ErrorCode = "dispute_already_resolved"
	ErrCodeDisputeNotResolved     ErrorCode = "dispute_not_resolved"
	ErrCodeOrderNotCompleted      ErrorCode = "order_not_completed"
	ErrCodeReviewExists           ErrorCode = "review_already_exists"
	ErrCodeReplyExists            ErrorCode = "reply_already_exists"
	ErrCodeProposalExpired        ErrorCode = "proposal_expired"
	ErrCodeProposalNotPending     ErrorCode = "proposal_not_pending"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
	// Fields заполняется только для ошибок валидации: поле -> сообщение.
	Fields map[string]string
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду, чтобы errors.Is работал с предопределёнными значениями.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation создаёт ошибку валидации с детализацией по полю.
func Validation(field, message string) *AppError {
	err := New(ErrCodeValidation, message)
	err.Fields = map[string]string{field: message}
	return err
}

// ValidationFields создаёт ошибку валидации сразу по нескольким полям.
func ValidationFields(fields map[string]string) *AppError {
	err := New(ErrCodeValidation, "некорректные данные запроса")
	err.Fields = fields
	return err
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeOrderNotFound, ErrCodeGigNotFound, ErrCodePackageNotFound, ErrCodeDisputeNotFound,
		ErrCodeReviewNotFound, ErrCodeReplyNotFound, ErrCodeProposalNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodePermissionDenied, ErrCodeSelfPurchase:
		return http.StatusForbidden
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeDirectoryDown:
		return http.StatusServiceUnavailable
	case ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		// Валидация, недопустимые переходы и конфликты отдаются как 400.
		return http.StatusBadRequest
	}
}

// CodeOf возвращает код ошибки или internal_error для неизвестных ошибок.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.HTTPStatus == http.StatusNotFound
}

func IsForbidden(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.HTTPStatus == http.StatusForbidden
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

var (
	ErrOrderNotFound    = New(ErrCodeOrderNotFound, "заказ не найден")
	ErrGigNotFound      = New(ErrCodeGigNotFound, "услуга не найдена")
	ErrPackageNotFound  = New(ErrCodePackageNotFound, "пакет услуги не найден")
	ErrDisputeNotFound  = New(ErrCodeDisputeNotFound, "спор не найден")
	ErrReviewNotFound   = New(ErrCodeReviewNotFound, "отзыв не найден")
	ErrReplyNotFound    = New(ErrCodeReplyNotFound, "ответ на отзыв не найден")
	ErrProposalNotFound = New(ErrCodeProposalNotFound, "предложение не найдено")

	ErrUnauthorized  = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden     = New(ErrCodePermissionDenied, "недостаточно прав")
	ErrSelfPurchase  = New(ErrCodeSelfPurchase, "нельзя заказать собственную услугу")
	ErrGigInactive   = New(ErrCodeGigInactive, "услуга неактивна")
	ErrDirectoryDown = New(ErrCodeDirectoryDown, "сервис пользователей недоступен")

	ErrDisputeExists          = New(ErrCodeDisputeExists, "по заказу уже открыт спор")
	ErrDisputeClosed          = New(ErrCodeDisputeClosed, "спор закрыт")
	ErrDisputeAlreadyResolved = New(ErrCodeDisputeAlreadyResolved, "спор уже разрешён")
	ErrDisputeNotResolved     = New(ErrCodeDisputeNotResolved, "закрыть можно только разрешённый спор")
	ErrOrderNotCompleted      = New(ErrCodeOrderNotCompleted, "отзыв можно оставить только после завершения заказа")
	ErrReviewExists           = New(ErrCodeReviewExists, "отзыв на этот заказ уже оставлен")
	ErrReplyExists            = New(ErrCodeReplyExists, "ответ на отзыв уже оставлен")
	ErrProposalExpired        = New(ErrCodeProposalExpired, "срок действия предложения истёк")
	ErrProposalNotPending     = New(ErrCodeProposalNotPending, "предложение уже обработано")
)
