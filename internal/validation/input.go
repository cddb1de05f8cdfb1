package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MaxRequirementsLength = 3000

	MinDeliveryMessageLength = 10
	MaxDeliveryMessageLength = 2000
	MaxFileURLLength         = 500

	MaxCancelReasonLength = 500

	MinDisputeReasonLength     = 20
	MaxDisputeReasonLength     = 2000
	MinDisputeMessageLength    = 5
	MaxDisputeMessageLength    = 1000
	MinDisputeResolutionLength = 20
	MaxDisputeResolutionLength = 2000

	MinRating              = 1
	MaxRating              = 5
	MinReviewCommentLength = 10
	MaxReviewCommentLength = 2000
	MinReplyMessageLength  = 10
	MaxReplyMessageLength  = 1000

	MinProposalTitleLength       = 5
	MaxProposalTitleLength       = 200
	MinProposalDescriptionLength = 20
	MaxProposalDescriptionLength = 3000
	MaxBuyerMessageLength        = 1000
	MinDeliveryDays              = 1
	MaxDeliveryDays              = 365
	MaxRevisions                 = 100
	MaxProposalExpiresInDays     = 30
)

// ValidateLength проверяет длину строки в символах (не байтах).
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateRange проверяет, что целое значение лежит в [min, max].
func ValidateRange(fieldName string, value, min, max int) error {
	if value < min || value > max {
		return fmt.Errorf("%s должен быть от %d до %d", fieldName, min, max)
	}
	return nil
}

// ValidateOptionalRating проверяет необязательную под-оценку.
func ValidateOptionalRating(fieldName string, value *int) error {
	if value == nil {
		return nil
	}
	return ValidateRange(fieldName, *value, MinRating, MaxRating)
}

// ValidateFileURL проверяет ссылку на файл результата.
func ValidateFileURL(link *string) error {
	if link == nil || *link == "" {
		return nil
	}

	linkStr := strings.TrimSpace(*link)
	if err := ValidateLength("ссылка на файл", linkStr, 0, MaxFileURLLength); err != nil {
		return err
	}

	// Разрешаем абсолютные http(s) ссылки и относительные пути к загруженным файлам.
	if strings.HasPrefix(linkStr, "/") {
		return nil
	}

	parsedURL, err := url.Parse(linkStr)
	if err != nil {
		return fmt.Errorf("некорректный формат URL")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("ссылка должна начинаться с http:// или https://")
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("ссылка должна содержать доменное имя")
	}
	return nil
}
