package gateway

import (
	"context"
	"errors"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileResolver справочник пользователей. Вызовы удалённые и могут не пройти,
// поэтому ядро не полагается на него для корректности переходов.
type ProfileResolver interface {
	GetUser(ctx context.Context, id int64) (*entity.Profile, error)
	// GetUsersBatch допускает частичный результат: отсутствующие id просто пропускаются.
	GetUsersBatch(ctx context.Context, ids []int64) ([]*entity.Profile, error)
}
