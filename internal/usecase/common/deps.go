// Package common содержит зависимости и вспомогательные функции, общие для всех usecase.
package common

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
	"github.com/ignatzorin/freelance-orders/internal/domain/repository"
	"github.com/ignatzorin/freelance-orders/internal/logger"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
)

const defaultProfileTimeout = 2 * time.Second

// Recorder принимает результаты операций для метрик.
type Recorder interface {
	RecordOperation(operation string, err error)
}

// Deps зависимости usecase жизненного цикла заказа.
type Deps struct {
	Store    repository.Transactor
	Profiles gateway.ProfileResolver
	Notifier gateway.NotificationDispatcher
	Metrics  Recorder
	// Now подменяется в тестах.
	Now            func() time.Time
	ProfileTimeout time.Duration
}

func (d Deps) Clock() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func (d Deps) Record(operation string, err error) {
	if d.Metrics != nil {
		d.Metrics.RecordOperation(operation, err)
	}
}

// Notify отправляет уведомления после коммита. Ошибки только логируются.
func (d Deps) Notify(ctx context.Context, notifications ...gateway.Notification) {
	if d.Notifier == nil {
		return
	}
	for _, n := range notifications {
		if n.UserID == 0 {
			continue
		}
		if _, err := d.Notifier.Send(ctx, n); err != nil {
			logger.Log.WithFields(logrus.Fields{
				"user_id": n.UserID,
				"event":   n.Event,
				"error":   err.Error(),
			}).Warn("не удалось отправить уведомление")
		}
	}
}

func (d Deps) profileTimeout() time.Duration {
	if d.ProfileTimeout > 0 {
		return d.ProfileTimeout
	}
	return defaultProfileTimeout
}

// RequireModerator проверяет право модератора через справочник пользователей.
// Вызывается до захвата блокировок. Недоступность справочника означает отказ.
func (d Deps) RequireModerator(ctx context.Context, actor entity.ActorIdentity) (*entity.Profile, error) {
	profile, err := d.lookup(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gateway.ErrProfileNotFound) {
			return nil, apperror.ErrForbidden
		}
		logger.Log.WithFields(logrus.Fields{
			"user_id": actor.UserID,
			"error":   err.Error(),
		}).Error("проверка прав модератора не удалась")
		return nil, apperror.Wrap(err, apperror.ErrCodeDirectoryDown, apperror.ErrDirectoryDown.Message)
	}
	if !entity.IsModerator(profile) {
		return nil, apperror.ErrForbidden
	}
	return profile, nil
}

// IsModerator проверка без отказа по умолчанию: ошибку справочника решает вызывающий.
func (d Deps) IsModerator(ctx context.Context, userID int64) (bool, error) {
	profile, err := d.lookup(ctx, userID)
	if err != nil {
		if errors.Is(err, gateway.ErrProfileNotFound) {
			return false, nil
		}
		return false, err
	}
	return entity.IsModerator(profile), nil
}

func (d Deps) lookup(ctx context.Context, userID int64) (*entity.Profile, error) {
	if d.Profiles == nil {
		return nil, gateway.ErrProfileNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, d.profileTimeout())
	defer cancel()
	return d.Profiles.GetUser(ctx, userID)
}

// ProfilesByID обогащает ответ профилями. При сбое возвращает пустую карту, поля в ответе будут null.
func (d Deps) ProfilesByID(ctx context.Context, ids ...int64) map[int64]*entity.Profile {
	result := make(map[int64]*entity.Profile, len(ids))
	if d.Profiles == nil || len(ids) == 0 {
		return result
	}

	unique := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	ctx, cancel := context.WithTimeout(ctx, d.profileTimeout())
	defer cancel()

	profiles, err := d.Profiles.GetUsersBatch(ctx, unique)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"ids":   unique,
			"error": err.Error(),
		}).Warn("не удалось получить профили пользователей")
		return result
	}
	for _, p := range profiles {
		if p != nil {
			result[p.ID] = p
		}
	}
	return result
}

// RequireParticipantOrModerator пропускает участника без обращения к справочнику.
func (d Deps) RequireParticipantOrModerator(ctx context.Context, actor entity.ActorIdentity, participant bool) error {
	if participant {
		return nil
	}
	_, err := d.RequireModerator(ctx, actor)
	return err
}
