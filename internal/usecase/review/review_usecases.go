package review

import (
	"context"
	"fmt"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
	"github.com/ignatzorin/freelance-orders/internal/domain/repository"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-orders/internal/usecase/common"
)

// withGigLock выполняет запись отзыва под блокировкой строки услуги
// и пересчитывает рейтинг в той же транзакции.
func withGigLock(ctx context.Context, tx repository.Store, gigID int64, write func() error) error {
	if _, err := tx.Gigs().LockByID(ctx, gigID); err != nil {
		return err
	}
	if err := write(); err != nil {
		return err
	}
	aggregate, err := tx.Reviews().AggregateForGig(ctx, gigID)
	if err != nil {
		return err
	}
	return tx.Gigs().UpdateRating(ctx, gigID, aggregate)
}

// withLockedReview берёт блокировку услуги отзыва и передаёт в write
// отзыв, перечитанный под собственной блокировкой. Порядок: услуга, затем отзыв.
func withLockedReview(ctx context.Context, tx repository.Store, reviewID int64, write func(review *entity.Review) error) error {
	found, err := tx.Reviews().FindByID(ctx, reviewID)
	if err != nil {
		return err
	}
	return withGigLock(ctx, tx, found.GigID, func() error {
		locked, err := tx.Reviews().LockByID(ctx, reviewID)
		if err != nil {
			return err
		}
		return write(locked)
	})
}

type CreateReviewInput struct {
	OrderID int64
	Scores  entity.ReviewScores
}

type CreateReviewUseCase struct {
	deps common.Deps
}

func NewCreateReviewUseCase(deps common.Deps) *CreateReviewUseCase {
	return &CreateReviewUseCase{deps: deps}
}

func (uc *CreateReviewUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, input CreateReviewInput) (review *entity.Review, err error) {
	defer func() { uc.deps.Record("review.create", err) }()

	now := uc.deps.Clock()
	var order *entity.Order
	err = uc.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		found, err := tx.Orders().FindByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		return withGigLock(ctx, tx, found.GigID, func() error {
			created, err := entity.NewReview(found, actor.UserID, input.Scores, now)
			if err != nil {
				return err
			}
			if _, err := tx.Reviews().FindByOrderID(ctx, found.ID); err == nil {
				return apperror.ErrReviewExists
			} else if !apperror.IsNotFound(err) {
				return err
			}
			if err := tx.Reviews().Create(ctx, created); err != nil {
				return err
			}
			review, order = created, found
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	uc.deps.Notify(ctx, gateway.Notification{
		UserID:  review.SellerID,
		Event:   gateway.EventReviewCreated,
		Title:   "Новый отзыв",
		Message: fmt.Sprintf("Покупатель оценил заказ «%s» на %d из 5", order.Title, review.Rating),
		Type:    gateway.TypeReview,
		Data: map[string]any{
			"review_id": review.ID,
			"order_id":  review.OrderID,
			"rating":    review.Rating,
		},
	})
	return review, nil
}

type UpdateReviewUseCase struct {
	deps common.Deps
}

func NewUpdateReviewUseCase(deps common.Deps) *UpdateReviewUseCase {
	return &UpdateReviewUseCase{deps: deps}
}

func (uc *UpdateReviewUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, reviewID int64, scores entity.ReviewScores) (review *entity.Review, err error) {
	defer func() { uc.deps.Record("review.update", err) }()

	now := uc.deps.Clock()
	err = uc.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return withLockedReview(ctx, tx, reviewID, func(locked *entity.Review) error {
			if err := locked.Update(actor.UserID, scores, now); err != nil {
				return err
			}
			review = locked
			return tx.Reviews().Update(ctx, locked)
		})
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

type DeleteReviewUseCase struct {
	deps common.Deps
}

func NewDeleteReviewUseCase(deps common.Deps) *DeleteReviewUseCase {
	return &DeleteReviewUseCase{deps: deps}
}

func (uc *DeleteReviewUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, reviewID int64) (err error) {
	defer func() { uc.deps.Record("review.delete", err) }()

	return uc.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return withLockedReview(ctx, tx, reviewID, func(locked *entity.Review) error {
			if !locked.IsAuthor(actor.UserID) {
				return apperror.ErrForbidden
			}
			return tx.Reviews().Delete(ctx, locked.ID)
		})
	})
}

type SetVisibilityUseCase struct {
	deps common.Deps
}

func NewSetVisibilityUseCase(deps common.Deps) *SetVisibilityUseCase {
	return &SetVisibilityUseCase{deps: deps}
}

// Execute скрывает или возвращает отзыв. Доступно только модератору.
func (uc *SetVisibilityUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, reviewID int64, active bool) (review *entity.Review, err error) {
	defer func() { uc.deps.Record("review.visibility", err) }()

	if _, err := uc.deps.Store.Reviews().FindByID(ctx, reviewID); err != nil {
		return nil, err
	}
	if _, err := uc.deps.RequireModerator(ctx, actor); err != nil {
		return nil, err
	}

	now := uc.deps.Clock()
	err = uc.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return withLockedReview(ctx, tx, reviewID, func(locked *entity.Review) error {
			locked.SetActive(active, now)
			review = locked
			return tx.Reviews().Update(ctx, locked)
		})
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}
