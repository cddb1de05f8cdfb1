package review

import (
	"context"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
	"github.com/ignatzorin/freelance-orders/internal/domain/repository"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-orders/internal/usecase/common"
)

// Ответы на отзывы не влияют на рейтинг, поэтому услуга не блокируется.

type CreateReplyUseCase struct {
	deps common.Deps
}

func NewCreateReplyUseCase(deps common.Deps) *CreateReplyUseCase {
	return &CreateReplyUseCase{deps: deps}
}

func (uc *CreateReplyUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, reviewID int64, message string) (reply *entity.ReviewReply, err error) {
	defer func() { uc.deps.Record("review.reply", err) }()

	now := uc.deps.Clock()
	var review *entity.Review
	err = uc.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		found, err := tx.Reviews().FindByID(ctx, reviewID)
		if err != nil {
			return err
		}
		created, err := entity.NewReviewReply(found, actor.UserID, message, now)
		if err != nil {
			return err
		}
		if _, err := tx.Reviews().FindReplyByReviewID(ctx, found.ID); err == nil {
			return apperror.ErrReplyExists
		} else if !apperror.IsNotFound(err) {
			return err
		}
		if err := tx.Reviews().CreateReply(ctx, created); err != nil {
			return err
		}
		reply, review = created, found
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.deps.Notify(ctx, gateway.Notification{
		UserID:  review.BuyerID,
		Event:   gateway.EventReviewReplied,
		Title:   "Ответ на отзыв",
		Message: "Продавец ответил на ваш отзыв",
		Type:    gateway.TypeReview,
		Data: map[string]any{
			"review_id": review.ID,
			"reply_id":  reply.ID,
		},
	})
	return reply, nil
}

type UpdateReplyUseCase struct {
	deps common.Deps
}

func NewUpdateReplyUseCase(deps common.Deps) *UpdateReplyUseCase {
	return &UpdateReplyUseCase{deps: deps}
}

func (uc *UpdateReplyUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, reviewID int64, message string) (reply *entity.ReviewReply, err error) {
	defer func() { uc.deps.Record("review.reply_update", err) }()

	now := uc.deps.Clock()
	err = uc.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		found, err := findReply(ctx, tx, reviewID)
		if err != nil {
			return err
		}
		if err := found.Update(actor.UserID, message, now); err != nil {
			return err
		}
		reply = found
		return tx.Reviews().UpdateReply(ctx, found)
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

type DeleteReplyUseCase struct {
	deps common.Deps
}

func NewDeleteReplyUseCase(deps common.Deps) *DeleteReplyUseCase {
	return &DeleteReplyUseCase{deps: deps}
}

func (uc *DeleteReplyUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, reviewID int64) (err error) {
	defer func() { uc.deps.Record("review.reply_delete", err) }()

	return uc.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		found, err := findReply(ctx, tx, reviewID)
		if err != nil {
			return err
		}
		if found.SellerID != actor.UserID {
			return apperror.ErrForbidden
		}
		return tx.Reviews().DeleteReply(ctx, found.ID)
	})
}

// findReply различает отсутствие отзыва и отсутствие ответа.
func findReply(ctx context.Context, tx repository.Store, reviewID int64) (*entity.ReviewReply, error) {
	if _, err := tx.Reviews().FindByID(ctx, reviewID); err != nil {
		return nil, err
	}
	return tx.Reviews().FindReplyByReviewID(ctx, reviewID)
}
