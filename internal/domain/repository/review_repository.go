package repository

import (
	"context"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
)

type ReviewRepository interface {
	// Create возвращает ErrReviewExists при нарушении уникальности order_id.
	Create(ctx context.Context, review *entity.Review) error
	Update(ctx context.Context, review *entity.Review) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*entity.Review, error)
	// LockByID перечитывает отзыв с блокировкой строки до конца транзакции.
	LockByID(ctx context.Context, id int64) (*entity.Review, error)
	FindByOrderID(ctx context.Context, orderID int64) (*entity.Review, error)
	// AggregateForGig считает среднее и количество по активным отзывам услуги.
	AggregateForGig(ctx context.Context, gigID int64) (entity.RatingAggregate, error)

	CreateReply(ctx context.Context, reply *entity.ReviewReply) error
	UpdateReply(ctx context.Context, reply *entity.ReviewReply) error
	DeleteReply(ctx context.Context, id int64) error
	FindReplyByReviewID(ctx context.Context, reviewID int64) (*entity.ReviewReply, error)
}
