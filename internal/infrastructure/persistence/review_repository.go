package persistence

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
)

const (
	reviewColumns = `id, order_id, gig_id, buyer_id, seller_id, rating, comment, communication_rating,
	service_rating, recommend_rating, is_active, created_at, updated_at`

	reviewsOrderUnique  = "reviews_order_id_key"
	repliesReviewUnique = "review_replies_review_id_key"
)

type reviewRow struct {
	ID                  int64     `db:"id"`
	OrderID             int64     `db:"order_id"`
	GigID               int64     `db:"gig_id"`
	BuyerID             int64     `db:"buyer_id"`
	SellerID            int64     `db:"seller_id"`
	Rating              int       `db:"rating"`
	Comment             string    `db:"comment"`
	CommunicationRating *int      `db:"communication_rating"`
	ServiceRating       *int      `db:"service_rating"`
	RecommendRating     *int      `db:"recommend_rating"`
	IsActive            bool      `db:"is_active"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

func (r reviewRow) toEntity() *entity.Review {
	return &entity.Review{
		ID:                  r.ID,
		OrderID:             r.OrderID,
		GigID:               r.GigID,
		BuyerID:             r.BuyerID,
		SellerID:            r.SellerID,
		Rating:              r.Rating,
		Comment:             r.Comment,
		CommunicationRating: r.CommunicationRating,
		ServiceRating:       r.ServiceRating,
		RecommendRating:     r.RecommendRating,
		IsActive:            r.IsActive,
		CreatedAt:           r.CreatedAt.UTC(),
		UpdatedAt:           r.UpdatedAt.UTC(),
	}
}

type replyRow struct {
	ID        int64     `db:"id"`
	ReviewID  int64     `db:"review_id"`
	SellerID  int64     `db:"seller_id"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type ReviewRepository struct {
	q dbtx
}

func (r *ReviewRepository) Create(ctx context.Context, rv *entity.Review) error {
	query := `
		INSERT INTO reviews (order_id, gig_id, buyer_id, seller_id, rating, comment, communication_rating,
			service_rating, recommend_rating, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	err := r.q.GetContext(ctx, &rv.ID, query,
		rv.OrderID, rv.GigID, rv.BuyerID, rv.SellerID, rv.Rating, rv.Comment, rv.CommunicationRating,
		rv.ServiceRating, rv.RecommendRating, rv.IsActive, rv.CreatedAt, rv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, reviewsOrderUnique) {
			return apperror.ErrReviewExists
		}
		return dbError(err, "не удалось создать отзыв")
	}
	return nil
}

func (r *ReviewRepository) Update(ctx context.Context, rv *entity.Review) error {
	query := `
		UPDATE reviews
		SET rating = $2, comment = $3, communication_rating = $4, service_rating = $5,
		    recommend_rating = $6, is_active = $7, updated_at = $8
		WHERE id = $1
	`
	return execOne(ctx, r.q, apperror.ErrReviewNotFound, "не удалось обновить отзыв", query,
		rv.ID, rv.Rating, rv.Comment, rv.CommunicationRating, rv.ServiceRating, rv.RecommendRating, rv.IsActive, rv.UpdatedAt,
	)
}

func (r *ReviewRepository) Delete(ctx context.Context, id int64) error {
	return execOne(ctx, r.q, apperror.ErrReviewNotFound, "не удалось удалить отзыв",
		`DELETE FROM reviews WHERE id = $1`, id)
}

func (r *ReviewRepository) FindByID(ctx context.Context, id int64) (*entity.Review, error) {
	var row reviewRow
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`
	if err := getOne(ctx, r.q, &row, apperror.ErrReviewNotFound, query, id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *ReviewRepository) LockByID(ctx context.Context, id int64) (*entity.Review, error) {
	var row reviewRow
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1 FOR UPDATE`
	if err := getOne(ctx, r.q, &row, apperror.ErrReviewNotFound, query, id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *ReviewRepository) FindByOrderID(ctx context.Context, orderID int64) (*entity.Review, error) {
	var row reviewRow
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE order_id = $1`
	if err := getOne(ctx, r.q, &row, apperror.ErrReviewNotFound, query, orderID); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *ReviewRepository) AggregateForGig(ctx context.Context, gigID int64) (entity.RatingAggregate, error) {
	var agg struct {
		Average decimal.Decimal `db:"average"`
		Count   int             `db:"count"`
	}
	query := `
		SELECT COALESCE(ROUND(AVG(rating)::numeric, 2), 0) AS average, COUNT(*) AS count
		FROM reviews
		WHERE gig_id = $1 AND is_active
	`
	if err := r.q.GetContext(ctx, &agg, query, gigID); err != nil {
		return entity.RatingAggregate{}, dbError(err, "не удалось пересчитать рейтинг")
	}
	return entity.RatingAggregate{Average: agg.Average, Count: agg.Count}, nil
}

func (r *ReviewRepository) CreateReply(ctx context.Context, reply *entity.ReviewReply) error {
	query := `
		INSERT INTO review_replies (review_id, seller_id, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.q.GetContext(ctx, &reply.ID, query, reply.ReviewID, reply.SellerID, reply.Message, reply.CreatedAt, reply.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, repliesReviewUnique) {
			return apperror.ErrReplyExists
		}
		return dbError(err, "не удалось сохранить ответ на отзыв")
	}
	return nil
}

func (r *ReviewRepository) UpdateReply(ctx context.Context, reply *entity.ReviewReply) error {
	return execOne(ctx, r.q, apperror.ErrReplyNotFound, "не удалось обновить ответ на отзыв",
		`UPDATE review_replies SET message = $2, updated_at = $3 WHERE id = $1`,
		reply.ID, reply.Message, reply.UpdatedAt,
	)
}

func (r *ReviewRepository) DeleteReply(ctx context.Context, id int64) error {
	return execOne(ctx, r.q, apperror.ErrReplyNotFound, "не удалось удалить ответ на отзыв",
		`DELETE FROM review_replies WHERE id = $1`, id)
}

func (r *ReviewRepository) FindReplyByReviewID(ctx context.Context, reviewID int64) (*entity.ReviewReply, error) {
	var row replyRow
	query := `
		SELECT id, review_id, seller_id, message, created_at, updated_at
		FROM review_replies
		WHERE review_id = $1
	`
	if err := getOne(ctx, r.q, &row, apperror.ErrReplyNotFound, query, reviewID); err != nil {
		return nil, err
	}
	return &entity.ReviewReply{
		ID:        row.ID,
		ReviewID:  row.ReviewID,
		SellerID:  row.SellerID,
		Message:   row.Message,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}, nil
}
