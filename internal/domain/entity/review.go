package entity

import (
	"strings"
	"time"

	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-orders/internal/validation"
)

type Review struct {
	ID                  int64
	OrderID             int64
	GigID               int64
	BuyerID             int64
	SellerID            int64
	Rating              int
	Comment             string
	CommunicationRating *int
	ServiceRating       *int
	RecommendRating     *int
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type ReviewReply struct {
	ID        int64
	ReviewID  int64
	SellerID  int64
	Message   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReviewScores оценки, которые можно задать при создании и изменении отзыва.
type ReviewScores struct {
	Rating              int
	Comment             string
	CommunicationRating *int
	ServiceRating       *int
	RecommendRating     *int
}

func (s ReviewScores) validate() (ReviewScores, error) {
	fields := map[string]string{}
	if err := validation.ValidateRange("оценка", s.Rating, validation.MinRating, validation.MaxRating); err != nil {
		fields["rating"] = err.Error()
	}
	s.Comment = strings.TrimSpace(s.Comment)
	if err := validation.ValidateLength("комментарий", s.Comment, validation.MinReviewCommentLength, validation.MaxReviewCommentLength); err != nil {
		fields["comment"] = err.Error()
	}
	if err := validation.ValidateOptionalRating("оценка коммуникации", s.CommunicationRating); err != nil {
		fields["communication_rating"] = err.Error()
	}
	if err := validation.ValidateOptionalRating("оценка сервиса", s.ServiceRating); err != nil {
		fields["service_rating"] = err.Error()
	}
	if err := validation.ValidateOptionalRating("готовность рекомендовать", s.RecommendRating); err != nil {
		fields["recommend_rating"] = err.Error()
	}
	if len(fields) > 0 {
		return s, apperror.ValidationFields(fields)
	}
	return s, nil
}

// NewReview создаёт отзыв покупателя на завершённый заказ.
func NewReview(order *Order, buyerID int64, scores ReviewScores, now time.Time) (*Review, error) {
	if !order.IsBuyer(buyerID) {
		return nil, apperror.ErrForbidden
	}
	if order.Status != valueobject.OrderStatusCompleted {
		return nil, apperror.ErrOrderNotCompleted
	}
	scores, err := scores.validate()
	if err != nil {
		return nil, err
	}

	return &Review{
		OrderID:             order.ID,
		GigID:               order.GigID,
		BuyerID:             order.BuyerID,
		SellerID:            order.SellerID,
		Rating:              scores.Rating,
		Comment:             scores.Comment,
		CommunicationRating: scores.CommunicationRating,
		ServiceRating:       scores.ServiceRating,
		RecommendRating:     scores.RecommendRating,
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

func (r *Review) IsAuthor(userID int64) bool {
	return r.BuyerID == userID
}

func (r *Review) Update(actorID int64, scores ReviewScores, now time.Time) error {
	if !r.IsAuthor(actorID) {
		return apperror.ErrForbidden
	}
	scores, err := scores.validate()
	if err != nil {
		return err
	}
	r.Rating = scores.Rating
	r.Comment = scores.Comment
	r.CommunicationRating = scores.CommunicationRating
	r.ServiceRating = scores.ServiceRating
	r.RecommendRating = scores.RecommendRating
	r.UpdatedAt = now
	return nil
}

func (r *Review) SetActive(active bool, now time.Time) {
	r.IsActive = active
	r.UpdatedAt = now
}

// NewReviewReply ответ продавца на отзыв.
func NewReviewReply(review *Review, sellerID int64, message string, now time.Time) (*ReviewReply, error) {
	if review.SellerID != sellerID {
		return nil, apperror.ErrForbidden
	}
	message, err := validateReplyMessage(message)
	if err != nil {
		return nil, err
	}
	return &ReviewReply{
		ReviewID:  review.ID,
		SellerID:  sellerID,
		Message:   message,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (r *ReviewReply) Update(actorID int64, message string, now time.Time) error {
	if r.SellerID != actorID {
		return apperror.ErrForbidden
	}
	message, err := validateReplyMessage(message)
	if err != nil {
		return err
	}
	r.Message = message
	r.UpdatedAt = now
	return nil
}

func validateReplyMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if err := validation.ValidateLength("ответ", message, validation.MinReplyMessageLength, validation.MaxReplyMessageLength); err != nil {
		return "", apperror.Validation("message", err.Error())
	}
	return message, nil
}
