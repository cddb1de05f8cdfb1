package dto

import (
	"time"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
)

type ReviewScoresRequest struct {
	Rating              int    `json:"rating" binding:"required"`
	Comment             string `json:"comment" binding:"required"`
	CommunicationRating *int   `json:"communication_rating"`
	ServiceRating       *int   `json:"service_rating"`
	RecommendRating     *int   `json:"recommend_rating"`
}

func (r ReviewScoresRequest) ToScores() entity.ReviewScores {
	return entity.ReviewScores{
		Rating:              r.Rating,
		Comment:             r.Comment,
		CommunicationRating: r.CommunicationRating,
		ServiceRating:       r.ServiceRating,
		RecommendRating:     r.RecommendRating,
	}
}

type CreateReviewRequest struct {
	OrderID int64 `json:"order_id" binding:"required,gt=0"`
	ReviewScoresRequest
}

type ReviewVisibilityRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type ReplyRequest struct {
	Message string `json:"message" binding:"required"`
}

type ReviewResponse struct {
	ID                  int64     `json:"id"`
	OrderID             int64     `json:"order_id"`
	GigID               int64     `json:"gig_id"`
	BuyerID             int64     `json:"buyer_id"`
	SellerID            int64     `json:"seller_id"`
	Rating              int       `json:"rating"`
	Comment             string    `json:"comment"`
	CommunicationRating *int      `json:"communication_rating"`
	ServiceRating       *int      `json:"service_rating"`
	RecommendRating     *int      `json:"recommend_rating"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func ToReviewResponse(r *entity.Review) ReviewResponse {
	return ReviewResponse{
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
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

type ReplyResponse struct {
	ID        int64     `json:"id"`
	ReviewID  int64     `json:"review_id"`
	SellerID  int64     `json:"seller_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToReplyResponse(r *entity.ReviewReply) ReplyResponse {
	return ReplyResponse{
		ID:        r.ID,
		ReviewID:  r.ReviewID,
		SellerID:  r.SellerID,
		Message:   r.Message,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
