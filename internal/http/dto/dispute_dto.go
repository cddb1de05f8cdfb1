package dto

import (
	"time"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/usecase/dispute"
)

type OpenDisputeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type DisputeMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

type ResolveDisputeRequest struct {
	WinnerSide string `json:"winner_side" binding:"required,oneof=buyer seller"`
	Resolution string `json:"resolution" binding:"required"`
}

type DisputeResponse struct {
	ID           int64                     `json:"id"`
	OrderID      int64                     `json:"order_id"`
	CreatedByID  int64                     `json:"created_by_id"`
	Reason       string                    `json:"reason"`
	Status       valueobject.DisputeStatus `json:"status"`
	WinnerSide   *valueobject.WinnerSide   `json:"winner_side"`
	Resolution   *string                   `json:"resolution"`
	ResolvedByID *int64                    `json:"resolved_by_id"`
	ResolvedAt   *time.Time                `json:"resolved_at"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

func ToDisputeResponse(d *entity.Dispute) DisputeResponse {
	return DisputeResponse{
		ID:           d.ID,
		OrderID:      d.OrderID,
		CreatedByID:  d.CreatedByID,
		Reason:       d.Reason,
		Status:       d.Status,
		WinnerSide:   d.WinnerSide,
		Resolution:   d.Resolution,
		ResolvedByID: d.ResolvedByID,
		ResolvedAt:   d.ResolvedAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type DisputeDetailsResponse struct {
	DisputeResponse
	Order  OrderResponse    `json:"order"`
	Buyer  *ProfileResponse `json:"buyer"`
	Seller *ProfileResponse `json:"seller"`
}

func ToDisputeDetailsResponse(d *dispute.DisputeDetails) DisputeDetailsResponse {
	return DisputeDetailsResponse{
		DisputeResponse: ToDisputeResponse(d.Dispute),
		Order:           ToOrderResponse(d.Order),
		Buyer:           ToProfileResponse(d.Buyer),
		Seller:          ToProfileResponse(d.Seller),
	}
}

type DisputeMessageResponse struct {
	ID          int64            `json:"id"`
	DisputeID   int64            `json:"dispute_id"`
	SenderID    int64            `json:"sender_id"`
	Sender      *ProfileResponse `json:"sender"`
	Message     string           `json:"message"`
	IsModerator bool             `json:"is_moderator"`
	CreatedAt   time.Time        `json:"created_at"`
}

func ToDisputeMessageResponse(m *entity.DisputeMessage, sender *entity.Profile) DisputeMessageResponse {
	return DisputeMessageResponse{
		ID:          m.ID,
		DisputeID:   m.DisputeID,
		SenderID:    m.SenderID,
		Sender:      ToProfileResponse(sender),
		Message:     m.Message,
		IsModerator: m.IsModerator,
		CreatedAt:   m.CreatedAt,
	}
}

func ToDisputeMessagesResponse(items []dispute.MessageView) []DisputeMessageResponse {
	out := make([]DisputeMessageResponse, 0, len(items))
	for _, v := range items {
		out = append(out, ToDisputeMessageResponse(v.Message, v.Sender))
	}
	return out
}
