package dto

import (
	"time"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/usecase/proposal"
)

type CreateProposalRequest struct {
	GigID         int64             `json:"gig_id" binding:"required,gt=0"`
	BuyerID       int64             `json:"buyer_id" binding:"required,gt=0"`
	Title         string            `json:"title" binding:"required"`
	Description   string            `json:"description" binding:"required"`
	Price         valueobject.Money `json:"price"`
	DeliveryDays  int               `json:"delivery_days" binding:"required"`
	Revisions     int               `json:"revisions" binding:"gte=0"`
	ExpiresInDays int               `json:"expires_in_days" binding:"gte=0"`
}

func (r CreateProposalRequest) ToInput() proposal.CreateProposalInput {
	return proposal.CreateProposalInput{
		GigID:         r.GigID,
		BuyerID:       r.BuyerID,
		Title:         r.Title,
		Description:   r.Description,
		Price:         r.Price,
		DeliveryDays:  r.DeliveryDays,
		Revisions:     r.Revisions,
		ExpiresInDays: r.ExpiresInDays,
	}
}

type ProposalDecisionRequest struct {
	BuyerMessage string `json:"buyer_message"`
}

type ProposalResponse struct {
	ID           int64                      `json:"id"`
	GigID        int64                      `json:"gig_id"`
	SellerID     int64                      `json:"seller_id"`
	BuyerID      int64                      `json:"buyer_id"`
	Title        string                     `json:"title"`
	Description  string                     `json:"description"`
	Price        valueobject.Money          `json:"price"`
	DeliveryDays int                        `json:"delivery_days"`
	Revisions    int                        `json:"revisions"`
	Status       valueobject.ProposalStatus `json:"status"`
	ExpiresAt    time.Time                  `json:"expires_at"`
	BuyerMessage *string                    `json:"buyer_message"`
	OrderID      *int64                     `json:"order_id"`
	AcceptedAt   *time.Time                 `json:"accepted_at"`
	RejectedAt   *time.Time                 `json:"rejected_at"`
	CreatedAt    time.Time                  `json:"created_at"`
}

func ToProposalResponse(p *entity.CustomProposal) ProposalResponse {
	return ProposalResponse{
		ID:           p.ID,
		GigID:        p.GigID,
		SellerID:     p.SellerID,
		BuyerID:      p.BuyerID,
		Title:        p.Title,
		Description:  p.Description,
		Price:        p.Price,
		DeliveryDays: p.DeliveryDays,
		Revisions:    p.Revisions,
		Status:       p.Status,
		ExpiresAt:    p.ExpiresAt,
		BuyerMessage: p.BuyerMessage,
		OrderID:      p.OrderID,
		AcceptedAt:   p.AcceptedAt,
		RejectedAt:   p.RejectedAt,
		CreatedAt:    p.CreatedAt,
	}
}

type ProposalDetailsResponse struct {
	ProposalResponse
	Seller    *ProfileResponse `json:"seller"`
	Buyer     *ProfileResponse `json:"buyer"`
	CanAccept bool             `json:"can_accept"`
}

func ToProposalDetailsResponse(d *proposal.ProposalDetails) ProposalDetailsResponse {
	return ProposalDetailsResponse{
		ProposalResponse: ToProposalResponse(d.Proposal),
		Seller:           ToProfileResponse(d.Seller),
		Buyer:            ToProfileResponse(d.Buyer),
		CanAccept:        d.CanAccept,
	}
}

// AcceptProposalResponse принятое предложение и созданный заказ.
type AcceptProposalResponse struct {
	Proposal ProposalResponse `json:"proposal"`
	Order    OrderResponse    `json:"order"`
}

func ToAcceptProposalResponse(r *proposal.AcceptResult) AcceptProposalResponse {
	return AcceptProposalResponse{
		Proposal: ToProposalResponse(r.Proposal),
		Order:    ToOrderResponse(r.Order),
	}
}
