package dto

import (
	"time"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/usecase/order"
)

type CreateOrderRequest struct {
	GigID        int64  `json:"gig_id" binding:"required,gt=0"`
	PackageType  string `json:"package_type" binding:"required,oneof=basic standard premium"`
	Requirements string `json:"requirements"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=in_progress completed cancelled"`
	Reason string `json:"reason"`
}

type DeliverOrderRequest struct {
	Message string  `json:"message" binding:"required"`
	FileURL *string `json:"file_url"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type OrderResponse struct {
	ID                 int64                   `json:"id"`
	BuyerID            int64                   `json:"buyer_id"`
	SellerID           int64                   `json:"seller_id"`
	GigID              int64                   `json:"gig_id"`
	PackageType        string                  `json:"package_type,omitempty"`
	ProposalID         *int64                  `json:"proposal_id"`
	Title              string                  `json:"title"`
	Description        string                  `json:"description"`
	Status             valueobject.OrderStatus `json:"status"`
	Price              valueobject.Money       `json:"price"`
	DeliveryTime       int                     `json:"delivery_time"`
	Revisions          int                     `json:"revisions"`
	Requirements       string                  `json:"requirements"`
	Deadline           time.Time               `json:"deadline"`
	DeliveredAt        *time.Time              `json:"delivered_at"`
	CompletedAt        *time.Time              `json:"completed_at"`
	CancelledAt        *time.Time              `json:"cancelled_at"`
	CancellationReason *string                 `json:"cancellation_reason"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
}

func ToOrderResponse(o *entity.Order) OrderResponse {
	return OrderResponse{
		ID:                 o.ID,
		BuyerID:            o.BuyerID,
		SellerID:           o.SellerID,
		GigID:              o.GigID,
		PackageType:        o.PackageReference,
		ProposalID:         o.ProposalID,
		Title:              o.Title,
		Description:        o.Description,
		Status:             o.Status,
		Price:              o.Price,
		DeliveryTime:       o.DeliveryTime,
		Revisions:          o.Revisions,
		Requirements:       o.Requirements,
		Deadline:           o.Deadline,
		DeliveredAt:        o.DeliveredAt,
		CompletedAt:        o.CompletedAt,
		CancelledAt:        o.CancelledAt,
		CancellationReason: o.CancellationReason,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

// OrderDetailsResponse заказ с профилями сторон и признаком просрочки.
type OrderDetailsResponse struct {
	OrderResponse
	Buyer     *ProfileResponse `json:"buyer"`
	Seller    *ProfileResponse `json:"seller"`
	IsOverdue bool             `json:"is_overdue"`
}

func ToOrderDetailsResponse(d *order.OrderDetails) OrderDetailsResponse {
	return OrderDetailsResponse{
		OrderResponse: ToOrderResponse(d.Order),
		Buyer:         ToProfileResponse(d.Buyer),
		Seller:        ToProfileResponse(d.Seller),
		IsOverdue:     d.IsOverdue,
	}
}

type DeliveryResponse struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Message   string    `json:"message"`
	FileURL   *string   `json:"file_url"`
	CreatedAt time.Time `json:"created_at"`
}

func ToDeliveryResponse(d *entity.OrderDelivery) DeliveryResponse {
	return DeliveryResponse{
		ID:        d.ID,
		OrderID:   d.OrderID,
		Message:   d.Message,
		FileURL:   d.FileURL,
		CreatedAt: d.CreatedAt,
	}
}

func ToDeliveryResponses(items []*entity.OrderDelivery) []DeliveryResponse {
	out := make([]DeliveryResponse, 0, len(items))
	for _, d := range items {
		out = append(out, ToDeliveryResponse(d))
	}
	return out
}

// UploadedFileResponse загруженное вложение. URL передаётся в file_url при сдаче работы.
type UploadedFileResponse struct {
	URL  string `json:"url"`
	Size int64  `json:"size"`
	MIME string `json:"mime"`
}

type StatusChangeResponse struct {
	ID         int64                    `json:"id"`
	ActorID    *int64                   `json:"actor_id"`
	FromStatus *valueobject.OrderStatus `json:"from_status"`
	ToStatus   valueobject.OrderStatus  `json:"to_status"`
	Note       string                   `json:"note,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
}

func ToHistoryResponse(items []*entity.OrderStatusChange) []StatusChangeResponse {
	out := make([]StatusChangeResponse, 0, len(items))
	for _, c := range items {
		out = append(out, StatusChangeResponse{
			ID:         c.ID,
			ActorID:    c.ActorID,
			FromStatus: c.FromStatus,
			ToStatus:   c.ToStatus,
			Note:       c.Note,
			CreatedAt:  c.CreatedAt,
		})
	}
	return out
}
