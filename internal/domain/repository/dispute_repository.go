package repository

import (
	"context"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
)

type DisputeRepository interface {
	// Create возвращает ErrDisputeExists при нарушении уникальности order_id.
	Create(ctx context.Context, dispute *entity.Dispute) error
	Update(ctx context.Context, dispute *entity.Dispute) error
	FindByID(ctx context.Context, id int64) (*entity.Dispute, error)
	LockByID(ctx context.Context, id int64) (*entity.Dispute, error)
	FindByOrderID(ctx context.Context, orderID int64) (*entity.Dispute, error)

	AddMessage(ctx context.Context, message *entity.DisputeMessage) error
	ListMessages(ctx context.Context, disputeID int64) ([]*entity.DisputeMessage, error)
}
