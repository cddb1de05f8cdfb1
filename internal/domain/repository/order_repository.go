package repository

import (
	"context"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
)

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	Update(ctx context.Context, order *entity.Order) error
	FindByID(ctx context.Context, id int64) (*entity.Order, error)
	// LockByID читает заказ с блокировкой строки до конца транзакции.
	LockByID(ctx context.Context, id int64) (*entity.Order, error)

	CreateDelivery(ctx context.Context, delivery *entity.OrderDelivery) error
	ListDeliveries(ctx context.Context, orderID int64) ([]*entity.OrderDelivery, error)

	AddStatusChange(ctx context.Context, change *entity.OrderStatusChange) error
	ListStatusChanges(ctx context.Context, orderID int64) ([]*entity.OrderStatusChange, error)
}
