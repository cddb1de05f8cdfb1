package order

import (
	"context"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/usecase/common"
)

// OrderDetails заказ с профилями сторон. Профиль nil, если справочник не ответил.
type OrderDetails struct {
	Order     *entity.Order
	Buyer     *entity.Profile
	Seller    *entity.Profile
	IsOverdue bool
}

type GetOrderUseCase struct {
	deps common.Deps
}

func NewGetOrderUseCase(deps common.Deps) *GetOrderUseCase {
	return &GetOrderUseCase{deps: deps}
}

func (uc *GetOrderUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, orderID int64) (*OrderDetails, error) {
	order, err := loadVisible(ctx, uc.deps, actor, orderID)
	if err != nil {
		return nil, err
	}

	profiles := uc.deps.ProfilesByID(ctx, order.BuyerID, order.SellerID)
	return &OrderDetails{
		Order:     order,
		Buyer:     profiles[order.BuyerID],
		Seller:    profiles[order.SellerID],
		IsOverdue: order.IsOverdue(uc.deps.Clock()),
	}, nil
}

type ListDeliveriesUseCase struct {
	deps common.Deps
}

func NewListDeliveriesUseCase(deps common.Deps) *ListDeliveriesUseCase {
	return &ListDeliveriesUseCase{deps: deps}
}

func (uc *ListDeliveriesUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, orderID int64) ([]*entity.OrderDelivery, error) {
	if _, err := loadVisible(ctx, uc.deps, actor, orderID); err != nil {
		return nil, err
	}
	return uc.deps.Store.Orders().ListDeliveries(ctx, orderID)
}

type GetHistoryUseCase struct {
	deps common.Deps
}

func NewGetHistoryUseCase(deps common.Deps) *GetHistoryUseCase {
	return &GetHistoryUseCase{deps: deps}
}

func (uc *GetHistoryUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, orderID int64) ([]*entity.OrderStatusChange, error) {
	if _, err := loadVisible(ctx, uc.deps, actor, orderID); err != nil {
		return nil, err
	}
	return uc.deps.Store.Orders().ListStatusChanges(ctx, orderID)
}

// loadVisible сначала проверяет существование, затем права: участник или модератор.
func loadVisible(ctx context.Context, deps common.Deps, actor entity.ActorIdentity, orderID int64) (*entity.Order, error) {
	order, err := deps.Store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := deps.RequireParticipantOrModerator(ctx, actor, order.IsParticipant(actor.UserID)); err != nil {
		return nil, err
	}
	return order, nil
}
