package order

import (
	"context"
	"fmt"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
	"github.com/ignatzorin/freelance-orders/internal/domain/repository"
	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/usecase/common"
)

type CreateOrderInput struct {
	GigID        int64
	PackageType  string
	Requirements string
}

type CreateOrderUseCase struct {
	deps common.Deps
}

func NewCreateOrderUseCase(deps common.Deps) *CreateOrderUseCase {
	return &CreateOrderUseCase{deps: deps}
}

// Execute оформляет заказ на пакет услуги. Цена и срок берутся из пакета.
func (uc *CreateOrderUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, input CreateOrderInput) (order *entity.Order, err error) {
	defer func() { uc.deps.Record("order.create", err) }()

	packageType, err := valueobject.NewPackageType(input.PackageType)
	if err != nil {
		return nil, err
	}

	now := uc.deps.Clock()
	err = uc.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		gig, err := tx.Gigs().FindByID(ctx, input.GigID)
		if err != nil {
			return err
		}
		pkg, err := tx.Gigs().FindPackage(ctx, gig.ID, packageType)
		if err != nil {
			return err
		}
		order, err = entity.NewOrderFromPackage(actor.UserID, gig, pkg, input.Requirements, now)
		if err != nil {
			return err
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		return common.SaveTransition(ctx, tx, order, "", actor.UserID, "")
	})
	if err != nil {
		return nil, err
	}

	uc.deps.Notify(ctx, gateway.Notification{
		UserID:  order.SellerID,
		Event:   gateway.EventOrderCreated,
		Title:   "Новый заказ",
		Message: fmt.Sprintf("Получен новый заказ «%s»", order.Title),
		Type:    gateway.TypeOrder,
		Data:    orderData(order),
	})
	return order, nil
}

func orderData(order *entity.Order) map[string]any {
	return map[string]any{
		"order_id": order.ID,
		"status":   order.Status,
	}
}
