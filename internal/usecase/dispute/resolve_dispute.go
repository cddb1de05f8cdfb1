package dispute

import (
	"context"
	"fmt"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
	"github.com/ignatzorin/freelance-orders/internal/domain/repository"
	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/usecase/common"
)

type ResolveDisputeInput struct {
	WinnerSide string
	Resolution string
}

type ResolveDisputeUseCase struct {
	deps common.Deps
}

func NewResolveDisputeUseCase(deps common.Deps) *ResolveDisputeUseCase {
	return &ResolveDisputeUseCase{deps: deps}
}

// Execute выносит решение модератора. Порядок блокировок: спор, заказ, услуга.
func (uc *ResolveDisputeUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, disputeID int64, input ResolveDisputeInput) (dispute *entity.Dispute, err error) {
	defer func() { uc.deps.Record("dispute.resolve", err) }()

	if _, err := uc.deps.Store.Disputes().FindByID(ctx, disputeID); err != nil {
		return nil, err
	}
	if _, err := uc.deps.RequireModerator(ctx, actor); err != nil {
		return nil, err
	}
	winner, resolution, err := entity.ValidateResolution(input.WinnerSide, input.Resolution)
	if err != nil {
		return nil, err
	}

	now := uc.deps.Clock()
	var order *entity.Order
	err = uc.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		locked, err := tx.Disputes().LockByID(ctx, disputeID)
		if err != nil {
			return err
		}
		if err := locked.Resolve(actor.UserID, winner, resolution, now); err != nil {
			return err
		}

		lockedOrder, err := tx.Orders().LockByID(ctx, locked.OrderID)
		if err != nil {
			return err
		}
		from := lockedOrder.Status
		if err := lockedOrder.ApplyDisputeResolution(winner, now); err != nil {
			return err
		}
		if winner == valueobject.WinnerSideSeller {
			if _, err := tx.Gigs().LockByID(ctx, lockedOrder.GigID); err != nil {
				return err
			}
			if err := tx.Gigs().IncrementOrdersCount(ctx, lockedOrder.GigID); err != nil {
				return err
			}
		}

		if err := tx.Disputes().Update(ctx, locked); err != nil {
			return err
		}
		if err := tx.Disputes().AddMessage(ctx, entity.NewResolutionMessage(locked, now)); err != nil {
			return err
		}
		if err := common.SaveTransition(ctx, tx, lockedOrder, from, actor.UserID, resolution); err != nil {
			return err
		}
		dispute, order = locked, lockedOrder
		return nil
	})
	if err != nil {
		return nil, err
	}

	data := disputeData(dispute)
	data["winner_side"] = winner
	data["order_status"] = order.Status
	message := fmt.Sprintf("Спор по заказу «%s» разрешён модератором", order.Title)
	uc.deps.Notify(ctx,
		gateway.Notification{UserID: order.BuyerID, Event: gateway.EventDisputeResolved, Title: "Спор разрешён", Message: message, Type: gateway.TypeDispute, Data: data},
		gateway.Notification{UserID: order.SellerID, Event: gateway.EventDisputeResolved, Title: "Спор разрешён", Message: message, Type: gateway.TypeDispute, Data: data},
	)
	return dispute, nil
}

type CloseDisputeUseCase struct {
	deps common.Deps
}

func NewCloseDisputeUseCase(deps common.Deps) *CloseDisputeUseCase {
	return &CloseDisputeUseCase{deps: deps}
}

// Execute архивирует разрешённый спор.
func (uc *CloseDisputeUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, disputeID int64) (dispute *entity.Dispute, err error) {
	defer func() { uc.deps.Record("dispute.close", err) }()

	_, order, err := loadDispute(ctx, uc.deps.Store, disputeID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.deps.RequireModerator(ctx, actor); err != nil {
		return nil, err
	}

	now := uc.deps.Clock()
	err = uc.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		locked, err := tx.Disputes().LockByID(ctx, disputeID)
		if err != nil {
			return err
		}
		if err := locked.Close(now); err != nil {
			return err
		}
		dispute = locked
		return tx.Disputes().Update(ctx, locked)
	})
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Спор по заказу «%s» закрыт", order.Title)
	uc.deps.Notify(ctx,
		gateway.Notification{UserID: order.BuyerID, Event: gateway.EventDisputeClosed, Title: "Спор закрыт", Message: message, Type: gateway.TypeDispute, Data: disputeData(dispute)},
		gateway.Notification{UserID: order.SellerID, Event: gateway.EventDisputeClosed, Title: "Спор закрыт", Message: message, Type: gateway.TypeDispute, Data: disputeData(dispute)},
	)
	return dispute, nil
}
