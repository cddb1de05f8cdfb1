package dispute

import (
	"context"
	"fmt"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
	"github.com/ignatzorin/freelance-orders/internal/domain/repository"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-orders/internal/usecase/common"
)

type OpenDisputeUseCase struct {
	deps common.Deps
}

func NewOpenDisputeUseCase(deps common.Deps) *OpenDisputeUseCase {
	return &OpenDisputeUseCase{deps: deps}
}

// Execute открывает спор по заказу. Причина становится первым сообщением переписки.
func (uc *OpenDisputeUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, orderID int64, reason string) (dispute *entity.Dispute, err error) {
	defer func() { uc.deps.Record("dispute.open", err) }()

	now := uc.deps.Clock()
	var order *entity.Order
	err = uc.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		locked, err := tx.Orders().LockByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !locked.IsParticipant(actor.UserID) {
			return apperror.ErrForbidden
		}
		if _, err := tx.Disputes().FindByOrderID(ctx, locked.ID); err == nil {
			return apperror.ErrDisputeExists
		} else if !apperror.IsNotFound(err) {
			return err
		}

		from := locked.Status
		if err := locked.OpenDispute(now); err != nil {
			return err
		}
		created, err := entity.NewDispute(locked, actor.UserID, reason, now)
		if err != nil {
			return err
		}
		// Уникальный индекс по order_id страхует от гонки двух открытий.
		if err := tx.Disputes().Create(ctx, created); err != nil {
			return err
		}
		first := &entity.DisputeMessage{
			DisputeID: created.ID,
			SenderID:  actor.UserID,
			Message:   created.Reason,
			CreatedAt: now,
		}
		if err := tx.Disputes().AddMessage(ctx, first); err != nil {
			return err
		}
		if err := common.SaveTransition(ctx, tx, locked, from, actor.UserID, created.Reason); err != nil {
			return err
		}
		order, dispute = locked, created
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.deps.Notify(ctx, gateway.Notification{
		UserID:  order.Counterparty(actor.UserID),
		Event:   gateway.EventDisputeOpened,
		Title:   "Открыт спор",
		Message: fmt.Sprintf("По заказу «%s» открыт спор", order.Title),
		Type:    gateway.TypeDispute,
		Data:    disputeData(dispute),
	})
	return dispute, nil
}

func disputeData(d *entity.Dispute) map[string]any {
	return map[string]any{
		"dispute_id": d.ID,
		"order_id":   d.OrderID,
		"status":     d.Status,
	}
}
