package common

import (
	"context"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/repository"
	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
)

// SaveTransition сохраняет заказ и пишет строку журнала в той же транзакции.
// from пустой для только что созданного заказа.
func SaveTransition(ctx context.Context, tx repository.Store, order *entity.Order, from valueobject.OrderStatus, actorID int64, note string) error {
	var fromPtr *valueobject.OrderStatus
	if from != "" {
		fromPtr = &from
		if err := tx.Orders().Update(ctx, order); err != nil {
			return err
		}
	}
	var actorPtr *int64
	if actorID != 0 {
		actorPtr = &actorID
	}
	change := entity.NewStatusChange(order.ID, actorPtr, fromPtr, order.Status, note, order.UpdatedAt)
	return tx.Orders().AddStatusChange(ctx, change)
}
