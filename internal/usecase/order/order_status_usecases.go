package order

import (
	"context"
	"fmt"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
	"github.com/ignatzorin/freelance-orders/internal/domain/repository"
	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-orders/internal/usecase/common"
)

// mutateFunc меняет заблокированный заказ внутри транзакции.
type mutateFunc func(ctx context.Context, tx repository.Store, order *entity.Order) error

// transition блокирует строку заказа, применяет fn и пишет журнал.
// Уведомления отправляет вызывающий после коммита.
func transition(ctx context.Context, deps common.Deps, orderID, actorID int64, note string, fn mutateFunc) (*entity.Order, error) {
	var order *entity.Order
	err := deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		locked, err := tx.Orders().LockByID(ctx, orderID)
		if err != nil {
			return err
		}
		from := locked.Status
		if err := fn(ctx, tx, locked); err != nil {
			return err
		}
		order = locked
		return common.SaveTransition(ctx, tx, locked, from, actorID, note)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

type AcceptOrderUseCase struct {
	deps common.Deps
}

func NewAcceptOrderUseCase(deps common.Deps) *AcceptOrderUseCase {
	return &AcceptOrderUseCase{deps: deps}
}

func (uc *AcceptOrderUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, orderID int64) (order *entity.Order, err error) {
	defer func() { uc.deps.Record("order.accept", err) }()

	now := uc.deps.Clock()
	order, err = transition(ctx, uc.deps, orderID, actor.UserID, "", func(_ context.Context, _ repository.Store, o *entity.Order) error {
		return o.Accept(actor.UserID, now)
	})
	if err != nil {
		return nil, err
	}

	uc.deps.Notify(ctx, gateway.Notification{
		UserID:  order.BuyerID,
		Event:   gateway.EventOrderAccepted,
		Title:   "Заказ принят в работу",
		Message: fmt.Sprintf("Продавец начал работу над заказом «%s»", order.Title),
		Type:    gateway.TypeOrder,
		Data:    orderData(order),
	})
	return order, nil
}

type DeliverOrderInput struct {
	Message string
	FileURL *string
}

type DeliverOrderUseCase struct {
	deps common.Deps
}

func NewDeliverOrderUseCase(deps common.Deps) *DeliverOrderUseCase {
	return &DeliverOrderUseCase{deps: deps}
}

// Execute сдаёт работу: запись о сдаче и смена статуса в одной транзакции.
func (uc *DeliverOrderUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, orderID int64, input DeliverOrderInput) (delivery *entity.OrderDelivery, err error) {
	defer func() { uc.deps.Record("order.deliver", err) }()

	now := uc.deps.Clock()
	order, err := transition(ctx, uc.deps, orderID, actor.UserID, "", func(ctx context.Context, tx repository.Store, o *entity.Order) error {
		if err := o.Deliver(actor.UserID, now); err != nil {
			return err
		}
		d, err := entity.NewOrderDelivery(o.ID, input.Message, input.FileURL, now)
		if err != nil {
			return err
		}
		if err := tx.Orders().CreateDelivery(ctx, d); err != nil {
			return err
		}
		delivery = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	data := orderData(order)
	data["delivery_id"] = delivery.ID
	uc.deps.Notify(ctx, gateway.Notification{
		UserID:  order.BuyerID,
		Event:   gateway.EventOrderDelivered,
		Title:   "Работа сдана",
		Message: fmt.Sprintf("Продавец сдал работу по заказу «%s»", order.Title),
		Type:    gateway.TypeOrder,
		Data:    data,
	})
	return delivery, nil
}

type CompleteOrderUseCase struct {
	deps common.Deps
}

func NewCompleteOrderUseCase(deps common.Deps) *CompleteOrderUseCase {
	return &CompleteOrderUseCase{deps: deps}
}

func (uc *CompleteOrderUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, orderID int64) (order *entity.Order, err error) {
	defer func() { uc.deps.Record("order.complete", err) }()

	now := uc.deps.Clock()
	order, err = transition(ctx, uc.deps, orderID, actor.UserID, "", func(ctx context.Context, tx repository.Store, o *entity.Order) error {
		if err := o.Complete(actor.UserID, now); err != nil {
			return err
		}
		return tx.Gigs().IncrementOrdersCount(ctx, o.GigID)
	})
	if err != nil {
		return nil, err
	}

	uc.deps.Notify(ctx, gateway.Notification{
		UserID:  order.SellerID,
		Event:   gateway.EventOrderCompleted,
		Title:   "Заказ завершён",
		Message: fmt.Sprintf("Покупатель принял работу по заказу «%s»", order.Title),
		Type:    gateway.TypeOrder,
		Data:    orderData(order),
	})
	return order, nil
}

type CancelOrderUseCase struct {
	deps common.Deps
}

func NewCancelOrderUseCase(deps common.Deps) *CancelOrderUseCase {
	return &CancelOrderUseCase{deps: deps}
}

func (uc *CancelOrderUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, orderID int64, reason string) (order *entity.Order, err error) {
	defer func() { uc.deps.Record("order.cancel", err) }()

	now := uc.deps.Clock()
	order, err = transition(ctx, uc.deps, orderID, actor.UserID, reason, func(_ context.Context, _ repository.Store, o *entity.Order) error {
		return o.Cancel(actor.UserID, reason, now)
	})
	if err != nil {
		return nil, err
	}

	data := orderData(order)
	message := fmt.Sprintf("Заказ «%s» отменён", order.Title)
	if order.CancellationReason != nil {
		data["reason"] = *order.CancellationReason
		message = fmt.Sprintf("%s. Причина: %s", message, *order.CancellationReason)
	}
	uc.deps.Notify(ctx, gateway.Notification{
		UserID:  order.Counterparty(actor.UserID),
		Event:   gateway.EventOrderCancelled,
		Title:   "Заказ отменён",
		Message: message,
		Type:    gateway.TypeOrder,
		Data:    data,
	})
	return order, nil
}

type UpdateStatusInput struct {
	Status string
	Reason string
}

// UpdateOrderStatusUseCase обслуживает PATCH /orders/{id}/status.
type UpdateOrderStatusUseCase struct {
	accept   *AcceptOrderUseCase
	complete *CompleteOrderUseCase
	cancel   *CancelOrderUseCase
}

func NewUpdateOrderStatusUseCase(deps common.Deps) *UpdateOrderStatusUseCase {
	return &UpdateOrderStatusUseCase{
		accept:   NewAcceptOrderUseCase(deps),
		complete: NewCompleteOrderUseCase(deps),
		cancel:   NewCancelOrderUseCase(deps),
	}
}

// Execute поддерживает только переходы, которые клиент задаёт статусом напрямую.
// delivered и disputed выставляются своими операциями.
func (uc *UpdateOrderStatusUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, orderID int64, input UpdateStatusInput) (*entity.Order, error) {
	switch valueobject.OrderStatus(input.Status) {
	case valueobject.OrderStatusInProgress:
		return uc.accept.Execute(ctx, actor, orderID)
	case valueobject.OrderStatusCompleted:
		return uc.complete.Execute(ctx, actor, orderID)
	case valueobject.OrderStatusCancelled:
		return uc.cancel.Execute(ctx, actor, orderID, input.Reason)
	default:
		return nil, apperror.New(apperror.ErrCodeInvalidTransition,
			fmt.Sprintf("статус %q нельзя установить напрямую", input.Status))
	}
}
