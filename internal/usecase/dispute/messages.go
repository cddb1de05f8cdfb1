package dispute

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
	"github.com/ignatzorin/freelance-orders/internal/domain/repository"
	"github.com/ignatzorin/freelance-orders/internal/logger"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-orders/internal/usecase/common"
)

type AddMessageUseCase struct {
	deps common.Deps
}

func NewAddMessageUseCase(deps common.Deps) *AddMessageUseCase {
	return &AddMessageUseCase{deps: deps}
}

// Execute добавляет сообщение в переписку по спору.
// Права проверяются до блокировки, статус спора перепроверяется под блокировкой.
func (uc *AddMessageUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, disputeID int64, text string) (message *entity.DisputeMessage, err error) {
	defer func() { uc.deps.Record("dispute.message", err) }()

	dispute, order, err := loadDispute(ctx, uc.deps.Store, disputeID)
	if err != nil {
		return nil, err
	}

	participant := order.IsParticipant(actor.UserID)
	if !participant {
		if _, err := uc.deps.RequireModerator(ctx, actor); err != nil {
			return nil, err
		}
	}
	if !dispute.AcceptsMessages() {
		return nil, apperror.ErrDisputeClosed
	}

	now := uc.deps.Clock()
	message, err = entity.NewDisputeMessage(dispute.ID, actor.UserID, text, !participant, now)
	if err != nil {
		return nil, err
	}

	err = uc.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		locked, err := tx.Disputes().LockByID(ctx, disputeID)
		if err != nil {
			return err
		}
		if !locked.AcceptsMessages() {
			return apperror.ErrDisputeClosed
		}
		if err := tx.Disputes().AddMessage(ctx, message); err != nil {
			return err
		}
		locked.Touch(now)
		return tx.Disputes().Update(ctx, locked)
	})
	if err != nil {
		return nil, err
	}

	var notifications []gateway.Notification
	for _, recipient := range []int64{order.BuyerID, order.SellerID} {
		if recipient == actor.UserID {
			continue
		}
		notifications = append(notifications, gateway.Notification{
			UserID:  recipient,
			Event:   gateway.EventDisputeMessage,
			Title:   "Новое сообщение в споре",
			Message: fmt.Sprintf("Новое сообщение в споре по заказу «%s»", order.Title),
			Type:    gateway.TypeDispute,
			Data: map[string]any{
				"dispute_id": dispute.ID,
				"order_id":   order.ID,
				"message_id": message.ID,
			},
		})
	}
	uc.deps.Notify(ctx, notifications...)
	return message, nil
}

// MessageView сообщение с профилем отправителя. Sender nil, если справочник не ответил.
type MessageView struct {
	Message *entity.DisputeMessage
	Sender  *entity.Profile
}

type ListMessagesUseCase struct {
	deps common.Deps
}

func NewListMessagesUseCase(deps common.Deps) *ListMessagesUseCase {
	return &ListMessagesUseCase{deps: deps}
}

func (uc *ListMessagesUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, disputeID int64) ([]MessageView, error) {
	dispute, order, err := loadDispute(ctx, uc.deps.Store, disputeID)
	if err != nil {
		return nil, err
	}
	if err := uc.deps.RequireParticipantOrModerator(ctx, actor, order.IsParticipant(actor.UserID)); err != nil {
		return nil, err
	}

	messages, err := uc.deps.Store.Disputes().ListMessages(ctx, dispute.ID)
	if err != nil {
		return nil, err
	}

	senders := make([]int64, 0, len(messages))
	for _, m := range messages {
		senders = append(senders, m.SenderID)
	}
	profiles := uc.deps.ProfilesByID(ctx, senders...)

	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, MessageView{Message: m, Sender: profiles[m.SenderID]})
	}
	return views, nil
}

// DisputeDetails спор вместе с заказом и профилями сторон.
type DisputeDetails struct {
	Dispute *entity.Dispute
	Order   *entity.Order
	Buyer   *entity.Profile
	Seller  *entity.Profile
}

type GetDisputeUseCase struct {
	deps common.Deps
}

func NewGetDisputeUseCase(deps common.Deps) *GetDisputeUseCase {
	return &GetDisputeUseCase{deps: deps}
}

func (uc *GetDisputeUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, disputeID int64) (*DisputeDetails, error) {
	dispute, order, err := loadDispute(ctx, uc.deps.Store, disputeID)
	if err != nil {
		return nil, err
	}
	if err := uc.deps.RequireParticipantOrModerator(ctx, actor, order.IsParticipant(actor.UserID)); err != nil {
		return nil, err
	}

	profiles := uc.deps.ProfilesByID(ctx, order.BuyerID, order.SellerID)
	return &DisputeDetails{
		Dispute: dispute,
		Order:   order,
		Buyer:   profiles[order.BuyerID],
		Seller:  profiles[order.SellerID],
	}, nil
}

func loadDispute(ctx context.Context, store repository.Store, disputeID int64) (*entity.Dispute, *entity.Order, error) {
	dispute, err := store.Disputes().FindByID(ctx, disputeID)
	if err != nil {
		return nil, nil, err
	}
	order, err := store.Orders().FindByID(ctx, dispute.OrderID)
	if err != nil {
		if apperror.IsNotFound(err) {
			logger.Log.WithFields(logrus.Fields{
				"dispute_id": dispute.ID,
				"order_id":   dispute.OrderID,
			}).Error("спор ссылается на несуществующий заказ")
		}
		return nil, nil, err
	}
	return dispute, order, nil
}
