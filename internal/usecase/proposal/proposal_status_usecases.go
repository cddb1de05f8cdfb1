package proposal

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
	"github.com/ignatzorin/freelance-orders/internal/domain/repository"
	"github.com/ignatzorin/freelance-orders/internal/logger"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-orders/internal/usecase/common"
)

// decideFunc применяет решение покупателя к заблокированному предложению.
type decideFunc func(ctx context.Context, tx repository.Store, p *entity.CustomProposal) error

// decide блокирует предложение и применяет fn. Истечение срока фиксируется
// в базе даже при отказе, поэтому ErrProposalExpired возвращается после коммита.
func decide(ctx context.Context, deps common.Deps, proposalID int64, fn decideFunc) (*entity.CustomProposal, error) {
	var (
		result  *entity.CustomProposal
		expired bool
	)
	err := deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		locked, err := tx.Proposals().LockByID(ctx, proposalID)
		if err != nil {
			return err
		}
		if err := fn(ctx, tx, locked); err != nil {
			if errors.Is(err, apperror.ErrProposalExpired) {
				expired = true
				return tx.Proposals().Update(ctx, locked)
			}
			return err
		}
		result = locked
		return tx.Proposals().Update(ctx, locked)
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, apperror.ErrProposalExpired
	}
	return result, nil
}

// AcceptResult принятое предложение и созданный из него заказ.
type AcceptResult struct {
	Proposal *entity.CustomProposal
	Order    *entity.Order
}

type AcceptProposalUseCase struct {
	deps common.Deps
}

func NewAcceptProposalUseCase(deps common.Deps) *AcceptProposalUseCase {
	return &AcceptProposalUseCase{deps: deps}
}

// Execute принимает предложение и создаёт заказ в статусе pending.
func (uc *AcceptProposalUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, proposalID int64, buyerMessage string) (result *AcceptResult, err error) {
	defer func() { uc.deps.Record("proposal.accept", err) }()

	now := uc.deps.Clock()
	var order *entity.Order
	proposal, err := decide(ctx, uc.deps, proposalID, func(ctx context.Context, tx repository.Store, p *entity.CustomProposal) error {
		if err := p.Accept(actor.UserID, buyerMessage, now); err != nil {
			return err
		}
		gig, err := tx.Gigs().LockByID(ctx, p.GigID)
		if err != nil {
			return err
		}
		created, err := entity.NewOrderFromProposal(p, gig, now)
		if err != nil {
			return err
		}
		if err := tx.Orders().Create(ctx, created); err != nil {
			return err
		}
		if err := common.SaveTransition(ctx, tx, created, "", actor.UserID, ""); err != nil {
			return err
		}
		p.AttachOrder(created.ID)
		order = created
		return nil
	})
	if err != nil {
		if errors.Is(err, apperror.ErrProposalExpired) {
			logger.Log.WithFields(logrus.Fields{
				"proposal_id": proposalID,
				"buyer_id":    actor.UserID,
			}).Info("попытка принять истёкшее предложение")
		}
		return nil, err
	}

	uc.deps.Notify(ctx, gateway.Notification{
		UserID:  proposal.SellerID,
		Event:   gateway.EventProposalAccepted,
		Title:   "Предложение принято",
		Message: fmt.Sprintf("Покупатель принял предложение «%s», создан заказ", proposal.Title),
		Type:    gateway.TypeProposal,
		Data:    proposalData(proposal),
	})
	return &AcceptResult{Proposal: proposal, Order: order}, nil
}

type RejectProposalUseCase struct {
	deps common.Deps
}

func NewRejectProposalUseCase(deps common.Deps) *RejectProposalUseCase {
	return &RejectProposalUseCase{deps: deps}
}

func (uc *RejectProposalUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, proposalID int64, buyerMessage string) (proposal *entity.CustomProposal, err error) {
	defer func() { uc.deps.Record("proposal.reject", err) }()

	now := uc.deps.Clock()
	proposal, err = decide(ctx, uc.deps, proposalID, func(_ context.Context, _ repository.Store, p *entity.CustomProposal) error {
		return p.Reject(actor.UserID, buyerMessage, now)
	})
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Покупатель отклонил предложение «%s»", proposal.Title)
	if proposal.BuyerMessage != nil {
		message = fmt.Sprintf("%s: %s", message, *proposal.BuyerMessage)
	}
	uc.deps.Notify(ctx, gateway.Notification{
		UserID:  proposal.SellerID,
		Event:   gateway.EventProposalRejected,
		Title:   "Предложение отклонено",
		Message: message,
		Type:    gateway.TypeProposal,
		Data:    proposalData(proposal),
	})
	return proposal, nil
}

type ExpireProposalsUseCase struct {
	deps common.Deps
}

func NewExpireProposalsUseCase(deps common.Deps) *ExpireProposalsUseCase {
	return &ExpireProposalsUseCase{deps: deps}
}

// Execute помечает истёкшими все просроченные ожидающие предложения.
func (uc *ExpireProposalsUseCase) Execute(ctx context.Context) (expired int64, err error) {
	defer func() { uc.deps.Record("proposal.expire_sweep", err) }()
	return uc.deps.Store.Proposals().ExpirePending(ctx, uc.deps.Clock())
}
