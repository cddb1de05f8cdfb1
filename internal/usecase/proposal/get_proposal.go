package proposal

import (
	"context"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/repository"
	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-orders/internal/usecase/common"
)

type ProposalDetails struct {
	Proposal  *entity.CustomProposal
	Seller    *entity.Profile
	Buyer     *entity.Profile
	CanAccept bool
}

type GetProposalUseCase struct {
	deps common.Deps
}

func NewGetProposalUseCase(deps common.Deps) *GetProposalUseCase {
	return &GetProposalUseCase{deps: deps}
}

// Execute отдаёт предложение участнику. Просроченное ожидающее предложение
// при чтении помечается истёкшим.
func (uc *GetProposalUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, proposalID int64) (*ProposalDetails, error) {
	proposal, err := uc.deps.Store.Proposals().FindByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !proposal.IsParticipant(actor.UserID) {
		return nil, apperror.ErrForbidden
	}

	now := uc.deps.Clock()
	if proposal.Status == valueobject.ProposalStatusPending && proposal.IsExpired(now) {
		err := uc.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
			locked, err := tx.Proposals().LockByID(ctx, proposalID)
			if err != nil {
				return err
			}
			if !locked.ExpireIfDue(now) {
				return nil
			}
			proposal = locked
			return tx.Proposals().Update(ctx, locked)
		})
		if err != nil {
			return nil, err
		}
	}

	profiles := uc.deps.ProfilesByID(ctx, proposal.SellerID, proposal.BuyerID)
	return &ProposalDetails{
		Proposal:  proposal,
		Seller:    profiles[proposal.SellerID],
		Buyer:     profiles[proposal.BuyerID],
		CanAccept: proposal.CanAccept(now),
	}, nil
}
