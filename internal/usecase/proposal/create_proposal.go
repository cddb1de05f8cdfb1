package proposal

import (
	"context"
	"fmt"
	"time"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-orders/internal/usecase/common"
	"github.com/ignatzorin/freelance-orders/internal/validation"
)

type CreateProposalInput struct {
	GigID        int64
	BuyerID      int64
	Title        string
	Description  string
	Price        valueobject.Money
	DeliveryDays int
	Revisions    int
	// ExpiresInDays ноль означает срок по умолчанию.
	ExpiresInDays int
}

type CreateProposalUseCase struct {
	deps common.Deps
}

func NewCreateProposalUseCase(deps common.Deps) *CreateProposalUseCase {
	return &CreateProposalUseCase{deps: deps}
}

func (uc *CreateProposalUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, input CreateProposalInput) (proposal *entity.CustomProposal, err error) {
	defer func() { uc.deps.Record("proposal.create", err) }()

	if input.ExpiresInDays != 0 {
		if err := validation.ValidateRange("срок действия", input.ExpiresInDays, 1, validation.MaxProposalExpiresInDays); err != nil {
			return nil, apperror.Validation("expires_in_days", err.Error())
		}
	}

	gig, err := uc.deps.Store.Gigs().FindByID(ctx, input.GigID)
	if err != nil {
		return nil, err
	}

	proposal, err = entity.NewCustomProposal(gig, actor.UserID, entity.ProposalDraft{
		BuyerID:      input.BuyerID,
		Title:        input.Title,
		Description:  input.Description,
		Price:        input.Price,
		DeliveryDays: input.DeliveryDays,
		Revisions:    input.Revisions,
		ExpiresIn:    time.Duration(input.ExpiresInDays) * 24 * time.Hour,
	}, uc.deps.Clock())
	if err != nil {
		return nil, err
	}
	if err := uc.deps.Store.Proposals().Create(ctx, proposal); err != nil {
		return nil, err
	}

	uc.deps.Notify(ctx, gateway.Notification{
		UserID:  proposal.BuyerID,
		Event:   gateway.EventProposalCreated,
		Title:   "Индивидуальное предложение",
		Message: fmt.Sprintf("Продавец отправил вам предложение «%s» за %s", proposal.Title, proposal.Price),
		Type:    gateway.TypeProposal,
		Data:    proposalData(proposal),
	})
	return proposal, nil
}

func proposalData(p *entity.CustomProposal) map[string]any {
	data := map[string]any{
		"proposal_id": p.ID,
		"gig_id":      p.GigID,
		"status":      p.Status,
	}
	if p.OrderID != nil {
		data["order_id"] = *p.OrderID
	}
	return data
}
