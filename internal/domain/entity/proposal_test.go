package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
)

func newProposal(t *testing.T) *entity.CustomProposal {
	t.Helper()
	gig, _ := newGig()
	p, err := entity.NewCustomProposal(gig, sellerID, entity.ProposalDraft{
		BuyerID:      buyerID,
		Title:        "Доработка лендинга",
		Description:  "Добавить блок отзывов и форму обратной связи",
		Price:        valueobject.MustMoney("80"),
		DeliveryDays: 3,
	}, t0)
	require.NoError(t, err)
	return p
}

func TestCustomProposal_Expiry(t *testing.T) {
	p := newProposal(t)
	assert.Equal(t, t0.Add(entity.DefaultProposalTTL), p.ExpiresAt)
	assert.True(t, p.CanAccept(t0))

	past := p.ExpiresAt.Add(time.Minute)
	assert.False(t, p.CanAccept(past))

	err := p.Accept(buyerID, "", past)
	assert.ErrorIs(t, err, apperror.ErrProposalExpired)
	assert.Equal(t, valueobject.ProposalStatusExpired, p.Status)
	assert.Nil(t, p.AcceptedAt)

	assert.ErrorIs(t, p.Reject(buyerID, "", past), apperror.ErrProposalExpired)
	assert.False(t, p.ExpireIfDue(past))
}

func TestCustomProposal_Accept(t *testing.T) {
	p := newProposal(t)

	assert.ErrorIs(t, p.Accept(sellerID, "", t0), apperror.ErrForbidden)
	require.NoError(t, p.Accept(buyerID, " Согласен ", t0))
	assert.Equal(t, valueobject.ProposalStatusAccepted, p.Status)
	assert.Equal(t, "Согласен", *p.BuyerMessage)

	assert.ErrorIs(t, p.Accept(buyerID, "", t0), apperror.ErrProposalNotPending)
	assert.ErrorIs(t, p.Reject(buyerID, "", t0), apperror.ErrProposalNotPending)

	p.AttachOrder(99)
	assert.Equal(t, int64(99), *p.OrderID)
	assert.False(t, p.ExpireIfDue(p.ExpiresAt.Add(time.Hour)))
}

func TestNewCustomProposal_Guards(t *testing.T) {
	gig, _ := newGig()
	draft := entity.ProposalDraft{
		BuyerID:      buyerID,
		Title:        "Доработка лендинга",
		Description:  "Добавить блок отзывов и форму обратной связи",
		Price:        valueobject.MustMoney("80"),
		DeliveryDays: 3,
		ExpiresIn:    48 * time.Hour,
	}

	p, err := entity.NewCustomProposal(gig, sellerID, draft, t0)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(48*time.Hour), p.ExpiresAt)

	_, err = entity.NewCustomProposal(gig, otherID, draft, t0)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	self := draft
	self.BuyerID = sellerID
	_, err = entity.NewCustomProposal(gig, sellerID, self, t0)
	assert.ErrorIs(t, err, apperror.ErrSelfPurchase)

	invalid := draft
	invalid.Description = "коротко"
	invalid.DeliveryDays = 366
	invalid.Revisions = -1
	_, err = entity.NewCustomProposal(gig, sellerID, invalid, t0)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "description")
	assert.Contains(t, appErr.Fields, "delivery_days")
	assert.Contains(t, appErr.Fields, "revisions")
}
