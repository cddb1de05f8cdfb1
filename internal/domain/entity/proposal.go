package entity

import (
	"strings"
	"time"

	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-orders/internal/validation"
)

// DefaultProposalTTL срок действия предложения, если не задан явно.
const DefaultProposalTTL = 7 * 24 * time.Hour

// CustomProposal индивидуальное предложение продавца конкретному покупателю.
type CustomProposal struct {
	ID           int64
	GigID        int64
	SellerID     int64
	BuyerID      int64
	Title        string
	Description  string
	Price        valueobject.Money
	DeliveryDays int
	Revisions    int
	Status       valueobject.ProposalStatus
	ExpiresAt    time.Time
	BuyerMessage *string
	OrderID      *int64
	AcceptedAt   *time.Time
	RejectedAt   *time.Time
	CreatedAt    time.Time
}

type ProposalDraft struct {
	BuyerID      int64
	Title        string
	Description  string
	Price        valueobject.Money
	DeliveryDays int
	Revisions    int
	// ExpiresIn ноль означает срок по умолчанию.
	ExpiresIn time.Duration
}

func NewCustomProposal(gig *Gig, sellerID int64, d ProposalDraft, now time.Time) (*CustomProposal, error) {
	if gig.SellerID != sellerID {
		return nil, apperror.ErrForbidden
	}
	if !gig.IsActive {
		return nil, apperror.ErrGigInactive
	}
	if d.BuyerID == sellerID {
		return nil, apperror.ErrSelfPurchase
	}

	fields := map[string]string{}
	d.Title = strings.TrimSpace(d.Title)
	if err := validation.ValidateLength("название", d.Title, validation.MinProposalTitleLength, validation.MaxProposalTitleLength); err != nil {
		fields["title"] = err.Error()
	}
	d.Description = strings.TrimSpace(d.Description)
	if err := validation.ValidateLength("описание", d.Description, validation.MinProposalDescriptionLength, validation.MaxProposalDescriptionLength); err != nil {
		fields["description"] = err.Error()
	}
	if !d.Price.IsPositive() {
		fields["price"] = "цена должна быть положительной"
	}
	if err := validation.ValidateRange("срок выполнения", d.DeliveryDays, validation.MinDeliveryDays, validation.MaxDeliveryDays); err != nil {
		fields["delivery_days"] = err.Error()
	}
	if err := validation.ValidateRange("количество правок", d.Revisions, 0, validation.MaxRevisions); err != nil {
		fields["revisions"] = err.Error()
	}
	if len(fields) > 0 {
		return nil, apperror.ValidationFields(fields)
	}

	ttl := d.ExpiresIn
	if ttl <= 0 {
		ttl = DefaultProposalTTL
	}

	return &CustomProposal{
		GigID:        gig.ID,
		SellerID:     sellerID,
		BuyerID:      d.BuyerID,
		Title:        d.Title,
		Description:  d.Description,
		Price:        d.Price,
		DeliveryDays: d.DeliveryDays,
		Revisions:    d.Revisions,
		Status:       valueobject.ProposalStatusPending,
		ExpiresAt:    now.Add(ttl),
		CreatedAt:    now,
	}, nil
}

func (p *CustomProposal) IsParticipant(userID int64) bool {
	return p.BuyerID == userID || p.SellerID == userID
}

func (p *CustomProposal) IsExpired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

func (p *CustomProposal) CanAccept(now time.Time) bool {
	return p.Status == valueobject.ProposalStatusPending && !p.IsExpired(now)
}

// ExpireIfDue ленивое истечение срока. Возвращает true, если статус изменился.
func (p *CustomProposal) ExpireIfDue(now time.Time) bool {
	if p.Status != valueobject.ProposalStatusPending || !p.IsExpired(now) {
		return false
	}
	p.Status = valueobject.ProposalStatusExpired
	return true
}

// Accept проверяет возможность принятия. Заказ создаётся отдельно и привязывается через AttachOrder.
func (p *CustomProposal) Accept(actorID int64, buyerMessage string, now time.Time) error {
	if p.BuyerID != actorID {
		return apperror.ErrForbidden
	}
	if p.ExpireIfDue(now) {
		return apperror.ErrProposalExpired
	}
	if p.Status == valueobject.ProposalStatusExpired {
		return apperror.ErrProposalExpired
	}
	if !p.CanAccept(now) {
		return apperror.ErrProposalNotPending
	}

	buyerMessage = strings.TrimSpace(buyerMessage)
	if err := validation.ValidateLength("сообщение покупателя", buyerMessage, 0, validation.MaxBuyerMessageLength); err != nil {
		return apperror.Validation("buyer_message", err.Error())
	}
	if buyerMessage != "" {
		p.BuyerMessage = &buyerMessage
	}

	p.Status = valueobject.ProposalStatusAccepted
	p.AcceptedAt = &now
	return nil
}

func (p *CustomProposal) AttachOrder(orderID int64) {
	p.OrderID = &orderID
}

func (p *CustomProposal) Reject(actorID int64, buyerMessage string, now time.Time) error {
	if p.BuyerID != actorID {
		return apperror.ErrForbidden
	}
	if p.ExpireIfDue(now) || p.Status == valueobject.ProposalStatusExpired {
		return apperror.ErrProposalExpired
	}
	if p.Status != valueobject.ProposalStatusPending {
		return apperror.ErrProposalNotPending
	}

	buyerMessage = strings.TrimSpace(buyerMessage)
	if err := validation.ValidateLength("сообщение покупателя", buyerMessage, 0, validation.MaxBuyerMessageLength); err != nil {
		return apperror.Validation("buyer_message", err.Error())
	}
	if buyerMessage != "" {
		p.BuyerMessage = &buyerMessage
	}

	p.Status = valueobject.ProposalStatusRejected
	p.RejectedAt = &now
	return nil
}
