package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-orders/internal/validation"
)

type Order struct {
	ID                 int64
	BuyerID            int64
	SellerID           int64
	GigID              int64
	PackageReference   string
	ProposalID         *int64
	Title              string
	Description        string
	Revisions          int
	Status             valueobject.OrderStatus
	Price              valueobject.Money
	DeliveryTime       int
	Requirements       string
	Deadline           time.Time
	DeliveredAt        *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	CancellationReason *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type OrderDelivery struct {
	ID        int64
	OrderID   int64
	Message   string
	FileURL   *string
	CreatedAt time.Time
}

// OrderStatusChange запись журнала переходов заказа.
type OrderStatusChange struct {
	ID         int64
	OrderID    int64
	ActorID    *int64
	FromStatus *valueobject.OrderStatus
	ToStatus   valueobject.OrderStatus
	Note       string
	CreatedAt  time.Time
}

// DeadlineFor считает срок сдачи: created_at + delivery_time суток.
func DeadlineFor(createdAt time.Time, deliveryDays int) time.Time {
	return createdAt.Add(time.Duration(deliveryDays) * 24 * time.Hour)
}

// NewOrderFromPackage создаёт заказ при покупке пакета услуги.
func NewOrderFromPackage(buyerID int64, gig *Gig, pkg *GigPackage, requirements string, now time.Time) (*Order, error) {
	if !gig.IsActive {
		return nil, apperror.ErrGigInactive
	}
	if gig.SellerID == buyerID {
		return nil, apperror.ErrSelfPurchase
	}

	requirements = strings.TrimSpace(requirements)
	if err := validation.ValidateLength("требования", requirements, 0, validation.MaxRequirementsLength); err != nil {
		return nil, apperror.Validation("requirements", err.Error())
	}

	return newOrder(orderParams{
		buyerID:      buyerID,
		sellerID:     gig.SellerID,
		gigID:        gig.ID,
		packageRef:   string(pkg.PackageType),
		title:        gig.Title,
		revisions:    pkg.Revisions,
		price:        pkg.Price,
		deliveryTime: pkg.DeliveryTime,
		requirements: requirements,
	}, now)
}

// NewOrderFromProposal создаёт заказ из принятого индивидуального предложения.
// gig должен быть услугой предложения, прочитанной под блокировкой.
func NewOrderFromProposal(p *CustomProposal, gig *Gig, now time.Time) (*Order, error) {
	if gig == nil || gig.ID != p.GigID {
		return nil, apperror.ErrGigNotFound
	}
	if !gig.IsActive {
		return nil, apperror.ErrGigInactive
	}
	if p.SellerID == p.BuyerID {
		return nil, apperror.ErrSelfPurchase
	}
	proposalID := p.ID
	order, err := newOrder(orderParams{
		buyerID:      p.BuyerID,
		sellerID:     p.SellerID,
		gigID:        p.GigID,
		title:        p.Title,
		description:  p.Description,
		revisions:    p.Revisions,
		price:        p.Price,
		deliveryTime: p.DeliveryDays,
	}, now)
	if err != nil {
		return nil, err
	}
	order.ProposalID = &proposalID
	return order, nil
}

type orderParams struct {
	buyerID      int64
	sellerID     int64
	gigID        int64
	packageRef   string
	title        string
	description  string
	revisions    int
	price        valueobject.Money
	deliveryTime int
	requirements string
}

func newOrder(p orderParams, now time.Time) (*Order, error) {
	if p.deliveryTime <= 0 {
		return nil, apperror.Validation("delivery_time", "срок выполнения должен быть положительным")
	}
	if p.price.IsNegative() {
		return nil, apperror.Validation("price", "цена не может быть отрицательной")
	}

	return &Order{
		BuyerID:          p.buyerID,
		SellerID:         p.sellerID,
		GigID:            p.gigID,
		PackageReference: p.packageRef,
		Title:            p.title,
		Description:      p.description,
		Revisions:        p.revisions,
		Status:           valueobject.OrderStatusPending,
		Price:            p.price,
		DeliveryTime:     p.deliveryTime,
		Requirements:     p.requirements,
		Deadline:         DeadlineFor(now, p.deliveryTime),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (o *Order) IsBuyer(userID int64) bool {
	return o.BuyerID == userID
}

func (o *Order) IsSeller(userID int64) bool {
	return o.SellerID == userID
}

func (o *Order) IsParticipant(userID int64) bool {
	return o.IsBuyer(userID) || o.IsSeller(userID)
}

// Counterparty возвращает вторую сторону заказа относительно userID.
func (o *Order) Counterparty(userID int64) int64 {
	if o.IsBuyer(userID) {
		return o.SellerID
	}
	return o.BuyerID
}

// IsOverdue производное значение, в базе не хранится.
func (o *Order) IsOverdue(now time.Time) bool {
	if o.Status != valueobject.OrderStatusPending && o.Status != valueobject.OrderStatusInProgress {
		return false
	}
	return now.After(o.Deadline)
}

func (o *Order) Accept(actorID int64, now time.Time) error {
	if !o.IsSeller(actorID) {
		return apperror.ErrForbidden
	}
	return o.transitionTo(valueobject.OrderStatusInProgress, now)
}

// Deliver переводит заказ в delivered. Саму запись о сдаче создаёт NewOrderDelivery.
func (o *Order) Deliver(actorID int64, now time.Time) error {
	if !o.IsSeller(actorID) {
		return apperror.ErrForbidden
	}
	if err := o.transitionTo(valueobject.OrderStatusDelivered, now); err != nil {
		return err
	}
	if o.DeliveredAt == nil {
		o.DeliveredAt = &now
	}
	return nil
}

func (o *Order) Complete(actorID int64, now time.Time) error {
	if !o.IsBuyer(actorID) {
		return apperror.ErrForbidden
	}
	return o.complete(now)
}

func (o *Order) Cancel(actorID int64, reason string, now time.Time) error {
	if !o.IsParticipant(actorID) {
		return apperror.ErrForbidden
	}
	if o.Status != valueobject.OrderStatusPending && o.Status != valueobject.OrderStatusInProgress {
		return invalidTransition(o.Status, valueobject.OrderStatusCancelled)
	}
	reason = strings.TrimSpace(reason)
	if err := validation.ValidateLength("причина отмены", reason, 0, validation.MaxCancelReasonLength); err != nil {
		return apperror.Validation("reason", err.Error())
	}
	return o.cancel(reason, now)
}

// OpenDispute переводит заказ в disputed. Проверка участника выполняется в NewDispute.
func (o *Order) OpenDispute(now time.Time) error {
	if o.Status != valueobject.OrderStatusInProgress && o.Status != valueobject.OrderStatusDelivered {
		return invalidTransition(o.Status, valueobject.OrderStatusDisputed)
	}
	return o.transitionTo(valueobject.OrderStatusDisputed, now)
}

// ApplyDisputeResolution применяет решение модератора к заказу.
func (o *Order) ApplyDisputeResolution(winner valueobject.WinnerSide, now time.Time) error {
	if o.Status != valueobject.OrderStatusDisputed {
		return apperror.New(apperror.ErrCodeInvalidTransition, "заказ не находится в споре")
	}
	if winner == valueobject.WinnerSideSeller {
		return o.complete(now)
	}
	return o.cancel("", now)
}

func (o *Order) complete(now time.Time) error {
	if err := o.transitionTo(valueobject.OrderStatusCompleted, now); err != nil {
		return err
	}
	if o.CompletedAt == nil {
		o.CompletedAt = &now
	}
	return nil
}

func (o *Order) cancel(reason string, now time.Time) error {
	if err := o.transitionTo(valueobject.OrderStatusCancelled, now); err != nil {
		return err
	}
	o.CancelledAt = &now
	if reason != "" {
		o.CancellationReason = &reason
	}
	return nil
}

func (o *Order) transitionTo(status valueobject.OrderStatus, now time.Time) error {
	if !o.Status.CanTransitionTo(status) {
		return invalidTransition(o.Status, status)
	}
	o.Status = status
	o.UpdatedAt = now
	return nil
}

func invalidTransition(from, to valueobject.OrderStatus) error {
	return apperror.New(apperror.ErrCodeInvalidTransition,
		fmt.Sprintf("невозможно перевести заказ из статуса %s в %s", from, to))
}

// NewOrderDelivery валидирует сдачу работы.
func NewOrderDelivery(orderID int64, message string, fileURL *string, now time.Time) (*OrderDelivery, error) {
	message = strings.TrimSpace(message)
	if err := validation.ValidateLength("сообщение", message, validation.MinDeliveryMessageLength, validation.MaxDeliveryMessageLength); err != nil {
		return nil, apperror.Validation("message", err.Error())
	}
	if err := validation.ValidateFileURL(fileURL); err != nil {
		return nil, apperror.Validation("file_url", err.Error())
	}
	if fileURL != nil && strings.TrimSpace(*fileURL) == "" {
		fileURL = nil
	}

	return &OrderDelivery{
		OrderID:   orderID,
		Message:   message,
		FileURL:   fileURL,
		CreatedAt: now,
	}, nil
}

// NewStatusChange фиксирует переход для журнала.
func NewStatusChange(orderID int64, actorID *int64, from *valueobject.OrderStatus, to valueobject.OrderStatus, note string, now time.Time) *OrderStatusChange {
	return &OrderStatusChange{
		OrderID:    orderID,
		ActorID:    actorID,
		FromStatus: from,
		ToStatus:   to,
		Note:       note,
		CreatedAt:  now,
	}
}
