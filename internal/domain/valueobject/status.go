package valueobject

import "github.com/ignatzorin/freelance-orders/internal/pkg/apperror"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusDisputed   OrderStatus = "disputed"
)

// orderTransitions единственный источник допустимых переходов заказа.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusDelivered, OrderStatusCancelled, OrderStatusDisputed},
	OrderStatusDelivered:  {OrderStatusCompleted, OrderStatusDisputed},
	OrderStatusDisputed:   {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	allowed, ok := orderTransitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

func NewOrderStatus(status string) (OrderStatus, error) {
	s := OrderStatus(status)
	if !s.IsValid() {
		return "", apperror.Validation("status", "некорректный статус заказа")
	}
	return s, nil
}

type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "open"
	DisputeStatusResolved DisputeStatus = "resolved"
	DisputeStatusClosed   DisputeStatus = "closed"
)

type WinnerSide string

const (
	WinnerSideBuyer  WinnerSide = "buyer"
	WinnerSideSeller WinnerSide = "seller"
)

func NewWinnerSide(side string) (WinnerSide, error) {
	w := WinnerSide(side)
	if w != WinnerSideBuyer && w != WinnerSideSeller {
		return "", apperror.Validation("winner_side", "победитель спора должен быть buyer или seller")
	}
	return w, nil
}

type ProposalStatus string

const (
	ProposalStatusPending  ProposalStatus = "pending"
	ProposalStatusAccepted ProposalStatus = "accepted"
	ProposalStatusRejected ProposalStatus = "rejected"
	ProposalStatusExpired  ProposalStatus = "expired"
)

func (s ProposalStatus) IsValid() bool {
	switch s {
	case ProposalStatusPending, ProposalStatusAccepted, ProposalStatusRejected, ProposalStatusExpired:
		return true
	}
	return false
}

type PackageType string

const (
	PackageBasic    PackageType = "basic"
	PackageStandard PackageType = "standard"
	PackagePremium  PackageType = "premium"
)

func NewPackageType(t string) (PackageType, error) {
	p := PackageType(t)
	switch p {
	case PackageBasic, PackageStandard, PackagePremium:
		return p, nil
	}
	return "", apperror.Validation("package_type", "тип пакета должен быть basic, standard или premium")
}
