package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-orders/internal/validation"
)

type Dispute struct {
	ID           int64
	OrderID      int64
	CreatedByID  int64
	Reason       string
	Status       valueobject.DisputeStatus
	WinnerSide   *valueobject.WinnerSide
	Resolution   *string
	ResolvedByID *int64
	ResolvedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type DisputeMessage struct {
	ID          int64
	DisputeID   int64
	SenderID    int64
	Message     string
	IsModerator bool
	CreatedAt   time.Time
}

// NewDispute открывает спор по заказу от имени участника.
func NewDispute(order *Order, creatorID int64, reason string, now time.Time) (*Dispute, error) {
	if !order.IsParticipant(creatorID) {
		return nil, apperror.ErrForbidden
	}
	reason = strings.TrimSpace(reason)
	if err := validation.ValidateLength("причина спора", reason, validation.MinDisputeReasonLength, validation.MaxDisputeReasonLength); err != nil {
		return nil, apperror.Validation("reason", err.Error())
	}

	return &Dispute{
		OrderID:     order.ID,
		CreatedByID: creatorID,
		Reason:      reason,
		Status:      valueobject.DisputeStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ValidateResolution проверяет решение до захвата блокировок.
func ValidateResolution(winnerSide, resolution string) (valueobject.WinnerSide, string, error) {
	winner, err := valueobject.NewWinnerSide(winnerSide)
	if err != nil {
		return "", "", err
	}
	resolution = strings.TrimSpace(resolution)
	if err := validation.ValidateLength("решение", resolution, validation.MinDisputeResolutionLength, validation.MaxDisputeResolutionLength); err != nil {
		return "", "", apperror.Validation("resolution", err.Error())
	}
	return winner, resolution, nil
}

func (d *Dispute) Resolve(moderatorID int64, winner valueobject.WinnerSide, resolution string, now time.Time) error {
	switch d.Status {
	case valueobject.DisputeStatusResolved:
		return apperror.ErrDisputeAlreadyResolved
	case valueobject.DisputeStatusClosed:
		return apperror.ErrDisputeClosed
	}

	d.Status = valueobject.DisputeStatusResolved
	d.WinnerSide = &winner
	d.Resolution = &resolution
	d.ResolvedByID = &moderatorID
	d.ResolvedAt = &now
	d.UpdatedAt = now
	return nil
}

// Close архивирует разрешённый спор, после чего переписка запрещена.
func (d *Dispute) Close(now time.Time) error {
	switch d.Status {
	case valueobject.DisputeStatusClosed:
		return apperror.ErrDisputeClosed
	case valueobject.DisputeStatusOpen:
		return apperror.ErrDisputeNotResolved
	}
	d.Status = valueobject.DisputeStatusClosed
	d.UpdatedAt = now
	return nil
}

func (d *Dispute) AcceptsMessages() bool {
	return d.Status != valueobject.DisputeStatusClosed
}

func (d *Dispute) Touch(now time.Time) {
	d.UpdatedAt = now
}

// NewDisputeMessage валидирует сообщение участника или модератора.
func NewDisputeMessage(disputeID, senderID int64, text string, isModerator bool, now time.Time) (*DisputeMessage, error) {
	text = strings.TrimSpace(text)
	if err := validation.ValidateLength("сообщение", text, validation.MinDisputeMessageLength, validation.MaxDisputeMessageLength); err != nil {
		return nil, apperror.Validation("message", err.Error())
	}
	return &DisputeMessage{
		DisputeID:   disputeID,
		SenderID:    senderID,
		Message:     text,
		IsModerator: isModerator,
		CreatedAt:   now,
	}, nil
}

// NewResolutionMessage системное сообщение о решении. Длина ограничена решением, а не лимитом чата.
func NewResolutionMessage(d *Dispute, now time.Time) *DisputeMessage {
	side := "покупателя"
	if d.WinnerSide != nil && *d.WinnerSide == valueobject.WinnerSideSeller {
		side = "продавца"
	}
	text := fmt.Sprintf("Спор разрешён в пользу %s. Решение: %s", side, *d.Resolution)
	return &DisputeMessage{
		DisputeID:   d.ID,
		SenderID:    *d.ResolvedByID,
		Message:     text,
		IsModerator: true,
		CreatedAt:   now,
	}
}
