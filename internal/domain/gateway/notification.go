package gateway

import "context"

const (
	EventOrderCreated     = "order_created"
	EventOrderAccepted    = "order_accepted"
	EventOrderDelivered   = "order_delivered"
	EventOrderCompleted   = "order_completed"
	EventOrderCancelled   = "order_cancelled"
	EventDisputeOpened    = "dispute_opened"
	EventDisputeMessage   = "dispute_message"
	EventDisputeResolved  = "dispute_resolved"
	EventDisputeClosed    = "dispute_closed"
	EventReviewCreated    = "review_created"
	EventReviewReplied    = "review_replied"
	EventProposalCreated  = "proposal_created"
	EventProposalAccepted = "proposal_accepted"
	EventProposalRejected = "proposal_rejected"
)

const (
	TypeOrder    = "order"
	TypeDispute  = "dispute"
	TypeReview   = "review"
	TypeProposal = "proposal"
)

type Notification struct {
	UserID  int64          `json:"user_id"`
	Event   string         `json:"event"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Type    string         `json:"type"`
	Data    map[string]any `json:"data,omitempty"`
}

// NotificationDispatcher best-effort доставка. Ошибка не влияет на уже зафиксированный переход.
type NotificationDispatcher interface {
	Send(ctx context.Context, n Notification) (string, error)
}
