package persistence

import (
	"context"
	"time"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
)

const proposalColumns = `id, gig_id, seller_id, buyer_id, title, description, price, delivery_days, revisions,
	status, expires_at, buyer_message, order_id, accepted_at, rejected_at, created_at`

type proposalRow struct {
	ID           int64             `db:"id"`
	GigID        int64             `db:"gig_id"`
	SellerID     int64             `db:"seller_id"`
	BuyerID      int64             `db:"buyer_id"`
	Title        string            `db:"title"`
	Description  string            `db:"description"`
	Price        valueobject.Money `db:"price"`
	DeliveryDays int               `db:"delivery_days"`
	Revisions    int               `db:"revisions"`
	Status       string            `db:"status"`
	ExpiresAt    time.Time         `db:"expires_at"`
	BuyerMessage *string           `db:"buyer_message"`
	OrderID      *int64            `db:"order_id"`
	AcceptedAt   *time.Time        `db:"accepted_at"`
	RejectedAt   *time.Time        `db:"rejected_at"`
	CreatedAt    time.Time         `db:"created_at"`
}

func (r proposalRow) toEntity() *entity.CustomProposal {
	return &entity.CustomProposal{
		ID:           r.ID,
		GigID:        r.GigID,
		SellerID:     r.SellerID,
		BuyerID:      r.BuyerID,
		Title:        r.Title,
		Description:  r.Description,
		Price:        r.Price,
		DeliveryDays: r.DeliveryDays,
		Revisions:    r.Revisions,
		Status:       valueobject.ProposalStatus(r.Status),
		ExpiresAt:    r.ExpiresAt.UTC(),
		BuyerMessage: r.BuyerMessage,
		OrderID:      r.OrderID,
		AcceptedAt:   r.AcceptedAt,
		RejectedAt:   r.RejectedAt,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

type ProposalRepository struct {
	q dbtx
}

func (r *ProposalRepository) Create(ctx context.Context, p *entity.CustomProposal) error {
	query := `
		INSERT INTO custom_proposals (gig_id, seller_id, buyer_id, title, description, price, delivery_days,
			revisions, status, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err := r.q.GetContext(ctx, &p.ID, query,
		p.GigID, p.SellerID, p.BuyerID, p.Title, p.Description, p.Price, p.DeliveryDays,
		p.Revisions, string(p.Status), p.ExpiresAt, p.CreatedAt,
	)
	if err != nil {
		return dbError(err, "не удалось создать предложение")
	}
	return nil
}

func (r *ProposalRepository) Update(ctx context.Context, p *entity.CustomProposal) error {
	query := `
		UPDATE custom_proposals
		SET status = $2, buyer_message = $3, order_id = $4, accepted_at = $5, rejected_at = $6
		WHERE id = $1
	`
	return execOne(ctx, r.q, apperror.ErrProposalNotFound, "не удалось обновить предложение", query,
		p.ID, string(p.Status), p.BuyerMessage, p.OrderID, p.AcceptedAt, p.RejectedAt,
	)
}

func (r *ProposalRepository) FindByID(ctx context.Context, id int64) (*entity.CustomProposal, error) {
	var row proposalRow
	query := `SELECT ` + proposalColumns + ` FROM custom_proposals WHERE id = $1`
	if err := getOne(ctx, r.q, &row, apperror.ErrProposalNotFound, query, id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *ProposalRepository) LockByID(ctx context.Context, id int64) (*entity.CustomProposal, error) {
	var row proposalRow
	query := `SELECT ` + proposalColumns + ` FROM custom_proposals WHERE id = $1 FOR UPDATE`
	if err := getOne(ctx, r.q, &row, apperror.ErrProposalNotFound, query, id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *ProposalRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE custom_proposals
		SET status = 'expired'
		WHERE status = 'pending' AND expires_at < $1
	`
	result, err := r.q.ExecContext(ctx, query, now)
	if err != nil {
		return 0, dbError(err, "не удалось закрыть просроченные предложения")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, dbError(err, "не удалось закрыть просроченные предложения")
	}
	return n, nil
}
