package persistence

import (
	"context"
	"time"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
)

const (
	disputeColumns = `id, order_id, created_by_id, reason, status, winner_side, resolution,
	resolved_by_id, resolved_at, created_at, updated_at`

	disputesOrderUnique = "disputes_order_id_key"
)

type disputeRow struct {
	ID           int64      `db:"id"`
	OrderID      int64      `db:"order_id"`
	CreatedByID  int64      `db:"created_by_id"`
	Reason       string     `db:"reason"`
	Status       string     `db:"status"`
	WinnerSide   *string    `db:"winner_side"`
	Resolution   *string    `db:"resolution"`
	ResolvedByID *int64     `db:"resolved_by_id"`
	ResolvedAt   *time.Time `db:"resolved_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (r disputeRow) toEntity() *entity.Dispute {
	d := &entity.Dispute{
		ID:           r.ID,
		OrderID:      r.OrderID,
		CreatedByID:  r.CreatedByID,
		Reason:       r.Reason,
		Status:       valueobject.DisputeStatus(r.Status),
		Resolution:   r.Resolution,
		ResolvedByID: r.ResolvedByID,
		ResolvedAt:   r.ResolvedAt,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.WinnerSide != nil {
		w := valueobject.WinnerSide(*r.WinnerSide)
		d.WinnerSide = &w
	}
	return d
}

type disputeMessageRow struct {
	ID          int64     `db:"id"`
	DisputeID   int64     `db:"dispute_id"`
	SenderID    int64     `db:"sender_id"`
	Message     string    `db:"message"`
	IsModerator bool      `db:"is_moderator"`
	CreatedAt   time.Time `db:"created_at"`
}

type DisputeRepository struct {
	q dbtx
}

func (r *DisputeRepository) Create(ctx context.Context, d *entity.Dispute) error {
	query := `
		INSERT INTO disputes (order_id, created_by_id, reason, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.q.GetContext(ctx, &d.ID, query, d.OrderID, d.CreatedByID, d.Reason, string(d.Status), d.CreatedAt, d.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, disputesOrderUnique) {
			return apperror.ErrDisputeExists
		}
		return dbError(err, "не удалось создать спор")
	}
	return nil
}

func (r *DisputeRepository) Update(ctx context.Context, d *entity.Dispute) error {
	var winner *string
	if d.WinnerSide != nil {
		w := string(*d.WinnerSide)
		winner = &w
	}
	query := `
		UPDATE disputes
		SET status = $2, winner_side = $3, resolution = $4, resolved_by_id = $5, resolved_at = $6, updated_at = $7
		WHERE id = $1
	`
	return execOne(ctx, r.q, apperror.ErrDisputeNotFound, "не удалось обновить спор", query,
		d.ID, string(d.Status), winner, d.Resolution, d.ResolvedByID, d.ResolvedAt, d.UpdatedAt,
	)
}

func (r *DisputeRepository) FindByID(ctx context.Context, id int64) (*entity.Dispute, error) {
	return r.findOne(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1`, id)
}

func (r *DisputeRepository) LockByID(ctx context.Context, id int64) (*entity.Dispute, error) {
	return r.findOne(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1 FOR UPDATE`, id)
}

func (r *DisputeRepository) FindByOrderID(ctx context.Context, orderID int64) (*entity.Dispute, error) {
	return r.findOne(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE order_id = $1`, orderID)
}

func (r *DisputeRepository) findOne(ctx context.Context, query string, arg int64) (*entity.Dispute, error) {
	var row disputeRow
	if err := getOne(ctx, r.q, &row, apperror.ErrDisputeNotFound, query, arg); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *DisputeRepository) AddMessage(ctx context.Context, m *entity.DisputeMessage) error {
	query := `
		INSERT INTO dispute_messages (dispute_id, sender_id, message, is_moderator, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	if err := r.q.GetContext(ctx, &m.ID, query, m.DisputeID, m.SenderID, m.Message, m.IsModerator, m.CreatedAt); err != nil {
		return dbError(err, "не удалось сохранить сообщение")
	}
	return nil
}

func (r *DisputeRepository) ListMessages(ctx context.Context, disputeID int64) ([]*entity.DisputeMessage, error) {
	var rows []disputeMessageRow
	query := `
		SELECT id, dispute_id, sender_id, message, is_moderator, created_at
		FROM dispute_messages
		WHERE dispute_id = $1
		ORDER BY created_at, id
	`
	if err := r.q.SelectContext(ctx, &rows, query, disputeID); err != nil {
		return nil, dbError(err, "не удалось получить сообщения спора")
	}

	messages := make([]*entity.DisputeMessage, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, &entity.DisputeMessage{
			ID:          row.ID,
			DisputeID:   row.DisputeID,
			SenderID:    row.SenderID,
			Message:     row.Message,
			IsModerator: row.IsModerator,
			CreatedAt:   row.CreatedAt.UTC(),
		})
	}
	return messages, nil
}
