package persistence

import (
	"context"
	"time"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
)

const orderColumns = `id, buyer_id, seller_id, gig_id, package_reference, proposal_id, title, description,
	revisions, status, price, delivery_time, requirements, deadline, delivered_at, completed_at,
	cancelled_at, cancellation_reason, created_at, updated_at`

type orderRow struct {
	ID                 int64             `db:"id"`
	BuyerID            int64             `db:"buyer_id"`
	SellerID           int64             `db:"seller_id"`
	GigID              int64             `db:"gig_id"`
	PackageReference   string            `db:"package_reference"`
	ProposalID         *int64            `db:"proposal_id"`
	Title              string            `db:"title"`
	Description        string            `db:"description"`
	Revisions          int               `db:"revisions"`
	Status             string            `db:"status"`
	Price              valueobject.Money `db:"price"`
	DeliveryTime       int               `db:"delivery_time"`
	Requirements       string            `db:"requirements"`
	Deadline           time.Time         `db:"deadline"`
	DeliveredAt        *time.Time        `db:"delivered_at"`
	CompletedAt        *time.Time        `db:"completed_at"`
	CancelledAt        *time.Time        `db:"cancelled_at"`
	CancellationReason *string           `db:"cancellation_reason"`
	CreatedAt          time.Time         `db:"created_at"`
	UpdatedAt          time.Time         `db:"updated_at"`
}

func (r orderRow) toEntity() *entity.Order {
	return &entity.Order{
		ID:                 r.ID,
		BuyerID:            r.BuyerID,
		SellerID:           r.SellerID,
		GigID:              r.GigID,
		PackageReference:   r.PackageReference,
		ProposalID:         r.ProposalID,
		Title:              r.Title,
		Description:        r.Description,
		Revisions:          r.Revisions,
		Status:             valueobject.OrderStatus(r.Status),
		Price:              r.Price,
		DeliveryTime:       r.DeliveryTime,
		Requirements:       r.Requirements,
		Deadline:           r.Deadline.UTC(),
		DeliveredAt:        r.DeliveredAt,
		CompletedAt:        r.CompletedAt,
		CancelledAt:        r.CancelledAt,
		CancellationReason: r.CancellationReason,
		CreatedAt:          r.CreatedAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
	}
}

type deliveryRow struct {
	ID        int64     `db:"id"`
	OrderID   int64     `db:"order_id"`
	Message   string    `db:"message"`
	FileURL   *string   `db:"file_url"`
	CreatedAt time.Time `db:"created_at"`
}

type statusChangeRow struct {
	ID         int64     `db:"id"`
	OrderID    int64     `db:"order_id"`
	ActorID    *int64    `db:"actor_id"`
	FromStatus *string   `db:"from_status"`
	ToStatus   string    `db:"to_status"`
	Note       string    `db:"note"`
	CreatedAt  time.Time `db:"created_at"`
}

type OrderRepository struct {
	q dbtx
}

func (r *OrderRepository) Create(ctx context.Context, o *entity.Order) error {
	query := `
		INSERT INTO orders (buyer_id, seller_id, gig_id, package_reference, proposal_id, title, description,
			revisions, status, price, delivery_time, requirements, deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`
	err := r.q.GetContext(ctx, &o.ID, query,
		o.BuyerID, o.SellerID, o.GigID, o.PackageReference, o.ProposalID, o.Title, o.Description,
		o.Revisions, string(o.Status), o.Price, o.DeliveryTime, o.Requirements, o.Deadline,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return dbError(err, "не удалось создать заказ")
	}
	return nil
}

// Update пишет только изменяемые поля. Цена, срок и дедлайн после создания не меняются.
func (r *OrderRepository) Update(ctx context.Context, o *entity.Order) error {
	query := `
		UPDATE orders
		SET status = $2, delivered_at = $3, completed_at = $4, cancelled_at = $5,
		    cancellation_reason = $6, updated_at = $7
		WHERE id = $1
	`
	return execOne(ctx, r.q, apperror.ErrOrderNotFound, "не удалось обновить заказ", query,
		o.ID, string(o.Status), o.DeliveredAt, o.CompletedAt, o.CancelledAt, o.CancellationReason, o.UpdatedAt,
	)
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*entity.Order, error) {
	var row orderRow
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if err := getOne(ctx, r.q, &row, apperror.ErrOrderNotFound, query, id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *OrderRepository) LockByID(ctx context.Context, id int64) (*entity.Order, error) {
	var row orderRow
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	if err := getOne(ctx, r.q, &row, apperror.ErrOrderNotFound, query, id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *OrderRepository) CreateDelivery(ctx context.Context, d *entity.OrderDelivery) error {
	query := `
		INSERT INTO order_deliveries (order_id, message, file_url, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if err := r.q.GetContext(ctx, &d.ID, query, d.OrderID, d.Message, d.FileURL, d.CreatedAt); err != nil {
		return dbError(err, "не удалось сохранить сдачу работы")
	}
	return nil
}

func (r *OrderRepository) ListDeliveries(ctx context.Context, orderID int64) ([]*entity.OrderDelivery, error) {
	var rows []deliveryRow
	query := `
		SELECT id, order_id, message, file_url, created_at
		FROM order_deliveries
		WHERE order_id = $1
		ORDER BY created_at, id
	`
	if err := r.q.SelectContext(ctx, &rows, query, orderID); err != nil {
		return nil, dbError(err, "не удалось получить сдачи работы")
	}

	deliveries := make([]*entity.OrderDelivery, 0, len(rows))
	for _, row := range rows {
		deliveries = append(deliveries, &entity.OrderDelivery{
			ID:        row.ID,
			OrderID:   row.OrderID,
			Message:   row.Message,
			FileURL:   row.FileURL,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return deliveries, nil
}

func (r *OrderRepository) AddStatusChange(ctx context.Context, c *entity.OrderStatusChange) error {
	var from *string
	if c.FromStatus != nil {
		s := string(*c.FromStatus)
		from = &s
	}
	query := `
		INSERT INTO order_status_history (order_id, actor_id, from_status, to_status, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	if err := r.q.GetContext(ctx, &c.ID, query, c.OrderID, c.ActorID, from, string(c.ToStatus), c.Note, c.CreatedAt); err != nil {
		return dbError(err, "не удалось записать историю заказа")
	}
	return nil
}

func (r *OrderRepository) ListStatusChanges(ctx context.Context, orderID int64) ([]*entity.OrderStatusChange, error) {
	var rows []statusChangeRow
	query := `
		SELECT id, order_id, actor_id, from_status, to_status, note, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY id
	`
	if err := r.q.SelectContext(ctx, &rows, query, orderID); err != nil {
		return nil, dbError(err, "не удалось получить историю заказа")
	}

	changes := make([]*entity.OrderStatusChange, 0, len(rows))
	for _, row := range rows {
		change := &entity.OrderStatusChange{
			ID:        row.ID,
			OrderID:   row.OrderID,
			ActorID:   row.ActorID,
			ToStatus:  valueobject.OrderStatus(row.ToStatus),
			Note:      row.Note,
			CreatedAt: row.CreatedAt.UTC(),
		}
		if row.FromStatus != nil {
			from := valueobject.OrderStatus(*row.FromStatus)
			change.FromStatus = &from
		}
		changes = append(changes, change)
	}
	return changes, nil
}
