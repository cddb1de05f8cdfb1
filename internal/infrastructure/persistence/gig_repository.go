package persistence

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
)

const gigColumns = `id, seller_id, title, is_active, rating_average, reviews_count, orders_count`

type gigRow struct {
	ID            int64           `db:"id"`
	SellerID      int64           `db:"seller_id"`
	Title         string          `db:"title"`
	IsActive      bool            `db:"is_active"`
	RatingAverage decimal.Decimal `db:"rating_average"`
	ReviewsCount  int             `db:"reviews_count"`
	OrdersCount   int             `db:"orders_count"`
}

type packageRow struct {
	ID           int64             `db:"id"`
	GigID        int64             `db:"gig_id"`
	PackageType  string            `db:"package_type"`
	Price        valueobject.Money `db:"price"`
	DeliveryTime int               `db:"delivery_time"`
	Revisions    int               `db:"revisions"`
}

// GigRepository читает каталог услуг. Сами услуги ведёт внешний сервис каталога,
// здесь меняются только агрегаты.
type GigRepository struct {
	q dbtx
}

func (r *GigRepository) FindByID(ctx context.Context, id int64) (*entity.Gig, error) {
	return r.findOne(ctx, `SELECT `+gigColumns+` FROM gigs WHERE id = $1`, id)
}

func (r *GigRepository) LockByID(ctx context.Context, id int64) (*entity.Gig, error) {
	return r.findOne(ctx, `SELECT `+gigColumns+` FROM gigs WHERE id = $1 FOR UPDATE`, id)
}

func (r *GigRepository) findOne(ctx context.Context, query string, id int64) (*entity.Gig, error) {
	var row gigRow
	if err := getOne(ctx, r.q, &row, apperror.ErrGigNotFound, query, id); err != nil {
		return nil, err
	}
	return &entity.Gig{
		ID:            row.ID,
		SellerID:      row.SellerID,
		Title:         row.Title,
		IsActive:      row.IsActive,
		RatingAverage: row.RatingAverage,
		ReviewsCount:  row.ReviewsCount,
		OrdersCount:   row.OrdersCount,
	}, nil
}

func (r *GigRepository) FindPackage(ctx context.Context, gigID int64, packageType valueobject.PackageType) (*entity.GigPackage, error) {
	var row packageRow
	query := `
		SELECT id, gig_id, package_type, price, delivery_time, revisions
		FROM gig_packages
		WHERE gig_id = $1 AND package_type = $2
	`
	if err := getOne(ctx, r.q, &row, apperror.ErrPackageNotFound, query, gigID, string(packageType)); err != nil {
		return nil, err
	}
	return &entity.GigPackage{
		ID:           row.ID,
		GigID:        row.GigID,
		PackageType:  valueobject.PackageType(row.PackageType),
		Price:        row.Price,
		DeliveryTime: row.DeliveryTime,
		Revisions:    row.Revisions,
	}, nil
}

func (r *GigRepository) UpdateRating(ctx context.Context, gigID int64, agg entity.RatingAggregate) error {
	return execOne(ctx, r.q, apperror.ErrGigNotFound, "не удалось обновить рейтинг услуги",
		`UPDATE gigs SET rating_average = $2, reviews_count = $3 WHERE id = $1`,
		gigID, agg.Average, agg.Count,
	)
}

func (r *GigRepository) IncrementOrdersCount(ctx context.Context, gigID int64) error {
	return execOne(ctx, r.q, apperror.ErrGigNotFound, "не удалось обновить счётчик заказов",
		`UPDATE gigs SET orders_count = orders_count + 1 WHERE id = $1`, gigID)
}
