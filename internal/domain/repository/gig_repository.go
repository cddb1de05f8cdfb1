package repository

import (
	"context"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
)

// GigRepository каталог услуг и их агрегаты.
type GigRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.Gig, error)
	LockByID(ctx context.Context, id int64) (*entity.Gig, error)
	FindPackage(ctx context.Context, gigID int64, packageType valueobject.PackageType) (*entity.GigPackage, error)
	UpdateRating(ctx context.Context, gigID int64, aggregate entity.RatingAggregate) error
	IncrementOrdersCount(ctx context.Context, gigID int64) error
}
