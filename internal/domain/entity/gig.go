package entity

import (
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
)

// Gig услуга продавца из каталога. Агрегаты рейтинга и счётчик заказов
// пересчитываются только под блокировкой строки.
type Gig struct {
	ID            int64
	SellerID      int64
	Title         string
	IsActive      bool
	RatingAverage decimal.Decimal
	ReviewsCount  int
	OrdersCount   int
}

type GigPackage struct {
	ID           int64
	GigID        int64
	PackageType  valueobject.PackageType
	Price        valueobject.Money
	DeliveryTime int
	Revisions    int
}

// RatingAggregate результат пересчёта по активным отзывам.
type RatingAggregate struct {
	Average decimal.Decimal
	Count   int
}
