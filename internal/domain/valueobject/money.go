package valueobject

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
)

// Money денежная сумма с фиксированной точкой, хранится как NUMERIC(12,2).
type Money struct {
	decimal.Decimal
}

func NewMoney(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return Money{}, apperror.Validation("price", "сумма не может быть отрицательной")
	}
	return Money{Decimal: amount.Round(2)}, nil
}

// MustMoney используется для констант и тестов.
func MustMoney(amount string) Money {
	m, err := NewMoney(decimal.RequireFromString(amount))
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) IsPositive() bool {
	return m.Decimal.IsPositive()
}

func (m Money) String() string {
	return m.StringFixed(2)
}

// MarshalJSON отдаёт сумму строкой, чтобы клиент не терял точность.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", m.StringFixed(2))), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return m.Decimal.UnmarshalJSON(data)
}

func (m Money) Value() (driver.Value, error) {
	return m.StringFixed(2), nil
}

func (m *Money) Scan(value interface{}) error {
	return m.Decimal.Scan(value)
}
