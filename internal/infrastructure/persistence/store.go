// Package persistence реализует репозитории домена поверх PostgreSQL (sqlx + lib/pq).
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/freelance-orders/internal/domain/repository"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
)

// dbtx общий набор методов *sqlx.DB и *sqlx.Tx.
type dbtx interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type queries struct {
	q dbtx
}

func (s queries) Orders() repository.OrderRepository       { return &OrderRepository{q: s.q} }
func (s queries) Disputes() repository.DisputeRepository   { return &DisputeRepository{q: s.q} }
func (s queries) Reviews() repository.ReviewRepository     { return &ReviewRepository{q: s.q} }
func (s queries) Proposals() repository.ProposalRepository { return &ProposalRepository{q: s.q} }
func (s queries) Gigs() repository.GigRepository           { return &GigRepository{q: s.q} }

// Store точка входа в хранилище. Вне транзакции репозитории работают через пул.
type Store struct {
	queries
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{queries: queries{q: db}, db: db}
}

var _ repository.Transactor = (*Store)(nil)

// WithinTransaction выполняет fn в транзакции. Ошибка или паника откатывают её.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось начать транзакцию")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, queries{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось зафиксировать транзакцию")
	}
	return nil
}

const pqUniqueViolation = "23505"

// isUniqueViolation проверяет нарушение конкретного уникального индекса.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == pqUniqueViolation && pqErr.Constraint == constraint
}

// getOne читает одну строку, sql.ErrNoRows превращается в notFound.
func getOne(ctx context.Context, q dbtx, dest interface{}, notFound error, query string, args ...interface{}) error {
	if err := q.GetContext(ctx, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound
		}
		return dbError(err, "ошибка чтения из базы данных")
	}
	return nil
}

// execOne выполняет запрос, который должен затронуть ровно одну строку.
func execOne(ctx context.Context, q dbtx, notFound error, message, query string, args ...interface{}) error {
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return dbError(err, message)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return dbError(err, message)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

func dbError(err error, message string) error {
	return apperror.Wrap(err, apperror.ErrCodeInternal, message)
}
