package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/repository"
	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(sqlx.NewDb(db, "postgres")), mock
}

func TestOrderRepository_CreateReturnsID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO orders").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	order := &entity.Order{
		BuyerID:      2,
		SellerID:     1,
		GigID:        7,
		Status:       valueobject.OrderStatusPending,
		Price:        valueobject.MustMoney("150.00"),
		DeliveryTime: 5,
		Deadline:     t0.Add(5 * 24 * time.Hour),
		CreatedAt:    t0,
		UpdatedAt:    t0,
	}
	require.NoError(t, store.Orders().Create(context.Background(), order))
	assert.Equal(t, int64(42), order.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_FindByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT .+ FROM orders WHERE id = \\$1").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.Orders().FindByID(context.Background(), 5)
	assert.ErrorIs(t, err, apperror.ErrOrderNotFound)
}

func TestOrderRepository_LockByIDUsesRowLock(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{
		"id", "buyer_id", "seller_id", "gig_id", "package_reference", "proposal_id", "title", "description",
		"revisions", "status", "price", "delivery_time", "requirements", "deadline", "delivered_at", "completed_at",
		"cancelled_at", "cancellation_reason", "created_at", "updated_at",
	}).AddRow(
		int64(5), int64(2), int64(1), int64(7), "basic", nil, "Логотип", "", int64(2), "in_progress", "150.00",
		int64(5), "", t0.Add(5*24*time.Hour), nil, nil, nil, nil, t0, t0,
	)
	mock.ExpectQuery("FROM orders WHERE id = \\$1 FOR UPDATE").WithArgs(int64(5)).WillReturnRows(rows)

	order, err := store.Orders().LockByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusInProgress, order.Status)
	assert.Equal(t, "150.00", order.Price.String())
	assert.Nil(t, order.ProposalID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisputeRepository_CreateDuplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO disputes").
		WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: disputesOrderUnique})

	err := store.Disputes().Create(context.Background(), &entity.Dispute{
		OrderID: 5, CreatedByID: 2, Reason: "Работа не соответствует ТЗ", Status: valueobject.DisputeStatusOpen,
	})
	assert.ErrorIs(t, err, apperror.ErrDisputeExists)
}

func TestDisputeRepository_OtherUniqueViolationIsInternal(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO disputes").
		WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: "disputes_pkey"})

	err := store.Disputes().Create(context.Background(), &entity.Dispute{OrderID: 5})
	assert.Equal(t, apperror.ErrCodeInternal, apperror.CodeOf(err))
}

func TestDisputeRepository_UpdateMissingRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE disputes").WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Disputes().Update(context.Background(), &entity.Dispute{ID: 9, Status: valueobject.DisputeStatusClosed})
	assert.ErrorIs(t, err, apperror.ErrDisputeNotFound)
}

func TestDisputeRepository_ListMessagesOrdered(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "dispute_id", "sender_id", "message", "is_moderator", "created_at"}).
		AddRow(int64(1), int64(3), int64(2), "Первое", false, t0).
		AddRow(int64(2), int64(3), int64(30), "Ответ модератора", true, t0.Add(time.Minute))
	mock.ExpectQuery("FROM dispute_messages\\s+WHERE dispute_id = \\$1\\s+ORDER BY created_at, id").
		WithArgs(int64(3)).
		WillReturnRows(rows)

	messages, err := store.Disputes().ListMessages(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.False(t, messages[0].IsModerator)
	assert.True(t, messages[1].IsModerator)
}

func TestReviewRepository_DuplicateReply(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO review_replies").
		WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: repliesReviewUnique})

	err := store.Reviews().CreateReply(context.Background(), &entity.ReviewReply{ReviewID: 1, SellerID: 1, Message: "Спасибо!"})
	assert.ErrorIs(t, err, apperror.ErrReplyExists)
}

func TestReviewRepository_AggregateForGig(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("AVG\\(rating\\)").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"average", "count"}).AddRow("4.67", int64(3)))

	agg, err := store.Reviews().AggregateForGig(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "4.67", agg.Average.StringFixed(2))
	assert.Equal(t, 3, agg.Count)
}

func TestProposalRepository_ExpirePending(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE custom_proposals\\s+SET status = 'expired'").
		WithArgs(t0).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := store.Proposals().ExpirePending(context.Background(), t0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestGigRepository_FindPackage(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM gig_packages").
		WithArgs(int64(7), "premium").
		WillReturnRows(sqlmock.NewRows([]string{"id", "gig_id", "package_type", "price", "delivery_time", "revisions"}).
			AddRow(int64(3), int64(7), "premium", "990.00", int64(10), int64(5)))

	pkg, err := store.Gigs().FindPackage(context.Background(), 7, valueobject.PackagePremium)
	require.NoError(t, err)
	assert.Equal(t, "990.00", pkg.Price.String())
	assert.Equal(t, 10, pkg.DeliveryTime)

	mock.ExpectQuery("FROM gig_packages").
		WithArgs(int64(7), "basic").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = store.Gigs().FindPackage(context.Background(), 7, valueobject.PackageBasic)
	assert.ErrorIs(t, err, apperror.ErrPackageNotFound)
}

func TestWithinTransaction_CommitAndRollback(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE gigs SET orders_count").WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return tx.Gigs().IncrementOrdersCount(ctx, 7)
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err = store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransaction_RollbackOnPanic(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = store.WithinTransaction(context.Background(), func(ctx context.Context, tx repository.Store) error {
			panic("unexpected")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}
