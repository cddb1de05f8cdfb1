package order_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/logger"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-orders/internal/testutil"
	"github.com/ignatzorin/freelance-orders/internal/testutil/memstore"
	"github.com/ignatzorin/freelance-orders/internal/usecase/common"
	"github.com/ignatzorin/freelance-orders/internal/usecase/order"
)

var (
	seller    = entity.NewActorIdentity(testutil.SellerID, "seller")
	buyer     = entity.NewActorIdentity(testutil.BuyerID, "buyer")
	moderator = entity.NewActorIdentity(testutil.ModeratorID, "moderator")
	stranger  = entity.NewActorIdentity(testutil.StrangerID, "buyer")
)

type OrderUseCaseSuite struct {
	suite.Suite
	store    *memstore.Store
	profiles *testutil.Profiles
	notifier *testutil.Notifier
	metrics  *testutil.Recorder
	clock    *testutil.FixedClock
	deps     common.Deps
	gigID    int64
}

func TestOrderUseCaseSuite(t *testing.T) {
	suite.Run(t, new(OrderUseCaseSuite))
}

func (s *OrderUseCaseSuite) SetupTest() {
	logger.Discard()
	s.store = memstore.New()
	s.profiles = testutil.DefaultProfiles()
	s.notifier = &testutil.Notifier{}
	s.metrics = &testutil.Recorder{}
	s.clock = testutil.NewFixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s.deps = common.Deps{
		Store:    s.store,
		Profiles: s.profiles,
		Notifier: s.notifier,
		Metrics:  s.metrics,
		Now:      s.clock.Now,
	}
	s.gigID = s.store.SeedGig(testutil.ActiveGig(), testutil.BasicPackage())
}

func (s *OrderUseCaseSuite) seedOrder(status valueobject.OrderStatus) int64 {
	return s.store.SeedOrder(testutil.OrderIn(s.gigID, status, s.clock.Now()))
}

func (s *OrderUseCaseSuite) TestCreate_FromPackage() {
	uc := order.NewCreateOrderUseCase(s.deps)

	created, err := uc.Execute(context.Background(), buyer, order.CreateOrderInput{
		GigID:        s.gigID,
		PackageType:  "basic",
		Requirements: "  Нужен минималистичный логотип  ",
	})
	s.Require().NoError(err)

	s.Equal(valueobject.OrderStatusPending, created.Status)
	s.Equal("150.00", created.Price.String())
	s.Equal(5, created.DeliveryTime)
	s.Equal("basic", created.PackageReference)
	s.Equal("Нужен минималистичный логотип", created.Requirements)
	s.Equal(time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), created.Deadline)
	s.False(created.IsOverdue(s.clock.Now()))

	history := s.store.History(created.ID)
	s.Require().Len(history, 1)
	s.Nil(history[0].FromStatus)
	s.Equal(valueobject.OrderStatusPending, history[0].ToStatus)

	s.Equal(map[int64][]string{testutil.SellerID: {gateway.EventOrderCreated}}, s.notifier.Events())
	s.Equal(1, s.metrics.Count("order.create:ok"))
}

func (s *OrderUseCaseSuite) TestCreate_Rejections() {
	uc := order.NewCreateOrderUseCase(s.deps)
	inactive := testutil.ActiveGig()
	inactive.IsActive = false
	inactiveID := s.store.SeedGig(inactive, testutil.BasicPackage())

	tests := []struct {
		name  string
		actor entity.ActorIdentity
		input order.CreateOrderInput
		code  apperror.ErrorCode
	}{
		{"self purchase", seller, order.CreateOrderInput{GigID: s.gigID, PackageType: "basic"}, apperror.ErrCodeSelfPurchase},
		{"unknown gig", buyer, order.CreateOrderInput{GigID: 999, PackageType: "basic"}, apperror.ErrCodeGigNotFound},
		{"missing package", buyer, order.CreateOrderInput{GigID: s.gigID, PackageType: "premium"}, apperror.ErrCodePackageNotFound},
		{"bad package type", buyer, order.CreateOrderInput{GigID: s.gigID, PackageType: "gold"}, apperror.ErrCodeValidation},
		{"inactive gig", buyer, order.CreateOrderInput{GigID: inactiveID, PackageType: "basic"}, apperror.ErrCodeGigInactive},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := uc.Execute(context.Background(), tt.actor, tt.input)
			s.Equal(tt.code, apperror.CodeOf(err))
		})
	}
	s.Equal(0, s.store.CountOrders())
	s.Empty(s.notifier.Sent())
}

func (s *OrderUseCaseSuite) TestHappyPath() {
	ctx := context.Background()
	id := s.seedOrder(valueobject.OrderStatusPending)

	accepted, err := order.NewAcceptOrderUseCase(s.deps).Execute(ctx, seller, id)
	s.Require().NoError(err)
	s.Equal(valueobject.OrderStatusInProgress, accepted.Status)

	s.clock.Advance(time.Hour)
	delivery, err := order.NewDeliverOrderUseCase(s.deps).Execute(ctx, seller, id, order.DeliverOrderInput{
		Message: "Готово, исходники во вложении",
	})
	s.Require().NoError(err)
	s.Equal(id, delivery.OrderID)

	completed, err := order.NewCompleteOrderUseCase(s.deps).Execute(ctx, buyer, id)
	s.Require().NoError(err)
	s.Equal(valueobject.OrderStatusCompleted, completed.Status)
	s.Require().NotNil(completed.DeliveredAt)
	s.Require().NotNil(completed.CompletedAt)
	s.Equal(s.clock.Now(), *completed.DeliveredAt)

	s.Equal(1, s.store.Gig(s.gigID).OrdersCount)
	s.Len(s.store.History(id), 3)
	s.Equal(map[int64][]string{
		testutil.BuyerID:  {gateway.EventOrderAccepted, gateway.EventOrderDelivered},
		testutil.SellerID: {gateway.EventOrderCompleted},
	}, s.notifier.Events())
}

func (s *OrderUseCaseSuite) TestAccept_OnlySeller() {
	id := s.seedOrder(valueobject.OrderStatusPending)

	_, err := order.NewAcceptOrderUseCase(s.deps).Execute(context.Background(), buyer, id)
	s.ErrorIs(err, apperror.ErrForbidden)
	s.Equal(valueobject.OrderStatusPending, s.store.Order(id).Status)
	s.Equal(1, s.metrics.Count("order.accept:error"))
}

func (s *OrderUseCaseSuite) TestNotFoundBeforePermission() {
	_, err := order.NewAcceptOrderUseCase(s.deps).Execute(context.Background(), stranger, 12345)
	s.ErrorIs(err, apperror.ErrOrderNotFound)
}

func (s *OrderUseCaseSuite) TestDeliver_PendingOrderRejected() {
	id := s.seedOrder(valueobject.OrderStatusPending)

	_, err := order.NewDeliverOrderUseCase(s.deps).Execute(context.Background(), seller, id, order.DeliverOrderInput{
		Message: "Готово, исходники во вложении",
	})
	s.Equal(apperror.ErrCodeInvalidTransition, apperror.CodeOf(err))
	s.Equal(valueobject.OrderStatusPending, s.store.Order(id).Status)
	s.Equal(0, s.store.CountDeliveries(id))
	s.Empty(s.store.History(id))
	s.Empty(s.notifier.Sent())
}

func (s *OrderUseCaseSuite) TestDeliver_InvalidMessageRollsBack() {
	id := s.seedOrder(valueobject.OrderStatusInProgress)

	_, err := order.NewDeliverOrderUseCase(s.deps).Execute(context.Background(), seller, id, order.DeliverOrderInput{
		Message: "коротко",
	})
	s.True(apperror.IsValidation(err))
	s.Equal(valueobject.OrderStatusInProgress, s.store.Order(id).Status)
	s.Nil(s.store.Order(id).DeliveredAt)
}

func (s *OrderUseCaseSuite) TestComplete_RequiresDelivered() {
	id := s.seedOrder(valueobject.OrderStatusPending)

	_, err := order.NewCompleteOrderUseCase(s.deps).Execute(context.Background(), buyer, id)
	s.Equal(apperror.ErrCodeInvalidTransition, apperror.CodeOf(err))
	s.Equal(0, s.store.Gig(s.gigID).OrdersCount)
}

func (s *OrderUseCaseSuite) TestCancel_NotifiesCounterpartyWithReason() {
	id := s.seedOrder(valueobject.OrderStatusInProgress)

	cancelled, err := order.NewCancelOrderUseCase(s.deps).Execute(context.Background(), buyer, id, "Изменились планы")
	s.Require().NoError(err)
	s.Equal(valueobject.OrderStatusCancelled, cancelled.Status)
	s.Require().NotNil(cancelled.CancelledAt)

	sent := s.notifier.Sent()
	s.Require().Len(sent, 1)
	s.Equal(testutil.SellerID, sent[0].UserID)
	s.Equal(gateway.EventOrderCancelled, sent[0].Event)
	s.Equal("Изменились планы", sent[0].Data["reason"])

	history := s.store.History(id)
	s.Require().Len(history, 1)
	s.Equal("Изменились планы", history[0].Note)
}

func (s *OrderUseCaseSuite) TestCancel_DeliveredRejected() {
	id := s.seedOrder(valueobject.OrderStatusDelivered)

	_, err := order.NewCancelOrderUseCase(s.deps).Execute(context.Background(), seller, id, "")
	s.Equal(apperror.ErrCodeInvalidTransition, apperror.CodeOf(err))
}

func (s *OrderUseCaseSuite) TestNotificationFailureDoesNotRollback() {
	s.notifier.Err = errors.New("broker down")
	id := s.seedOrder(valueobject.OrderStatusPending)

	_, err := order.NewAcceptOrderUseCase(s.deps).Execute(context.Background(), seller, id)
	s.Require().NoError(err)
	s.Equal(valueobject.OrderStatusInProgress, s.store.Order(id).Status)
}

func (s *OrderUseCaseSuite) TestUpdateStatus_Dispatch() {
	ctx := context.Background()
	uc := order.NewUpdateOrderStatusUseCase(s.deps)
	id := s.seedOrder(valueobject.OrderStatusPending)

	updated, err := uc.Execute(ctx, seller, id, order.UpdateStatusInput{Status: "in_progress"})
	s.Require().NoError(err)
	s.Equal(valueobject.OrderStatusInProgress, updated.Status)

	_, err = uc.Execute(ctx, seller, id, order.UpdateStatusInput{Status: "delivered"})
	s.Equal(apperror.ErrCodeInvalidTransition, apperror.CodeOf(err))

	updated, err = uc.Execute(ctx, seller, id, order.UpdateStatusInput{Status: "cancelled", Reason: "Не успеваю"})
	s.Require().NoError(err)
	s.Equal(valueobject.OrderStatusCancelled, updated.Status)
}

func (s *OrderUseCaseSuite) TestGet_EnrichesAndDegrades() {
	ctx := context.Background()
	id := s.seedOrder(valueobject.OrderStatusPending)
	uc := order.NewGetOrderUseCase(s.deps)

	details, err := uc.Execute(ctx, buyer, id)
	s.Require().NoError(err)
	s.Require().NotNil(details.Buyer)
	s.Equal("buyer", details.Buyer.Username)
	s.Equal("seller", details.Seller.Username)

	s.profiles.Err = errors.New("directory timeout")
	details, err = uc.Execute(ctx, seller, id)
	s.Require().NoError(err)
	s.Nil(details.Buyer)
	s.Nil(details.Seller)
}

func (s *OrderUseCaseSuite) TestGet_Permissions() {
	ctx := context.Background()
	id := s.seedOrder(valueobject.OrderStatusPending)
	uc := order.NewGetOrderUseCase(s.deps)

	_, err := uc.Execute(ctx, stranger, id)
	s.ErrorIs(err, apperror.ErrForbidden)

	_, err = uc.Execute(ctx, moderator, id)
	s.NoError(err)

	s.profiles.Err = errors.New("directory timeout")
	_, err = uc.Execute(ctx, stranger, id)
	s.Equal(apperror.ErrCodeDirectoryDown, apperror.CodeOf(err))
}

func (s *OrderUseCaseSuite) TestOverdueDerivedFromDeadline() {
	id := s.seedOrder(valueobject.OrderStatusPending)
	uc := order.NewGetOrderUseCase(s.deps)

	details, err := uc.Execute(context.Background(), buyer, id)
	s.Require().NoError(err)
	s.False(details.IsOverdue)

	s.clock.Advance(5*24*time.Hour + time.Second)
	details, err = uc.Execute(context.Background(), buyer, id)
	s.Require().NoError(err)
	s.True(details.IsOverdue)
	s.Equal(time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), details.Order.Deadline)
}

func (s *OrderUseCaseSuite) TestHistoryAndDeliveriesVisibleToParticipants() {
	ctx := context.Background()
	id := s.seedOrder(valueobject.OrderStatusInProgress)
	_, err := order.NewDeliverOrderUseCase(s.deps).Execute(ctx, seller, id, order.DeliverOrderInput{Message: "Первая версия макета"})
	s.Require().NoError(err)

	deliveries, err := order.NewListDeliveriesUseCase(s.deps).Execute(ctx, buyer, id)
	s.Require().NoError(err)
	s.Len(deliveries, 1)

	history, err := order.NewGetHistoryUseCase(s.deps).Execute(ctx, seller, id)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(valueobject.OrderStatusDelivered, history[0].ToStatus)

	_, err = order.NewListDeliveriesUseCase(s.deps).Execute(ctx, stranger, id)
	s.ErrorIs(err, apperror.ErrForbidden)
}

// Одновременные отмена и сдача одного заказа: проходит ровно одна операция.
func TestConcurrentCancelAndDeliver(t *testing.T) {
	logger.Discard()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		store := memstore.New()
		deps := common.Deps{Store: store, Notifier: &testutil.Notifier{}, Now: func() time.Time { return now }}
		gigID := store.SeedGig(testutil.ActiveGig(), testutil.BasicPackage())
		id := store.SeedOrder(testutil.OrderIn(gigID, valueobject.OrderStatusInProgress, now))

		var wg sync.WaitGroup
		var cancelErr, deliverErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, cancelErr = order.NewCancelOrderUseCase(deps).Execute(context.Background(), buyer, id, "")
		}()
		go func() {
			defer wg.Done()
			_, deliverErr = order.NewDeliverOrderUseCase(deps).Execute(context.Background(), seller, id, order.DeliverOrderInput{
				Message: "Сдаю работу целиком",
			})
		}()
		wg.Wait()

		require.True(t, (cancelErr == nil) != (deliverErr == nil), "ровно одна операция должна пройти")
		final := store.Order(id).Status
		if cancelErr == nil {
			assert.Equal(t, valueobject.OrderStatusCancelled, final)
			assert.Equal(t, 0, store.CountDeliveries(id))
			assert.Equal(t, apperror.ErrCodeInvalidTransition, apperror.CodeOf(deliverErr))
		} else {
			assert.Equal(t, valueobject.OrderStatusDelivered, final)
			assert.Equal(t, 1, store.CountDeliveries(id))
			assert.Equal(t, apperror.ErrCodeInvalidTransition, apperror.CodeOf(cancelErr))
		}
	}
}

type recordingFiles struct {
	saved []int64
}

func (f *recordingFiles) Save(_ context.Context, orderID int64, _ io.Reader) (*gateway.StoredFile, error) {
	f.saved = append(f.saved, orderID)
	return &gateway.StoredFile{URL: "/files/deliveries/1/a.pdf", Size: 3, MIME: "application/pdf"}, nil
}

func (s *OrderUseCaseSuite) TestUploadDeliveryFile() {
	files := &recordingFiles{}
	uc := order.NewUploadDeliveryFileUseCase(s.deps, files)
	working := s.seedOrder(valueobject.OrderStatusInProgress)
	pending := s.seedOrder(valueobject.OrderStatusPending)

	_, err := uc.Execute(context.Background(), seller, 9999, strings.NewReader("pdf"))
	s.True(apperror.IsNotFound(err))

	_, err = uc.Execute(context.Background(), buyer, working, strings.NewReader("pdf"))
	s.True(apperror.IsForbidden(err))

	_, err = uc.Execute(context.Background(), seller, pending, strings.NewReader("pdf"))
	s.Equal(apperror.ErrCodeInvalidTransition, apperror.CodeOf(err))

	file, err := uc.Execute(context.Background(), seller, working, strings.NewReader("pdf"))
	s.Require().NoError(err)
	s.Equal("application/pdf", file.MIME)
	s.Equal([]int64{working}, files.saved)
}
