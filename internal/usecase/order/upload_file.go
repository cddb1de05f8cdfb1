package order

import (
	"context"
	"io"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
	"github.com/ignatzorin/freelance-orders/internal/domain/valueobject"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-orders/internal/usecase/common"
)

// UploadDeliveryFileUseCase сохраняет вложение, ссылку на которое продавец затем передаёт при сдаче.
type UploadDeliveryFileUseCase struct {
	deps  common.Deps
	files gateway.FileStore
}

func NewUploadDeliveryFileUseCase(deps common.Deps, files gateway.FileStore) *UploadDeliveryFileUseCase {
	return &UploadDeliveryFileUseCase{deps: deps, files: files}
}

func (uc *UploadDeliveryFileUseCase) Execute(ctx context.Context, actor entity.ActorIdentity, orderID int64, r io.Reader) (file *gateway.StoredFile, err error) {
	defer func() { uc.deps.Record("order.upload_file", err) }()

	order, err := uc.deps.Store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsSeller(actor.UserID) {
		return nil, apperror.ErrForbidden
	}
	if order.Status != valueobject.OrderStatusInProgress {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition, "файлы можно загружать только к заказу в работе")
	}
	return uc.files.Save(ctx, order.ID, r)
}
