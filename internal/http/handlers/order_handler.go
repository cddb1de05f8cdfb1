package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-orders/internal/http/dto"
	"github.com/ignatzorin/freelance-orders/internal/http/response"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
	"github.com/ignatzorin/freelance-orders/internal/usecase/order"
)

type OrderHandler struct {
	createUC       *order.CreateOrderUseCase
	getUC          *order.GetOrderUseCase
	historyUC      *order.GetHistoryUseCase
	updateStatusUC *order.UpdateOrderStatusUseCase
	deliverUC      *order.DeliverOrderUseCase
	deliveriesUC   *order.ListDeliveriesUseCase
	uploadUC       *order.UploadDeliveryFileUseCase
	completeUC     *order.CompleteOrderUseCase
	cancelUC       *order.CancelOrderUseCase
	maxUploadBytes int64
}

func NewOrderHandler(
	createUC *order.CreateOrderUseCase,
	getUC *order.GetOrderUseCase,
	historyUC *order.GetHistoryUseCase,
	updateStatusUC *order.UpdateOrderStatusUseCase,
	deliverUC *order.DeliverOrderUseCase,
	deliveriesUC *order.ListDeliveriesUseCase,
	uploadUC *order.UploadDeliveryFileUseCase,
	completeUC *order.CompleteOrderUseCase,
	cancelUC *order.CancelOrderUseCase,
	maxUploadMB int64,
) *OrderHandler {
	return &OrderHandler{
		createUC:       createUC,
		getUC:          getUC,
		historyUC:      historyUC,
		updateStatusUC: updateStatusUC,
		deliverUC:      deliverUC,
		deliveriesUC:   deliveriesUC,
		uploadUC:       uploadUC,
		completeUC:     completeUC,
		cancelUC:       cancelUC,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}
}

// CreateOrder обслуживает POST /api/orders/.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.createUC.Execute(c.Request.Context(), actor, order.CreateOrderInput{
		GigID:        req.GigID,
		PackageType:  req.PackageType,
		Requirements: req.Requirements,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToOrderResponse(created))
}

// GetOrder обслуживает GET /api/orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	details, err := h.getUC.Execute(c.Request.Context(), actor, orderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToOrderDetailsResponse(details))
}

func (h *OrderHandler) GetHistory(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	history, err := h.historyUC.Execute(c.Request.Context(), actor, orderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToHistoryResponse(history))
}

// UpdateStatus обслуживает PATCH /api/orders/:id/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.updateStatusUC.Execute(c.Request.Context(), actor, orderID, order.UpdateStatusInput{
		Status: req.Status,
		Reason: req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToOrderResponse(updated))
}

// Deliver обслуживает POST /api/orders/:id/deliver.
func (h *OrderHandler) Deliver(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.DeliverOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	delivery, err := h.deliverUC.Execute(c.Request.Context(), actor, orderID, order.DeliverOrderInput{
		Message: req.Message,
		FileURL: req.FileURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToDeliveryResponse(delivery))
}

func (h *OrderHandler) ListDeliveries(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	deliveries, err := h.deliveriesUC.Execute(c.Request.Context(), actor, orderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToDeliveryResponses(deliveries))
}

// UploadDeliveryFile обслуживает POST /api/orders/:id/deliveries/files (multipart, поле file).
func (h *OrderHandler) UploadDeliveryFile(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if h.maxUploadBytes > 0 {
		// запас на заголовки multipart
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1024*1024)
	}
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, apperror.Validation("file", "файл слишком большой"))
			return
		}
		response.Error(c, apperror.Validation("file", "файл обязателен"))
		return
	}
	f, err := header.Open()
	if err != nil {
		response.Error(c, apperror.Validation("file", "не удалось прочитать файл"))
		return
	}
	defer f.Close()

	stored, err := h.uploadUC.Execute(c.Request.Context(), actor, orderID, f)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.UploadedFileResponse{URL: stored.URL, Size: stored.Size, MIME: stored.MIME})
}

func (h *OrderHandler) Complete(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	completed, err := h.completeUC.Execute(c.Request.Context(), actor, orderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToOrderResponse(completed))
}

// Cancel обслуживает POST /api/orders/:id/cancel. Причина необязательна.
func (h *OrderHandler) Cancel(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CancelOrderRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	cancelled, err := h.cancelUC.Execute(c.Request.Context(), actor, orderID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToOrderResponse(cancelled))
}
