package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-orders/internal/http/dto"
	"github.com/ignatzorin/freelance-orders/internal/http/response"
	"github.com/ignatzorin/freelance-orders/internal/usecase/dispute"
)

type DisputeHandler struct {
	openUC     *dispute.OpenDisputeUseCase
	getUC      *dispute.GetDisputeUseCase
	messagesUC *dispute.ListMessagesUseCase
	addUC      *dispute.AddMessageUseCase
	resolveUC  *dispute.ResolveDisputeUseCase
	closeUC    *dispute.CloseDisputeUseCase
}

func NewDisputeHandler(
	openUC *dispute.OpenDisputeUseCase,
	getUC *dispute.GetDisputeUseCase,
	messagesUC *dispute.ListMessagesUseCase,
	addUC *dispute.AddMessageUseCase,
	resolveUC *dispute.ResolveDisputeUseCase,
	closeUC *dispute.CloseDisputeUseCase,
) *DisputeHandler {
	return &DisputeHandler{
		openUC:     openUC,
		getUC:      getUC,
		messagesUC: messagesUC,
		addUC:      addUC,
		resolveUC:  resolveUC,
		closeUC:    closeUC,
	}
}

// Open обслуживает POST /api/orders/:id/dispute.
func (h *DisputeHandler) Open(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.OpenDisputeRequest
	if !bindJSON(c, &req) {
		return
	}

	opened, err := h.openUC.Execute(c.Request.Context(), actor, orderID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToDisputeResponse(opened))
}

func (h *DisputeHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	disputeID, ok := pathID(c, "id")
	if !ok {
		return
	}

	details, err := h.getUC.Execute(c.Request.Context(), actor, disputeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToDisputeDetailsResponse(details))
}

func (h *DisputeHandler) ListMessages(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	disputeID, ok := pathID(c, "id")
	if !ok {
		return
	}

	messages, err := h.messagesUC.Execute(c.Request.Context(), actor, disputeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToDisputeMessagesResponse(messages))
}

func (h *DisputeHandler) AddMessage(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	disputeID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.DisputeMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	message, err := h.addUC.Execute(c.Request.Context(), actor, disputeID, req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToDisputeMessageResponse(message, nil))
}

// Resolve обслуживает POST /api/disputes/:id/resolve. Только модератор.
func (h *DisputeHandler) Resolve(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	disputeID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ResolveDisputeRequest
	if !bindJSON(c, &req) {
		return
	}

	resolved, err := h.resolveUC.Execute(c.Request.Context(), actor, disputeID, dispute.ResolveDisputeInput{
		WinnerSide: req.WinnerSide,
		Resolution: req.Resolution,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToDisputeResponse(resolved))
}

func (h *DisputeHandler) Close(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	disputeID, ok := pathID(c, "id")
	if !ok {
		return
	}

	closed, err := h.closeUC.Execute(c.Request.Context(), actor, disputeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToDisputeResponse(closed))
}
