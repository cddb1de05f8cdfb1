package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-orders/internal/http/dto"
	"github.com/ignatzorin/freelance-orders/internal/http/response"
	"github.com/ignatzorin/freelance-orders/internal/usecase/proposal"
)

type ProposalHandler struct {
	createUC *proposal.CreateProposalUseCase
	getUC    *proposal.GetProposalUseCase
	acceptUC *proposal.AcceptProposalUseCase
	rejectUC *proposal.RejectProposalUseCase
}

func NewProposalHandler(
	createUC *proposal.CreateProposalUseCase,
	getUC *proposal.GetProposalUseCase,
	acceptUC *proposal.AcceptProposalUseCase,
	rejectUC *proposal.RejectProposalUseCase,
) *ProposalHandler {
	return &ProposalHandler{
		createUC: createUC,
		getUC:    getUC,
		acceptUC: acceptUC,
		rejectUC: rejectUC,
	}
}

// Create обслуживает POST /api/proposals/. Отправляет продавец услуги.
func (h *ProposalHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.CreateProposalRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.createUC.Execute(c.Request.Context(), actor, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToProposalResponse(created))
}

func (h *ProposalHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	proposalID, ok := pathID(c, "id")
	if !ok {
		return
	}

	details, err := h.getUC.Execute(c.Request.Context(), actor, proposalID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToProposalDetailsResponse(details))
}

// Accept обслуживает POST /api/proposals/:id/accept и возвращает созданный заказ.
func (h *ProposalHandler) Accept(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	proposalID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ProposalDecisionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.acceptUC.Execute(c.Request.Context(), actor, proposalID, req.BuyerMessage)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToAcceptProposalResponse(result))
}

func (h *ProposalHandler) Reject(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	proposalID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ProposalDecisionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	rejected, err := h.rejectUC.Execute(c.Request.Context(), actor, proposalID, req.BuyerMessage)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToProposalResponse(rejected))
}
