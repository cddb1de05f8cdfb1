package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-orders/internal/http/dto"
	"github.com/ignatzorin/freelance-orders/internal/http/response"
	"github.com/ignatzorin/freelance-orders/internal/usecase/review"
)

type ReviewHandler struct {
	createUC      *review.CreateReviewUseCase
	updateUC      *review.UpdateReviewUseCase
	deleteUC      *review.DeleteReviewUseCase
	visibilityUC  *review.SetVisibilityUseCase
	createReplyUC *review.CreateReplyUseCase
	updateReplyUC *review.UpdateReplyUseCase
	deleteReplyUC *review.DeleteReplyUseCase
}

func NewReviewHandler(
	createUC *review.CreateReviewUseCase,
	updateUC *review.UpdateReviewUseCase,
	deleteUC *review.DeleteReviewUseCase,
	visibilityUC *review.SetVisibilityUseCase,
	createReplyUC *review.CreateReplyUseCase,
	updateReplyUC *review.UpdateReplyUseCase,
	deleteReplyUC *review.DeleteReplyUseCase,
) *ReviewHandler {
	return &ReviewHandler{
		createUC:      createUC,
		updateUC:      updateUC,
		deleteUC:      deleteUC,
		visibilityUC:  visibilityUC,
		createReplyUC: createReplyUC,
		updateReplyUC: updateReplyUC,
		deleteReplyUC: deleteReplyUC,
	}
}

// Create обслуживает POST /api/reviews/.
func (h *ReviewHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.createUC.Execute(c.Request.Context(), actor, review.CreateReviewInput{
		OrderID: req.OrderID,
		Scores:  req.ToScores(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToReviewResponse(created))
}

func (h *ReviewHandler) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ReviewScoresRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.updateUC.Execute(c.Request.Context(), actor, reviewID, req.ToScores())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToReviewResponse(updated))
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.deleteUC.Execute(c.Request.Context(), actor, reviewID); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "отзыв удалён")
}

// SetVisibility обслуживает PATCH /api/reviews/:id/visibility. Только модератор.
func (h *ReviewHandler) SetVisibility(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ReviewVisibilityRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.visibilityUC.Execute(c.Request.Context(), actor, reviewID, *req.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToReviewResponse(updated))
}

func (h *ReviewHandler) CreateReply(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ReplyRequest
	if !bindJSON(c, &req) {
		return
	}

	reply, err := h.createReplyUC.Execute(c.Request.Context(), actor, reviewID, req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToReplyResponse(reply))
}

func (h *ReviewHandler) UpdateReply(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ReplyRequest
	if !bindJSON(c, &req) {
		return
	}

	reply, err := h.updateReplyUC.Execute(c.Request.Context(), actor, reviewID, req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToReplyResponse(reply))
}

func (h *ReviewHandler) DeleteReply(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.deleteReplyUC.Execute(c.Request.Context(), actor, reviewID); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "ответ удалён")
}
