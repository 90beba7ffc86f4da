package handlers

import (
	"net/http"

	"finsignal/internal/services"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	queue     *services.QueueService
	lifecycle *services.Lifecycle
}

func NewCommentHandler(queue *services.QueueService, lifecycle *services.Lifecycle) *CommentHandler {
	return &CommentHandler{queue: queue, lifecycle: lifecycle}
}

func (h *CommentHandler) List(c *gin.Context) {
	comments, err := h.queue.ListComments(c.Request.Context(), queryList(c, "status"), queryLimit(c, 100))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

type editCommentRequest struct {
	CommentText string `json:"comment_text" binding:"required"`
	Version     int    `json:"version" binding:"required"`
}

func (h *CommentHandler) Edit(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req editCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	comment, err := h.queue.EditComment(c.Request.Context(), id, req.Version, req.CommentText)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comment": comment})
}

func (h *CommentHandler) Transition(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req services.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	req.ID = id
	res, err := h.lifecycle.RequestCommentTransition(c.Request.Context(), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
