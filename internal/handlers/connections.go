package handlers

import (
	"net/http"

	"finsignal/internal/services"

	"github.com/gin-gonic/gin"
)

type ConnectionHandler struct {
	queue     *services.QueueService
	lifecycle *services.Lifecycle
}

func NewConnectionHandler(queue *services.QueueService, lifecycle *services.Lifecycle) *ConnectionHandler {
	return &ConnectionHandler{queue: queue, lifecycle: lifecycle}
}

func (h *ConnectionHandler) List(c *gin.Context) {
	reqs, err := h.queue.ListConnections(c.Request.Context(), c.Query("status"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": reqs})
}

func (h *ConnectionHandler) Transition(c *gin.Context) {
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
	res, err := h.lifecycle.RequestConnectionTransition(c.Request.Context(), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
