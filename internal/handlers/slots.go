package handlers

import (
	"net/http"
	"time"

	"finsignal/internal/utils"

	"github.com/gin-gonic/gin"
)

type SlotHandler struct {
	now func() time.Time
}

func NewSlotHandler(clock func() time.Time) *SlotHandler {
	if clock == nil {
		clock = time.Now
	}
	return &SlotHandler{now: clock}
}

func (h *SlotHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"slots": utils.GenerateSlots(h.now())})
}

// Format labels a stored scheduled_at value relative to now.
func (h *SlotHandler) Format(c *gin.Context) {
	at := c.Query("at")
	if at == "" {
		badRequest(c, "at is required")
		return
	}
	label, err := utils.FormatScheduledTime(at, h.now())
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"at": at, "label": label})
}
