package handlers

import (
	"net/http"

	"finsignal/internal/services"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analytics *services.AnalyticsService
}

func NewAnalyticsHandler(analytics *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

type scoreRequest struct {
	Text string `json:"text" binding:"required"`
}

// ScorePost rates arbitrary text with the external scorer. Nothing is stored.
func (h *AnalyticsHandler) ScorePost(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.analytics.Score(c.Request.Context(), req.Text)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"score": res})
}
