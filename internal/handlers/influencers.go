package handlers

import (
	"net/http"

	"finsignal/internal/services"

	"github.com/gin-gonic/gin"
)

type InfluencerHandler struct {
	influencers *services.InfluencerService
}

func NewInfluencerHandler(influencers *services.InfluencerService) *InfluencerHandler {
	return &InfluencerHandler{influencers: influencers}
}

func (h *InfluencerHandler) List(c *gin.Context) {
	list, err := h.influencers.List(c.Request.Context(),
		c.Query("search"), c.Query("niche"), c.Query("relationship"), queryLimit(c, 200))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"influencers": list})
}

func (h *InfluencerHandler) Create(c *gin.Context) {
	var in services.InfluencerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	inf, err := h.influencers.Create(c.Request.Context(), in)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"influencer": inf})
}

type relationshipRequest struct {
	Relationship string `json:"relationship" binding:"required"`
}

func (h *InfluencerHandler) SetRelationship(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req relationshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	inf, err := h.influencers.SetRelationship(c.Request.Context(), id, req.Relationship)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"influencer": inf})
}

func (h *InfluencerHandler) LogInteraction(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	inf, err := h.influencers.LogInteraction(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"influencer": inf})
}
