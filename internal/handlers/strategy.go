package handlers

import (
	"net/http"

	"finsignal/internal/models"
	"finsignal/internal/services"

	"github.com/gin-gonic/gin"
)

type StrategyHandler struct {
	strategy *services.StrategyService
	health   *services.HealthService
}

func NewStrategyHandler(strategy *services.StrategyService, health *services.HealthService) *StrategyHandler {
	return &StrategyHandler{strategy: strategy, health: health}
}

func (h *StrategyHandler) Get(c *gin.Context) {
	cfg, err := h.strategy.Current(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// Update replaces the whole strategy record.
func (h *StrategyHandler) Update(c *gin.Context) {
	var cfg models.StrategyConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		badRequest(c, err.Error())
		return
	}
	saved, err := h.strategy.Update(c.Request.Context(), cfg)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *StrategyHandler) Topics(c *gin.Context) {
	topics, err := h.strategy.Topics(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

func (h *StrategyHandler) ReplaceTopics(c *gin.Context) {
	var in []services.TopicInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	topics, err := h.strategy.ReplaceTopics(c.Request.Context(), in)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

func (h *StrategyHandler) Rebalance(c *gin.Context) {
	topics, err := h.strategy.Rebalance(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

func (h *StrategyHandler) Health(c *gin.Context) {
	report, err := h.health.Report(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
