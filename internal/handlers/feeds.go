package handlers

import (
	"net/http"

	"finsignal/internal/services"

	"github.com/gin-gonic/gin"
)

type FeedHandler struct {
	feeds *services.FeedService
}

func NewFeedHandler(feeds *services.FeedService) *FeedHandler {
	return &FeedHandler{feeds: feeds}
}

// List returns all feeds, optionally narrowed by ?priority= and ?active=true.
func (h *FeedHandler) List(c *gin.Context) {
	list, err := h.feeds.List(c.Request.Context(), c.Query("priority"), c.Query("active") == "true")
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feeds": list})
}

func (h *FeedHandler) Create(c *gin.Context) {
	var in services.FeedInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	feed, err := h.feeds.Create(c.Request.Context(), in)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"feed": feed})
}

func (h *FeedHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var in services.FeedInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	feed, err := h.feeds.Update(c.Request.Context(), id, in)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feed": feed})
}

type toggleFeedRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (h *FeedHandler) Toggle(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req toggleFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	feed, err := h.feeds.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feed": feed})
}

func (h *FeedHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.feeds.Delete(c.Request.Context(), id); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
