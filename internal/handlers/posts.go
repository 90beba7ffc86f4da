package handlers

import (
	"net/http"
	"strconv"

	"finsignal/internal/services"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	queue     *services.QueueService
	lifecycle *services.Lifecycle
}

func NewPostHandler(queue *services.QueueService, lifecycle *services.Lifecycle) *PostHandler {
	return &PostHandler{queue: queue, lifecycle: lifecycle}
}

// List returns posts newest first. Archived posts are hidden unless
// ?archived=true or an explicit ?status= is given.
func (h *PostHandler) List(c *gin.Context) {
	posts, err := h.queue.ListPosts(c.Request.Context(),
		queryList(c, "status"),
		c.Query("archived") == "true",
		c.Query("topic"),
		queryLimit(c, 100),
	)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (h *PostHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	post, err := h.queue.GetPost(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"post":    post,
		"targets": services.PostTargets(post.Status),
	})
}

type editPostRequest struct {
	Title   string `json:"title"`
	Body    string `json:"body" binding:"required"`
	Version int    `json:"version" binding:"required"`
}

func (h *PostHandler) Edit(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req editPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	post, err := h.queue.EditPost(c.Request.Context(), id, req.Version, req.Title, req.Body)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// Delete removes an unpublished post. The caller passes the version it last
// read as ?version=.
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	version, err := strconv.Atoi(c.Query("version"))
	if err != nil || version <= 0 {
		badRequest(c, "version query parameter is required")
		return
	}
	if err := h.queue.DeletePost(c.Request.Context(), id, version); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Preview renders the post body the way it will read on LinkedIn.
func (h *PostHandler) Preview(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	preview, err := h.queue.Preview(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	if c.Query("format") == "html" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(preview.HTML))
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (h *PostHandler) Transition(c *gin.Context) {
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
	res, err := h.lifecycle.RequestPostTransition(c.Request.Context(), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
