package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"finsignal/internal/services"

	"github.com/gin-gonic/gin"
)

// RespondError maps a service error to its HTTP status. Compliance denials
// carry the reason verbatim and transport failures are marked retryable.
func RespondError(c *gin.Context, err error) {
	var rl *services.RateLimitError
	switch {
	case errors.As(err, &rl):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": rl.Reason, "rule": rl.Rule})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrStateConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrTransport):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "retryable": true})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// queryList accepts both ?status=a&status=b and ?status=a,b.
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func queryLimit(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return min(n, 500)
}
