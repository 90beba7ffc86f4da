package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestOperatorAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	newRouter := func(h string) *gin.Engine {
		r := gin.New()
		r.POST("/x", OperatorAuth(h), func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return r
	}

	tests := []struct {
		name   string
		hash   string
		header string
		want   int
	}{
		{"valid token", string(hash), "Bearer s3cret", http.StatusNoContent},
		{"lowercase scheme", string(hash), "bearer s3cret", http.StatusNoContent},
		{"wrong token", string(hash), "Bearer nope", http.StatusUnauthorized},
		{"missing header", string(hash), "", http.StatusUnauthorized},
		{"basic scheme", string(hash), "Basic s3cret", http.StatusUnauthorized},
		{"open without hash", "", "", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newRouter(tt.hash).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
