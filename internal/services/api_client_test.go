package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finsignal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClientScorePost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/analytics/score-post", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "AML alert volumes are up", body["text"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"overall": 8, "hook": 7, "data": 9, "readability": 8, "cta": 6, "suggestion": "end with a question",
		})
	}))
	defer server.Close()

	c := NewAPIClient(server.URL+"/", "test-token", time.Second)
	score, err := c.ScorePost(context.Background(), "AML alert volumes are up")
	require.NoError(t, err)
	assert.Equal(t, PostScore{Overall: 8, Hook: 7, Data: 9, Readability: 8, CTA: 6, Suggestion: "end with a question"}, score)
}

func TestAPIClientPublish(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/content-queue/7/publish":
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "external_id": "urn:li:share:1"})
		case "/comments/3/publish":
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "comment target deleted"})
		case "/connections/5/send":
			http.Error(w, "upstream down", http.StatusBadGateway)
		case "/content-queue/7/regenerate":
			_ = json.NewEncoder(w).Encode(map[string]any{"title": "New", "body": "Fresh draft"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewAPIClient(server.URL, "", time.Second)
	ctx := context.Background()

	pub, err := c.PublishPost(ctx, models.Post{ID: 7, Title: "t", Body: "b"})
	require.NoError(t, err)
	assert.Equal(t, "urn:li:share:1", pub.ExternalID)

	_, err = c.PublishComment(ctx, models.Comment{ID: 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Contains(t, err.Error(), "comment target deleted")

	_, err = c.SendConnection(ctx, models.ConnectionRequest{ID: 5})
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "send connection", te.Op)
	assert.Contains(t, err.Error(), "502")

	regen, err := c.RegeneratePost(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, Regenerated{Title: "New", Body: "Fresh draft"}, regen)
}

func TestAPIClientTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := NewAPIClient(server.URL, "", 20*time.Millisecond)
	_, err := c.ScorePost(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrTransport))
}
