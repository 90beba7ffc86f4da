package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finsignal/internal/models"
)

// APIClient talks to the content backend that scores, regenerates and
// publishes on LinkedIn.
type APIClient struct {
	baseURL string
	token   string
	http    *http.Client
}

var (
	_ Scorer    = (*APIClient)(nil)
	_ Generator = (*APIClient)(nil)
	_ Publisher = (*APIClient)(nil)
)

func NewAPIClient(baseURL, token string, timeout time.Duration) *APIClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// publishResponse is the backend's answer to every publish-style call.
type publishResponse struct {
	OK         bool   `json:"ok"`
	ExternalID string `json:"external_id"`
	Error      string `json:"error"`
}

func (c *APIClient) ScorePost(ctx context.Context, text string) (PostScore, error) {
	var score PostScore
	if err := c.post(ctx, "/analytics/score-post", map[string]any{"text": text}, &score); err != nil {
		return PostScore{}, &TransportError{Op: "score post", Err: err}
	}
	return score, nil
}

func (c *APIClient) RegeneratePost(ctx context.Context, id uint) (Regenerated, error) {
	var out Regenerated
	if err := c.post(ctx, fmt.Sprintf("/content-queue/%d/regenerate", id), nil, &out); err != nil {
		return Regenerated{}, &TransportError{Op: "regenerate post", Err: err}
	}
	return out, nil
}

func (c *APIClient) PublishPost(ctx context.Context, p models.Post) (Published, error) {
	payload := map[string]any{"title": p.Title, "body": p.Body}
	return c.publish(ctx, "publish post", fmt.Sprintf("/content-queue/%d/publish", p.ID), payload)
}

func (c *APIClient) PublishComment(ctx context.Context, cm models.Comment) (Published, error) {
	payload := map[string]any{"post_url": cm.PostURL, "comment_text": cm.CommentText}
	return c.publish(ctx, "publish comment", fmt.Sprintf("/comments/%d/publish", cm.ID), payload)
}

func (c *APIClient) SendConnection(ctx context.Context, r models.ConnectionRequest) (Published, error) {
	payload := map[string]any{"profile_url": r.ProfileURL, "note": r.Note}
	return c.publish(ctx, "send connection", fmt.Sprintf("/connections/%d/send", r.ID), payload)
}

func (c *APIClient) publish(ctx context.Context, op, path string, payload any) (Published, error) {
	var resp publishResponse
	if err := c.post(ctx, path, payload, &resp); err != nil {
		return Published{}, &TransportError{Op: op, Err: err}
	}
	if !resp.OK {
		msg := resp.Error
		if msg == "" {
			msg = "backend reported failure"
		}
		return Published{}, &TransportError{Op: op, Err: errors.New(msg)}
	}
	return Published{ExternalID: resp.ExternalID}, nil
}

func (c *APIClient) post(ctx context.Context, path string, payload any, v any) error {
	var body io.Reader = http.NoBody
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
