package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finsignal/internal/models"
	"finsignal/internal/utils"
)

// QueueService serves the review queues: listing, editing and previewing
// drafts and comments. Status changes go through Lifecycle.
type QueueService struct {
	store LifecycleQueueStore
	lease time.Duration
	now   func() time.Time
}

// LifecycleQueueStore is the subset of Store the queue needs.
type LifecycleQueueStore interface {
	LifecycleStore
	QueueStore
}

func NewQueueService(store LifecycleQueueStore, lease time.Duration, clock func() time.Time) *QueueService {
	if clock == nil {
		clock = time.Now
	}
	if lease <= 0 {
		lease = 2 * time.Minute
	}
	return &QueueService{store: store, lease: lease, now: clock}
}

func (s *QueueService) ListPosts(ctx context.Context, statuses []string, includeArchived bool, topic string, limit int) ([]models.Post, error) {
	f := PostFilter{IncludeArchived: includeArchived, Topic: topic, Limit: limit}
	for _, raw := range statuses {
		st, err := models.ParsePostStatus(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		f.Statuses = append(f.Statuses, st)
	}
	posts, err := s.store.ListPosts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *QueueService) GetPost(ctx context.Context, id uint) (models.Post, error) {
	p, err := s.store.GetPost(ctx, id)
	if err != nil {
		return models.Post{}, fmt.Errorf("load post %d: %w", id, err)
	}
	return p, nil
}

// EditPost replaces title and body of a draft. Markup is stripped and the
// previous quality score is discarded.
func (s *QueueService) EditPost(ctx context.Context, id uint, version int, title, body string) (models.Post, error) {
	title = utils.SanitizeText(title)
	body = utils.SanitizeText(body)
	if body == "" {
		return models.Post{}, validationf("body is required")
	}
	p, err := s.store.GetPost(ctx, id)
	if err != nil {
		return models.Post{}, fmt.Errorf("load post %d: %w", id, err)
	}
	if p.Status != models.PostDraft && p.Status != models.PostDraftSaved {
		return models.Post{}, conflictf("post %d is %s and can no longer be edited", id, p.Status)
	}
	if err := s.checkEditable(models.KindPost, id, p.Version, version, p.PublishingAt); err != nil {
		return models.Post{}, err
	}
	if title == "" {
		title = p.Title
	}
	out, err := s.store.EditPost(ctx, id, version, title, body)
	if err != nil {
		return models.Post{}, fmt.Errorf("edit post %d: %w", id, err)
	}
	return out, nil
}

// DeletePost removes a post that was never published. Posted posts stay as
// publishing history.
func (s *QueueService) DeletePost(ctx context.Context, id uint, version int) error {
	p, err := s.store.GetPost(ctx, id)
	if err != nil {
		return fmt.Errorf("load post %d: %w", id, err)
	}
	if p.Status == models.PostPosted {
		return conflictf("post %d is posted and cannot be deleted", id)
	}
	if err := s.checkEditable(models.KindPost, id, p.Version, version, p.PublishingAt); err != nil {
		return err
	}
	if err := s.store.DeletePost(ctx, id, version, s.now().Add(-s.lease)); err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	return nil
}

// Preview renders the post body as the operator will see it on LinkedIn.
func (s *QueueService) Preview(ctx context.Context, id uint) (utils.Preview, error) {
	p, err := s.GetPost(ctx, id)
	if err != nil {
		return utils.Preview{}, err
	}
	return utils.RenderPreview(p.Body, models.PostBodySoftLimit), nil
}

func (s *QueueService) ListComments(ctx context.Context, statuses []string, limit int) ([]models.Comment, error) {
	f := CommentFilter{Limit: limit}
	for _, raw := range statuses {
		st, err := models.ParseCommentStatus(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		f.Statuses = append(f.Statuses, st)
	}
	comments, err := s.store.ListComments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// EditComment replaces the text of a pending or saved comment.
func (s *QueueService) EditComment(ctx context.Context, id uint, version int, text string) (models.Comment, error) {
	text = utils.SanitizeText(text)
	if text == "" {
		return models.Comment{}, validationf("comment_text is required")
	}
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return models.Comment{}, fmt.Errorf("load comment %d: %w", id, err)
	}
	if c.Status != models.CommentPending && c.Status != models.CommentSaved {
		return models.Comment{}, conflictf("comment %d is %s and can no longer be edited", id, c.Status)
	}
	if err := s.checkEditable(models.KindComment, id, c.Version, version, c.PublishingAt); err != nil {
		return models.Comment{}, err
	}
	out, err := s.store.EditComment(ctx, id, version, text)
	if err != nil {
		return models.Comment{}, fmt.Errorf("edit comment %d: %w", id, err)
	}
	return out, nil
}

func (s *QueueService) ListConnections(ctx context.Context, status string) ([]models.ConnectionRequest, error) {
	var st models.ConnectionStatus
	if strings.TrimSpace(status) != "" {
		parsed, err := models.ParseConnectionStatus(status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		st = parsed
	}
	out, err := s.store.ListConnections(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	return out, nil
}

func (s *QueueService) checkEditable(kind models.EntityKind, id uint, stored, requested int, lease *time.Time) error {
	if stored != requested {
		return conflictf("%s %d was modified (version %d, requested %d)", kind, id, stored, requested)
	}
	if lease != nil && s.now().Sub(*lease) < s.lease {
		return conflictf("%s %d is being published", kind, id)
	}
	return nil
}
