package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finsignal/internal/models"
	"finsignal/internal/services"

	"gorm.io/gorm"
)

func (s *Store) ListPosts(ctx context.Context, f services.PostFilter) ([]models.Post, error) {
	q := s.db.WithContext(ctx).Order("id DESC")
	switch {
	case len(f.Statuses) > 0:
		q = q.Where("status IN ?", f.Statuses)
	case !f.IncludeArchived:
		q = q.Where("status <> ?", models.PostArchived)
	}
	if f.Topic != "" {
		q = q.Where("lower(topic) = lower(?)", f.Topic)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	out := []models.Post{}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return out, nil
}

func (s *Store) ListComments(ctx context.Context, f services.CommentFilter) ([]models.Comment, error) {
	q := s.db.WithContext(ctx).Order("id DESC")
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	out := []models.Comment{}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return out, nil
}

func (s *Store) ListConnections(ctx context.Context, status models.ConnectionStatus) ([]models.ConnectionRequest, error) {
	q := s.db.WithContext(ctx).Order("id DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	out := []models.ConnectionRequest{}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	return out, nil
}

func (s *Store) EditPost(ctx context.Context, id uint, version int, title, body string) (models.Post, error) {
	var out models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).
			Where("id = ? AND version = ? AND status IN ?", id, version,
				[]models.PostStatus{models.PostDraft, models.PostDraftSaved}).
			Updates(map[string]any{
				"title":         title,
				"body":          body,
				"quality_score": nil,
				"version":       gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return services.ErrStateConflict
		}
		return tx.First(&out, id).Error
	})
	if err != nil {
		return models.Post{}, err
	}
	return out, nil
}

func (s *Store) EditComment(ctx context.Context, id uint, version int, text string) (models.Comment, error) {
	var out models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Comment{}).
			Where("id = ? AND version = ? AND status IN ?", id, version,
				[]models.CommentStatus{models.CommentPending, models.CommentSaved}).
			Updates(map[string]any{
				"comment_text": text,
				"version":      gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return services.ErrStateConflict
		}
		return tx.First(&out, id).Error
	})
	if err != nil {
		return models.Comment{}, err
	}
	return out, nil
}

// DeletePost removes a post that still has version and is neither posted
// nor under a publish lease taken after leaseCutoff.
func (s *Store) DeletePost(ctx context.Context, id uint, version int, leaseCutoff time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Post
		if err := tx.Select("id", "status").First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("post %d: %w", id, services.ErrNotFound)
			}
			return err
		}
		res := tx.Where("id = ? AND version = ? AND status <> ?", id, version, models.PostPosted).
			Where("publishing_at IS NULL OR publishing_at < ?", leaseCutoff).
			Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return services.ErrStateConflict
		}
		return tx.Create(&models.TransitionLog{
			EntityKind: models.KindPost,
			EntityID:   id,
			FromStatus: string(p.Status),
			ToStatus:   "deleted",
			Reason:     "deleted by operator",
		}).Error
	})
}

func (s *Store) DuePosts(ctx context.Context, now time.Time) ([]models.Post, error) {
	out := []models.Post{}
	err := s.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", models.PostScheduled, now).
		Order("scheduled_at").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("due posts: %w", err)
	}
	return out, nil
}

func (s *Store) DueComments(ctx context.Context, now time.Time) ([]models.Comment, error) {
	out := []models.Comment{}
	err := s.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", models.CommentScheduled, now).
		Order("scheduled_at").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("due comments: %w", err)
	}
	return out, nil
}
