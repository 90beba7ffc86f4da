package db

import (
	"context"
	"errors"
	"fmt"

	"finsignal/internal/models"
	"finsignal/internal/services"

	"gorm.io/gorm"
)

func (s *Store) ListFeeds(ctx context.Context, f services.FeedFilter) ([]models.Feed, error) {
	q := s.db.WithContext(ctx).Order("name, id")
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	out := []models.Feed{}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}
	return out, nil
}

func feedURLTaken(tx *gorm.DB, url string, except uint) error {
	var count int64
	if err := tx.Model(&models.Feed{}).Where("url = ? AND id <> ?", url, except).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("feed %s already exists: %w", url, services.ErrStateConflict)
	}
	return nil
}

func (s *Store) CreateFeed(ctx context.Context, feed models.Feed) (models.Feed, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := feedURLTaken(tx, feed.URL, 0); err != nil {
			return err
		}
		// Select keeps an inactive feed inactive instead of falling back to
		// the column default.
		return tx.Select("*").Omit("id").Create(&feed).Error
	})
	if err != nil {
		return models.Feed{}, err
	}
	return feed, nil
}

func (s *Store) UpdateFeed(ctx context.Context, feed models.Feed) (models.Feed, error) {
	return s.updateFeed(ctx, feed.ID, func(tx *gorm.DB) error {
		return feedURLTaken(tx, feed.URL, feed.ID)
	}, map[string]any{
		"name":      feed.Name,
		"url":       feed.URL,
		"feed_type": feed.FeedType,
		"priority":  feed.Priority,
		"category":  feed.Category,
		"active":    feed.Active,
	})
}

func (s *Store) SetFeedActive(ctx context.Context, id uint, active bool) (models.Feed, error) {
	return s.updateFeed(ctx, id, nil, map[string]any{"active": active})
}

func (s *Store) updateFeed(ctx context.Context, id uint, check func(tx *gorm.DB) error, set map[string]any) (models.Feed, error) {
	var out models.Feed
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if check != nil {
			if err := check(tx); err != nil {
				return err
			}
		}
		res := tx.Model(&models.Feed{}).Where("id = ?", id).Updates(set)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&out, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Feed{}, fmt.Errorf("feed %d: %w", id, services.ErrNotFound)
	}
	if err != nil {
		return models.Feed{}, fmt.Errorf("update feed %d: %w", id, err)
	}
	return out, nil
}

func (s *Store) DeleteFeed(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Feed{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete feed %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("feed %d: %w", id, services.ErrNotFound)
	}
	return nil
}
