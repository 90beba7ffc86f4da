package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finsignal/internal/models"
	"finsignal/internal/services"

	"gorm.io/gorm"
)

func (s *Store) ListInfluencers(ctx context.Context, f services.InfluencerFilter) ([]models.Influencer, error) {
	q := s.db.WithContext(ctx).Order("follower_count DESC, id")
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("(lower(name) LIKE ? OR handle LIKE ?)", like, like)
	}
	if f.Niche != "" {
		q = q.Where("lower(niche) = lower(?)", f.Niche)
	}
	if f.Relationship != "" {
		q = q.Where("relationship = ?", f.Relationship)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	out := []models.Influencer{}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list influencers: %w", err)
	}
	return out, nil
}

func (s *Store) CreateInfluencer(ctx context.Context, inf models.Influencer) (models.Influencer, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Influencer{}).Where("handle = ?", inf.Handle).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("influencer @%s already exists: %w", inf.Handle, services.ErrStateConflict)
		}
		return tx.Create(&inf).Error
	})
	if err != nil {
		return models.Influencer{}, err
	}
	return inf, nil
}

func (s *Store) updateInfluencer(ctx context.Context, id uint, set map[string]any) (models.Influencer, error) {
	var out models.Influencer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Influencer{}).Where("id = ?", id).Updates(set)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&out, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Influencer{}, fmt.Errorf("influencer %d: %w", id, services.ErrNotFound)
	}
	if err != nil {
		return models.Influencer{}, fmt.Errorf("update influencer %d: %w", id, err)
	}
	return out, nil
}

func (s *Store) UpdateRelationship(ctx context.Context, id uint, rel models.Relationship) (models.Influencer, error) {
	return s.updateInfluencer(ctx, id, map[string]any{"relationship": rel})
}

func (s *Store) TouchInfluencer(ctx context.Context, id uint, at time.Time) (models.Influencer, error) {
	return s.updateInfluencer(ctx, id, map[string]any{"last_interaction_at": at})
}
