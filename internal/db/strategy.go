package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finsignal/internal/models"
	"finsignal/internal/services"
	"finsignal/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) LoadStrategy(ctx context.Context) (models.StrategyConfig, error) {
	var cfg models.StrategyConfig
	err := s.db.WithContext(ctx).First(&cfg, strategyRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.StrategyConfig{}, fmt.Errorf("strategy: %w", services.ErrNotFound)
	}
	if err != nil {
		return models.StrategyConfig{}, fmt.Errorf("load strategy: %w", err)
	}
	return cfg, nil
}

// SaveStrategy replaces the single strategy row.
func (s *Store) SaveStrategy(ctx context.Context, cfg models.StrategyConfig) (models.StrategyConfig, error) {
	cfg.ID = strategyRowID
	cfg.UpdatedAt = time.Now().UTC()
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(&cfg).Error
	if err != nil {
		return models.StrategyConfig{}, fmt.Errorf("save strategy: %w", err)
	}
	return cfg, nil
}

func (s *Store) ListTopics(ctx context.Context) ([]models.Topic, error) {
	out := []models.Topic{}
	if err := s.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return out, nil
}

// ReplaceTopics makes the stored set equal to topics, keeping rows whose
// tag survives.
func (s *Store) ReplaceTopics(ctx context.Context, topics []models.Topic) ([]models.Topic, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.Topic
		if err := tx.Find(&existing).Error; err != nil {
			return err
		}
		byTag := map[string]models.Topic{}
		for _, t := range existing {
			byTag[strings.ToLower(t.Tag)] = t
		}
		keep := map[uint]bool{}
		for _, t := range topics {
			if old, ok := byTag[strings.ToLower(t.Tag)]; ok {
				err := tx.Model(&models.Topic{}).Where("id = ?", old.ID).Updates(map[string]any{
					"tag":     t.Tag,
					"weight":  t.Weight,
					"active":  t.Active,
					"context": t.Context,
				}).Error
				if err != nil {
					return err
				}
				keep[old.ID] = true
				continue
			}
			row := t
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			keep[row.ID] = true
		}
		for _, t := range existing {
			if !keep[t.ID] {
				if err := tx.Delete(&models.Topic{}, t.ID).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("replace topics: %w", err)
	}
	return s.ListTopics(ctx)
}

// SetTopicWeights writes all weights in one transaction. An unknown tag
// aborts the whole write.
func (s *Store) SetTopicWeights(ctx context.Context, weights []utils.TopicWeight) ([]models.Topic, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, w := range weights {
			res := tx.Model(&models.Topic{}).Where("lower(tag) = lower(?)", w.Tag).Update("weight", w.Weight)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("topic %q: %w", w.Tag, services.ErrNotFound)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("set topic weights: %w", err)
	}
	return s.ListTopics(ctx)
}
