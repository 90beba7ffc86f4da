package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finsignal/internal/models"
	"finsignal/internal/utils"
)

const strategyCacheKey = "strategy"

// StrategyService owns the governance policy and topic weights. Reads of
// the policy are cached because every guarded transition needs it.
type StrategyService struct {
	store    StrategyStore
	cache    *utils.TTLCache[models.StrategyConfig]
	defaults models.StrategyConfig
	log      *slog.Logger
}

func NewStrategyService(store StrategyStore, defaults models.StrategyConfig, ttl time.Duration, logger *slog.Logger) (*StrategyService, error) {
	cache, err := utils.NewTTLCache[models.StrategyConfig](4, ttl)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StrategyService{
		store:    store,
		cache:    cache,
		defaults: defaults,
		log:      logger.With("component", "strategy"),
	}, nil
}

// Current returns the stored policy, or the configured defaults when none
// has been saved yet.
func (s *StrategyService) Current(ctx context.Context) (models.StrategyConfig, error) {
	if cfg, ok := s.cache.Get(strategyCacheKey); ok {
		return cfg, nil
	}
	cfg, err := s.store.LoadStrategy(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		cfg = s.defaults
	case err != nil:
		return models.StrategyConfig{}, fmt.Errorf("load strategy: %w", err)
	}
	s.cache.Set(strategyCacheKey, cfg)
	return cfg, nil
}

// Update replaces the whole policy after validating it.
func (s *StrategyService) Update(ctx context.Context, cfg models.StrategyConfig) (models.StrategyConfig, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return models.StrategyConfig{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	saved, err := s.store.SaveStrategy(ctx, cfg)
	if err != nil {
		s.cache.Delete(strategyCacheKey)
		return models.StrategyConfig{}, fmt.Errorf("save strategy: %w", err)
	}
	s.cache.Set(strategyCacheKey, saved)
	s.log.Info("strategy updated", "max_comments_per_day", saved.MaxCommentsPerDay, "max_posts_per_week", saved.MaxPostsPerWeek,
		"pacing", saved.ConnectionPacing)
	return saved, nil
}

func (s *StrategyService) Topics(ctx context.Context) ([]models.Topic, error) {
	topics, err := s.store.ListTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

// TopicInput is one entry of a topic set replacement.
type TopicInput struct {
	Tag     string `json:"tag" binding:"required"`
	Weight  int    `json:"weight"`
	Active  *bool  `json:"active"`
	Context string `json:"context"`
}

// ReplaceTopics swaps the whole topic set. Weights are stored as given;
// call Rebalance to bring active topics back to 100.
func (s *StrategyService) ReplaceTopics(ctx context.Context, in []TopicInput) ([]models.Topic, error) {
	seen := map[string]bool{}
	topics := make([]models.Topic, 0, len(in))
	for _, t := range in {
		tag := strings.TrimSpace(t.Tag)
		key := strings.ToLower(tag)
		switch {
		case tag == "":
			return nil, validationf("topic tag is required")
		case seen[key]:
			return nil, validationf("duplicate topic %q", tag)
		case t.Weight < 0 || t.Weight > utils.WeightTotal:
			return nil, validationf("weight for %q must be 0-100", tag)
		}
		seen[key] = true
		active := true
		if t.Active != nil {
			active = *t.Active
		}
		topics = append(topics, models.Topic{Tag: tag, Weight: t.Weight, Active: active, Context: strings.TrimSpace(t.Context)})
	}
	out, err := s.store.ReplaceTopics(ctx, topics)
	if err != nil {
		return nil, fmt.Errorf("replace topics: %w", err)
	}
	return out, nil
}

// Rebalance rescales active topic weights to sum to 100. Inactive topics
// keep their stored weight.
func (s *StrategyService) Rebalance(ctx context.Context) ([]models.Topic, error) {
	topics, err := s.Topics(ctx)
	if err != nil {
		return nil, err
	}
	var weights []utils.TopicWeight
	for _, t := range topics {
		if t.Active {
			weights = append(weights, utils.TopicWeight{Tag: t.Tag, Weight: t.Weight})
		}
	}
	if len(weights) == 0 {
		return nil, validationf("no active topics to rebalance")
	}
	return s.SetWeights(ctx, weights)
}

// SetWeights rebalances the given weights and persists them.
func (s *StrategyService) SetWeights(ctx context.Context, weights []utils.TopicWeight) ([]models.Topic, error) {
	balanced, err := utils.Rebalance(weights)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	out, err := s.store.SetTopicWeights(ctx, balanced)
	if err != nil {
		return nil, fmt.Errorf("save topic weights: %w", err)
	}
	s.log.Info("topics rebalanced", "topics", len(balanced), "total", utils.SumWeights(balanced))
	return out, nil
}

// TargetWeights returns the weight of every active topic keyed by tag.
func TargetWeights(topics []models.Topic) map[string]int {
	out := map[string]int{}
	for _, t := range topics {
		if t.Active {
			out[t.Tag] = t.Weight
		}
	}
	return out
}
