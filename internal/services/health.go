package services

import (
	"context"
	"fmt"
	"time"

	"finsignal/internal/models"
	"finsignal/internal/utils"
)

const healthFlagLimit = 20

// HealthReport is the strategy health view.
type HealthReport struct {
	CommentsToday     int                  `json:"comments_today"`
	MaxCommentsDay    int                  `json:"max_comments_day"`
	PostsThisWeek     int                  `json:"posts_this_week"`
	MaxPostsWeek      int                  `json:"max_posts_week"`
	TopicDistribution map[string]int       `json:"topic_distribution"`
	TargetWeights     map[string]int       `json:"target_weights"`
	ArchivedThisWeek  int                  `json:"archived_this_week"`
	FlaggedItems      []models.FlaggedItem `json:"flagged_items"`
	DraftCount        int                  `json:"draft_count"`
	PendingComments   int                  `json:"pending_comments"`
	WarmInfluencers   int                  `json:"warm_influencers"`
	NextAgentRun      time.Time            `json:"next_agent_run"`
	NextAgentRunIn    string               `json:"next_agent_run_in"`
}

type HealthService struct {
	store    HealthStore
	strategy *StrategyService
	now      func() time.Time
}

func NewHealthService(store HealthStore, strategy *StrategyService, clock func() time.Time) *HealthService {
	if clock == nil {
		clock = time.Now
	}
	return &HealthService{store: store, strategy: strategy, now: clock}
}

func (s *HealthService) Report(ctx context.Context) (HealthReport, error) {
	now := s.now().UTC()
	cfg, err := s.strategy.Current(ctx)
	if err != nil {
		return HealthReport{}, err
	}
	topics, err := s.strategy.Topics(ctx)
	if err != nil {
		return HealthReport{}, err
	}
	counts, err := s.store.HealthCounts(ctx, now)
	if err != nil {
		return HealthReport{}, fmt.Errorf("health counts: %w", err)
	}
	flags, err := s.store.RecentFlags(ctx, healthFlagLimit)
	if err != nil {
		return HealthReport{}, fmt.Errorf("recent flags: %w", err)
	}

	next := utils.NextAgentRun(now)
	dist := counts.TopicDistribution
	if dist == nil {
		dist = map[string]int{}
	}
	return HealthReport{
		CommentsToday:     counts.CommentsToday,
		MaxCommentsDay:    cfg.MaxCommentsPerDay,
		PostsThisWeek:     counts.PostsThisWeek,
		MaxPostsWeek:      cfg.MaxPostsPerWeek,
		TopicDistribution: dist,
		TargetWeights:     TargetWeights(topics),
		ArchivedThisWeek:  counts.ArchivedThisWeek,
		FlaggedItems:      flags,
		DraftCount:        counts.DraftCount,
		PendingComments:   counts.PendingComments,
		WarmInfluencers:   counts.WarmInfluencers,
		NextAgentRun:      next,
		NextAgentRunIn:    utils.FormatCountdown(next.Sub(now)),
	}, nil
}
