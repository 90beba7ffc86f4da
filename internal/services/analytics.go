package services

import (
	"context"

	"finsignal/internal/utils"
)

// ScoreResult is an ad-hoc score measured against the current quality bar.
type ScoreResult struct {
	PostScore
	MinScore int  `json:"min_score"`
	Passes   bool `json:"passes"`
}

// AnalyticsService scores arbitrary text without touching any post.
type AnalyticsService struct {
	scorer   Scorer
	strategy StrategyProvider
}

func NewAnalyticsService(scorer Scorer, strategy StrategyProvider) *AnalyticsService {
	return &AnalyticsService{scorer: scorer, strategy: strategy}
}

func (s *AnalyticsService) Score(ctx context.Context, text string) (ScoreResult, error) {
	text = utils.SanitizeText(text)
	if text == "" {
		return ScoreResult{}, validationf("text is required")
	}
	cfg, err := s.strategy.Current(ctx)
	if err != nil {
		return ScoreResult{}, err
	}
	score, err := s.scorer.ScorePost(ctx, text)
	if err != nil {
		return ScoreResult{}, asTransport("score post", err)
	}
	return ScoreResult{
		PostScore: score,
		MinScore:  cfg.MinPostQualityScore,
		Passes:    score.Overall >= cfg.MinPostQualityScore,
	}, nil
}
