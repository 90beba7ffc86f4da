package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type PacingTier string

const (
	PacingSlow     PacingTier = "slow"
	PacingModerate PacingTier = "moderate"
	PacingActive   PacingTier = "active"
)

// DailyCeiling is the most connection requests a tier sends in one day.
func (t PacingTier) DailyCeiling() int {
	switch t {
	case PacingSlow:
		return 2
	case PacingActive:
		return 8
	default:
		return 5
	}
}

// StrategyConfig is the single process-wide governance policy. It is
// stored as one row and always replaced as a whole.
type StrategyConfig struct {
	ID                              uint       `gorm:"primaryKey" json:"-" yaml:"-"`
	MaxPostsPerDay                  int        `gorm:"not null" json:"max_posts_per_day" yaml:"max_posts_per_day"`
	MaxPostsPerWeek                 int        `gorm:"not null" json:"max_posts_per_week" yaml:"max_posts_per_week"`
	MaxCommentsPerDay               int        `gorm:"not null" json:"max_comments_per_day" yaml:"max_comments_per_day"`
	MaxCommentsPerInfluencerPerWeek int        `gorm:"not null" json:"max_comments_per_influencer_per_week" yaml:"max_comments_per_influencer_per_week"`
	CommentCooldownHours            int        `gorm:"not null" json:"comment_cooldown_hours" yaml:"comment_cooldown_hours"`
	MinPostQualityScore             int        `gorm:"not null" json:"min_post_quality_score" yaml:"min_post_quality_score"`
	NeverCommentAccounts            []string   `gorm:"serializer:json" json:"never_comment_accounts" yaml:"never_comment_accounts"`
	BestPostingTimes                []string   `gorm:"serializer:json" json:"best_posting_times" yaml:"best_posting_times"`
	CommentToneRules                []string   `gorm:"serializer:json" json:"comment_tone_rules" yaml:"comment_tone_rules"`
	AvoidedIntentKeywords           []string   `gorm:"serializer:json" json:"avoided_intent_keywords" yaml:"avoided_intent_keywords"`
	ConnectionPacing                PacingTier `gorm:"type:varchar(20);not null" json:"connection_pacing" yaml:"connection_pacing"`
	ConnectionPauseWeekends         bool       `json:"connection_pause_weekends" yaml:"connection_pause_weekends"`
	UpdatedAt                       time.Time  `json:"updated_at" yaml:"-"`
}

// DefaultStrategyConfig mirrors the dashboard's out-of-the-box policy.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		MaxPostsPerDay:                  2,
		MaxPostsPerWeek:                 8,
		MaxCommentsPerDay:               5,
		MaxCommentsPerInfluencerPerWeek: 2,
		CommentCooldownHours:            48,
		MinPostQualityScore:             7,
		NeverCommentAccounts:            []string{},
		BestPostingTimes:                []string{"08:00", "12:00", "17:00"},
		CommentToneRules:                []string{},
		AvoidedIntentKeywords:           []string{},
		ConnectionPacing:                PacingModerate,
		ConnectionPauseWeekends:         true,
	}
}

// CommentCooldown returns the cooldown as a duration.
func (c StrategyConfig) CommentCooldown() time.Duration {
	return time.Duration(c.CommentCooldownHours) * time.Hour
}

// IsNeverComment reports whether handle is on the denylist.
func (c StrategyConfig) IsNeverComment(handle string) bool {
	h := NormalizeHandle(handle)
	if h == "" {
		return false
	}
	for _, acct := range c.NeverCommentAccounts {
		if NormalizeHandle(acct) == h {
			return true
		}
	}
	return false
}

// Validate checks ranges the dashboard enforces on its inputs.
func (c StrategyConfig) Validate() error {
	var errs []error
	check := func(name string, v, lo, hi int) {
		if v < lo || v > hi {
			errs = append(errs, fmt.Errorf("%s must be between %d and %d, got %d", name, lo, hi, v))
		}
	}
	check("max_posts_per_day", c.MaxPostsPerDay, 1, 10)
	check("max_posts_per_week", c.MaxPostsPerWeek, 1, 30)
	check("max_comments_per_day", c.MaxCommentsPerDay, 1, 20)
	check("max_comments_per_influencer_per_week", c.MaxCommentsPerInfluencerPerWeek, 1, 10)
	check("comment_cooldown_hours", c.CommentCooldownHours, 1, 168)
	check("min_post_quality_score", c.MinPostQualityScore, 1, 10)
	if c.MaxPostsPerDay > c.MaxPostsPerWeek {
		errs = append(errs, errors.New("max_posts_per_day cannot exceed max_posts_per_week"))
	}
	switch c.ConnectionPacing {
	case PacingSlow, PacingModerate, PacingActive:
	default:
		errs = append(errs, fmt.Errorf("connection_pacing must be slow, moderate or active, got %q", c.ConnectionPacing))
	}
	for _, t := range c.BestPostingTimes {
		if _, err := time.Parse("15:04", strings.TrimSpace(t)); err != nil {
			errs = append(errs, fmt.Errorf("best_posting_times: %q is not HH:MM", t))
		}
	}
	return errors.Join(errs...)
}

// Normalize trims list entries and drops empty ones.
func (c *StrategyConfig) Normalize() {
	c.NeverCommentAccounts = cleanList(c.NeverCommentAccounts)
	c.BestPostingTimes = cleanList(c.BestPostingTimes)
	c.CommentToneRules = cleanList(c.CommentToneRules)
	c.AvoidedIntentKeywords = cleanList(c.AvoidedIntentKeywords)
	c.ConnectionPacing = PacingTier(strings.ToLower(strings.TrimSpace(string(c.ConnectionPacing))))
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
