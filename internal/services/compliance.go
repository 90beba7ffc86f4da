package services

import (
	"fmt"
	"math"
	"time"

	"finsignal/internal/models"
	"finsignal/internal/utils"
)

// Action is the kind of outward-facing activity being checked.
type Action string

const (
	ActionComment    Action = "comment"
	ActionPost       Action = "post"
	ActionConnection Action = "connection"
)

const (
	RuleDenylist            = "denylist"
	RuleDailyCommentCap     = "daily_comment_cap"
	RuleInfluencerWeeklyCap = "influencer_weekly_cap"
	RuleCommentCooldown     = "comment_cooldown"
	RuleDailyPostCap        = "daily_post_cap"
	RuleWeeklyPostCap       = "weekly_post_cap"
	RuleConnectionPacing    = "connection_pacing"
	RuleConnectionWeekend   = "connection_weekend_pause"
	RuleQualityArchive      = "quality_archive"
	reasonDenylistedAccount = "denylisted account"
)

// ComplianceCheck is one evaluation input. Usage is derived by the caller
// from entity history; the guard never changes it.
type ComplianceCheck struct {
	Action        Action
	InfluencerRef string
	Usage         Usage
	Config        models.StrategyConfig
	Now           time.Time
}

// Decision is the guard's verdict. Reason is set whenever Allowed is false.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Rule    string `json:"rule,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Err returns the denial as a *RateLimitError, or nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &RateLimitError{Rule: d.Rule, Reason: d.Reason}
}

type complianceRule struct {
	name    string
	applies Action
	check   func(c ComplianceCheck) (bool, string)
}

// Rules run in this order and the first failure wins.
var complianceRules = []complianceRule{
	{RuleDenylist, ActionComment, func(c ComplianceCheck) (bool, string) {
		return !c.Config.IsNeverComment(c.InfluencerRef), reasonDenylistedAccount
	}},
	{RuleDailyCommentCap, ActionComment, func(c ComplianceCheck) (bool, string) {
		return c.Usage.CommentsToday < c.Config.MaxCommentsPerDay,
			fmt.Sprintf("daily comment limit reached (%d/%d)", c.Usage.CommentsToday, c.Config.MaxCommentsPerDay)
	}},
	{RuleInfluencerWeeklyCap, ActionComment, func(c ComplianceCheck) (bool, string) {
		return c.Usage.InfluencerCommentsThisWeek < c.Config.MaxCommentsPerInfluencerPerWeek,
			fmt.Sprintf("already commented on @%s %d times this week (max %d)",
				models.NormalizeHandle(c.InfluencerRef), c.Usage.InfluencerCommentsThisWeek, c.Config.MaxCommentsPerInfluencerPerWeek)
	}},
	{RuleCommentCooldown, ActionComment, func(c ComplianceCheck) (bool, string) {
		last := c.Usage.LastInfluencerComment
		if last == nil {
			return true, ""
		}
		since := c.Now.Sub(*last)
		if since >= c.Config.CommentCooldown() {
			return true, ""
		}
		wait := int(math.Ceil((c.Config.CommentCooldown() - since).Hours()))
		return false, fmt.Sprintf("commented on @%s %dh ago, cooldown is %dh (wait %dh)",
			models.NormalizeHandle(c.InfluencerRef), int(since.Hours()), c.Config.CommentCooldownHours, wait)
	}},
	{RuleDailyPostCap, ActionPost, func(c ComplianceCheck) (bool, string) {
		return c.Usage.PostsToday < c.Config.MaxPostsPerDay,
			fmt.Sprintf("daily post limit reached (%d/%d)", c.Usage.PostsToday, c.Config.MaxPostsPerDay)
	}},
	{RuleWeeklyPostCap, ActionPost, func(c ComplianceCheck) (bool, string) {
		return c.Usage.PostsThisWeek < c.Config.MaxPostsPerWeek,
			fmt.Sprintf("weekly post limit reached (%d/%d)", c.Usage.PostsThisWeek, c.Config.MaxPostsPerWeek)
	}},
	{RuleConnectionWeekend, ActionConnection, func(c ComplianceCheck) (bool, string) {
		return !(c.Config.ConnectionPauseWeekends && utils.IsDisplayWeekend(c.Now)),
			"connection requests are paused on weekends"
	}},
	{RuleConnectionPacing, ActionConnection, func(c ComplianceCheck) (bool, string) {
		ceiling := c.Config.ConnectionPacing.DailyCeiling()
		return c.Usage.ConnectionsSentToday < ceiling,
			fmt.Sprintf("%s pacing allows %d connection requests per day (%d sent today)",
				c.Config.ConnectionPacing, ceiling, c.Usage.ConnectionsSentToday)
	}},
}

// EvaluateCompliance applies the governance rules for c.Action. It is pure.
func EvaluateCompliance(c ComplianceCheck) Decision {
	for _, r := range complianceRules {
		if r.applies != c.Action {
			continue
		}
		if ok, reason := r.check(c); !ok {
			return Decision{Allowed: false, Rule: r.name, Reason: reason}
		}
	}
	return Decision{Allowed: true}
}
