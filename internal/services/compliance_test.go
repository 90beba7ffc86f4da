package services

import (
	"errors"
	"testing"
	"time"

	"finsignal/internal/models"

	"github.com/stretchr/testify/assert"
)

var guardNow = time.Date(2025, time.March, 12, 15, 0, 0, 0, time.UTC) // Wednesday

func commentCheck(u Usage) ComplianceCheck {
	return ComplianceCheck{
		Action:        ActionComment,
		InfluencerRef: "@JaneDoe",
		Usage:         u,
		Config:        models.DefaultStrategyConfig(),
		Now:           guardNow,
	}
}

func TestComplianceDailyCommentCap(t *testing.T) {
	c := commentCheck(Usage{CommentsToday: 5})
	c.Config.MaxCommentsPerDay = 5

	d := EvaluateCompliance(c)
	assert.False(t, d.Allowed)
	assert.Equal(t, RuleDailyCommentCap, d.Rule)
	assert.NotEmpty(t, d.Reason)

	c.Usage.CommentsToday = 4
	assert.True(t, EvaluateCompliance(c).Allowed)
}

func TestComplianceCooldown(t *testing.T) {
	last := guardNow.Add(-10 * time.Hour)
	c := commentCheck(Usage{CommentsToday: 1, InfluencerCommentsThisWeek: 1, LastInfluencerComment: &last})
	c.Config.CommentCooldownHours = 48

	d := EvaluateCompliance(c)
	assert.False(t, d.Allowed)
	assert.Equal(t, RuleCommentCooldown, d.Rule)
	assert.Contains(t, d.Reason, "@janedoe")

	c.Now = last.Add(49 * time.Hour)
	assert.True(t, EvaluateCompliance(c).Allowed)
}

func TestComplianceRuleOrder(t *testing.T) {
	last := guardNow.Add(-time.Hour)
	c := commentCheck(Usage{CommentsToday: 9, InfluencerCommentsThisWeek: 9, LastInfluencerComment: &last})
	c.Config.NeverCommentAccounts = []string{"janedoe"}

	d := EvaluateCompliance(c)
	assert.Equal(t, RuleDenylist, d.Rule)
	assert.Equal(t, "denylisted account", d.Reason)

	c.Config.NeverCommentAccounts = nil
	assert.Equal(t, RuleDailyCommentCap, EvaluateCompliance(c).Rule)

	c.Usage.CommentsToday = 0
	assert.Equal(t, RuleInfluencerWeeklyCap, EvaluateCompliance(c).Rule)

	c.Usage.InfluencerCommentsThisWeek = 0
	assert.Equal(t, RuleCommentCooldown, EvaluateCompliance(c).Rule)
}

func TestCompliancePostCaps(t *testing.T) {
	cfg := models.DefaultStrategyConfig()
	tests := []struct {
		name  string
		usage Usage
		rule  string
	}{
		{"under caps", Usage{PostsToday: 1, PostsThisWeek: 7}, ""},
		{"daily cap", Usage{PostsToday: 2, PostsThisWeek: 2}, RuleDailyPostCap},
		{"weekly cap", Usage{PostsToday: 0, PostsThisWeek: 8}, RuleWeeklyPostCap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := EvaluateCompliance(ComplianceCheck{Action: ActionPost, Usage: tt.usage, Config: cfg, Now: guardNow})
			assert.Equal(t, tt.rule == "", d.Allowed)
			assert.Equal(t, tt.rule, d.Rule)
		})
	}
}

func TestCompliancePostIgnoresCommentRules(t *testing.T) {
	cfg := models.DefaultStrategyConfig()
	cfg.NeverCommentAccounts = []string{"janedoe"}
	d := EvaluateCompliance(ComplianceCheck{
		Action:        ActionPost,
		InfluencerRef: "janedoe",
		Usage:         Usage{CommentsToday: 100},
		Config:        cfg,
		Now:           guardNow,
	})
	assert.True(t, d.Allowed)
}

func TestComplianceConnectionPacing(t *testing.T) {
	cfg := models.DefaultStrategyConfig()
	cfg.ConnectionPacing = models.PacingSlow

	check := ComplianceCheck{Action: ActionConnection, Usage: Usage{ConnectionsSentToday: 1}, Config: cfg, Now: guardNow}
	assert.True(t, EvaluateCompliance(check).Allowed)

	check.Usage.ConnectionsSentToday = 2
	d := EvaluateCompliance(check)
	assert.False(t, d.Allowed)
	assert.Equal(t, RuleConnectionPacing, d.Rule)

	check.Usage.ConnectionsSentToday = 0
	check.Now = time.Date(2025, time.March, 15, 15, 0, 0, 0, time.UTC) // Saturday
	assert.Equal(t, RuleConnectionWeekend, EvaluateCompliance(check).Rule)

	check.Config.ConnectionPauseWeekends = false
	assert.True(t, EvaluateCompliance(check).Allowed)
}

func TestDecisionErr(t *testing.T) {
	assert.NoError(t, Decision{Allowed: true}.Err())

	err := Decision{Rule: RuleDenylist, Reason: "denylisted account"}.Err()
	assert.True(t, errors.Is(err, ErrRateLimitExceeded))
	var rl *RateLimitError
	assert.True(t, errors.As(err, &rl))
	assert.Equal(t, "denylisted account", rl.Error())
}
