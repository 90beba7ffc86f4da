package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStrategyConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultStrategyConfig().Validate())
}

func TestStrategyConfigValidate(t *testing.T) {
	cfg := DefaultStrategyConfig()
	cfg.MaxCommentsPerDay = 0
	cfg.ConnectionPacing = "turbo"
	cfg.BestPostingTimes = []string{"8am"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_comments_per_day")
	assert.Contains(t, err.Error(), "connection_pacing")
	assert.Contains(t, err.Error(), "best_posting_times")
}

func TestIsNeverComment(t *testing.T) {
	cfg := DefaultStrategyConfig()
	cfg.NeverCommentAccounts = []string{"@FrankMcKenna", "competitor"}

	assert.True(t, cfg.IsNeverComment("frankmckenna"))
	assert.True(t, cfg.IsNeverComment(" Competitor "))
	assert.False(t, cfg.IsNeverComment("someone-else"))
	assert.False(t, cfg.IsNeverComment(""))
}

func TestParseStatusesMapsLegacyValues(t *testing.T) {
	tests := []struct {
		raw  string
		want PostStatus
	}{
		{"draft", PostDraft},
		{"ignored", PostArchived},
		{"APPROVED", PostPosted},
		{"saved", PostDraftSaved},
	}
	for _, tt := range tests {
		got, err := ParsePostStatus(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got)
	}

	c, err := ParseCommentStatus("pending_urn")
	require.NoError(t, err)
	assert.Equal(t, CommentPending, c)

	_, err = ParseCommentStatus("maybe_posted")
	assert.Error(t, err)

	conn, err := ParseConnectionStatus("pending_manual")
	require.NoError(t, err)
	assert.Equal(t, ConnectionPending, conn)
}

func TestPacingCeilings(t *testing.T) {
	assert.Equal(t, 2, PacingSlow.DailyCeiling())
	assert.Equal(t, 5, PacingModerate.DailyCeiling())
	assert.Equal(t, 8, PacingActive.DailyCeiling())
}
