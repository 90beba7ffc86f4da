package services_test

import (
	"context"
	"errors"
	"testing"

	"finsignal/internal/models"
	"finsignal/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsScore(t *testing.T) {
	scorer := &fakeScorer{scores: []int{6}}
	s := services.NewAnalyticsService(scorer, staticStrategy{models.DefaultStrategyConfig()})
	ctx := context.Background()

	res, err := s.Score(ctx, "<b>Three</b> signals your TM rules are stale")
	require.NoError(t, err)
	assert.Equal(t, 6, res.Overall)
	assert.Equal(t, 7, res.MinScore)
	assert.False(t, res.Passes)
	assert.Equal(t, "add a number", res.Suggestion)

	_, err = s.Score(ctx, "  ")
	assert.True(t, errors.Is(err, services.ErrValidation))
	assert.Equal(t, 1, scorer.calls, "blank text never reaches the scorer")

	scorer.err = errors.New("upstream 503")
	_, err = s.Score(ctx, "text")
	assert.True(t, errors.Is(err, services.ErrTransport))
}
