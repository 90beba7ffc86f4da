package services

import (
	"errors"
	"testing"

	"finsignal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateQuality(t *testing.T) {
	cfg := models.DefaultStrategyConfig()
	cfg.MinPostQualityScore = 7

	tests := []struct {
		score   int
		attempt int
		want    QualityOutcome
	}{
		{7, 1, QualityAccept},
		{10, 2, QualityAccept},
		{6, 1, QualityRegenerate},
		{6, 2, QualityArchive},
		{1, 2, QualityArchive},
	}
	for _, tt := range tests {
		got, err := EvaluateQuality(tt.score, cfg, tt.attempt)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "score=%d attempt=%d", tt.score, tt.attempt)
	}
}

func TestEvaluateQualityNeverAllowsThirdAttempt(t *testing.T) {
	cfg := models.DefaultStrategyConfig()

	_, err := EvaluateQuality(3, cfg, 3)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = EvaluateQuality(0, cfg, 1)
	assert.True(t, errors.Is(err, ErrValidation))
}
