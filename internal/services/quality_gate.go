package services

import (
	"fmt"

	"finsignal/internal/models"
)

// QualityOutcome is the gate's verdict for one scored draft.
type QualityOutcome string

const (
	QualityAccept     QualityOutcome = "accept"
	QualityRegenerate QualityOutcome = "regenerate"
	QualityArchive    QualityOutcome = "archive"
)

// MaxQualityAttempts bounds evaluations per post: the original draft plus
// one regeneration.
const MaxQualityAttempts = 2

// EvaluateQuality decides what happens to a post scoring score on the given
// attempt (1 for the original draft, 2 after one regeneration).
func EvaluateQuality(score int, cfg models.StrategyConfig, attempt int) (QualityOutcome, error) {
	if score < 1 || score > 10 {
		return "", validationf("quality score %d out of range 1..10", score)
	}
	if attempt < 1 || attempt > MaxQualityAttempts {
		return "", validationf("quality attempt %d out of range 1..%d", attempt, MaxQualityAttempts)
	}
	switch {
	case score >= cfg.MinPostQualityScore:
		return QualityAccept, nil
	case attempt == 1:
		return QualityRegenerate, nil
	default:
		return QualityArchive, nil
	}
}

func qualityArchiveReason(score int, cfg models.StrategyConfig) string {
	return fmt.Sprintf("quality score %d below minimum %d after regeneration", score, cfg.MinPostQualityScore)
}
