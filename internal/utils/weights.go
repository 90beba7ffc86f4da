package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// WeightTotal is the sum every rebalanced topic mix adds up to.
const WeightTotal = 100

var (
	ErrZeroWeightTotal = errors.New("topic weights sum to zero, nothing to scale")
	ErrInvalidWeights  = errors.New("invalid topic weights")
)

// TopicWeight is one entry of an ordered topic mix.
type TopicWeight struct {
	Tag    string `json:"tag"`
	Weight int    `json:"weight"`
}

// SumWeights adds up the weights of a mix.
func SumWeights(weights []TopicWeight) int {
	total := 0
	for _, w := range weights {
		total += w.Weight
	}
	return total
}

// Rebalance scales weights so they total exactly 100. Each topic keeps at
// least 1%, and the whole rounding difference goes to the largest rounded
// entry (first one wins a tie). When that entry cannot absorb it, the
// excess is taken one point at a time from whichever entry is largest.
// The input is not modified.
func Rebalance(weights []TopicWeight) ([]TopicWeight, error) {
	if len(weights) > WeightTotal {
		return nil, fmt.Errorf("%w: %d topics cannot each keep 1%%", ErrInvalidWeights, len(weights))
	}

	seen := make(map[string]struct{}, len(weights))
	total := 0
	for _, w := range weights {
		if w.Weight < 0 {
			return nil, fmt.Errorf("%w: %s has negative weight %d", ErrInvalidWeights, w.Tag, w.Weight)
		}
		key := strings.ToLower(strings.TrimSpace(w.Tag))
		if key == "" {
			return nil, fmt.Errorf("%w: empty topic tag", ErrInvalidWeights)
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: duplicate topic %s", ErrInvalidWeights, w.Tag)
		}
		seen[key] = struct{}{}
		total += w.Weight
	}
	if total == 0 {
		return nil, ErrZeroWeightTotal
	}

	scale := float64(WeightTotal) / float64(total)
	out := make([]TopicWeight, len(weights))
	sum := 0
	biggest := 0
	for i, w := range weights {
		v := int(math.Round(float64(w.Weight) * scale))
		if v < 1 {
			v = 1
		}
		out[i] = TopicWeight{Tag: w.Tag, Weight: v}
		sum += v
		if v > out[biggest].Weight {
			biggest = i
		}
	}

	diff := WeightTotal - sum
	if out[biggest].Weight+diff >= 1 {
		out[biggest].Weight += diff
		return out, nil
	}
	// Too many entries were floored or rounded up for one entry to absorb
	// the excess: take it one point at a time from the current largest.
	for ; diff < 0; diff++ {
		largest := 0
		for i := range out {
			if out[i].Weight > out[largest].Weight {
				largest = i
			}
		}
		out[largest].Weight--
	}
	return out, nil
}

// ParseTopicWeights reads TAG=WEIGHT pairs in order, e.g. "AML=33".
func ParseTopicWeights(args []string) ([]TopicWeight, error) {
	out := make([]TopicWeight, 0, len(args))
	for _, arg := range args {
		tag, raw, ok := strings.Cut(arg, "=")
		tag = strings.TrimSpace(tag)
		if !ok || tag == "" {
			return nil, fmt.Errorf("%w: %q is not TAG=WEIGHT", ErrInvalidWeights, arg)
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: weight for %s is not a number", ErrInvalidWeights, tag)
		}
		out = append(out, TopicWeight{Tag: tag, Weight: n})
	}
	return out, nil
}
