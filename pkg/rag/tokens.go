package rag

import (
	"math"
	"strings"
)

// DefaultTokenFactor approximates model tokens per whitespace-delimited word.
const DefaultTokenFactor = 1.3

// TokenEstimator approximates token counts as ceil(words * Factor). It is a
// soft budget, not a tokenizer.
type TokenEstimator struct {
	Factor float64
}

// NewTokenEstimator returns an estimator; a non-positive factor uses DefaultTokenFactor.
func NewTokenEstimator(factor float64) TokenEstimator {
	if factor <= 0 {
		factor = DefaultTokenFactor
	}
	return TokenEstimator{Factor: factor}
}

// Estimate returns the estimated token count of text.
func (e TokenEstimator) Estimate(text string) int {
	return e.estimateWords(len(strings.Fields(text)))
}

func (e TokenEstimator) estimateWords(n int) int {
	return int(math.Ceil(float64(n) * e.Factor))
}

// Truncate keeps the longest word prefix of text whose estimate fits in max.
// Whitespace between kept words collapses to single spaces.
func (e TokenEstimator) Truncate(text string, max int) string {
	if e.Estimate(text) <= max {
		return text
	}
	if max <= 0 {
		return ""
	}
	words := strings.Fields(text)
	n := int(float64(max) / e.Factor)
	if n > len(words) {
		n = len(words)
	}
	for n > 0 && e.estimateWords(n) > max {
		n--
	}
	return strings.Join(words[:n], " ")
}
