package tokens

import (
	"strings"
)

const (
	// wordsToTokens approximates tokens from whitespace-separated words.
	// Deliberately coarse: it only gates soft prompt budgets, never the
	// model's own hard limit.
	wordsToTokens = 1.33

	// charsPerToken converts a token budget into a character budget when
	// truncating.
	charsPerToken = 3

	// boundaryBackoffRatio caps how much of a truncated slice we are
	// willing to give up to land on a whitespace boundary.
	boundaryBackoffRatio = 0.2
)

// Estimate approximates the token count of text using a word-count
// heuristic. Empty or whitespace-only text estimates to zero.
func Estimate(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return int(float64(words)*wordsToTokens) + 1
}

// Truncate cuts text down to roughly maxTokens, backing off to the nearest
// preceding whitespace boundary when that loses no more than 20% of the
// slice, then appends suffix. It never fails: empty input returns "", a
// non-positive budget returns just the suffix trimmed to nothing.
func Truncate(text string, maxTokens int, suffix string) string {
	if text == "" {
		return ""
	}
	if maxTokens <= 0 {
		return suffix
	}

	maxChars := maxTokens * charsPerToken
	if len(text) <= maxChars {
		return text
	}

	// Budget the suffix inside the slice so truncating an already
	// truncated text with the same budget is a no-op.
	sliceLen := maxChars - len(suffix)
	if sliceLen <= 0 {
		return suffix
	}

	cut := text[:sliceLen]
	if idx := strings.LastIndexAny(cut, " \t\n"); idx > 0 {
		if float64(sliceLen-idx) <= boundaryBackoffRatio*float64(sliceLen) {
			cut = cut[:idx]
		}
	}

	return strings.TrimRight(cut, " \t\n") + suffix
}
