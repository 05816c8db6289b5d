package tokens

import (
	"strings"
)

const (
	// roleMarker begins the first line of prompts whose role statement
	// must survive compression verbatim.
	roleMarker = "ROLE:"

	// compressionBuffer is deducted from the residual budget to avoid
	// overshooting the boundary with the truncation suffix.
	compressionBuffer = 5
)

// Compress fits a system prompt into maxTokens. A prompt that already fits
// is returned unchanged. When the first line starts with "ROLE:", that line
// is preserved verbatim and only the remainder is truncated against the
// budget left over after the role line.
func Compress(prompt string, maxTokens int) string {
	if Estimate(prompt) <= maxTokens {
		return prompt
	}

	line, rest, found := strings.Cut(prompt, "\n")
	if !found || !strings.HasPrefix(line, roleMarker) {
		return Truncate(prompt, maxTokens, "...")
	}

	residual := maxTokens - Estimate(line) - compressionBuffer
	if residual <= 0 {
		return line
	}

	return line + "\n" + Truncate(rest, residual, "...")
}
