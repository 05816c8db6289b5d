package tokens

import (
	"strings"
	"testing"
)

func TestCompress(t *testing.T) {
	tests := []struct {
		name      string
		prompt    string
		maxTokens int
		check     func(t *testing.T, got string)
	}{
		{
			name:      "fitting prompt unchanged",
			prompt:    "ROLE: Tutor\nBe helpful.",
			maxTokens: 50,
			check: func(t *testing.T, got string) {
				if got != "ROLE: Tutor\nBe helpful." {
					t.Errorf("expected prompt unchanged, got %q", got)
				}
			},
		},
		{
			name:      "role line preserved under pressure",
			prompt:    "ROLE: Tutor\n" + strings.Repeat("instruction text ", 100),
			maxTokens: 20,
			check: func(t *testing.T, got string) {
				if !strings.HasPrefix(got, "ROLE: Tutor") {
					t.Errorf("role line lost: %q", got)
				}
				if Estimate(got) > 20+compressionBuffer {
					t.Errorf("compressed prompt still too large: %d tokens", Estimate(got))
				}
			},
		},
		{
			name:      "no role marker truncates whole prompt",
			prompt:    strings.Repeat("plain text body ", 100),
			maxTokens: 10,
			check: func(t *testing.T, got string) {
				if !strings.HasSuffix(got, "...") {
					t.Errorf("expected truncation suffix, got %q", got)
				}
				if len(got) > 10*charsPerToken {
					t.Errorf("truncated prompt too long: %d chars", len(got))
				}
			},
		},
		{
			name:      "budget smaller than role line keeps only role line",
			prompt:    "ROLE: Exhaustively detailed tutoring assistant\n" + strings.Repeat("more ", 50),
			maxTokens: 5,
			check: func(t *testing.T, got string) {
				if got != "ROLE: Exhaustively detailed tutoring assistant" {
					t.Errorf("expected bare role line, got %q", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Compress(tt.prompt, tt.maxTokens))
		})
	}
}
