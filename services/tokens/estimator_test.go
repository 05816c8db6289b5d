package tokens

import (
	"strings"
	"testing"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{
			name:     "empty text",
			text:     "",
			expected: 0,
		},
		{
			name:     "whitespace only",
			text:     "   \n\t  ",
			expected: 0,
		},
		{
			name:     "single word",
			text:     "hello",
			expected: 2,
		},
		{
			name:     "three words",
			text:     "one two three",
			expected: 4,
		},
		{
			name:     "hundred words",
			text:     strings.Repeat("word ", 100),
			expected: 134,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Estimate(tt.text); got != tt.expected {
				t.Errorf("Estimate(%q) = %d, expected %d", tt.text, got, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		maxTokens int
		suffix    string
		check     func(t *testing.T, got string)
	}{
		{
			name:      "empty text returns empty",
			text:      "",
			maxTokens: 10,
			suffix:    "...",
			check: func(t *testing.T, got string) {
				if got != "" {
					t.Errorf("expected empty string, got %q", got)
				}
			},
		},
		{
			name:      "zero budget returns suffix",
			text:      "some text here",
			maxTokens: 0,
			suffix:    "...",
			check: func(t *testing.T, got string) {
				if got != "..." {
					t.Errorf("expected suffix only, got %q", got)
				}
			},
		},
		{
			name:      "fitting text unchanged",
			text:      "short",
			maxTokens: 10,
			suffix:    "...",
			check: func(t *testing.T, got string) {
				if got != "short" {
					t.Errorf("expected unchanged text, got %q", got)
				}
			},
		},
		{
			name:      "long text is cut with suffix",
			text:      strings.Repeat("alpha beta ", 50),
			maxTokens: 10,
			suffix:    "...",
			check: func(t *testing.T, got string) {
				if !strings.HasSuffix(got, "...") {
					t.Errorf("expected suffix on truncated text, got %q", got)
				}
				if len(got) > 10*3 {
					t.Errorf("truncated text longer than char budget: %d chars", len(got))
				}
			},
		},
		{
			name:      "cuts at word boundary",
			text:      strings.Repeat("abc def ", 40),
			maxTokens: 8,
			suffix:    "",
			check: func(t *testing.T, got string) {
				if strings.HasSuffix(got, " ") {
					t.Errorf("trailing whitespace left on %q", got)
				}
				trimmed := strings.TrimSuffix(got, "")
				words := strings.Fields(trimmed)
				for _, w := range words {
					if w != "abc" && w != "def" {
						t.Errorf("word split mid-boundary: %q in %q", w, got)
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Truncate(tt.text, tt.maxTokens, tt.suffix))
		})
	}
}

func TestTruncateIsIdempotent(t *testing.T) {
	texts := []string{
		strings.Repeat("lorem ipsum dolor ", 30),
		"one two three four five six seven eight nine ten",
		strings.Repeat("x", 500),
	}

	for _, text := range texts {
		for _, budget := range []int{5, 10, 25, 100} {
			once := Truncate(text, budget, "...")
			twice := Truncate(once, budget, "...")
			if once != twice {
				t.Errorf("Truncate not idempotent at budget %d: %q != %q", budget, once, twice)
			}
		}
	}
}
