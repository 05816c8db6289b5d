package tokens

import (
	"fmt"
	"log"
	"strings"
)

// formattingOverhead reserves tokens for the labels and separators the
// builder adds around the system prompt, history, and query.
const formattingOverhead = 15

// slackRatio is the documented tolerance past the ceiling before the final
// blunt clamp kicks in.
const slackRatio = 1.1

// HistoryPair is one prior user/assistant exchange, oldest first.
type HistoryPair struct {
	User      string
	Assistant string
}

// Builder assembles bounded prompts for fast inference. The ratios are
// configuration, not business logic: callers tune them per deployment.
type Builder struct {
	systemRatio  float64
	historyRatio float64
}

func NewBuilder(systemRatio, historyRatio float64) *Builder {
	if systemRatio <= 0 || historyRatio <= 0 {
		systemRatio = 0.4
		historyRatio = 0.6
	}
	return &Builder{systemRatio: systemRatio, historyRatio: historyRatio}
}

// Build assembles system prompt + history + query under maxTotalTokens.
// It always returns a non-empty prompt containing the query and degrades
// by compression and truncation rather than failing.
func (b *Builder) Build(systemPrompt string, history []HistoryPair, query string, maxTotalTokens int) string {
	available := maxTotalTokens - Estimate(query) - formattingOverhead
	if available < 0 {
		available = 0
	}

	systemBudget := int(float64(available) * b.systemRatio)
	historyBudget := int(float64(available) * b.historyRatio)

	compressedSystem := Compress(systemPrompt, systemBudget)

	var conversation []string
	used := 0
	for i := len(history) - 1; i >= 0; i-- {
		pair := history[i]
		entry := fmt.Sprintf("User: %s\nAssistant: %s", pair.User, pair.Assistant)
		cost := Estimate(entry)
		if used+cost <= historyBudget {
			conversation = append([]string{entry}, conversation...)
			used += cost
			continue
		}

		// The pair doesn't fit whole: truncate both halves to an even
		// split of what's left, then stop. Older pairs are not
		// considered after a truncated inclusion.
		remaining := historyBudget - used
		if remaining > 0 {
			half := remaining / 2
			entry = fmt.Sprintf("User: %s\nAssistant: %s",
				Truncate(pair.User, half, "..."),
				Truncate(pair.Assistant, half, "..."))
			conversation = append([]string{entry}, conversation...)
		}
		break
	}

	var prompt strings.Builder
	if compressedSystem != "" {
		prompt.WriteString(compressedSystem)
		prompt.WriteString("\n\n")
	}
	if len(conversation) > 0 {
		prompt.WriteString("Conversation:\n")
		prompt.WriteString(strings.Join(conversation, "\n"))
		prompt.WriteString("\n\n")
	}
	prompt.WriteString(fmt.Sprintf("User: %s\nAssistant:", query))

	assembled := prompt.String()

	// Last-resort clamp. Budgets above should keep us inside the ceiling;
	// this only fires when the query itself dwarfs the budget.
	if Estimate(assembled) > int(float64(maxTotalTokens)*slackRatio) {
		log.Printf("[WARN] Assembled prompt exceeds %d tokens by more than 10%%, applying final truncation", maxTotalTokens)
		sentinel := fmt.Sprintf("User: %s\nAssistant:", query)
		keep := maxTotalTokens - Estimate(sentinel)
		if keep < 0 {
			keep = 0
		}
		head := Truncate(assembled[:len(assembled)-len(sentinel)], keep, "...")
		assembled = head + "\n" + sentinel
	}

	return assembled
}
