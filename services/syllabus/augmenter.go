package syllabus

import (
	"context"
	"fmt"
	"log"
	"strings"

	"coursegen/models"
	"coursegen/services/llmclient"
)

// ConceptAugmenter tops up a level that came back under the minimum
// concept count. It enforces its own count and dedup contract rather than
// trusting the model's adherence to instructions.
type ConceptAugmenter struct {
	client llmclient.StructuredCaller
}

func NewConceptAugmenter(client llmclient.StructuredCaller) *ConceptAugmenter {
	return &ConceptAugmenter{client: client}
}

// Augment returns up to needed new concepts absent from the forbidden set
// spanning current, already-used, and all other levels' concepts
// (case-insensitive). Safe to call unconditionally: needed <= 0 returns
// an empty list without an LLM call.
func (a *ConceptAugmenter) Augment(ctx context.Context, level models.ConceptLevel, current []string, needed int, alreadyUsed []string, otherLevels map[models.ConceptLevel][]string, subject string) ([]string, error) {
	if needed <= 0 {
		return nil, nil
	}

	log.Printf("[INFO] Augmenting level %s with %d more concepts", level, needed)

	forbidden := make(map[string]bool)
	for _, group := range [][]string{current, alreadyUsed} {
		for _, concept := range group {
			forbidden[strings.ToLower(strings.TrimSpace(concept))] = true
		}
	}
	for _, concepts := range otherLevels {
		for _, concept := range concepts {
			forbidden[strings.ToLower(strings.TrimSpace(concept))] = true
		}
	}

	shown := forbiddenList(current, alreadyUsed, otherLevels)
	prompt := fmt.Sprintf(CONCEPT_AUGMENT_PROMPT,
		level, subject,
		"- "+strings.Join(current, "\n- "),
		needed,
		strings.Join(shown, ", "))

	var params ConceptListParams
	if err := a.client.GenerateStructured(ctx, prompt, conceptTool, &params); err != nil {
		log.Printf("[ERROR] Concept augmentation failed for level %s: %v", level, err)
		return nil, fmt.Errorf("concept augmentation for level %s failed: %w", level, err)
	}

	var accepted []string
	for _, candidate := range params.Concepts {
		key := strings.ToLower(strings.TrimSpace(candidate))
		if key == "" || forbidden[key] {
			continue
		}
		forbidden[key] = true
		accepted = append(accepted, strings.TrimSpace(candidate))
		if len(accepted) >= needed {
			break
		}
	}

	log.Printf("[INFO] Accepted %d of %d proposed concepts for level %s", len(accepted), len(params.Concepts), level)
	return accepted, nil
}
