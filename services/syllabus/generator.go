package syllabus

import (
	"context"
	"fmt"
	"log"
	"strings"

	"coursegen/models"
	"coursegen/services/llmclient"
)

// maxForbiddenShown caps how many forbidden concept names the prompt
// names explicitly, so the prompt itself stays within budget.
const maxForbiddenShown = 40

// ConceptGenerator produces the initial concept list for one difficulty
// level via a single structured call.
type ConceptGenerator struct {
	client llmclient.StructuredCaller
	opts   Options
}

func NewConceptGenerator(client llmclient.StructuredCaller, opts Options) *ConceptGenerator {
	return &ConceptGenerator{client: client, opts: opts}
}

// Generate asks the model for the level's concepts, naming concepts
// already consumed by earlier levels as forbidden. The forbidden list is
// advisory to the model, not authoritative: downstream deduplication is
// still required.
func (g *ConceptGenerator) Generate(ctx context.Context, course models.CourseDescriptor, level models.ConceptLevel, alreadyUsed []string, otherLevels map[models.ConceptLevel][]string) ([]string, error) {
	log.Printf("[INFO] Generating concepts for level %s of course %q", level, course.Title)

	goalsLine := ""
	if course.Goals != "" {
		goalsLine = fmt.Sprintf("Goals: %s\n", course.Goals)
	}

	forbidden := forbiddenList(nil, alreadyUsed, otherLevels)
	forbiddenLine := ""
	if len(forbidden) > 0 {
		forbiddenLine = fmt.Sprintf("Do NOT include any of these concepts, they are covered by other levels: %s.\n\n", strings.Join(forbidden, ", "))
	}

	prompt := fmt.Sprintf(CONCEPT_GENERATION_PROMPT,
		level, course.Title, course.Subject, goalsLine, level,
		g.opts.MinPerLevel, g.opts.MaxPerLevel, forbiddenLine)

	var params ConceptListParams
	if err := g.client.GenerateStructured(ctx, prompt, conceptTool, &params); err != nil {
		log.Printf("[ERROR] Concept generation failed for level %s: %v", level, err)
		return nil, fmt.Errorf("concept generation for level %s failed: %w", level, err)
	}

	log.Printf("[INFO] Generated %d concepts for level %s", len(params.Concepts), level)
	return params.Concepts, nil
}

// forbiddenList flattens current + already-used + other-levels' concepts
// into a bounded display list.
func forbiddenList(current, alreadyUsed []string, otherLevels map[models.ConceptLevel][]string) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(concepts []string) {
		for _, concept := range concepts {
			key := strings.ToLower(strings.TrimSpace(concept))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			if len(out) < maxForbiddenShown {
				out = append(out, concept)
			}
		}
	}

	add(current)
	add(alreadyUsed)
	for _, level := range models.OrderedLevels {
		add(otherLevels[level])
	}
	return out
}
