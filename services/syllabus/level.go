package syllabus

import (
	"context"
	"fmt"
	"log"
	"strings"

	"coursegen/models"
)

const (
	minModuleMinutes = 30
	maxModuleMinutes = 120
)

// defaultMinutes is the per-level duration schedule, clamped into
// [minModuleMinutes, maxModuleMinutes] at commit time.
var defaultMinutes = map[models.ConceptLevel]int{
	models.LevelBeginner:     45,
	models.LevelIntermediate: 60,
	models.LevelAdvanced:     90,
}

// Options bounds the per-level generate/validate/augment loop.
type Options struct {
	MinPerLevel  int
	MaxPerLevel  int
	MaxAddRounds int
}

// LevelState is the per-level working state. Transitions return a new
// value rather than mutating, so each step is independently testable and
// trivially loggable.
type LevelState struct {
	Level          models.ConceptLevel
	Concepts       []string
	MeetsThreshold bool
	Needed         int
	RetryRound     int
}

func newLevelState(level models.ConceptLevel, concepts []string) LevelState {
	return LevelState{Level: level, Concepts: concepts}
}

func (s LevelState) withValidation(meets bool, needed int) LevelState {
	s.MeetsThreshold = meets
	s.Needed = needed
	return s
}

func (s LevelState) withAugmented(newConcepts []string) LevelState {
	s.Concepts = append(append([]string{}, s.Concepts...), newConcepts...)
	s.RetryRound++
	return s
}

// LevelPipeline runs one difficulty level through
// generate -> validate -> {augment -> validate}* -> commit.
type LevelPipeline struct {
	generator *ConceptGenerator
	augmenter *ConceptAugmenter
	opts      Options
	emit      Emitter
}

func NewLevelPipeline(generator *ConceptGenerator, augmenter *ConceptAugmenter, opts Options, emit Emitter) *LevelPipeline {
	if emit == nil {
		emit = NopEmitter
	}
	return &LevelPipeline{generator: generator, augmenter: augmenter, opts: opts, emit: emit}
}

// RunLevel executes the state machine for one level and commits a
// ModuleSpec. Exhausting the augment rounds is not a failure: the level
// commits with whatever concepts it has, marked Degraded when still under
// the minimum, so one stubborn level never blocks the whole course.
func (p *LevelPipeline) RunLevel(ctx context.Context, course models.CourseDescriptor, level models.ConceptLevel, alreadyUsed []string, otherLevels map[models.ConceptLevel][]string, dependencies []string) (models.ModuleSpec, LevelState, error) {
	p.emit(StageGenerateConcepts, EventPhaseStart, map[string]any{"level": string(level)})

	concepts, err := p.generator.Generate(ctx, course, level, alreadyUsed, otherLevels)
	if err != nil {
		return models.ModuleSpec{}, LevelState{}, err
	}
	p.emit(StageGenerateConcepts, EventResult, map[string]any{"level": string(level), "count": len(concepts)})

	state := newLevelState(level, concepts)
	for {
		meets, needed := Validate(state.Concepts, p.opts.MinPerLevel)
		state = state.withValidation(meets, needed)
		p.emit(StageValidate, EventResult, map[string]any{
			"level":  string(level),
			"meets":  meets,
			"needed": needed,
			"round":  state.RetryRound,
		})

		if meets || state.RetryRound >= p.opts.MaxAddRounds {
			break
		}

		p.emit(StageAddConcepts, EventPhaseStart, map[string]any{"level": string(level), "needed": needed})
		added, err := p.augmenter.Augment(ctx, level, state.Concepts, needed, alreadyUsed, otherLevels, course.Subject)
		if err != nil {
			return models.ModuleSpec{}, state, err
		}
		p.emit(StageAddConcepts, EventResult, map[string]any{"level": string(level), "added": len(added)})
		state = state.withAugmented(added)
	}

	module := p.commitModule(course, state, alreadyUsed, dependencies)
	state.Concepts = module.Objectives
	p.emit(StageAddModule, EventResult, map[string]any{
		"level":    string(level),
		"module":   module.Title,
		"count":    len(module.Objectives),
		"degraded": module.Degraded,
	})

	if !state.MeetsThreshold {
		log.Printf("[WARN] Level %s committed with %d concepts after %d augment rounds (minimum %d)",
			level, len(module.Objectives), state.RetryRound, p.opts.MinPerLevel)
	}

	return module, state, nil
}

// commitModule deduplicates the working list case-insensitively (first
// occurrence wins), drops concepts owned by earlier levels, truncates to
// the per-level maximum, and builds the immutable ModuleSpec.
func (p *LevelPipeline) commitModule(course models.CourseDescriptor, state LevelState, alreadyUsed []string, dependencies []string) models.ModuleSpec {
	taken := make(map[string]bool)
	for _, concept := range alreadyUsed {
		taken[strings.ToLower(strings.TrimSpace(concept))] = true
	}

	var objectives []string
	for _, concept := range state.Concepts {
		name := strings.TrimSpace(concept)
		key := strings.ToLower(name)
		if name == "" || taken[key] {
			continue
		}
		taken[key] = true
		objectives = append(objectives, name)
		if len(objectives) >= p.opts.MaxPerLevel {
			break
		}
	}

	return models.ModuleSpec{
		Title:            moduleTitle(course, state.Level),
		Objectives:       objectives,
		EstimatedMinutes: clampMinutes(defaultMinutes[state.Level]),
		Dependencies:     dependencies,
		Degraded:         len(objectives) < p.opts.MinPerLevel,
	}
}

func moduleTitle(course models.CourseDescriptor, level models.ConceptLevel) string {
	return fmt.Sprintf("%s: %s", strings.Title(string(level)), course.Title)
}

func clampMinutes(minutes int) int {
	if minutes < minModuleMinutes {
		return minModuleMinutes
	}
	if minutes > maxModuleMinutes {
		return maxModuleMinutes
	}
	return minutes
}
