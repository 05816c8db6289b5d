package syllabus

import (
	"context"
	"fmt"
	"log"

	"coursegen/models"
)

// PersistFunc is the injected persistence sink, called exactly once at
// successful completion. The orchestrator owns no storage of its own.
type PersistFunc func(ctx context.Context, courseID int, result *models.SyllabusRunResult) error

// ModuleStrategy is the shared contract of the two generation strategies:
// the per-level concept pipeline and the title-first sequential planner.
// Callers pick one without caring which.
type ModuleStrategy interface {
	GenerateModules(ctx context.Context, courseID int, course models.CourseDescriptor) (*models.SyllabusRunResult, error)
}

// Orchestrator drives the level pipeline across the ordered difficulty
// levels, accumulating modules and the concepts-by-level map.
type Orchestrator struct {
	pipeline *LevelPipeline
	persist  PersistFunc
	emit     Emitter
}

func NewOrchestrator(pipeline *LevelPipeline, persist PersistFunc, emit Emitter) *Orchestrator {
	if emit == nil {
		emit = NopEmitter
	}
	return &Orchestrator{pipeline: pipeline, persist: persist, emit: emit}
}

// GenerateModules runs every level in fixed order. On an unrecoverable
// error from any level it emits an error event carrying the message and
// the last known stage, then stops without persisting: the caller decides
// whether the completed levels are salvageable. Cancellation is observed
// after each level's commit, never mid-commit.
func (o *Orchestrator) GenerateModules(ctx context.Context, courseID int, course models.CourseDescriptor) (*models.SyllabusRunResult, error) {
	log.Printf("[INFO] Starting syllabus run for course %d (%q)", courseID, course.Title)

	result := &models.SyllabusRunResult{
		ConceptsByLevel: make(map[models.ConceptLevel][]string),
	}
	var alreadyUsed []string
	var previousTitles []string

	for _, level := range models.OrderedLevels {
		o.emit(string(level), EventPhaseStart, map[string]any{"level": string(level)})

		module, _, err := o.pipeline.RunLevel(ctx, course, level, alreadyUsed, result.ConceptsByLevel, previousTitles)
		if err != nil {
			log.Printf("[ERROR] Syllabus run for course %d failed at level %s: %v", courseID, level, err)
			o.emit(string(level), EventError, map[string]any{
				"level": string(level),
				"error": err.Error(),
			})
			return nil, fmt.Errorf("syllabus run failed at level %s: %w", level, err)
		}

		result.Modules = append(result.Modules, module)
		result.ConceptsByLevel[level] = module.Objectives
		alreadyUsed = append(alreadyUsed, module.Objectives...)
		previousTitles = []string{module.Title}

		o.emit(string(level), EventResult, map[string]any{
			"level":    string(level),
			"module":   module.Title,
			"count":    len(module.Objectives),
			"degraded": module.Degraded,
		})

		if err := ctx.Err(); err != nil {
			log.Printf("[WARN] Syllabus run for course %d cancelled after level %s", courseID, level)
			o.emit(string(level), EventError, map[string]any{
				"level": string(level),
				"error": "run cancelled",
			})
			return nil, err
		}
	}

	if o.persist != nil {
		if err := o.persist(ctx, courseID, result); err != nil {
			log.Printf("[ERROR] Failed to persist syllabus for course %d: %v", courseID, err)
			o.emit(StagePersist, EventError, map[string]any{"error": err.Error()})
			return nil, fmt.Errorf("failed to persist syllabus: %w", err)
		}
	}

	o.emit("", EventDone, map[string]any{"modules": len(result.Modules)})
	log.Printf("[INFO] Syllabus run for course %d completed with %d modules", courseID, len(result.Modules))
	return result, nil
}
