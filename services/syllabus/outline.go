package syllabus

import (
	"context"
	"fmt"
	"log"

	"coursegen/models"
	"coursegen/services/llmclient"
)

// minOutlineTitles is both the smallest acceptable outline and the floor
// of successfully generated modules below which the whole run fails.
const minOutlineTitles = 6

// maxOutlineTitles caps the outline length.
const maxOutlineTitles = 10

// SequentialModuleGenerator is the title-first strategy: one cheap call
// plans module titles, then each title is expanded into a full ModuleSpec
// by its own independent bounded-retry call. Failures are isolated: one
// module exhausting its retries does not affect its siblings.
type SequentialModuleGenerator struct {
	client  llmclient.StructuredCaller
	opts    Options
	retry   RetryPolicy
	persist PersistFunc
	emit    Emitter
}

func NewSequentialModuleGenerator(client llmclient.StructuredCaller, opts Options, retry RetryPolicy, persist PersistFunc, emit Emitter) *SequentialModuleGenerator {
	if emit == nil {
		emit = NopEmitter
	}
	return &SequentialModuleGenerator{client: client, opts: opts, retry: retry, persist: persist, emit: emit}
}

// GenerateModules plans the outline, expands each title, and reports
// however many modules succeeded. Fewer than minOutlineTitles successes
// fails the run.
func (g *SequentialModuleGenerator) GenerateModules(ctx context.Context, courseID int, course models.CourseDescriptor) (*models.SyllabusRunResult, error) {
	log.Printf("[INFO] Starting title-first syllabus run for course %d (%q)", courseID, course.Title)

	titles, err := g.planTitles(ctx, course)
	if err != nil {
		g.emit(StageOutline, EventError, map[string]any{"error": err.Error()})
		return nil, err
	}
	g.emit(StageOutline, EventResult, map[string]any{"titles": len(titles)})

	result := &models.SyllabusRunResult{
		ConceptsByLevel: make(map[models.ConceptLevel][]string),
	}

	for i, title := range titles {
		g.emit(StageModule, EventPhaseStart, map[string]any{"title": title, "index": i})

		module, err := g.generateModule(ctx, course, title)
		if err != nil {
			// Isolated failure: report it and keep generating the
			// remaining titles.
			log.Printf("[WARN] Module %q failed after retries: %v", title, err)
			g.emit(StageModule, EventError, map[string]any{"title": title, "error": err.Error()})
			continue
		}

		result.Modules = append(result.Modules, module)
		g.emit(StageModule, EventResult, map[string]any{
			"title": module.Title,
			"count": len(module.Objectives),
		})
	}

	if len(result.Modules) < minOutlineTitles {
		err := fmt.Errorf("only %d of %d modules generated (minimum %d)", len(result.Modules), len(titles), minOutlineTitles)
		log.Printf("[ERROR] Title-first syllabus run for course %d failed: %v", courseID, err)
		g.emit("", EventError, map[string]any{"error": err.Error()})
		return nil, err
	}

	if g.persist != nil {
		if err := g.persist(ctx, courseID, result); err != nil {
			log.Printf("[ERROR] Failed to persist syllabus for course %d: %v", courseID, err)
			g.emit(StagePersist, EventError, map[string]any{"error": err.Error()})
			return nil, fmt.Errorf("failed to persist syllabus: %w", err)
		}
	}

	g.emit("", EventDone, map[string]any{"modules": len(result.Modules)})
	log.Printf("[INFO] Title-first syllabus run for course %d completed with %d of %d modules", courseID, len(result.Modules), len(titles))
	return result, nil
}

func (g *SequentialModuleGenerator) planTitles(ctx context.Context, course models.CourseDescriptor) ([]string, error) {
	goalsLine := ""
	if course.Goals != "" {
		goalsLine = fmt.Sprintf("Goals: %s\n", course.Goals)
	}

	prompt := fmt.Sprintf(OUTLINE_PROMPT, course.Title, course.Subject, goalsLine, minOutlineTitles, maxOutlineTitles)

	var params OutlineParams
	if err := g.client.GenerateStructured(ctx, prompt, outlineTool, &params); err != nil {
		return nil, fmt.Errorf("outline planning failed: %w", err)
	}

	titles := params.Titles
	if len(titles) > maxOutlineTitles {
		titles = titles[:maxOutlineTitles]
	}

	log.Printf("[INFO] Planned outline with %d module titles", len(titles))
	return titles, nil
}

// generateModule expands one title into a ModuleSpec, retrying on parse
// failure or an objectives count outside the configured band. No state is
// carried between titles.
func (g *SequentialModuleGenerator) generateModule(ctx context.Context, course models.CourseDescriptor, title string) (models.ModuleSpec, error) {
	var module models.ModuleSpec

	err := g.retry.Run(ctx, func(ctx context.Context, corrective string) error {
		prompt := fmt.Sprintf(MODULE_GENERATION_PROMPT,
			course.Subject, title,
			g.opts.MinPerLevel, g.opts.MaxPerLevel,
			minModuleMinutes, maxModuleMinutes,
			corrective)

		var params ModuleParams
		if err := g.client.GenerateStructured(ctx, prompt, moduleTool, &params); err != nil {
			return err
		}

		if len(params.Objectives) < g.opts.MinPerLevel || len(params.Objectives) > g.opts.MaxPerLevel {
			return fmt.Errorf("objectives count %d outside [%d,%d]", len(params.Objectives), g.opts.MinPerLevel, g.opts.MaxPerLevel)
		}

		module = models.ModuleSpec{
			Title:            title,
			Objectives:       params.Objectives,
			EstimatedMinutes: clampMinutes(params.EstimatedMinutes),
		}
		return nil
	})
	if err != nil {
		return models.ModuleSpec{}, err
	}

	return module, nil
}
