package syllabus

import (
	"context"
	"strings"
	"testing"

	"coursegen/models"

	"github.com/tmc/langchaingo/llms"
)

var testOpts = Options{MinPerLevel: 6, MaxPerLevel: 10, MaxAddRounds: 3}

func newTestPipeline(caller *fakeCaller, emit Emitter) *LevelPipeline {
	return NewLevelPipeline(
		NewConceptGenerator(caller, testOpts),
		NewConceptAugmenter(caller),
		testOpts,
		emit,
	)
}

func TestRunLevelCommitsDirectlyWhenThresholdMet(t *testing.T) {
	caller := &fakeCaller{
		handler: func(call int, prompt string, tool llms.Tool, out any) error {
			returnConcepts(out, "a", "b", "c", "d", "e", "f", "g")
			return nil
		},
	}
	pipeline := newTestPipeline(caller, nil)

	module, state, err := pipeline.RunLevel(context.Background(),
		models.CourseDescriptor{Title: "Go Basics", Subject: "Go"},
		models.LevelBeginner, nil, nil, nil)
	if err != nil {
		t.Fatalf("RunLevel failed: %v", err)
	}

	if caller.augmentCalls() != 0 {
		t.Errorf("expected no augment calls, got %d", caller.augmentCalls())
	}
	if len(module.Objectives) != 7 {
		t.Errorf("expected 7 objectives, got %d", len(module.Objectives))
	}
	if module.Degraded {
		t.Errorf("module should not be degraded")
	}
	if state.RetryRound != 0 {
		t.Errorf("expected no retry rounds, got %d", state.RetryRound)
	}
}

func TestRunLevelStopsAtRoundCapAndCommitsAnyway(t *testing.T) {
	// Backend systematically under-delivers: 3 distinct concepts on the
	// first call, nothing new after that.
	caller := &fakeCaller{
		handler: func(call int, prompt string, tool llms.Tool, out any) error {
			returnConcepts(out, "x1", "x2", "x3")
			return nil
		},
	}
	pipeline := newTestPipeline(caller, nil)

	module, state, err := pipeline.RunLevel(context.Background(),
		models.CourseDescriptor{Title: "Go Basics", Subject: "Go"},
		models.LevelBeginner, nil, nil, nil)
	if err != nil {
		t.Fatalf("RunLevel failed: %v", err)
	}

	if got := caller.augmentCalls(); got != testOpts.MaxAddRounds {
		t.Errorf("expected exactly %d augment calls, got %d", testOpts.MaxAddRounds, got)
	}
	if state.RetryRound != testOpts.MaxAddRounds {
		t.Errorf("expected retry round %d, got %d", testOpts.MaxAddRounds, state.RetryRound)
	}
	if len(module.Objectives) >= testOpts.MinPerLevel {
		t.Fatalf("test premise broken: %d objectives meets the threshold", len(module.Objectives))
	}
	if !module.Degraded {
		t.Errorf("under-count module must be marked degraded")
	}
}

func TestRunLevelDeduplicatesCaseInsensitively(t *testing.T) {
	caller := &fakeCaller{
		handler: func(call int, prompt string, tool llms.Tool, out any) error {
			returnConcepts(out, "Loops", "loops", "Variables", "functions", "LOOPS", "maps", "slices", "structs")
			return nil
		},
	}
	pipeline := newTestPipeline(caller, nil)

	module, _, err := pipeline.RunLevel(context.Background(),
		models.CourseDescriptor{Title: "Go Basics", Subject: "Go"},
		models.LevelIntermediate,
		[]string{"variables"}, // owned by an earlier level
		nil, nil)
	if err != nil {
		t.Fatalf("RunLevel failed: %v", err)
	}

	seen := make(map[string]bool)
	for _, objective := range module.Objectives {
		key := strings.ToLower(objective)
		if seen[key] {
			t.Errorf("duplicate objective %q committed", objective)
		}
		seen[key] = true
		if key == "variables" {
			t.Errorf("objective %q already belongs to an earlier level", objective)
		}
	}
}

func TestRunLevelTruncatesToMaxPerLevel(t *testing.T) {
	many := make([]string, 0, 15)
	for _, s := range []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7", "c8", "c9", "c10", "c11", "c12", "c13", "c14", "c15"} {
		many = append(many, s)
	}
	caller := &fakeCaller{
		handler: func(call int, prompt string, tool llms.Tool, out any) error {
			returnConcepts(out, many...)
			return nil
		},
	}
	pipeline := newTestPipeline(caller, nil)

	module, _, err := pipeline.RunLevel(context.Background(),
		models.CourseDescriptor{Title: "Go Basics", Subject: "Go"},
		models.LevelAdvanced, nil, nil, nil)
	if err != nil {
		t.Fatalf("RunLevel failed: %v", err)
	}
	if len(module.Objectives) != testOpts.MaxPerLevel {
		t.Errorf("expected %d objectives after truncation, got %d", testOpts.MaxPerLevel, len(module.Objectives))
	}
}

func TestRunLevelMinutesFollowLevelSchedule(t *testing.T) {
	caller := &fakeCaller{
		handler: func(call int, prompt string, tool llms.Tool, out any) error {
			returnConcepts(out, "a", "b", "c", "d", "e", "f")
			return nil
		},
	}
	pipeline := newTestPipeline(caller, nil)

	for _, tt := range []struct {
		level   models.ConceptLevel
		minutes int
	}{
		{models.LevelBeginner, 45},
		{models.LevelIntermediate, 60},
		{models.LevelAdvanced, 90},
	} {
		module, _, err := pipeline.RunLevel(context.Background(),
			models.CourseDescriptor{Title: "Go Basics", Subject: "Go"},
			tt.level, nil, nil, nil)
		if err != nil {
			t.Fatalf("RunLevel failed for %s: %v", tt.level, err)
		}
		if module.EstimatedMinutes != tt.minutes {
			t.Errorf("level %s: expected %d minutes, got %d", tt.level, tt.minutes, module.EstimatedMinutes)
		}
		if module.EstimatedMinutes < minModuleMinutes || module.EstimatedMinutes > maxModuleMinutes {
			t.Errorf("level %s: minutes %d outside [%d,%d]", tt.level, module.EstimatedMinutes, minModuleMinutes, maxModuleMinutes)
		}
	}
}
