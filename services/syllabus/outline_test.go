package syllabus

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"coursegen/models"

	"github.com/tmc/langchaingo/llms"
)

func outlineTitles(n int) []string {
	titles := make([]string, n)
	for i := range titles {
		titles[i] = fmt.Sprintf("Module %d", i+1)
	}
	return titles
}

func returnOutline(out any, titles []string) {
	params := out.(*OutlineParams)
	params.Titles = titles
}

func returnModule(out any, title string, objectiveCount, minutes int) {
	params := out.(*ModuleParams)
	params.Title = title
	params.Objectives = make([]string, objectiveCount)
	for i := range params.Objectives {
		params.Objectives[i] = fmt.Sprintf("%s objective %d", title, i+1)
	}
	params.EstimatedMinutes = minutes
}

func TestSequentialGeneratorHappyPath(t *testing.T) {
	caller := &fakeCaller{
		handler: func(call int, prompt string, tool llms.Tool, out any) error {
			switch tool.Function.Name {
			case "submit_outline":
				returnOutline(out, outlineTitles(7))
			case "submit_module":
				returnModule(out, "any", 6, 60)
			}
			return nil
		},
	}

	persisted := 0
	generator := NewSequentialModuleGenerator(caller, testOpts, DefaultModuleRetryPolicy(),
		func(ctx context.Context, courseID int, result *models.SyllabusRunResult) error {
			persisted++
			return nil
		}, nil)

	result, err := generator.GenerateModules(context.Background(), 1,
		models.CourseDescriptor{Title: "Rust Deep Dive", Subject: "Rust"})
	if err != nil {
		t.Fatalf("GenerateModules failed: %v", err)
	}
	if len(result.Modules) != 7 {
		t.Errorf("expected 7 modules, got %d", len(result.Modules))
	}
	if persisted != 1 {
		t.Errorf("persist sink called %d times, expected exactly once", persisted)
	}
	for _, module := range result.Modules {
		if module.EstimatedMinutes < minModuleMinutes || module.EstimatedMinutes > maxModuleMinutes {
			t.Errorf("module %q minutes %d outside bounds", module.Title, module.EstimatedMinutes)
		}
	}
}

func TestSequentialGeneratorRetriesWithCorrectiveInstruction(t *testing.T) {
	moduleAttempts := 0
	caller := &fakeCaller{
		handler: func(call int, prompt string, tool llms.Tool, out any) error {
			switch tool.Function.Name {
			case "submit_outline":
				returnOutline(out, outlineTitles(6))
			case "submit_module":
				moduleAttempts++
				if moduleAttempts == 1 {
					// First attempt under-delivers on the count.
					returnModule(out, "any", 2, 60)
					return nil
				}
				if moduleAttempts == 2 && !strings.Contains(prompt, "previous answer was rejected") {
					t.Errorf("retry prompt missing corrective instruction: %q", prompt)
				}
				returnModule(out, "any", 6, 60)
			}
			return nil
		},
	}

	generator := NewSequentialModuleGenerator(caller, testOpts, DefaultModuleRetryPolicy(), nil, nil)

	result, err := generator.GenerateModules(context.Background(), 1,
		models.CourseDescriptor{Title: "Kubernetes", Subject: "infrastructure"})
	if err != nil {
		t.Fatalf("GenerateModules failed: %v", err)
	}
	if len(result.Modules) != 6 {
		t.Errorf("expected 6 modules, got %d", len(result.Modules))
	}
}

func TestSequentialGeneratorIsolatesModuleFailures(t *testing.T) {
	// The third title always fails; its siblings must be unaffected.
	caller := &fakeCaller{
		handler: func(call int, prompt string, tool llms.Tool, out any) error {
			switch tool.Function.Name {
			case "submit_outline":
				returnOutline(out, outlineTitles(8))
			case "submit_module":
				if strings.Contains(prompt, "Module 3") {
					returnModule(out, "any", 1, 60) // always under count
					return nil
				}
				returnModule(out, "any", 6, 60)
			}
			return nil
		},
	}

	collector := &eventCollector{}
	generator := NewSequentialModuleGenerator(caller, testOpts, DefaultModuleRetryPolicy(), nil, collector.emit)

	result, err := generator.GenerateModules(context.Background(), 1,
		models.CourseDescriptor{Title: "Networking", Subject: "networks"})
	if err != nil {
		t.Fatalf("GenerateModules failed: %v", err)
	}
	if len(result.Modules) != 7 {
		t.Errorf("expected 7 surviving modules, got %d", len(result.Modules))
	}
	if got := collector.countType(EventError); got != 1 {
		t.Errorf("expected one module error event, got %d", got)
	}
}

func TestSequentialGeneratorFailsBelowFloor(t *testing.T) {
	// Every module under-delivers, so no module survives its retries.
	caller := &fakeCaller{
		handler: func(call int, prompt string, tool llms.Tool, out any) error {
			switch tool.Function.Name {
			case "submit_outline":
				returnOutline(out, outlineTitles(6))
			case "submit_module":
				returnModule(out, "any", 1, 60)
			}
			return nil
		},
	}

	persisted := 0
	generator := NewSequentialModuleGenerator(caller, testOpts, DefaultModuleRetryPolicy(),
		func(ctx context.Context, courseID int, result *models.SyllabusRunResult) error {
			persisted++
			return nil
		}, nil)

	result, err := generator.GenerateModules(context.Background(), 1,
		models.CourseDescriptor{Title: "Compilers", Subject: "compilers"})

	if err == nil {
		t.Fatal("expected the run to fail below the module floor")
	}
	if result != nil {
		t.Errorf("expected nil result on failed run")
	}
	if persisted != 0 {
		t.Errorf("persist sink must not run on a failed run")
	}
}

func TestSequentialGeneratorTruncatesOversizedOutline(t *testing.T) {
	caller := &fakeCaller{
		handler: func(call int, prompt string, tool llms.Tool, out any) error {
			switch tool.Function.Name {
			case "submit_outline":
				returnOutline(out, outlineTitles(14))
			case "submit_module":
				returnModule(out, "any", 6, 60)
			}
			return nil
		},
	}

	generator := NewSequentialModuleGenerator(caller, testOpts, DefaultModuleRetryPolicy(), nil, nil)

	result, err := generator.GenerateModules(context.Background(), 1,
		models.CourseDescriptor{Title: "Databases", Subject: "databases"})
	if err != nil {
		t.Fatalf("GenerateModules failed: %v", err)
	}
	if len(result.Modules) != maxOutlineTitles {
		t.Errorf("expected outline capped at %d modules, got %d", maxOutlineTitles, len(result.Modules))
	}
}

func TestRetryPolicyStopsAtMaxAttempts(t *testing.T) {
	policy := DefaultModuleRetryPolicy()

	attempts := 0
	err := policy.Run(context.Background(), func(ctx context.Context, corrective string) error {
		attempts++
		return fmt.Errorf("attempt %d failed", attempts)
	})

	if err == nil {
		t.Fatal("expected the final failure to surface")
	}
	if attempts != policy.MaxAttempts {
		t.Errorf("expected %d attempts, got %d", policy.MaxAttempts, attempts)
	}
}
