package syllabus

import (
	"context"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// fakeCaller scripts structured-call behavior per tool name and records
// every call it receives.
type fakeCaller struct {
	mu      sync.Mutex
	handler func(call int, prompt string, tool llms.Tool, out any) error
	calls   []fakeCall
}

type fakeCall struct {
	Tool   string
	Prompt string
}

func (f *fakeCaller) GenerateStructured(ctx context.Context, prompt string, tool llms.Tool, out any) error {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{Tool: tool.Function.Name, Prompt: prompt})
	call := len(f.calls)
	f.mu.Unlock()
	return f.handler(call, prompt, tool, out)
}

func (f *fakeCaller) IsAlive(ctx context.Context) bool {
	return true
}

func (f *fakeCaller) callsFor(toolName string) []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeCall
	for _, c := range f.calls {
		if c.Tool == toolName {
			out = append(out, c)
		}
	}
	return out
}

// augmentCalls counts augmentation prompts, which are the concept-tool
// calls that are not the level's initial generation.
func (f *fakeCaller) augmentCalls() int {
	count := 0
	for _, c := range f.callsFor("submit_concepts") {
		if strings.Contains(c.Prompt, "Propose at least") {
			count++
		}
	}
	return count
}

func returnConcepts(out any, concepts ...string) {
	params := out.(*ConceptListParams)
	params.Concepts = concepts
}
