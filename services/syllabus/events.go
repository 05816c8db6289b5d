package syllabus

// Event types pushed through the Emitter. The pipeline makes no
// assumption about delivery: the sink may be an SSE stream, a log, or a
// test collector.
const (
	EventPhaseStart = "phase_start"
	EventToken      = "token"
	EventResult     = "result"
	EventDone       = "done"
	EventError      = "error"
)

// Pipeline stage names used as the stage field of emitted events.
const (
	StageGenerateConcepts = "generate_concepts"
	StageValidate         = "validate"
	StageAddConcepts      = "add_concepts"
	StageAddModule        = "add_module"
	StageOutline          = "outline"
	StageModule           = "module"
	StagePersist          = "persist"
)

// Emitter receives lifecycle events at each stage transition.
type Emitter func(stage, eventType string, data map[string]any)

// NopEmitter discards events. Used where the caller supplies no sink.
func NopEmitter(stage, eventType string, data map[string]any) {}
