package syllabus

import (
	"context"
	"fmt"
	"log"
)

// RetryPolicy names the bounded-retry strategy for structured calls whose
// callers know a repair: re-prompting with a corrective instruction built
// from the previous failure.
type RetryPolicy struct {
	// MaxAttempts counts the first attempt plus retries.
	MaxAttempts int

	// Corrective builds the instruction appended to the prompt on each
	// retry. attempt is 1-based and names the attempt about to run.
	Corrective func(attempt int, previousFailure string) string
}

// DefaultModuleRetryPolicy allows two extra attempts with an explicit
// corrective instruction, matching the tolerance of the title-first
// module generator.
func DefaultModuleRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Corrective: func(attempt int, previousFailure string) string {
			return fmt.Sprintf("\n\nIMPORTANT (attempt %d): your previous answer was rejected: %s. Follow the count and format constraints exactly.", attempt, previousFailure)
		},
	}
}

// Run invokes attempt until it succeeds or attempts are exhausted,
// passing the corrective instruction (empty on the first try). Returns
// the last failure when all attempts are spent.
func (p RetryPolicy) Run(ctx context.Context, attempt func(ctx context.Context, corrective string) error) error {
	var lastErr error
	for i := 1; i <= p.MaxAttempts; i++ {
		corrective := ""
		if i > 1 && p.Corrective != nil {
			corrective = p.Corrective(i, lastErr.Error())
		}

		lastErr = attempt(ctx, corrective)
		if lastErr == nil {
			return nil
		}
		log.Printf("[WARN] Attempt %d/%d failed: %v", i, p.MaxAttempts, lastErr)

		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}
