package llmclient

import (
	"errors"
	"fmt"
	"time"
)

// ErrBackendUnavailable means the model backend failed its liveness probe
// or connection attempt. Fatal to the current run; callers may retry the
// whole run later but not the individual call.
var ErrBackendUnavailable = errors.New("llm backend unavailable")

// TimeoutError means a structured call exceeded its configured timeout.
// Kept distinct from ErrBackendUnavailable so callers can tell "the model
// is down" from "the model is too slow for this request".
type TimeoutError struct {
	Elapsed time.Duration
	Limit   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("generation timed out after %s (limit %s); consider a smaller or faster model", e.Elapsed.Round(time.Millisecond), e.Limit)
}

// SchemaError means the backend produced output that could not be coerced
// into the requested schema. For retry purposes callers treat it like a
// timeout: the call produced no usable result.
type SchemaError struct {
	Tool   string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("backend output failed schema validation for tool %s: %s", e.Tool, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
