package llm

import "fmt"

// ProviderError wraps a failed or malformed embedding-provider call. The
// whole batch fails; no partial results are returned.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider: %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// GenerationError wraps a failed answer-generation call. It is surfaced to
// the caller as-is, never retried.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("answer generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
