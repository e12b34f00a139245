package analyze

import (
	"errors"
	"fmt"
)

// GenerationError indicates the LLM call failed or returned output that
// could not be parsed into the expected shape.
type GenerationError struct {
	Stage string // "analysis" or "chat"
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NewGenerationError wraps an error with the pipeline stage it occurred in.
func NewGenerationError(stage string, err error) error {
	return &GenerationError{Stage: stage, Err: err}
}

// IsGenerationError reports whether err is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}
