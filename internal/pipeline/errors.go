package pipeline

import (
	"fmt"
	"strings"
)

// ErrKind classifies extraction failures. Kinds up to grounding are
// model-fixable and retried with corrective feedback; catalog errors are
// upstream-data defects and propagate immediately.
type ErrKind string

const (
	KindMalformedOutput ErrKind = "malformed_output" // No JSON found, or JSON syntax error
	KindSchema          ErrKind = "schema_violation" // Required field missing or wrong type
	KindBusinessRule    ErrKind = "business_rule"    // Domain rules beyond schema shape
	KindGrounding       ErrKind = "grounding"        // Extraction not found in source
	KindCatalog         ErrKind = "catalog"          // Unknown metric_ref etc.; never retried
)

// FieldViolation is one schema failure at a JSON path
type FieldViolation struct {
	Path    string
	Message string
}

func (v FieldViolation) String() string {
	return v.Path + ": " + v.Message
}

// ExtractionError is a typed failure from one pipeline stage
type ExtractionError struct {
	Kind       ErrKind
	Message    string
	Violations []FieldViolation // Populated for schema failures
}

func (e *ExtractionError) Error() string {
	if len(e.Violations) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, strings.Join(parts, "; "))
}

// Retryable reports whether reprompting the model can fix this failure
func (e *ExtractionError) Retryable() bool {
	return e.Kind != KindCatalog
}

// ExhaustedError is the aggregate failure surfaced after the retry budget is
// spent. Callers surface it as a job failure, not a partial result.
type ExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("extraction failed after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}
