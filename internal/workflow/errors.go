package workflow

import "fmt"

// ValidationError marks malformed intake data (unparseable due date,
// bad line item). Collected per line; fatal only when a stage ends with
// zero valid outputs.
type ValidationError struct {
	Line   int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: invalid %s: %s", e.Line, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError marks an unknown SKU, material or commodity reference.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// NoCandidateError marks a line for which retrieval returned nothing.
// Non-fatal; the line is excluded from the attempt's selection set.
type NoCandidateError struct {
	Line    int
	Attempt int
}

func (e *NoCandidateError) Error() string {
	return fmt.Sprintf("line %d: no candidates retrieved (attempt %d)", e.Line, e.Attempt)
}

// PricingError marks an invalid rate or a non-positive computed price.
// Any single PricingError fails the pricing stage as a whole.
type PricingError struct {
	Line   int
	SKU    string
	Reason string
}

func (e *PricingError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d (%s): %s", e.Line, e.SKU, e.Reason)
	}
	return fmt.Sprintf("pricing %s: %s", e.SKU, e.Reason)
}

// WorkflowFailure is a terminal stage-level failure.
type WorkflowFailure struct {
	Stage  string
	Reason string
}

func (e *WorkflowFailure) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Stage, e.Reason)
}
