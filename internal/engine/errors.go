package engine

import "fmt"

// InputValidationError reports structurally invalid input, rejected before
// any computation begins. Business-logic edge cases (empty lists, unknown
// statuses, uninterpretable rules) are never validation errors; they
// degrade to "no signal" instead.
type InputValidationError struct {
	Field   string
	Message string
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("invalid evaluation input: %s: %s", e.Field, e.Message)
}
