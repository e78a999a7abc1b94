package agentconfig

import (
	"fmt"
	"strings"
)

// Rule names reported in validation issues.
const (
	RuleRequired  = "required"
	RuleType      = "type"
	RuleEnum      = "enum"
	RuleReference = "reference"
	RuleRange     = "range"
	RuleSchema    = "schema"
)

// Issue describes a single field-level validation failure.
type Issue struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError is returned when input fails validation. Issues are
// ordered by canonical field order and never empty.
type ValidationError struct {
	Issues []Issue `json:"issues"`
}

// NewValidationError builds a ValidationError with a single issue.
func NewValidationError(field, rule, message string) *ValidationError {
	return &ValidationError{Issues: []Issue{{Field: field, Rule: rule, Message: message}}}
}

func (e *ValidationError) Error() string {
	switch len(e.Issues) {
	case 0:
		return "validation failed"
	case 1:
		return e.Issues[0].Message
	}
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.Message
	}
	return fmt.Sprintf("%d validation issues: %s", len(e.Issues), strings.Join(msgs, "; "))
}

// Field returns the field of the first issue.
func (e *ValidationError) Field() string {
	if len(e.Issues) == 0 {
		return ""
	}
	return e.Issues[0].Field
}

// Rule returns the rule of the first issue.
func (e *ValidationError) Rule() string {
	if len(e.Issues) == 0 {
		return ""
	}
	return e.Issues[0].Rule
}
