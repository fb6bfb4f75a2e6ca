package ir

import (
	"errors"
	"fmt"
)

// Error codes for compilation failures.
const (
	// ErrCodeUnsupportedOperation means no registered builder accepts the rule.
	// The caller decides whether to skip the rule or abort.
	ErrCodeUnsupportedOperation = "UNSUPPORTED_SEARCH_OPERATION"

	// ErrCodeMalformedQuery means a query template violates a structural
	// invariant (no WHERE keyword, no closing brace). Always a programmer or
	// configuration error, never user input.
	ErrCodeMalformedQuery = "QUERY_COMPILATION"

	// ErrCodeInvalidRule means a rule could not be constructed.
	ErrCodeInvalidRule = "INVALID_RULE"

	// ErrCodeMissingUser means a permission filter refers to the current
	// user but the request names none.
	ErrCodeMissingUser = "MISSING_CURRENT_USER"
)

// CompileError is the structured error returned by the dialect builders.
type CompileError struct {
	Code     string
	Message  string
	Field    string
	Operator string
	Details  map[string]any
}

func (e *CompileError) Error() string {
	switch {
	case e.Field != "" && e.Operator != "":
		return fmt.Sprintf("%s: %s (field=%s operator=%s)", e.Code, e.Message, e.Field, e.Operator)
	case e.Operator != "":
		return fmt.Sprintf("%s: %s (operator=%s)", e.Code, e.Message, e.Operator)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// NewUnsupportedOperationError reports a rule no builder accepts.
func NewUnsupportedOperationError(dialect string, r Rule) *CompileError {
	return &CompileError{
		Code:     ErrCodeUnsupportedOperation,
		Message:  fmt.Sprintf("no %s operation for type %q with %d value(s)", dialect, r.Type(), r.Len()),
		Field:    r.Field(),
		Operator: r.Operator(),
		Details: map[string]any{
			"dialect": dialect,
			"type":    r.Type(),
			"values":  r.Len(),
		},
	}
}

// NewMalformedQueryError reports a query template that cannot be edited.
func NewMalformedQueryError(message string, query string) *CompileError {
	return &CompileError{
		Code:    ErrCodeMalformedQuery,
		Message: message,
		Details: map[string]any{"query": query},
	}
}

// NewMissingUserError reports a permission filter with no user to bind.
func NewMissingUserError(mode string) *CompileError {
	return &CompileError{
		Code:    ErrCodeMissingUser,
		Message: "permission filter needs a current user",
		Details: map[string]any{"access": mode},
	}
}

// IsMissingUser reports whether err is a missing-user error.
func IsMissingUser(err error) bool {
	return hasCode(err, ErrCodeMissingUser)
}

// IsUnsupportedOperation reports whether err is an unsupported-operation error.
func IsUnsupportedOperation(err error) bool {
	return hasCode(err, ErrCodeUnsupportedOperation)
}

// IsQueryCompilation reports whether err is a malformed-query error.
func IsQueryCompilation(err error) bool {
	return hasCode(err, ErrCodeMalformedQuery)
}

// IsInvalidRule reports whether err is a rule construction error.
func IsInvalidRule(err error) bool {
	return hasCode(err, ErrCodeInvalidRule)
}

func hasCode(err error, code string) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}
