// Package errors defines the application error taxonomy for the
// reconciliation session core.
//
// Every error surfaced across a package boundary is a ReconcilerError
// carrying a category, a specific code, an optional suggestion for the
// operator, and arbitrary context values. Categories map to CLI exit codes
// so scripted callers can distinguish failure classes.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryEntity        ErrorCategory = "entity"
	CategorySession       ErrorCategory = "session"
	CategoryFetch         ErrorCategory = "fetch"
	CategoryCommit        ErrorCategory = "commit"
	CategoryParse         ErrorCategory = "parse"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Entity errors
	CodeUnknownEntity ErrorCode = "unknown_entity"
	CodeMatchConflict ErrorCode = "match_conflict"

	// Session errors
	CodeInvalidTransition ErrorCode = "invalid_transition"
	CodeGuardUnmet        ErrorCode = "guard_unmet"
	CodeSessionClosed     ErrorCode = "session_closed"

	// Fetch errors
	CodeFetchFailed  ErrorCode = "fetch_failed"
	CodeFetchTimeout ErrorCode = "fetch_timeout"

	// Commit errors
	CodeCommitFailed ErrorCode = "commit_failed"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeMissingColumn ErrorCode = "missing_column"
	CodeInvalidData   ErrorCode = "invalid_data"

	// Validation errors
	CodeInvalidAmount ErrorCode = "invalid_amount"
	CodeInvalidDate   ErrorCode = "invalid_date"
	CodeMissingField  ErrorCode = "missing_field"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// ReconcilerError is the base error type for all application errors
type ReconcilerError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *ReconcilerError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ReconcilerError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *ReconcilerError) GetExitCode() int {
	switch e.Category {
	case CategoryEntity, CategoryValidation, CategoryParse:
		return 2
	case CategorySession:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryFetch:
		return 5
	case CategoryCommit:
		return 6
	case CategoryInternal:
		return 7
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *ReconcilerError) WithContext(key string, value interface{}) *ReconcilerError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ReconcilerError) WithSuggestion(suggestion string) *ReconcilerError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ReconcilerError
func New(category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	return &ReconcilerError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ReconcilerError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	if err == nil {
		return nil
	}

	return &ReconcilerError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// UnknownEntityError reports an operation that referenced an id outside the
// current session scope.
func UnknownEntityError(kind, id string) *ReconcilerError {
	return New(CategoryEntity, CodeUnknownEntity,
		fmt.Sprintf("unknown %s: %s", kind, id)).
		WithSuggestion("check the id against the loaded session scope").
		WithContext("kind", kind).
		WithContext("id", id)
}

// MatchConflictError reports a proposed match that conflicts with an existing
// edge while overwrite-on-rematch is disabled.
func MatchConflictError(side, id string) *ReconcilerError {
	return New(CategoryEntity, CodeMatchConflict,
		fmt.Sprintf("%s %s is already matched", side, id)).
		WithSuggestion("remove the existing match first, or enable overwrite-on-rematch").
		WithContext("side", side).
		WithContext("id", id)
}

// TransitionError reports a session lifecycle transition whose guard is
// unmet. The session state is unchanged.
func TransitionError(code ErrorCode, from, action string) *ReconcilerError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidTransition:
		message = fmt.Sprintf("cannot %s while session is in state %s", action, from)
		suggestion = "check the session state before invoking this operation"
	case CodeGuardUnmet:
		message = fmt.Sprintf("guard condition unmet for %s in state %s", action, from)
		suggestion = "set the statement ending balance and load at least one statement line first"
	case CodeSessionClosed:
		message = fmt.Sprintf("session is closed, cannot %s", action)
		suggestion = "start a new session for further work"
	default:
		message = fmt.Sprintf("session error during %s in state %s", action, from)
		suggestion = "review the session lifecycle"
	}

	return New(CategorySession, code, message).
		WithSuggestion(suggestion).
		WithContext("state", from).
		WithContext("action", action)
}

// FetchError reports a failed candidate fetch from an external gateway. The
// session stays in Loading and the fetch may be retried or aborted.
func FetchError(source, accountID string, err error) *ReconcilerError {
	message := fmt.Sprintf("fetching from %s failed for account %s", source, accountID)

	var result *ReconcilerError
	if err != nil {
		result = Wrap(err, CategoryFetch, CodeFetchFailed, message)
	} else {
		result = New(CategoryFetch, CodeFetchFailed, message)
	}

	return result.
		WithSuggestion("retry the load, or abort the session").
		WithContext("source", source).
		WithContext("account_id", accountID)
}

// CommitError reports a rejected finalization commit. The matching result
// is retained so the commit can be retried without re-matching.
func CommitError(accountID string, err error) *ReconcilerError {
	message := fmt.Sprintf("reconciliation commit failed for account %s", accountID)

	var result *ReconcilerError
	if err != nil {
		result = Wrap(err, CategoryCommit, CodeCommitFailed, message)
	} else {
		result = New(CategoryCommit, CodeCommitFailed, message)
	}

	return result.
		WithSuggestion("retry the commit; the matching result has been preserved").
		WithContext("account_id", accountID)
}

// ParseError creates a parsing-related error for a CSV source file
func ParseError(code ErrorCode, file string, line int, column string, value string, err error) *ReconcilerError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid format in file %s at line %d, column '%s': '%s'", file, line, column, value)
		suggestion = "check the data format and ensure it matches the expected structure"
	case CodeMissingColumn:
		message = fmt.Sprintf("missing required column '%s' in file %s", column, file)
		suggestion = "verify the file has all required columns with correct headers"
	case CodeInvalidData:
		message = fmt.Sprintf("invalid data in file %s at line %d, column '%s': '%s'", file, line, column, value)
		suggestion = "correct the data format or remove the invalid entry"
	default:
		message = fmt.Sprintf("parse error in file %s at line %d", file, line)
		suggestion = "check the file format and data integrity"
	}

	var result *ReconcilerError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("line", line).
		WithContext("column", column).
		WithContext("value", value)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *ReconcilerError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
		suggestion = "ensure amounts are valid decimal numbers (e.g., '12.34')"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use date format YYYY-MM-DD"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *ReconcilerError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *ReconcilerError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting via flag or config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *ReconcilerError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(operation string, err error) *ReconcilerError {
	message := fmt.Sprintf("unexpected error during %s", operation)

	var result *ReconcilerError
	if err != nil {
		result = Wrap(err, CategoryInternal, CodeUnexpectedError, message)
	} else {
		result = New(CategoryInternal, CodeUnexpectedError, message)
	}

	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// Utility functions

// IsReconcilerError checks if an error is a ReconcilerError
func IsReconcilerError(err error) bool {
	_, ok := err.(*ReconcilerError)
	return ok
}

// AsReconcilerError extracts a ReconcilerError from an error chain
func AsReconcilerError(err error) (*ReconcilerError, bool) {
	var reconcilerErr *ReconcilerError
	if errors.As(err, &reconcilerErr) {
		return reconcilerErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given error code anywhere in its
// chain.
func HasCode(err error, code ErrorCode) bool {
	if reconcilerErr, ok := AsReconcilerError(err); ok {
		return reconcilerErr.Code == code
	}
	return false
}

// WrapIfNeeded wraps an error if it's not already a ReconcilerError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	if err == nil {
		return nil
	}

	if reconcilerErr, ok := AsReconcilerError(err); ok {
		return reconcilerErr
	}

	return Wrap(err, category, code, message)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total      int                   `json:"total"`
	ByCategory map[ErrorCategory]int `json:"by_category"`
	ByCode     map[ErrorCode]int     `json:"by_code"`
	Errors     []*ReconcilerError    `json:"errors"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*ReconcilerError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}
