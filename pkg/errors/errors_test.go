package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestReconcilerError(t *testing.T) {
	tests := []struct {
		name       string
		category   ErrorCategory
		code       ErrorCode
		message    string
		cause      error
		expectCode int
	}{
		{
			name:       "entity error",
			category:   CategoryEntity,
			code:       CodeUnknownEntity,
			message:    "unknown transaction: t9",
			cause:      nil,
			expectCode: 2,
		},
		{
			name:       "session error",
			category:   CategorySession,
			code:       CodeInvalidTransition,
			message:    "cannot propose while loading",
			cause:      nil,
			expectCode: 3,
		},
		{
			name:       "fetch error",
			category:   CategoryFetch,
			code:       CodeFetchFailed,
			message:    "ledger gateway unavailable",
			cause:      errors.New("connection refused"),
			expectCode: 5,
		},
		{
			name:       "commit error",
			category:   CategoryCommit,
			code:       CodeCommitFailed,
			message:    "committer rejected the batch",
			cause:      errors.New("downstream timeout"),
			expectCode: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err *ReconcilerError
			if tt.cause != nil {
				err = Wrap(tt.cause, tt.category, tt.code, tt.message)
			} else {
				err = New(tt.category, tt.code, tt.message)
			}

			if err.Category != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, err.Category)
			}
			if err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, err.Code)
			}
			if err.Message != tt.message {
				t.Errorf("expected message %s, got %s", tt.message, err.Message)
			}

			if err.GetExitCode() != tt.expectCode {
				t.Errorf("expected exit code %d, got %d", tt.expectCode, err.GetExitCode())
			}

			if err.Error() != tt.message {
				t.Errorf("expected error string %s, got %s", tt.message, err.Error())
			}

			if tt.cause != nil && err.Unwrap() != tt.cause {
				t.Errorf("expected to unwrap to %v, got %v", tt.cause, err.Unwrap())
			}
		})
	}
}

func TestErrorSuggestion(t *testing.T) {
	err := New(CategorySession, CodeGuardUnmet, "guard unmet").
		WithSuggestion("set the ending balance first")

	if !strings.Contains(err.Error(), "suggestion: set the ending balance first") {
		t.Errorf("expected suggestion in error string, got %q", err.Error())
	}
}

func TestErrorContext(t *testing.T) {
	err := UnknownEntityError("transaction", "t42")

	if err.Code != CodeUnknownEntity {
		t.Errorf("expected code %s, got %s", CodeUnknownEntity, err.Code)
	}

	if err.Context["id"] != "t42" {
		t.Errorf("expected context id t42, got %v", err.Context["id"])
	}

	if err.Context["kind"] != "transaction" {
		t.Errorf("expected context kind transaction, got %v", err.Context["kind"])
	}
}

func TestTransitionError(t *testing.T) {
	err := TransitionError(CodeInvalidTransition, "Loading", "propose")

	if err.Category != CategorySession {
		t.Errorf("expected session category, got %s", err.Category)
	}

	if !strings.Contains(err.Message, "Loading") {
		t.Errorf("expected state in message, got %q", err.Message)
	}
}

func TestAsReconcilerError(t *testing.T) {
	base := FetchError("statement source", "acct-1", errors.New("boom"))
	wrapped := fmt.Errorf("load failed: %w", base)

	extracted, ok := AsReconcilerError(wrapped)
	if !ok {
		t.Fatal("expected to extract ReconcilerError from chain")
	}

	if extracted.Code != CodeFetchFailed {
		t.Errorf("expected code %s, got %s", CodeFetchFailed, extracted.Code)
	}

	if _, ok := AsReconcilerError(errors.New("plain")); ok {
		t.Error("expected plain error not to extract")
	}
}

func TestHasCode(t *testing.T) {
	err := MatchConflictError("statement line", "s1")

	if !HasCode(err, CodeMatchConflict) {
		t.Error("expected HasCode to match CodeMatchConflict")
	}

	if HasCode(err, CodeCommitFailed) {
		t.Error("expected HasCode not to match unrelated code")
	}

	if HasCode(nil, CodeMatchConflict) {
		t.Error("expected HasCode to be false for nil error")
	}
}

func TestWrapIfNeeded(t *testing.T) {
	original := CommitError("acct-1", errors.New("rejected"))

	rewrapped := WrapIfNeeded(original, CategoryInternal, CodeUnexpectedError, "should not rewrap")
	if rewrapped != original {
		t.Error("expected existing ReconcilerError to pass through unchanged")
	}

	plain := WrapIfNeeded(errors.New("plain"), CategoryInternal, CodeUnexpectedError, "wrapped")
	if plain.Category != CategoryInternal {
		t.Errorf("expected internal category, got %s", plain.Category)
	}

	if WrapIfNeeded(nil, CategoryInternal, CodeUnexpectedError, "nil") != nil {
		t.Error("expected nil error to stay nil")
	}
}

func TestErrorSummary(t *testing.T) {
	errs := []*ReconcilerError{
		UnknownEntityError("statement line", "s1"),
		UnknownEntityError("transaction", "t1"),
		CommitError("acct-1", errors.New("rejected")),
	}

	summary := NewErrorSummary(errs)

	if summary.Total != 3 {
		t.Errorf("expected 3 errors, got %d", summary.Total)
	}

	if summary.ByCategory[CategoryEntity] != 2 {
		t.Errorf("expected 2 entity errors, got %d", summary.ByCategory[CategoryEntity])
	}

	// Commit errors carry the highest exit code in this mix
	if summary.GetExitCode() != 6 {
		t.Errorf("expected exit code 6, got %d", summary.GetExitCode())
	}

	empty := NewErrorSummary(nil)
	if empty.GetExitCode() != 0 {
		t.Errorf("expected exit code 0 for empty summary, got %d", empty.GetExitCode())
	}
	if empty.Error() != "no errors" {
		t.Errorf("unexpected empty summary message: %q", empty.Error())
	}
}
