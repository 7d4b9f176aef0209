package cmd

import (
	"fmt"
	"os"
	"syscall"

	"golang-reconciliation-session/pkg/errors"
	"golang-reconciliation-session/pkg/logger"

	"github.com/spf13/viper"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError handles errors and returns the process exit code
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	if reconcilerErr, ok := errors.AsReconcilerError(err); ok {
		return h.handleReconcilerError(reconcilerErr)
	}

	return h.handleGenericError(err)
}

// handleReconcilerError handles ReconcilerError with detailed context
func (h *CLIErrorHandler) handleReconcilerError(err *errors.ReconcilerError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	if help := h.getCategoryHelp(err.Category); help != "" {
		fmt.Fprintf(os.Stderr, "\n%s\n", help)
	}

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles non-ReconcilerError types
func (h *CLIErrorHandler) handleGenericError(err error) int {
	if h.isFileNotFoundError(err) {
		fmt.Fprintf(os.Stderr, "Error: File not found\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}

	if h.isPermissionError(err) {
		fmt.Fprintf(os.Stderr, "Error: Permission denied\n")
		fmt.Fprintf(os.Stderr, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	if !h.verbose {
		fmt.Fprintf(os.Stderr, "Run with --verbose for more details\n")
	}

	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryEntity:
		return `Entity error help:
• The referenced id is not part of the loaded session scope
• Check the statement and ledger files for the expected ids
• Verify the date range covers the items you are matching`

	case errors.CategorySession:
		return `Session error help:
• The session lifecycle rejected the operation in its current state
• Finishing requires an ending balance and at least one statement line
• An imbalanced session needs --confirm-imbalance to finalize`

	case errors.CategoryFetch:
		return `Fetch error help:
• Verify the ledger and statement files exist and are readable
• Retry the command; the failure did not change any data
• Increase --fetch-timeout for slow sources`

	case errors.CategoryCommit:
		return `Commit error help:
• The matching result was preserved; re-running will retry the commit
• Check that the journal path is writable`

	case errors.CategoryParse:
		return `Parse error help:
• Verify the CSV file structure and column headers
• Amounts must be decimal numbers, dates in YYYY-MM-DD format
• The reported line number points at the offending row`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check the flag values against the command help (--help)
• Tolerances must be non-negative`

	default:
		return ""
	}
}

func (h *CLIErrorHandler) isFileNotFoundError(err error) bool {
	return os.IsNotExist(err)
}

func (h *CLIErrorHandler) isPermissionError(err error) bool {
	if os.IsPermission(err) {
		return true
	}

	if pathErr, ok := err.(*os.PathError); ok {
		return pathErr.Err == syscall.EACCES
	}

	return false
}
