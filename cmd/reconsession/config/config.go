// Package config builds component configurations from CLI flag values.
package config

import (
	"golang-reconciliation-session/internal/matchset"
	"golang-reconciliation-session/internal/models"
	"golang-reconciliation-session/internal/reporter"
	"golang-reconciliation-session/internal/session"
	"golang-reconciliation-session/internal/sources"
	apperrors "golang-reconciliation-session/pkg/errors"

	"github.com/shopspring/decimal"
)

// CreateScope builds the session scope from the account and date flags.
func CreateScope(accountID, startDate, endDate string) (session.Scope, error) {
	r, err := models.ParseDateRange(startDate, endDate)
	if err != nil {
		return session.Scope{}, apperrors.ValidationError(apperrors.CodeInvalidDate, "date range", startDate+".."+endDate, err)
	}

	return session.Scope{AccountID: accountID, Range: r}, nil
}

// ParseEndingBalance parses the statement ending balance flag.
func ParseEndingBalance(value string) (decimal.Decimal, error) {
	balance, err := models.ParseAmount(value)
	if err != nil {
		return decimal.Zero, apperrors.ValidationError(apperrors.CodeInvalidAmount, "ending-balance", value, err)
	}
	return balance, nil
}

// CreateSessionConfig builds the session policy from CLI flags.
func CreateSessionConfig(toleranceCents int64, allowOverwrite, requireAllLines bool) session.Config {
	config := session.DefaultConfig()

	config.ToleranceCents = toleranceCents
	config.AllowOverwriteOnRematch = allowOverwrite
	config.RequireAllLinesMatched = requireAllLines

	return config
}

// CreateSuggestConfig builds the auto-match scoring configuration with the
// specified tolerances.
func CreateSuggestConfig(dateTolerance int, amountTolerance, minConfidence float64) *matchset.SuggestConfig {
	config := matchset.DefaultSuggestConfig()

	config.DateToleranceDays = dateTolerance
	config.AmountTolerancePercent = amountTolerance
	config.MinConfidence = minConfidence

	return config
}

// CreateCommitter returns the journal committer for the given path, or an
// in-memory committer when no journal was requested.
func CreateCommitter(journalPath string) session.Committer {
	if journalPath == "" {
		return &sources.MemoryCommitter{}
	}
	return sources.NewJournalCommitter(journalPath)
}

// CreateReportConfig creates a report configuration for the specified
// output format.
func CreateReportConfig(format string) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()

	switch format {
	case "json":
		config.Format = reporter.FormatJSON
	default:
		config.Format = reporter.FormatConsole
	}

	return config
}
