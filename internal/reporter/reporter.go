// Package reporter renders the outcome of a reconciliation session for
// human or machine consumption. Console output is an aligned text summary;
// JSON output is the session result marshaled verbatim for scripted
// callers.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang-reconciliation-session/internal/session"
	apperrors "golang-reconciliation-session/pkg/errors"
)

// Format identifies a report output format.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// ReportConfig controls what the report includes and how it is rendered.
type ReportConfig struct {
	Format           Format `json:"format"`
	IncludeMatches   bool   `json:"include_matches"`
	IncludeUnmatched bool   `json:"include_unmatched"`
}

// DefaultReportConfig returns a console report with all sections enabled.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:           FormatConsole,
		IncludeMatches:   true,
		IncludeUnmatched: true,
	}
}

// Validate checks if the report configuration is valid.
func (c *ReportConfig) Validate() error {
	switch c.Format {
	case FormatConsole, FormatJSON:
		return nil
	default:
		return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "format", string(c.Format), nil)
	}
}

// Generate renders the session result according to the configuration.
func Generate(result *session.Result, config *ReportConfig) (string, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return "", err
	}

	switch config.Format {
	case FormatJSON:
		return generateJSON(result)
	default:
		return generateConsole(result, config), nil
	}
}

// Write renders the report and writes it to w.
func Write(w io.Writer, result *session.Result, config *ReportConfig) error {
	report, err := Generate(result, config)
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, report)
	return err
}

func generateJSON(result *session.Result) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", apperrors.InternalError("report generation", err)
	}
	return string(data) + "\n", nil
}

func generateConsole(result *session.Result, config *ReportConfig) string {
	var b strings.Builder

	b.WriteString("Reconciliation Session Report\n")
	b.WriteString("=============================\n\n")

	fmt.Fprintf(&b, "Session:   %s\n", result.SessionID)
	fmt.Fprintf(&b, "Account:   %s\n", result.AccountID)
	fmt.Fprintf(&b, "Period:    %s\n", result.Range.String())
	fmt.Fprintf(&b, "State:     %s\n", result.State)
	if !result.FinalizedAt.IsZero() {
		fmt.Fprintf(&b, "Finalized: %s\n", result.FinalizedAt.Format("2006-01-02 15:04:05 MST"))
	}
	b.WriteString("\n")

	summary := result.Summary
	b.WriteString("Summary\n")
	b.WriteString("-------\n")
	fmt.Fprintf(&b, "Statement lines:        %d\n", summary.TotalStatementLines)
	fmt.Fprintf(&b, "Ledger transactions:    %d\n", summary.TotalTransactions)
	fmt.Fprintf(&b, "Matched pairs:          %d\n", summary.MatchedPairs)
	fmt.Fprintf(&b, "Unmatched lines:        %d\n", summary.UnmatchedLines)
	fmt.Fprintf(&b, "Unmatched transactions: %d\n", summary.UnmatchedTransactions)
	fmt.Fprintf(&b, "Matched balance:        %s\n", summary.MatchedBalance.StringFixed(2))
	fmt.Fprintf(&b, "Statement balance:      %s\n", summary.StatementBalance.StringFixed(2))
	fmt.Fprintf(&b, "Difference:             %s\n", summary.Difference.StringFixed(2))
	fmt.Fprintf(&b, "Balanced:               %t\n", summary.Balanced)
	b.WriteString("\n")

	if config.IncludeMatches && len(result.Matches) > 0 {
		b.WriteString("Matches\n")
		b.WriteString("-------\n")
		w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STATEMENT LINE\tTRANSACTION\tCONFIDENCE")
		for _, match := range result.Matches {
			fmt.Fprintf(w, "%s\t%s\t%.2f\n", match.StatementLineID, match.TransactionID, match.Confidence)
		}
		w.Flush()
		b.WriteString("\n")
	}

	if config.IncludeUnmatched {
		if len(result.UnmatchedLines) > 0 {
			b.WriteString("Unmatched Statement Lines\n")
			b.WriteString("-------------------------\n")
			w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tAMOUNT\tDESCRIPTION")
			for _, line := range result.UnmatchedLines {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					line.ID, line.Date.Format("2006-01-02"), line.Amount.StringFixed(2), line.Description)
			}
			w.Flush()
			b.WriteString("\n")
		}

		if len(result.UnmatchedTransactions) > 0 {
			b.WriteString("Unmatched Ledger Transactions\n")
			b.WriteString("-----------------------------\n")
			w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tAMOUNT\tDESCRIPTION")
			for _, tx := range result.UnmatchedTransactions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					tx.ID, tx.Date.Format("2006-01-02"), tx.Amount.StringFixed(2), tx.Description)
			}
			w.Flush()
			b.WriteString("\n")
		}
	}

	return b.String()
}
