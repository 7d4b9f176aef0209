// Package calculator derives balances and the finalization go/no-go signal
// from the match set and the session scope.
//
// All functions are pure: they read the matched-id sets and candidate lists
// and mutate nothing. Arithmetic is exact decimal throughout; rounding to
// two places happens only at the presentation boundary.
package calculator

import (
	"github.com/shopspring/decimal"

	"golang-reconciliation-session/internal/models"
)

var hundred = decimal.NewFromInt(100)

// MatchedLedgerBalance returns the sum of amounts over every ledger
// transaction whose id is in the matched set.
func MatchedLedgerBalance(transactions []*models.LedgerTransaction, matched map[string]struct{}) decimal.Decimal {
	balance := decimal.Zero
	for _, tx := range transactions {
		if _, ok := matched[tx.ID]; ok {
			balance = balance.Add(tx.Amount)
		}
	}
	return balance
}

// Difference returns statementEndingBalance - matchedLedgerBalance.
func Difference(statementEndingBalance, matchedLedgerBalance decimal.Decimal) decimal.Decimal {
	return statementEndingBalance.Sub(matchedLedgerBalance)
}

// IsBalanced reports whether the difference is strictly inside the
// tolerance, expressed in the smallest currency unit. The default session
// tolerance of one cent absorbs rounding noise without admitting real
// discrepancies.
func IsBalanced(difference decimal.Decimal, toleranceCents int64) bool {
	tolerance := decimal.NewFromInt(toleranceCents).Div(hundred)
	return difference.Abs().LessThan(tolerance)
}

// UnmatchedStatementLines returns the statement lines whose id is not in
// the matched set, preserving input order.
func UnmatchedStatementLines(lines []*models.StatementLine, matched map[string]struct{}) []*models.StatementLine {
	var unmatched []*models.StatementLine
	for _, line := range lines {
		if _, ok := matched[line.ID]; !ok {
			unmatched = append(unmatched, line)
		}
	}
	return unmatched
}

// UnmatchedTransactions returns the ledger transactions whose id is not in
// the matched set, preserving input order.
func UnmatchedTransactions(transactions []*models.LedgerTransaction, matched map[string]struct{}) []*models.LedgerTransaction {
	var unmatched []*models.LedgerTransaction
	for _, tx := range transactions {
		if _, ok := matched[tx.ID]; !ok {
			unmatched = append(unmatched, tx)
		}
	}
	return unmatched
}

// Summary aggregates the session-level reconciliation figures.
type Summary struct {
	TotalStatementLines   int             `json:"total_statement_lines"`
	TotalTransactions     int             `json:"total_transactions"`
	MatchedPairs          int             `json:"matched_pairs"`
	UnmatchedLines        int             `json:"unmatched_lines"`
	UnmatchedTransactions int             `json:"unmatched_transactions"`
	MatchedBalance        decimal.Decimal `json:"matched_balance"`
	StatementBalance      decimal.Decimal `json:"statement_balance"`
	Difference            decimal.Decimal `json:"difference"`
	Balanced              bool            `json:"balanced"`
}

// BuildSummary computes the aggregate figures for reporting.
func BuildSummary(
	lines []*models.StatementLine,
	transactions []*models.LedgerTransaction,
	matchedLineIDs, matchedTxIDs map[string]struct{},
	statementEndingBalance decimal.Decimal,
	toleranceCents int64,
) Summary {
	matchedBalance := MatchedLedgerBalance(transactions, matchedTxIDs)
	difference := Difference(statementEndingBalance, matchedBalance)

	return Summary{
		TotalStatementLines:   len(lines),
		TotalTransactions:     len(transactions),
		MatchedPairs:          len(matchedLineIDs),
		UnmatchedLines:        len(lines) - len(matchedLineIDs),
		UnmatchedTransactions: len(transactions) - len(matchedTxIDs),
		MatchedBalance:        matchedBalance,
		StatementBalance:      statementEndingBalance,
		Difference:            difference,
		Balanced:              IsBalanced(difference, toleranceCents),
	}
}
