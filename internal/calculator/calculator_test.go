package calculator

import (
	"testing"
	"time"

	"golang-reconciliation-session/internal/models"

	"github.com/shopspring/decimal"
)

func tx(id, amount string) *models.LedgerTransaction {
	return &models.LedgerTransaction{
		ID:     id,
		Date:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Amount: decimal.RequireFromString(amount),
	}
}

func line(id, amount string) *models.StatementLine {
	return &models.StatementLine{
		ID:     id,
		Date:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Amount: decimal.RequireFromString(amount),
	}
}

func idSet(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func TestMatchedLedgerBalanceExact(t *testing.T) {
	transactions := []*models.LedgerTransaction{
		tx("t1", "10.10"),
		tx("t2", "-5.05"),
		tx("t3", "2.00"),
	}

	balance := MatchedLedgerBalance(transactions, idSet("t1", "t2", "t3"))
	if !balance.Equal(decimal.RequireFromString("7.05")) {
		t.Errorf("expected 7.05, got %s", balance)
	}
}

func TestMatchedLedgerBalanceSubset(t *testing.T) {
	transactions := []*models.LedgerTransaction{
		tx("t1", "10.10"),
		tx("t2", "-5.05"),
		tx("t3", "2.00"),
	}

	balance := MatchedLedgerBalance(transactions, idSet("t1", "t3"))
	if !balance.Equal(decimal.RequireFromString("12.10")) {
		t.Errorf("expected 12.10, got %s", balance)
	}

	balance = MatchedLedgerBalance(transactions, idSet())
	if !balance.IsZero() {
		t.Errorf("expected zero for empty matched set, got %s", balance)
	}
}

func TestDifference(t *testing.T) {
	diff := Difference(decimal.RequireFromString("100.00"), decimal.RequireFromString("99.50"))
	if !diff.Equal(decimal.RequireFromString("0.50")) {
		t.Errorf("expected 0.50, got %s", diff)
	}

	diff = Difference(decimal.RequireFromString("99.50"), decimal.RequireFromString("100.00"))
	if !diff.Equal(decimal.RequireFromString("-0.50")) {
		t.Errorf("expected -0.50, got %s", diff)
	}
}

func TestIsBalanced(t *testing.T) {
	tests := []struct {
		name           string
		difference     string
		toleranceCents int64
		want           bool
	}{
		{"zero difference", "0", 1, true},
		{"sub-cent difference", "0.005", 1, true},
		{"exactly one cent", "0.01", 1, false},
		{"half dollar difference", "0.50", 1, false},
		{"negative sub-cent", "-0.005", 1, true},
		{"zero tolerance rejects everything", "0", 0, false},
		{"wide tolerance", "0.49", 50, true},
		{"wide tolerance boundary", "0.50", 50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff := decimal.RequireFromString(tt.difference)
			if got := IsBalanced(diff, tt.toleranceCents); got != tt.want {
				t.Errorf("IsBalanced(%s, %d) = %v, want %v", tt.difference, tt.toleranceCents, got, tt.want)
			}
		})
	}
}

func TestUnmatchedPreservesOrder(t *testing.T) {
	lines := []*models.StatementLine{
		line("s1", "1.00"),
		line("s2", "2.00"),
		line("s3", "3.00"),
	}
	transactions := []*models.LedgerTransaction{
		tx("t1", "1.00"),
		tx("t2", "2.00"),
		tx("t3", "3.00"),
	}

	unmatchedLines := UnmatchedStatementLines(lines, idSet("s2"))
	if len(unmatchedLines) != 2 || unmatchedLines[0].ID != "s1" || unmatchedLines[1].ID != "s3" {
		t.Errorf("unexpected unmatched lines %v", unmatchedLines)
	}

	unmatchedTxs := UnmatchedTransactions(transactions, idSet("t1", "t3"))
	if len(unmatchedTxs) != 1 || unmatchedTxs[0].ID != "t2" {
		t.Errorf("unexpected unmatched transactions %v", unmatchedTxs)
	}

	if got := UnmatchedStatementLines(lines, idSet("s1", "s2", "s3")); len(got) != 0 {
		t.Errorf("expected no unmatched lines, got %d", len(got))
	}
}

func TestBuildSummary(t *testing.T) {
	lines := []*models.StatementLine{
		line("s1", "10.10"),
		line("s2", "-5.05"),
		line("s3", "2.00"),
	}
	transactions := []*models.LedgerTransaction{
		tx("t1", "10.10"),
		tx("t2", "-5.05"),
	}

	summary := BuildSummary(
		lines, transactions,
		idSet("s1", "s2"), idSet("t1", "t2"),
		decimal.RequireFromString("5.05"),
		1,
	)

	if summary.TotalStatementLines != 3 || summary.TotalTransactions != 2 {
		t.Errorf("unexpected totals %+v", summary)
	}
	if summary.MatchedPairs != 2 {
		t.Errorf("expected 2 matched pairs, got %d", summary.MatchedPairs)
	}
	if summary.UnmatchedLines != 1 || summary.UnmatchedTransactions != 0 {
		t.Errorf("unexpected unmatched counts %+v", summary)
	}
	if !summary.MatchedBalance.Equal(decimal.RequireFromString("5.05")) {
		t.Errorf("expected matched balance 5.05, got %s", summary.MatchedBalance)
	}
	if !summary.Difference.IsZero() {
		t.Errorf("expected zero difference, got %s", summary.Difference)
	}
	if !summary.Balanced {
		t.Error("expected summary to be balanced")
	}
}

func TestBuildSummaryImbalanced(t *testing.T) {
	transactions := []*models.LedgerTransaction{tx("t1", "100.00")}
	lines := []*models.StatementLine{line("s1", "100.50")}

	summary := BuildSummary(
		lines, transactions,
		idSet("s1"), idSet("t1"),
		decimal.RequireFromString("100.50"),
		1,
	)

	if !summary.Difference.Equal(decimal.RequireFromString("0.50")) {
		t.Errorf("expected difference 0.50, got %s", summary.Difference)
	}
	if summary.Balanced {
		t.Error("expected summary to be imbalanced")
	}
}
