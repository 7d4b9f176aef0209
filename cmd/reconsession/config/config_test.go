package config

import (
	"testing"

	"golang-reconciliation-session/internal/reporter"
	"golang-reconciliation-session/internal/sources"

	"github.com/shopspring/decimal"
)

func TestCreateScope(t *testing.T) {
	scope, err := CreateScope("acct-1", "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("CreateScope failed: %v", err)
	}
	if scope.AccountID != "acct-1" {
		t.Errorf("expected account acct-1, got %s", scope.AccountID)
	}
	if err := scope.Validate(); err != nil {
		t.Errorf("expected valid scope, got %v", err)
	}

	if _, err := CreateScope("acct-1", "not-a-date", "2024-01-31"); err == nil {
		t.Error("expected error for invalid start date")
	}
	if _, err := CreateScope("acct-1", "2024-02-01", "2024-01-01"); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestParseEndingBalance(t *testing.T) {
	balance, err := ParseEndingBalance("$2,495.15")
	if err != nil {
		t.Fatalf("ParseEndingBalance failed: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("2495.15")) {
		t.Errorf("expected 2495.15, got %s", balance)
	}

	if _, err := ParseEndingBalance("lots"); err == nil {
		t.Error("expected error for non-numeric balance")
	}
}

func TestCreateSessionConfig(t *testing.T) {
	config := CreateSessionConfig(5, false, true)
	if config.ToleranceCents != 5 {
		t.Errorf("expected tolerance 5, got %d", config.ToleranceCents)
	}
	if config.AllowOverwriteOnRematch {
		t.Error("expected overwrite disabled")
	}
	if !config.RequireAllLinesMatched {
		t.Error("expected full coverage required")
	}
}

func TestCreateSuggestConfig(t *testing.T) {
	config := CreateSuggestConfig(3, 1.5, 0.7)
	if config.DateToleranceDays != 3 || config.AmountTolerancePercent != 1.5 || config.MinConfidence != 0.7 {
		t.Errorf("unexpected suggest config %+v", config)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("expected valid suggest config, got %v", err)
	}
}

func TestCreateCommitter(t *testing.T) {
	if _, ok := CreateCommitter("").(*sources.MemoryCommitter); !ok {
		t.Error("expected in-memory committer without a journal path")
	}
	if _, ok := CreateCommitter("/tmp/journal.csv").(*sources.JournalCommitter); !ok {
		t.Error("expected journal committer for a journal path")
	}
}

func TestCreateReportConfig(t *testing.T) {
	if got := CreateReportConfig("json").Format; got != reporter.FormatJSON {
		t.Errorf("expected json format, got %s", got)
	}
	if got := CreateReportConfig("console").Format; got != reporter.FormatConsole {
		t.Errorf("expected console format, got %s", got)
	}
	if got := CreateReportConfig("").Format; got != reporter.FormatConsole {
		t.Errorf("expected console default, got %s", got)
	}
}
