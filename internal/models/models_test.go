package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestStatementLineValidate(t *testing.T) {
	tests := []struct {
		name    string
		line    StatementLine
		wantErr bool
	}{
		{
			name: "valid line",
			line: StatementLine{
				ID:     "s1",
				Date:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
				Amount: decimal.NewFromFloat(-4.85),
			},
			wantErr: false,
		},
		{
			name: "empty id",
			line: StatementLine{
				Date:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
				Amount: decimal.NewFromFloat(10),
			},
			wantErr: true,
		},
		{
			name: "zero date",
			line: StatementLine{
				ID:     "s1",
				Amount: decimal.NewFromFloat(10),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.line.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStatementLineIsDebit(t *testing.T) {
	debit := StatementLine{Amount: decimal.NewFromFloat(-4.85)}
	if !debit.IsDebit() {
		t.Error("expected negative amount to be a debit")
	}

	credit := StatementLine{Amount: decimal.NewFromFloat(2500.00)}
	if credit.IsDebit() {
		t.Error("expected positive amount not to be a debit")
	}
}

func TestStatementLineJSONRoundTrip(t *testing.T) {
	line := &StatementLine{
		ID:          "s1",
		Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Description: "coffee",
		Amount:      decimal.RequireFromString("-4.85"),
		Reference:   "REF-42",
	}

	data, err := json.Marshal(line)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded StatementLine
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded.ID != line.ID {
		t.Errorf("expected id %s, got %s", line.ID, decoded.ID)
	}
	if !decoded.Amount.Equal(line.Amount) {
		t.Errorf("expected amount %s, got %s", line.Amount, decoded.Amount)
	}
	if !decoded.Date.Equal(line.Date) {
		t.Errorf("expected date %s, got %s", line.Date, decoded.Date)
	}
	if decoded.Reference != line.Reference {
		t.Errorf("expected reference %s, got %s", line.Reference, decoded.Reference)
	}
}

func TestLedgerTransactionValidate(t *testing.T) {
	valid := LedgerTransaction{
		ID:     "t1",
		Date:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Amount: decimal.NewFromFloat(-4.85),
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid transaction, got %v", err)
	}

	missing := LedgerTransaction{Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)}
	if err := missing.Validate(); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestMatchValidate(t *testing.T) {
	tests := []struct {
		name    string
		match   Match
		wantErr bool
	}{
		{"valid", Match{StatementLineID: "s1", TransactionID: "t1", Confidence: 0.9}, false},
		{"missing statement id", Match{TransactionID: "t1", Confidence: 0.9}, true},
		{"missing transaction id", Match{StatementLineID: "s1", Confidence: 0.9}, true},
		{"confidence too high", Match{StatementLineID: "s1", TransactionID: "t1", Confidence: 1.5}, true},
		{"confidence negative", Match{StatementLineID: "s1", TransactionID: "t1", Confidence: -0.1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.match.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDateRange(t *testing.T) {
	r, err := ParseDateRange("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("ParseDateRange failed: %v", err)
	}

	if !r.Contains(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)) {
		t.Error("expected mid-range date to be contained")
	}

	if !r.Contains(time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)) {
		t.Error("expected end-of-range date to be contained")
	}

	if r.Contains(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("expected out-of-range date not to be contained")
	}

	if _, err := ParseDateRange("2024-02-01", "2024-01-01"); err == nil {
		t.Error("expected inverted range to be rejected")
	}

	if _, err := ParseDateRange("not-a-date", "2024-01-01"); err == nil {
		t.Error("expected invalid start date to be rejected")
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"12.34", "12.34", false},
		{"-4.85", "-4.85", false},
		{"$2,500.00", "2500", false},
		{"  7.05 ", "7.05", false},
		{"", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmount(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got.String() != tt.want {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got.String(), tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"2024-01-15", false},
		{"01/15/2024", false},
		{"2024-01-15 10:30:00", false},
		{"Jan 2, 2024", false},
		{"", true},
		{"not-a-date", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 17, 1, 0, 0, 0, time.UTC)

	if got := DaysBetween(a, b); got != 2 {
		t.Errorf("expected 2 days, got %d", got)
	}

	if got := DaysBetween(b, a); got != 2 {
		t.Errorf("expected symmetric distance, got %d", got)
	}

	if got := DaysBetween(a, a); got != 0 {
		t.Errorf("expected 0 days for same date, got %d", got)
	}
}

func TestCompareAmountsWithTolerance(t *testing.T) {
	a := decimal.RequireFromString("10.00")
	b := decimal.RequireFromString("10.01")
	tolerance := decimal.RequireFromString("0.01")

	if !CompareAmountsWithTolerance(a, b, tolerance) {
		t.Error("expected amounts within tolerance to compare equal")
	}

	if CompareAmountsWithTolerance(a, decimal.RequireFromString("10.02"), tolerance) {
		t.Error("expected amounts beyond tolerance to compare unequal")
	}
}
