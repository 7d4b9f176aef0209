// Package models defines the core data types shared by the reconciliation
// session: statement lines, ledger transactions, matches, and date ranges.
//
// Amounts are always represented as decimal.Decimal to avoid binary
// floating-point drift; rounding to two places happens only at presentation
// boundaries, never inside the core arithmetic.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the canonical date representation used in JSON output and
// CLI flags.
const DateFormat = "2006-01-02"

// StatementLine represents one line from an externally-issued bank statement.
// A negative amount is a debit. Lines are immutable once loaded into a
// session and are discarded when the session ends.
type StatementLine struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Reference   string          `json:"reference,omitempty"`
}

// NewStatementLine creates a new StatementLine instance.
func NewStatementLine(id string, date time.Time, description string, amount decimal.Decimal) *StatementLine {
	return &StatementLine{
		ID:          id,
		Date:        date,
		Description: description,
		Amount:      amount,
	}
}

// Validate performs basic validation on the StatementLine.
func (sl *StatementLine) Validate() error {
	if strings.TrimSpace(sl.ID) == "" {
		return fmt.Errorf("statement line id cannot be empty")
	}

	if sl.Date.IsZero() {
		return fmt.Errorf("statement line date cannot be zero")
	}

	return nil
}

// IsDebit returns true if the line represents money leaving the account.
func (sl *StatementLine) IsDebit() bool {
	return sl.Amount.IsNegative()
}

// String returns a string representation of the StatementLine.
func (sl *StatementLine) String() string {
	return fmt.Sprintf("StatementLine{ID: %s, Amount: %s, Date: %s}",
		sl.ID, sl.Amount.String(), sl.Date.Format(DateFormat))
}

// MarshalJSON implements custom JSON marshaling for StatementLine.
func (sl *StatementLine) MarshalJSON() ([]byte, error) {
	type Alias StatementLine
	return json.Marshal(&struct {
		Amount string `json:"amount"`
		Date   string `json:"date"`
		*Alias
	}{
		Amount: sl.Amount.String(),
		Date:   sl.Date.Format(DateFormat),
		Alias:  (*Alias)(sl),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for StatementLine.
func (sl *StatementLine) UnmarshalJSON(data []byte) error {
	type Alias StatementLine
	aux := &struct {
		Amount string `json:"amount"`
		Date   string `json:"date"`
		*Alias
	}{
		Alias: (*Alias)(sl),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	sl.Amount, err = decimal.NewFromString(aux.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	sl.Date, err = ParseDate(aux.Date)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}

	return nil
}

// LedgerTransaction is a read-only projection of a transaction already
// recorded by the ledger system. The session never mutates it directly; it
// only proposes which ids should become reconciled.
type LedgerTransaction struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Reconciled  bool            `json:"reconciled"`
}

// NewLedgerTransaction creates a new LedgerTransaction instance.
func NewLedgerTransaction(id string, date time.Time, description string, amount decimal.Decimal) *LedgerTransaction {
	return &LedgerTransaction{
		ID:          id,
		Date:        date,
		Description: description,
		Amount:      amount,
	}
}

// Validate performs basic validation on the LedgerTransaction.
func (lt *LedgerTransaction) Validate() error {
	if strings.TrimSpace(lt.ID) == "" {
		return fmt.Errorf("ledger transaction id cannot be empty")
	}

	if lt.Date.IsZero() {
		return fmt.Errorf("ledger transaction date cannot be zero")
	}

	return nil
}

// IsDebit returns true if the transaction amount is negative.
func (lt *LedgerTransaction) IsDebit() bool {
	return lt.Amount.IsNegative()
}

// String returns a string representation of the LedgerTransaction.
func (lt *LedgerTransaction) String() string {
	return fmt.Sprintf("LedgerTransaction{ID: %s, Amount: %s, Date: %s, Reconciled: %t}",
		lt.ID, lt.Amount.String(), lt.Date.Format(DateFormat), lt.Reconciled)
}

// MarshalJSON implements custom JSON marshaling for LedgerTransaction.
func (lt *LedgerTransaction) MarshalJSON() ([]byte, error) {
	type Alias LedgerTransaction
	return json.Marshal(&struct {
		Amount string `json:"amount"`
		Date   string `json:"date"`
		*Alias
	}{
		Amount: lt.Amount.String(),
		Date:   lt.Date.Format(DateFormat),
		Alias:  (*Alias)(lt),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for LedgerTransaction.
func (lt *LedgerTransaction) UnmarshalJSON(data []byte) error {
	type Alias LedgerTransaction
	aux := &struct {
		Amount string `json:"amount"`
		Date   string `json:"date"`
		*Alias
	}{
		Alias: (*Alias)(lt),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	lt.Amount, err = decimal.NewFromString(aux.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	lt.Date, err = ParseDate(aux.Date)
	if err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}

	return nil
}

// Match is a proposed correspondence between one statement line and one
// ledger transaction. Confidence is advisory only: it affects display and
// ranking, never correctness.
type Match struct {
	StatementLineID string  `json:"statement_line_id"`
	TransactionID   string  `json:"transaction_id"`
	Confidence      float64 `json:"confidence"`
}

// Validate performs basic validation on the Match.
func (m *Match) Validate() error {
	if strings.TrimSpace(m.StatementLineID) == "" {
		return fmt.Errorf("match statement line id cannot be empty")
	}

	if strings.TrimSpace(m.TransactionID) == "" {
		return fmt.Errorf("match transaction id cannot be empty")
	}

	if m.Confidence < 0.0 || m.Confidence > 1.0 {
		return fmt.Errorf("match confidence must be between 0.0 and 1.0: %f", m.Confidence)
	}

	return nil
}

// String returns a string representation of the Match.
func (m *Match) String() string {
	return fmt.Sprintf("Match{Statement: %s, Transaction: %s, Confidence: %.2f}",
		m.StatementLineID, m.TransactionID, m.Confidence)
}

// DateRange represents an inclusive date interval used to scope a
// reconciliation session.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange creates a DateRange after validating the bounds.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// ParseDateRange builds a DateRange from two date strings in DateFormat.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid start date: %w", err)
	}

	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid end date: %w", err)
	}

	return NewDateRange(s, e)
}

// Validate checks that the range bounds are set and ordered.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("date range bounds cannot be zero")
	}

	if r.End.Before(r.Start) {
		return fmt.Errorf("date range end %s is before start %s",
			r.End.Format(DateFormat), r.Start.Format(DateFormat))
	}

	return nil
}

// Contains reports whether t falls inside the range, comparing dates only.
func (r DateRange) Contains(t time.Time) bool {
	day := truncateToDay(t)
	return !day.Before(truncateToDay(r.Start)) && !day.After(truncateToDay(r.End))
}

// String returns a human-readable representation of the range.
func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start.Format(DateFormat), r.End.Format(DateFormat))
}

func truncateToDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Utility functions for type conversion and validation

// ParseAmount parses a decimal amount from string with validation, stripping
// common currency symbols and thousand separators.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParseDate attempts to parse a date from string using the formats commonly
// found in bank statement exports.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	formats := []string{
		DateFormat,                 // "2006-01-02"
		time.RFC3339,               // "2006-01-02T15:04:05Z07:00"
		"2006-01-02 15:04:05",      // "2006-01-02 15:04:05"
		"01/02/2006",               // "01/02/2006"
		"02-01-2006",               // "02-01-2006"
		"2006/01/02",               // "2006/01/02"
		"Jan 2, 2006",              // "Jan 2, 2006"
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// CompareAmountsWithTolerance compares two decimal amounts with a tolerance.
func CompareAmountsWithTolerance(a, b, tolerance decimal.Decimal) bool {
	diff := a.Sub(b).Abs()
	return diff.LessThanOrEqual(tolerance)
}

// DaysBetween returns the absolute whole-day distance between two dates.
func DaysBetween(a, b time.Time) int {
	diff := truncateToDay(a).Sub(truncateToDay(b))
	if diff < 0 {
		diff = -diff
	}
	return int(diff / (24 * time.Hour))
}
