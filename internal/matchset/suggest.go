package matchset

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang-reconciliation-session/internal/models"

	"github.com/shopspring/decimal"
)

// SuggestConfig controls the scoring of automatic match suggestions.
// Suggestions are advisory: they feed Propose and never bypass the MatchSet
// invariants.
type SuggestConfig struct {
	// DateToleranceDays defines the number of days tolerance for date matching
	DateToleranceDays int `json:"date_tolerance_days"`

	// AmountTolerancePercent defines percentage tolerance for amount matching (0.0 to 100.0)
	AmountTolerancePercent float64 `json:"amount_tolerance_percent"`

	// MinConfidence defines the minimum confidence score for a suggestion
	MinConfidence float64 `json:"min_confidence"`

	// Weights for the scoring criteria
	Weights SuggestWeights `json:"weights"`
}

// SuggestWeights defines the relative importance of the scoring criteria
type SuggestWeights struct {
	AmountWeight    float64 `json:"amount_weight"`
	DateWeight      float64 `json:"date_weight"`
	ReferenceWeight float64 `json:"reference_weight"`
}

// DefaultSuggestConfig returns a configuration with sensible defaults
func DefaultSuggestConfig() *SuggestConfig {
	return &SuggestConfig{
		DateToleranceDays:      2,
		AmountTolerancePercent: 0.0,
		MinConfidence:          0.8,
		Weights: SuggestWeights{
			AmountWeight:    0.6,
			DateWeight:      0.3,
			ReferenceWeight: 0.1,
		},
	}
}

// Validate checks if the suggestion configuration is valid
func (sc *SuggestConfig) Validate() error {
	if sc.DateToleranceDays < 0 {
		return fmt.Errorf("date tolerance days cannot be negative: %d", sc.DateToleranceDays)
	}

	if sc.AmountTolerancePercent < 0.0 || sc.AmountTolerancePercent > 100.0 {
		return fmt.Errorf("amount tolerance percent must be between 0.0 and 100.0: %f", sc.AmountTolerancePercent)
	}

	if sc.MinConfidence < 0.0 || sc.MinConfidence > 1.0 {
		return fmt.Errorf("minimum confidence must be between 0.0 and 1.0: %f", sc.MinConfidence)
	}

	total := sc.Weights.AmountWeight + sc.Weights.DateWeight + sc.Weights.ReferenceWeight
	if total < 0.9 || total > 1.1 {
		return fmt.Errorf("weights should sum to approximately 1.0, got %f", total)
	}

	return nil
}

// Suggestion is a scored candidate pairing of one statement line and one
// ledger transaction.
type Suggestion struct {
	Line        *models.StatementLine
	Transaction *models.LedgerTransaction
	Confidence  float64
	Reasons     []string
}

// SuggestMatches scores every pairing of the given statement lines and
// ledger transactions and returns the suggestions that meet the minimum
// confidence, ordered best first. Callers typically pass only unmatched
// items.
func SuggestMatches(lines []*models.StatementLine, transactions []*models.LedgerTransaction, config *SuggestConfig) []*Suggestion {
	if config == nil {
		config = DefaultSuggestConfig()
	}

	var suggestions []*Suggestion
	for _, line := range lines {
		for _, tx := range transactions {
			suggestion := scorePair(line, tx, config)
			if suggestion.Confidence >= config.MinConfidence {
				suggestions = append(suggestions, suggestion)
			}
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Confidence != suggestions[j].Confidence {
			return suggestions[i].Confidence > suggestions[j].Confidence
		}
		return suggestions[i].Line.ID < suggestions[j].Line.ID
	})

	return suggestions
}

// Apply proposes the suggestions against the match set in rank order,
// skipping any whose side is already matched. It returns the number of
// matches created.
func Apply(ms *MatchSet, suggestions []*Suggestion) int {
	applied := 0
	for _, suggestion := range suggestions {
		if _, matched := ms.MatchForStatement(suggestion.Line.ID); matched {
			continue
		}
		if _, matched := ms.MatchForTransaction(suggestion.Transaction.ID); matched {
			continue
		}

		if _, err := ms.Propose(suggestion.Line.ID, suggestion.Transaction.ID, suggestion.Confidence); err == nil {
			applied++
		}
	}
	return applied
}

func scorePair(line *models.StatementLine, tx *models.LedgerTransaction, config *SuggestConfig) *Suggestion {
	amountScore := scoreAmount(line, tx, config)
	dateScore := scoreDate(line.Date, tx.Date, config.DateToleranceDays)
	referenceScore := scoreReference(line, tx)

	confidence := amountScore*config.Weights.AmountWeight +
		dateScore*config.Weights.DateWeight +
		referenceScore*config.Weights.ReferenceWeight

	return &Suggestion{
		Line:        line,
		Transaction: tx,
		Confidence:  confidence,
		Reasons:     matchReasons(amountScore, dateScore, referenceScore),
	}
}

func scoreAmount(line *models.StatementLine, tx *models.LedgerTransaction, config *SuggestConfig) float64 {
	if line.Amount.Equal(tx.Amount) {
		return 1.0
	}

	if config.AmountTolerancePercent == 0.0 {
		return 0.0
	}

	percentage := decimal.NewFromFloat(config.AmountTolerancePercent / 100.0)
	tolerance := line.Amount.Abs().Mul(percentage)
	if tolerance.IsZero() {
		return 0.0
	}

	difference := line.Amount.Sub(tx.Amount).Abs()
	if difference.LessThanOrEqual(tolerance) {
		// Linear decay based on difference relative to tolerance
		diffRatio := difference.Div(tolerance).InexactFloat64()
		return math.Max(0.0, 1.0-diffRatio)
	}

	return 0.0
}

func scoreDate(lineDate, txDate time.Time, toleranceDays int) float64 {
	days := models.DaysBetween(lineDate, txDate)

	if toleranceDays == 0 {
		if days == 0 {
			return 1.0
		}
		return 0.0
	}

	if days > toleranceDays {
		return 0.0
	}

	return math.Max(0.0, 1.0-float64(days)/float64(toleranceDays+1))
}

func scoreReference(line *models.StatementLine, tx *models.LedgerTransaction) float64 {
	if line.Reference != "" {
		if strings.EqualFold(line.Reference, tx.ID) {
			return 1.0
		}
		if tx.Description != "" && strings.Contains(strings.ToLower(tx.Description), strings.ToLower(line.Reference)) {
			return 1.0
		}
	}

	if line.Description != "" && tx.Description != "" &&
		strings.EqualFold(strings.TrimSpace(line.Description), strings.TrimSpace(tx.Description)) {
		return 1.0
	}

	return 0.0
}

func matchReasons(amountScore, dateScore, referenceScore float64) []string {
	var reasons []string

	if amountScore == 1.0 {
		reasons = append(reasons, "Exact amount match")
	} else if amountScore > 0.0 {
		reasons = append(reasons, "Amount within tolerance")
	}

	if dateScore == 1.0 {
		reasons = append(reasons, "Same date")
	} else if dateScore > 0.0 {
		reasons = append(reasons, "Date within tolerance")
	}

	if referenceScore == 1.0 {
		reasons = append(reasons, "Reference match")
	}

	return reasons
}
