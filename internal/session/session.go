// Package session implements the reconciliation session lifecycle: loading
// candidates from the external gateways, driving match operations against
// the match set, reviewing imbalance, and committing the finalized result.
//
// The lifecycle is:
//
//	ScopeSelection → Loading → Matching → ReviewImbalance → CommitPending → Finalized
//
// with a Matching self-loop on every match/unmatch action, a balanced fast
// path from Matching straight to CommitPending, and an Aborted terminal
// state reachable from any non-Finalized state. CommitPending exists so a
// rejected commit keeps the matching result and stays retryable without
// re-matching.
//
// A session is single-writer: one mutex serializes all operations.
// Independent sessions share no state and may run concurrently.
package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang-reconciliation-session/internal/calculator"
	"golang-reconciliation-session/internal/matchset"
	"golang-reconciliation-session/internal/models"
	apperrors "golang-reconciliation-session/pkg/errors"
	"golang-reconciliation-session/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// State identifies a position in the session lifecycle.
type State string

const (
	StateScopeSelection  State = "ScopeSelection"
	StateLoading         State = "Loading"
	StateMatching        State = "Matching"
	StateReviewImbalance State = "ReviewImbalance"
	StateCommitPending   State = "CommitPending"
	StateFinalized       State = "Finalized"
	StateAborted         State = "Aborted"
)

// FinishOutcome reports which path the finish action took.
type FinishOutcome string

const (
	// OutcomeBalanced means the session was within tolerance and moved
	// straight to CommitPending without an extra confirmation step.
	OutcomeBalanced FinishOutcome = "balanced"

	// OutcomeImbalance means the session entered ReviewImbalance and
	// requires an explicit confirmation or a return to matching.
	OutcomeImbalance FinishOutcome = "imbalance"
)

// Scope fixes the account and date range a session reconciles.
type Scope struct {
	AccountID string           `json:"account_id"`
	Range     models.DateRange `json:"range"`
}

// Validate checks that the scope is fully specified.
func (s Scope) Validate() error {
	if s.AccountID == "" {
		return apperrors.ValidationError(apperrors.CodeMissingField, "account_id", s.AccountID, nil)
	}
	if err := s.Range.Validate(); err != nil {
		return apperrors.ValidationError(apperrors.CodeInvalidDate, "range", s.Range.String(), err)
	}
	return nil
}

// Session aggregates the scope, the loaded candidates, the match set, the
// user-entered statement ending balance, and the lifecycle state. It owns
// its MatchSet exclusively.
type Session struct {
	mu sync.Mutex

	id       string
	scope    Scope
	gateways Gateways
	config   Config
	log      logger.Logger

	state        State
	lines        []*models.StatementLine
	transactions []*models.LedgerTransaction
	matches      *matchset.MatchSet

	endingBalance    decimal.Decimal
	endingBalanceSet bool
	finalizedAt      time.Time
}

// NewSession creates a session in ScopeSelection for the given scope.
func NewSession(scope Scope, gateways Gateways, config Config) (*Session, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if gateways.Ledger == nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeMissingConfig, "ledger_gateway", nil, nil)
	}

	if gateways.Statements == nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeMissingConfig, "statement_source", nil, nil)
	}

	id := uuid.NewString()

	return &Session{
		id:       id,
		scope:    scope,
		gateways: gateways,
		config:   config,
		log: logger.WithComponent("session").
			WithField("session_id", id).
			WithField("account_id", scope.AccountID),
		state: StateScopeSelection,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Scope returns the session scope.
func (s *Session) Scope() Scope {
	return s.scope
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Load fetches statement lines and ledger transactions for the scope and
// enters Matching. On a fetch failure the session stays in Loading and Load
// may be retried or the session aborted. Empty candidate lists are valid.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateScopeSelection && s.state != StateLoading {
		return apperrors.TransitionError(apperrors.CodeInvalidTransition, string(s.state), "load")
	}

	s.state = StateLoading

	transactions, err := s.gateways.Ledger.FetchLedgerTransactions(ctx, s.scope.AccountID, s.scope.Range)
	if err != nil {
		return apperrors.FetchError("ledger gateway", s.scope.AccountID, err)
	}

	lines, err := s.gateways.Statements.FetchStatementLines(ctx, s.scope.AccountID, s.scope.Range)
	if err != nil {
		return apperrors.FetchError("statement source", s.scope.AccountID, err)
	}

	if err := validateCandidates(lines, transactions); err != nil {
		return err
	}

	s.lines = lines
	s.transactions = transactions
	s.matches = matchset.NewMatchSet(lines, transactions, s.config.AllowOverwriteOnRematch)
	s.state = StateMatching

	s.log.WithFields(logger.Fields{
		"statement_lines": len(lines),
		"transactions":    len(transactions),
	}).Info("session candidates loaded")

	return nil
}

func validateCandidates(lines []*models.StatementLine, transactions []*models.LedgerTransaction) error {
	seenLines := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if err := line.Validate(); err != nil {
			return apperrors.ValidationError(apperrors.CodeMissingField, "statement_line", line.ID, err)
		}
		if _, dup := seenLines[line.ID]; dup {
			return apperrors.ValidationError(apperrors.CodeInvalidData, "statement_line", line.ID, nil).
				WithSuggestion("statement line ids must be unique within a session scope")
		}
		seenLines[line.ID] = struct{}{}
	}

	seenTxs := make(map[string]struct{}, len(transactions))
	for _, tx := range transactions {
		if err := tx.Validate(); err != nil {
			return apperrors.ValidationError(apperrors.CodeMissingField, "transaction", tx.ID, err)
		}
		if _, dup := seenTxs[tx.ID]; dup {
			return apperrors.ValidationError(apperrors.CodeInvalidData, "transaction", tx.ID, nil).
				WithSuggestion("transaction ids must be unique within a session scope")
		}
		seenTxs[tx.ID] = struct{}{}
	}

	return nil
}

// Propose matches a statement line with a ledger transaction. Only valid
// while Matching; the state machine self-loops.
func (s *Session) Propose(statementLineID, transactionID string, confidence float64) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateMatching {
		return nil, apperrors.TransitionError(apperrors.CodeInvalidTransition, string(s.state), "propose")
	}

	return s.matches.Propose(statementLineID, transactionID, confidence)
}

// Remove deletes the given match edge if it exists exactly as given.
func (s *Session) Remove(statementLineID, transactionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateMatching {
		return false, apperrors.TransitionError(apperrors.CodeInvalidTransition, string(s.state), "remove")
	}

	return s.matches.Remove(statementLineID, transactionID), nil
}

// SetStatementEndingBalance records the user-entered statement ending
// balance used by the finish guard and the difference calculation.
func (s *Session) SetStatementEndingBalance(balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateMatching {
		return apperrors.TransitionError(apperrors.CodeInvalidTransition, string(s.state), "set ending balance")
	}

	s.endingBalance = balance
	s.endingBalanceSet = true
	return nil
}

// Suggest scores automatic match candidates over the currently unmatched
// lines and transactions. Suggestions do not mutate the session.
func (s *Session) Suggest(config *matchset.SuggestConfig) ([]*matchset.Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateMatching {
		return nil, apperrors.TransitionError(apperrors.CodeInvalidTransition, string(s.state), "suggest")
	}

	lines := calculator.UnmatchedStatementLines(s.lines, s.matches.MatchedStatementIDs())
	transactions := calculator.UnmatchedTransactions(s.transactions, s.matches.MatchedTransactionIDs())
	return matchset.SuggestMatches(lines, transactions, config), nil
}

// AutoMatch applies the current suggestions in rank order and returns the
// number of matches created.
func (s *Session) AutoMatch(config *matchset.SuggestConfig) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateMatching {
		return 0, apperrors.TransitionError(apperrors.CodeInvalidTransition, string(s.state), "auto-match")
	}

	lines := calculator.UnmatchedStatementLines(s.lines, s.matches.MatchedStatementIDs())
	transactions := calculator.UnmatchedTransactions(s.transactions, s.matches.MatchedTransactionIDs())
	suggestions := matchset.SuggestMatches(lines, transactions, config)

	applied := matchset.Apply(s.matches, suggestions)
	s.log.WithField("applied", applied).Debug("auto-match applied suggestions")
	return applied, nil
}

// Finish triggers the review of the matching result. Guards: the session
// must be Matching, the ending balance must have been set, at least one
// statement line must exist, and full line coverage when required by
// policy. A balanced session proceeds straight to CommitPending; an
// imbalanced one enters ReviewImbalance and needs explicit confirmation.
func (s *Session) Finish() (FinishOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateMatching {
		return "", apperrors.TransitionError(apperrors.CodeInvalidTransition, string(s.state), "finish")
	}

	if !s.endingBalanceSet {
		return "", apperrors.TransitionError(apperrors.CodeGuardUnmet, string(s.state), "finish").
			WithContext("reason", "statement ending balance not set")
	}

	if len(s.lines) == 0 {
		return "", apperrors.TransitionError(apperrors.CodeGuardUnmet, string(s.state), "finish").
			WithContext("reason", "no statement lines in scope")
	}

	if s.config.RequireAllLinesMatched {
		if unmatched := calculator.UnmatchedStatementLines(s.lines, s.matches.MatchedStatementIDs()); len(unmatched) > 0 {
			return "", apperrors.TransitionError(apperrors.CodeGuardUnmet, string(s.state), "finish").
				WithContext("reason", "unmatched statement lines remain").
				WithContext("unmatched", len(unmatched))
		}
	}

	difference := s.difference()
	if calculator.IsBalanced(difference, s.config.ToleranceCents) {
		s.state = StateCommitPending
		s.log.WithField("difference", difference.String()).Info("session balanced, ready to commit")
		return OutcomeBalanced, nil
	}

	s.state = StateReviewImbalance
	s.log.WithField("difference", difference.String()).Warn("session imbalanced, review required")
	return OutcomeImbalance, nil
}

// ConfirmImbalance accepts the imbalance and proceeds toward finalization.
func (s *Session) ConfirmImbalance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReviewImbalance {
		return apperrors.TransitionError(apperrors.CodeInvalidTransition, string(s.state), "confirm imbalance")
	}

	s.state = StateCommitPending
	return nil
}

// Reopen returns an imbalanced session to Matching for further work.
func (s *Session) Reopen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReviewImbalance {
		return apperrors.TransitionError(apperrors.CodeInvalidTransition, string(s.state), "reopen")
	}

	s.state = StateMatching
	return nil
}

// Commit emits the final matched-transaction-id list to the committer. On
// rejection the session stays in CommitPending with the matching result
// intact, so the commit is retryable without re-matching.
func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCommitPending {
		return apperrors.TransitionError(apperrors.CodeInvalidTransition, string(s.state), "commit")
	}

	if s.gateways.Committer == nil {
		return apperrors.ConfigurationError(apperrors.CodeMissingConfig, "committer", nil, nil)
	}

	ids := s.matchedTransactionIDList()
	finalizedAt := time.Now().UTC()

	if err := s.gateways.Committer.CommitReconciliation(ctx, s.scope.AccountID, ids, finalizedAt); err != nil {
		return apperrors.CommitError(s.scope.AccountID, err)
	}

	s.finalizedAt = finalizedAt
	s.state = StateFinalized

	s.log.WithField("transactions", len(ids)).Info("reconciliation committed")
	return nil
}

// Abort discards the session. Valid from any state except Finalized; no
// external calls are made.
func (s *Session) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateFinalized {
		return apperrors.TransitionError(apperrors.CodeSessionClosed, string(s.state), "abort")
	}

	s.state = StateAborted
	return nil
}

// StatementLines returns the loaded statement lines.
func (s *Session) StatementLines() []*models.StatementLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines
}

// Transactions returns the loaded ledger transactions.
func (s *Session) Transactions() []*models.LedgerTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transactions
}

// Matches returns a snapshot of the current matches.
func (s *Session) Matches() []*models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.matches == nil {
		return nil
	}
	return s.matches.Matches()
}

// MatchedBalance returns the sum of amounts over the matched transactions.
func (s *Session) MatchedBalance() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.matches == nil {
		return decimal.Zero
	}
	return calculator.MatchedLedgerBalance(s.transactions, s.matches.MatchedTransactionIDs())
}

// Difference returns statement ending balance minus matched balance. The
// second return value reports whether the ending balance has been set.
func (s *Session) Difference() (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.endingBalanceSet {
		return decimal.Zero, false
	}
	return s.difference(), true
}

func (s *Session) difference() decimal.Decimal {
	matched := calculator.MatchedLedgerBalance(s.transactions, s.matches.MatchedTransactionIDs())
	return calculator.Difference(s.endingBalance, matched)
}

// UnmatchedLines returns the statement lines not currently matched.
func (s *Session) UnmatchedLines() []*models.StatementLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.matches == nil {
		return nil
	}
	return calculator.UnmatchedStatementLines(s.lines, s.matches.MatchedStatementIDs())
}

// UnmatchedTransactions returns the ledger transactions not currently matched.
func (s *Session) UnmatchedTransactions() []*models.LedgerTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.matches == nil {
		return nil
	}
	return calculator.UnmatchedTransactions(s.transactions, s.matches.MatchedTransactionIDs())
}

// Result captures the session outcome for reporting.
type Result struct {
	SessionID             string                      `json:"session_id"`
	AccountID             string                      `json:"account_id"`
	Range                 models.DateRange            `json:"range"`
	State                 State                       `json:"state"`
	Summary               calculator.Summary          `json:"summary"`
	Matches               []*models.Match             `json:"matches"`
	UnmatchedLines        []*models.StatementLine     `json:"unmatched_lines,omitempty"`
	UnmatchedTransactions []*models.LedgerTransaction `json:"unmatched_transactions,omitempty"`
	FinalizedAt           time.Time                   `json:"finalized_at,omitempty"`
}

// Result builds the current session outcome snapshot.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := &Result{
		SessionID: s.id,
		AccountID: s.scope.AccountID,
		Range:     s.scope.Range,
		State:     s.state,
	}

	if s.matches == nil {
		return result
	}

	matchedLines := s.matches.MatchedStatementIDs()
	matchedTxs := s.matches.MatchedTransactionIDs()

	result.Summary = calculator.BuildSummary(
		s.lines, s.transactions, matchedLines, matchedTxs,
		s.endingBalance, s.config.ToleranceCents)
	result.Matches = s.matches.Matches()
	result.UnmatchedLines = calculator.UnmatchedStatementLines(s.lines, matchedLines)
	result.UnmatchedTransactions = calculator.UnmatchedTransactions(s.transactions, matchedTxs)
	result.FinalizedAt = s.finalizedAt

	return result
}

func (s *Session) matchedTransactionIDList() []string {
	ids := make([]string, 0, s.matches.Len())
	for id := range s.matches.MatchedTransactionIDs() {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
