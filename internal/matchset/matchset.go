// Package matchset maintains the bipartite matching between statement lines
// and ledger transactions for one reconciliation session.
//
// The MatchSet is the single source of truth for "is X matched". It owns two
// invariants exclusively:
//
//	A: no two matches share the same statement line id
//	B: no two matches share the same transaction id
//
// Every mutation flows through Propose and Remove, so the structure cannot
// become inconsistent by construction. All input modalities (CLI flags,
// automated suggestions, a future API) route through these two operations.
package matchset

import (
	"sort"

	"golang-reconciliation-session/internal/models"
	apperrors "golang-reconciliation-session/pkg/errors"
)

// MatchSet holds the conflict-free matching for a fixed session scope.
// It is not safe for concurrent use; the owning session serializes access.
type MatchSet struct {
	lines        map[string]*models.StatementLine
	transactions map[string]*models.LedgerTransaction

	byStatement   map[string]*models.Match
	byTransaction map[string]*models.Match

	allowOverwrite bool
}

// NewMatchSet creates a MatchSet scoped to the given statement lines and
// ledger transactions. When allowOverwrite is true, proposing a conflicting
// match silently evicts the prior edge; when false the proposal is rejected.
func NewMatchSet(lines []*models.StatementLine, transactions []*models.LedgerTransaction, allowOverwrite bool) *MatchSet {
	ms := &MatchSet{
		lines:          make(map[string]*models.StatementLine, len(lines)),
		transactions:   make(map[string]*models.LedgerTransaction, len(transactions)),
		byStatement:    make(map[string]*models.Match),
		byTransaction:  make(map[string]*models.Match),
		allowOverwrite: allowOverwrite,
	}

	for _, line := range lines {
		ms.lines[line.ID] = line
	}

	for _, tx := range transactions {
		ms.transactions[tx.ID] = tx
	}

	return ms
}

// Propose creates the edge {statementLineID, transactionID}. Both ids must
// refer to items in the session scope. If either side is already matched,
// the prior edge is evicted when overwrite is enabled, otherwise the
// proposal fails with a match conflict and the set is unchanged.
func (ms *MatchSet) Propose(statementLineID, transactionID string, confidence float64) (*models.Match, error) {
	if _, ok := ms.lines[statementLineID]; !ok {
		return nil, apperrors.UnknownEntityError("statement line", statementLineID)
	}

	if _, ok := ms.transactions[transactionID]; !ok {
		return nil, apperrors.UnknownEntityError("transaction", transactionID)
	}

	match := &models.Match{
		StatementLineID: statementLineID,
		TransactionID:   transactionID,
		Confidence:      clampConfidence(confidence),
	}

	prevByLine := ms.byStatement[statementLineID]
	prevByTx := ms.byTransaction[transactionID]

	if !ms.allowOverwrite {
		if prevByLine != nil && prevByLine.TransactionID != transactionID {
			return nil, apperrors.MatchConflictError("statement line", statementLineID)
		}
		if prevByTx != nil && prevByTx.StatementLineID != statementLineID {
			return nil, apperrors.MatchConflictError("transaction", transactionID)
		}
	}

	// Evict prior edges on both sides before inserting, so invariants A
	// and B hold after the call.
	if prevByLine != nil {
		ms.unlink(prevByLine)
	}
	if prevByTx != nil {
		ms.unlink(prevByTx)
	}

	ms.byStatement[statementLineID] = match
	ms.byTransaction[transactionID] = match

	return match, nil
}

// Remove deletes the edge only if it exists exactly as given and reports
// whether a removal occurred. Removing a missing edge is not an error.
func (ms *MatchSet) Remove(statementLineID, transactionID string) bool {
	match, ok := ms.byStatement[statementLineID]
	if !ok || match.TransactionID != transactionID {
		return false
	}

	ms.unlink(match)
	return true
}

func (ms *MatchSet) unlink(match *models.Match) {
	delete(ms.byStatement, match.StatementLineID)
	delete(ms.byTransaction, match.TransactionID)
}

// MatchForStatement returns the match involving the given statement line.
func (ms *MatchSet) MatchForStatement(statementLineID string) (*models.Match, bool) {
	match, ok := ms.byStatement[statementLineID]
	return match, ok
}

// MatchForTransaction returns the match involving the given transaction.
func (ms *MatchSet) MatchForTransaction(transactionID string) (*models.Match, bool) {
	match, ok := ms.byTransaction[transactionID]
	return match, ok
}

// MatchedStatementIDs returns the set of matched statement line ids.
func (ms *MatchSet) MatchedStatementIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(ms.byStatement))
	for id := range ms.byStatement {
		ids[id] = struct{}{}
	}
	return ids
}

// MatchedTransactionIDs returns the set of matched transaction ids.
func (ms *MatchSet) MatchedTransactionIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(ms.byTransaction))
	for id := range ms.byTransaction {
		ids[id] = struct{}{}
	}
	return ids
}

// Matches returns a snapshot of all current matches, ordered by statement
// line id for deterministic output.
func (ms *MatchSet) Matches() []*models.Match {
	matches := make([]*models.Match, 0, len(ms.byStatement))
	for _, match := range ms.byStatement {
		matches = append(matches, match)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].StatementLineID < matches[j].StatementLineID
	})

	return matches
}

// Len returns the number of current matches.
func (ms *MatchSet) Len() int {
	return len(ms.byStatement)
}

// InScope reports whether both ids refer to items in the session scope.
func (ms *MatchSet) InScope(statementLineID, transactionID string) bool {
	_, lineOK := ms.lines[statementLineID]
	_, txOK := ms.transactions[transactionID]
	return lineOK && txOK
}

func clampConfidence(confidence float64) float64 {
	if confidence < 0.0 {
		return 0.0
	}
	if confidence > 1.0 {
		return 1.0
	}
	return confidence
}
