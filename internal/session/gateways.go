package session

import (
	"context"
	"time"

	"golang-reconciliation-session/internal/models"
)

// LedgerGateway fetches the ledger transactions for a session scope. The
// core consumes it read-only; it never mutates ledger records directly.
type LedgerGateway interface {
	FetchLedgerTransactions(ctx context.Context, accountID string, r models.DateRange) ([]*models.LedgerTransaction, error)
}

// StatementSource supplies the statement lines for a session scope, e.g.
// from an uploaded file or a banking API.
type StatementSource interface {
	FetchStatementLines(ctx context.Context, accountID string, r models.DateRange) ([]*models.StatementLine, error)
}

// Committer persists the outcome of a finalized session: the listed
// transaction ids are to be marked reconciled by the owning ledger system.
type Committer interface {
	CommitReconciliation(ctx context.Context, accountID string, transactionIDs []string, finalizedAt time.Time) error
}

// Gateways bundles the external collaborators a session depends on.
type Gateways struct {
	Ledger     LedgerGateway
	Statements StatementSource
	Committer  Committer
}
