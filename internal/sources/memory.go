package sources

import (
	"context"
	"sync"
	"time"

	"golang-reconciliation-session/internal/models"
)

// MemoryLedgerGateway is an in-memory session.LedgerGateway used in tests
// and demos. It applies the same date-range filtering as the CSV gateway.
type MemoryLedgerGateway struct {
	Transactions []*models.LedgerTransaction
	Err          error
}

// FetchLedgerTransactions returns the in-range subset of the configured
// transactions, or the configured error.
func (g *MemoryLedgerGateway) FetchLedgerTransactions(ctx context.Context, accountID string, r models.DateRange) ([]*models.LedgerTransaction, error) {
	if g.Err != nil {
		return nil, g.Err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var inRange []*models.LedgerTransaction
	for _, tx := range g.Transactions {
		if r.Contains(tx.Date) {
			inRange = append(inRange, tx)
		}
	}
	return inRange, nil
}

// MemoryStatementSource is an in-memory session.StatementSource used in
// tests and demos.
type MemoryStatementSource struct {
	Lines []*models.StatementLine
	Err   error
}

// FetchStatementLines returns the in-range subset of the configured lines,
// or the configured error.
func (s *MemoryStatementSource) FetchStatementLines(ctx context.Context, accountID string, r models.DateRange) ([]*models.StatementLine, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var inRange []*models.StatementLine
	for _, line := range s.Lines {
		if r.Contains(line.Date) {
			inRange = append(inRange, line)
		}
	}
	return inRange, nil
}

// CommitRecord captures one acknowledged commit.
type CommitRecord struct {
	AccountID      string
	TransactionIDs []string
	FinalizedAt    time.Time
}

// MemoryCommitter is an in-memory session.Committer that records
// acknowledged commits. Err, when set, rejects the next commit and is then
// cleared so retry behavior can be exercised.
type MemoryCommitter struct {
	mu      sync.Mutex
	Commits []CommitRecord
	Err     error
}

// CommitReconciliation records the commit or returns the configured error.
func (c *MemoryCommitter) CommitReconciliation(ctx context.Context, accountID string, transactionIDs []string, finalizedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Err != nil {
		err := c.Err
		c.Err = nil
		return err
	}

	c.Commits = append(c.Commits, CommitRecord{
		AccountID:      accountID,
		TransactionIDs: transactionIDs,
		FinalizedAt:    finalizedAt,
	})
	return nil
}
