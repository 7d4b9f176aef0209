package sources

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"

	apperrors "golang-reconciliation-session/pkg/errors"
	"golang-reconciliation-session/pkg/logger"
)

// JournalCommitter implements session.Committer by appending finalized
// reconciliations to a CSV journal file, one row per transaction id. The
// journal gives an inspectable record of what was marked reconciled and
// when.
type JournalCommitter struct {
	mu   sync.Mutex
	path string
	log  logger.Logger
}

// NewJournalCommitter creates a committer writing to the given journal path.
func NewJournalCommitter(path string) *JournalCommitter {
	return &JournalCommitter{
		path: path,
		log:  logger.WithComponent("journal_committer"),
	}
}

// CommitReconciliation appends one journal row per reconciled transaction.
// The write is atomic with respect to other commits through this committer.
func (c *JournalCommitter) CommitReconciliation(ctx context.Context, accountID string, transactionIDs []string, finalizedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryCommit, apperrors.CodeCommitFailed,
			"commit cancelled before writing journal")
	}

	file, err := os.OpenFile(c.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategoryCommit, apperrors.CodeCommitFailed,
			fmt.Sprintf("cannot open journal %s", c.path))
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	timestamp := finalizedAt.UTC().Format(time.RFC3339)
	for _, id := range transactionIDs {
		if err := writer.Write([]string{timestamp, accountID, id}); err != nil {
			return apperrors.Wrap(err, apperrors.CategoryCommit, apperrors.CodeCommitFailed,
				fmt.Sprintf("cannot write journal %s", c.path))
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryCommit, apperrors.CodeCommitFailed,
			fmt.Sprintf("cannot flush journal %s", c.path))
	}

	c.log.WithFields(logger.Fields{
		"account_id":   accountID,
		"transactions": len(transactionIDs),
		"journal":      c.path,
	}).Info("reconciliation journaled")

	return nil
}
