package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang-reconciliation-session/cmd/reconsession/config"
	"golang-reconciliation-session/internal/reporter"
	"golang-reconciliation-session/internal/session"
	"golang-reconciliation-session/internal/sources"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	accountID        string
	ledgerFile       string
	statementFile    string
	startDate        string
	endDate          string
	endingBalance    string
	autoMatch        bool
	minConfidence    float64
	dateTolerance    int
	amountTolerance  float64
	toleranceCents   int64
	noOverwrite      bool
	requireAllLines  bool
	confirmImbalance bool
	outputFormat     string
	outputFile       string
	commitJournal    string
	fetchTimeout     time.Duration
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run a reconciliation session over CSV ledger and statement files",
	Long: `Reconcile loads ledger transactions and statement lines for an account and
date range, matches them (automatically when --auto-match is set), compares
the matched balance against the statement ending balance, and finalizes the
session when balanced.

An imbalanced session stops for review by default; pass --confirm-imbalance
to accept the difference and finalize anyway.

Examples:
  # Balanced run with automatic matching
  reconsession reconcile --account-id checking \
    --ledger-file ledger.csv --statement-file statement.csv \
    --start-date 2024-01-01 --end-date 2024-01-31 \
    --ending-balance 2495.15 --auto-match

  # Strict run: no rematch overwrites, all lines must be matched
  reconsession reconcile --account-id checking \
    --ledger-file ledger.csv --statement-file statement.csv \
    --start-date 2024-01-01 --end-date 2024-01-31 \
    --ending-balance 2495.15 --auto-match --no-overwrite --require-all-lines`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVar(&accountID, "account-id", "", "account to reconcile (required)")
	reconcileCmd.Flags().StringVar(&ledgerFile, "ledger-file", "", "CSV file with ledger transactions (required)")
	reconcileCmd.Flags().StringVar(&statementFile, "statement-file", "", "CSV file with statement lines (required)")
	reconcileCmd.Flags().StringVar(&startDate, "start-date", "", "scope start date, YYYY-MM-DD (required)")
	reconcileCmd.Flags().StringVar(&endDate, "end-date", "", "scope end date, YYYY-MM-DD (required)")
	reconcileCmd.Flags().StringVar(&endingBalance, "ending-balance", "", "statement ending balance (required)")
	reconcileCmd.Flags().BoolVar(&autoMatch, "auto-match", false, "apply automatic match suggestions")
	reconcileCmd.Flags().Float64Var(&minConfidence, "min-confidence", 0.8, "minimum confidence for automatic matches")
	reconcileCmd.Flags().IntVar(&dateTolerance, "date-tolerance", 2, "date tolerance in days for automatic matching")
	reconcileCmd.Flags().Float64Var(&amountTolerance, "amount-tolerance", 0.0, "amount tolerance percentage for automatic matching")
	reconcileCmd.Flags().Int64Var(&toleranceCents, "tolerance-cents", 1, "balance-equality tolerance in cents")
	reconcileCmd.Flags().BoolVar(&noOverwrite, "no-overwrite", false, "reject conflicting matches instead of overwriting")
	reconcileCmd.Flags().BoolVar(&requireAllLines, "require-all-lines", false, "require every statement line to be matched before finishing")
	reconcileCmd.Flags().BoolVar(&confirmImbalance, "confirm-imbalance", false, "finalize even when the session is imbalanced")
	reconcileCmd.Flags().StringVar(&outputFormat, "output-format", "console", "report format: console or json")
	reconcileCmd.Flags().StringVar(&outputFile, "output-file", "", "write the report to a file instead of stdout")
	reconcileCmd.Flags().StringVar(&commitJournal, "commit-journal", "", "CSV journal receiving the finalized transaction ids")
	reconcileCmd.Flags().DurationVar(&fetchTimeout, "fetch-timeout", 30*time.Second, "deadline for loading candidates")

	reconcileCmd.MarkFlagRequired("account-id")
	reconcileCmd.MarkFlagRequired("ledger-file")
	reconcileCmd.MarkFlagRequired("statement-file")
	reconcileCmd.MarkFlagRequired("start-date")
	reconcileCmd.MarkFlagRequired("end-date")
	reconcileCmd.MarkFlagRequired("ending-balance")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	handler := NewCLIErrorHandler()

	sess, balance, err := buildSession()
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting reconciliation session %s\n", sess.ID())
		fmt.Fprintf(os.Stderr, "Account: %s, period: %s\n", accountID, sess.Scope().Range.String())
	}

	loadCtx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	if err := sess.Load(loadCtx); err != nil {
		os.Exit(handler.HandleError(err))
	}

	if autoMatch {
		suggestConfig := config.CreateSuggestConfig(dateTolerance, amountTolerance, minConfidence)
		applied, err := sess.AutoMatch(suggestConfig)
		if err != nil {
			os.Exit(handler.HandleError(err))
		}
		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Auto-match applied %d suggestions\n", applied)
		}
	}

	if err := sess.SetStatementEndingBalance(balance); err != nil {
		os.Exit(handler.HandleError(err))
	}

	outcome, err := sess.Finish()
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	imbalanced := outcome == session.OutcomeImbalance
	if imbalanced {
		if !confirmImbalance {
			if err := writeReport(sess); err != nil {
				os.Exit(handler.HandleError(err))
			}
			difference, _ := sess.Difference()
			fmt.Fprintf(os.Stderr, "Session is imbalanced by %s; re-run with --confirm-imbalance to finalize anyway\n",
				difference.StringFixed(2))
			if err := sess.Abort(); err != nil {
				os.Exit(handler.HandleError(err))
			}
			os.Exit(3)
		}

		if err := sess.ConfirmImbalance(); err != nil {
			os.Exit(handler.HandleError(err))
		}
	}

	commitCtx, cancelCommit := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancelCommit()

	if err := sess.Commit(commitCtx); err != nil {
		os.Exit(handler.HandleError(err))
	}

	return writeReport(sess)
}

func buildSession() (*session.Session, decimal.Decimal, error) {
	scope, err := config.CreateScope(accountID, startDate, endDate)
	if err != nil {
		return nil, decimal.Zero, err
	}

	balance, err := config.ParseEndingBalance(endingBalance)
	if err != nil {
		return nil, decimal.Zero, err
	}

	ledger, err := sources.NewCSVLedgerGateway(ledgerFile, nil)
	if err != nil {
		return nil, decimal.Zero, err
	}

	statements, err := sources.NewCSVStatementSource(statementFile, nil)
	if err != nil {
		return nil, decimal.Zero, err
	}

	gateways := session.Gateways{
		Ledger:     ledger,
		Statements: statements,
		Committer:  config.CreateCommitter(commitJournal),
	}

	sessionConfig := config.CreateSessionConfig(toleranceCents, !noOverwrite, requireAllLines)

	sess, err := session.NewSession(scope, gateways, sessionConfig)
	if err != nil {
		return nil, decimal.Zero, err
	}

	return sess, balance, nil
}

func writeReport(sess *session.Session) error {
	reportConfig := config.CreateReportConfig(outputFormat)

	out := os.Stdout
	if outputFile != "" {
		file, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("cannot create output file %s: %w", outputFile, err)
		}
		defer file.Close()
		out = file
	}

	return reporter.Write(out, sess.Result(), reportConfig)
}
