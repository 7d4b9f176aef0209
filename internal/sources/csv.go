// Package sources provides file-backed implementations of the session
// gateways: a CSV ledger gateway, a CSV statement source, and a CSV journal
// committer. The CLI wires these in; library callers supply their own
// gateway implementations.
//
// The parsers tolerate the column-name variations found in real bank
// exports through a configurable alias table, and report row-level failures
// with file and line context.
package sources

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang-reconciliation-session/internal/models"
	apperrors "golang-reconciliation-session/pkg/errors"
	"golang-reconciliation-session/pkg/logger"
)

// CSVConfig describes the column layout of a CSV-backed source.
type CSVConfig struct {
	IDColumn          string            `json:"id_column"`
	DateColumn        string            `json:"date_column"`
	AmountColumn      string            `json:"amount_column"`
	DescriptionColumn string            `json:"description_column"`
	ReferenceColumn   string            `json:"reference_column"`
	HasHeader         bool              `json:"has_header"`
	Delimiter         rune              `json:"delimiter"`
	ColumnAliases     map[string]string `json:"column_aliases"`
}

// DefaultLedgerCSVConfig returns the column layout expected for ledger
// transaction exports.
func DefaultLedgerCSVConfig() *CSVConfig {
	return &CSVConfig{
		IDColumn:          "id",
		DateColumn:        "date",
		AmountColumn:      "amount",
		DescriptionColumn: "description",
		HasHeader:         true,
		Delimiter:         ',',
		ColumnAliases: map[string]string{
			"tx_id":          "id",
			"txn_id":         "id",
			"transaction_id": "id",
			"amt":            "amount",
			"value":          "amount",
			"memo":           "description",
			"narrative":      "description",
			"posting_date":   "date",
			"value_date":     "date",
		},
	}
}

// DefaultStatementCSVConfig returns the column layout expected for bank
// statement exports.
func DefaultStatementCSVConfig() *CSVConfig {
	return &CSVConfig{
		IDColumn:          "id",
		DateColumn:        "date",
		AmountColumn:      "amount",
		DescriptionColumn: "description",
		ReferenceColumn:   "reference",
		HasHeader:         true,
		Delimiter:         ',',
		ColumnAliases: map[string]string{
			"line_id":        "id",
			"statement_id":   "id",
			"identifier":     "id",
			"amt":            "amount",
			"value":          "amount",
			"narrative":      "description",
			"ref":            "reference",
			"external_ref":   "reference",
			"statement_date": "date",
			"posting_date":   "date",
		},
	}
}

// Validate checks if the CSV configuration is valid.
func (c *CSVConfig) Validate() error {
	if strings.TrimSpace(c.IDColumn) == "" {
		return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "id_column", c.IDColumn, nil)
	}
	if strings.TrimSpace(c.DateColumn) == "" {
		return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "date_column", c.DateColumn, nil)
	}
	if strings.TrimSpace(c.AmountColumn) == "" {
		return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "amount_column", c.AmountColumn, nil)
	}
	if c.Delimiter == 0 {
		return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "delimiter", c.Delimiter, nil)
	}
	return nil
}

// row is one parsed CSV record with the columns resolved by name.
type row struct {
	line   int
	fields map[string]string
}

func (r row) get(column string) string {
	return strings.TrimSpace(r.fields[column])
}

// readRows loads the file and maps every record's fields to canonical
// column names via the header and alias table.
func readRows(ctx context.Context, path string, config *CSVConfig) ([]row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryParse, apperrors.CodeInvalidData,
			fmt.Sprintf("cannot open %s", path))
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = config.Delimiter
	reader.TrimLeadingSpace = true

	var header []string
	if config.HasHeader {
		record, err := reader.Read()
		if err != nil {
			return nil, apperrors.ParseError(apperrors.CodeInvalidFormat, path, 1, "", "", err)
		}
		header = canonicalizeHeader(record, config)
	}

	var rows []row
	lineNo := 1
	for {
		select {
		case <-ctx.Done():
			return nil, apperrors.Wrap(ctx.Err(), apperrors.CategoryFetch, apperrors.CodeFetchTimeout,
				fmt.Sprintf("reading %s cancelled", path))
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.ParseError(apperrors.CodeInvalidFormat, path, lineNo+1, "", "", err)
		}
		lineNo++

		if isEmptyRecord(record) {
			continue
		}

		fields := make(map[string]string, len(record))
		if header != nil {
			for i, name := range header {
				if i < len(record) {
					fields[name] = record[i]
				}
			}
		} else {
			for i, value := range record {
				fields[fmt.Sprintf("col%d", i)] = value
			}
		}

		rows = append(rows, row{line: lineNo, fields: fields})
	}

	return rows, nil
}

func canonicalizeHeader(record []string, config *CSVConfig) []string {
	header := make([]string, len(record))
	for i, name := range record {
		name = strings.ToLower(strings.TrimSpace(name))
		if canonical, ok := config.ColumnAliases[name]; ok {
			name = canonical
		}
		header[i] = name
	}
	return header
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// requireColumns verifies that the mandatory columns appeared in the header.
func requireColumns(path string, rows []row, columns ...string) error {
	if len(rows) == 0 {
		return nil
	}

	for _, column := range columns {
		if _, ok := rows[0].fields[column]; !ok {
			return apperrors.ParseError(apperrors.CodeMissingColumn, path, 1, column, "", nil)
		}
	}
	return nil
}

// CSVLedgerGateway implements session.LedgerGateway over a transactions CSV
// file. The account id is informational only: the file is assumed to
// contain exactly one account's transactions.
type CSVLedgerGateway struct {
	path   string
	config *CSVConfig
	log    logger.Logger
}

// NewCSVLedgerGateway creates a ledger gateway reading from path.
func NewCSVLedgerGateway(path string, config *CSVConfig) (*CSVLedgerGateway, error) {
	if config == nil {
		config = DefaultLedgerCSVConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &CSVLedgerGateway{
		path:   path,
		config: config,
		log:    logger.WithComponent("csv_ledger_gateway"),
	}, nil
}

// FetchLedgerTransactions reads, parses, and range-filters the ledger file.
func (g *CSVLedgerGateway) FetchLedgerTransactions(ctx context.Context, accountID string, r models.DateRange) ([]*models.LedgerTransaction, error) {
	rows, err := readRows(ctx, g.path, g.config)
	if err != nil {
		return nil, err
	}

	if err := requireColumns(g.path, rows, g.config.IDColumn, g.config.DateColumn, g.config.AmountColumn); err != nil {
		return nil, err
	}

	transactions := make([]*models.LedgerTransaction, 0, len(rows))
	for _, rec := range rows {
		tx, err := g.parseRow(rec)
		if err != nil {
			return nil, err
		}

		if !r.Contains(tx.Date) {
			continue
		}

		transactions = append(transactions, tx)
	}

	g.log.WithFields(logger.Fields{
		"file":         g.path,
		"account_id":   accountID,
		"transactions": len(transactions),
	}).Debug("ledger transactions fetched")

	return transactions, nil
}

func (g *CSVLedgerGateway) parseRow(rec row) (*models.LedgerTransaction, error) {
	id := rec.get(g.config.IDColumn)
	if id == "" {
		return nil, apperrors.ParseError(apperrors.CodeInvalidData, g.path, rec.line, g.config.IDColumn, "", nil)
	}

	date, err := models.ParseDate(rec.get(g.config.DateColumn))
	if err != nil {
		return nil, apperrors.ParseError(apperrors.CodeInvalidData, g.path, rec.line,
			g.config.DateColumn, rec.get(g.config.DateColumn), err)
	}

	amount, err := models.ParseAmount(rec.get(g.config.AmountColumn))
	if err != nil {
		return nil, apperrors.ParseError(apperrors.CodeInvalidData, g.path, rec.line,
			g.config.AmountColumn, rec.get(g.config.AmountColumn), err)
	}

	return models.NewLedgerTransaction(id, date, rec.get(g.config.DescriptionColumn), amount), nil
}

// CSVStatementSource implements session.StatementSource over a statement
// CSV file.
type CSVStatementSource struct {
	path   string
	config *CSVConfig
	log    logger.Logger
}

// NewCSVStatementSource creates a statement source reading from path.
func NewCSVStatementSource(path string, config *CSVConfig) (*CSVStatementSource, error) {
	if config == nil {
		config = DefaultStatementCSVConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &CSVStatementSource{
		path:   path,
		config: config,
		log:    logger.WithComponent("csv_statement_source"),
	}, nil
}

// FetchStatementLines reads, parses, and range-filters the statement file.
func (s *CSVStatementSource) FetchStatementLines(ctx context.Context, accountID string, r models.DateRange) ([]*models.StatementLine, error) {
	rows, err := readRows(ctx, s.path, s.config)
	if err != nil {
		return nil, err
	}

	if err := requireColumns(s.path, rows, s.config.IDColumn, s.config.DateColumn, s.config.AmountColumn); err != nil {
		return nil, err
	}

	lines := make([]*models.StatementLine, 0, len(rows))
	for _, rec := range rows {
		line, err := s.parseRow(rec)
		if err != nil {
			return nil, err
		}

		if !r.Contains(line.Date) {
			continue
		}

		lines = append(lines, line)
	}

	s.log.WithFields(logger.Fields{
		"file":       s.path,
		"account_id": accountID,
		"lines":      len(lines),
	}).Debug("statement lines fetched")

	return lines, nil
}

func (s *CSVStatementSource) parseRow(rec row) (*models.StatementLine, error) {
	id := rec.get(s.config.IDColumn)
	if id == "" {
		return nil, apperrors.ParseError(apperrors.CodeInvalidData, s.path, rec.line, s.config.IDColumn, "", nil)
	}

	date, err := models.ParseDate(rec.get(s.config.DateColumn))
	if err != nil {
		return nil, apperrors.ParseError(apperrors.CodeInvalidData, s.path, rec.line,
			s.config.DateColumn, rec.get(s.config.DateColumn), err)
	}

	amount, err := models.ParseAmount(rec.get(s.config.AmountColumn))
	if err != nil {
		return nil, apperrors.ParseError(apperrors.CodeInvalidData, s.path, rec.line,
			s.config.AmountColumn, rec.get(s.config.AmountColumn), err)
	}

	line := models.NewStatementLine(id, date, rec.get(s.config.DescriptionColumn), amount)
	line.Reference = rec.get(s.config.ReferenceColumn)
	return line, nil
}
