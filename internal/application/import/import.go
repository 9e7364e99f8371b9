// Package importapp implements the spreadsheet importers and exporters for
// claims, students and activity types. Every row runs in its own
// transaction; row problems are reported in the result, never returned.
package importapp

import (
	"context"
	"errors"
	"strings"

	"github.com/poinmhs/backend/internal/domain/shared"
	csvimport "github.com/poinmhs/backend/internal/infrastructure/import"
	"github.com/poinmhs/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Entity names used in logs and metrics
const (
	EntityClaim        = "claim"
	EntityStudent      = "student"
	EntityActivityType = "activity_type"
)

const defaultMaxErrors = 500

// ImportResult summarises a bulk import
type ImportResult struct {
	TotalRows        int                  `json:"total_rows"`
	Inserted         int                  `json:"inserted"`
	SkippedDuplicate int                  `json:"skipped_duplicate"`
	SkippedEmpty     int                  `json:"skipped_empty"`
	Failed           int                  `json:"failed"`
	Errors           []csvimport.RowError `json:"errors"`
	IsTruncated      bool                 `json:"is_truncated,omitempty"`
	TotalErrors      int                  `json:"total_errors,omitempty"`
	Cancelled        bool                 `json:"cancelled,omitempty"`
}

// Counts returns the row tallies of the result
func (r *ImportResult) Counts() telemetry.ImportCounts {
	return telemetry.ImportCounts{
		Inserted:         r.Inserted,
		SkippedDuplicate: r.SkippedDuplicate,
		SkippedEmpty:     r.SkippedEmpty,
		Failed:           r.Failed,
		Cancelled:        r.Cancelled,
	}
}

// Metrics receives import outcomes
type Metrics interface {
	RecordImport(ctx context.Context, entity string, counts telemetry.ImportCounts)
}

type nopMetrics struct{}

func (nopMetrics) RecordImport(context.Context, string, telemetry.ImportCounts) {}

// DecodeSheet reads an uploaded workbook, turning decoder failures into
// validation errors the caller can show to the user
func DecodeSheet(filename string, data []byte, maxRows int) (*csvimport.Sheet, error) {
	sheet, err := csvimport.ReadSheet(filename, data, maxRows)
	if err == nil {
		return sheet, nil
	}
	switch {
	case errors.Is(err, csvimport.ErrEmptyFile):
		return nil, shared.NewValidationError("file is empty")
	case errors.Is(err, csvimport.ErrNoDataRows):
		return nil, shared.NewValidationError("file contains no data rows")
	case errors.Is(err, csvimport.ErrMissingHeader):
		return nil, shared.NewValidationError("file has no header row")
	case errors.Is(err, csvimport.ErrFileTooLarge):
		return nil, shared.NewValidationError("file has more than %d rows", maxRows)
	case errors.Is(err, csvimport.ErrUnsupportedFormat):
		return nil, shared.NewValidationError("unsupported file format, use .xlsx or .csv")
	case errors.Is(err, csvimport.ErrInvalidEncoding):
		return nil, shared.NewValidationError("csv file must be UTF-8 encoded")
	default:
		return nil, shared.NewValidationError("file could not be read: %s", err.Error())
	}
}

func requireHeaders(sheet *csvimport.Sheet, required ...string) error {
	if sheet == nil || len(sheet.Rows) == 0 {
		return shared.NewValidationError("file contains no data rows")
	}
	if missing := sheet.MissingHeaders(required...); len(missing) > 0 {
		return shared.NewValidationError("missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

type rowOutcome int

const (
	outcomeInserted rowOutcome = iota
	outcomeDuplicate
	outcomeEmpty
	outcomeFailed
)

// rowProblem ends a row without inserting it. Returned from inside a row
// transaction it also rolls that row back.
type rowProblem struct {
	outcome rowOutcome
	detail  csvimport.RowError
}

func (p *rowProblem) Error() string { return p.detail.Error() }

func duplicateRow(line int, code, reason string) *rowProblem {
	return &rowProblem{outcome: outcomeDuplicate, detail: csvimport.NewRowError(line, "", code, reason)}
}

func emptyRow(line int, reason string) *rowProblem {
	return &rowProblem{outcome: outcomeEmpty, detail: csvimport.NewRowError(line, "", csvimport.ErrCodeImportEmptyRow, reason)}
}

func failedRow(line int, column, code, reason string) *rowProblem {
	return &rowProblem{outcome: outcomeFailed, detail: csvimport.NewRowError(line, column, code, reason)}
}

func invalidValue(line int, column, reason, value string) *rowProblem {
	return &rowProblem{
		outcome: outcomeFailed,
		detail:  csvimport.NewRowErrorWithValue(line, column, csvimport.ErrCodeImportInvalidFormat, reason, value),
	}
}

// rowKeys are the identifying fields echoed back in row errors
type rowKeys struct {
	nim     string
	kodeKeg string
}

// batch accumulates the outcome of each row
type batch struct {
	entity string
	result *ImportResult
	errors *csvimport.ErrorCollection
	logger *zap.Logger
}

func newBatch(entity string, total, maxErrors int, logger *zap.Logger) *batch {
	return &batch{
		entity: entity,
		result: &ImportResult{TotalRows: total},
		errors: csvimport.NewErrorCollection(maxErrors),
		logger: logger,
	}
}

// run processes rows in order. fn returns nil when the row was inserted, a
// *rowProblem for a reportable skip or failure, or any other error for an
// unexpected failure. Cancellation before the first row fails the batch;
// later cancellation stops early and keeps the committed rows.
func (b *batch) run(ctx context.Context, rows []*csvimport.Row, fn func(ctx context.Context, row *csvimport.Row) (rowKeys, error)) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "import", b.entity, attribute.Int("import.rows", len(rows)))
	defer func() { telemetry.EndSpan(span, err) }()

	for i, row := range rows {
		if cerr := ctx.Err(); cerr != nil {
			if i == 0 {
				return cerr
			}
			b.result.Cancelled = true
			b.logger.Warn("Import cancelled",
				zap.String("entity", b.entity),
				zap.Int("processed", i),
				zap.Int("total", len(rows)))
			break
		}

		if row.IsEmpty() {
			b.result.SkippedEmpty++
			continue
		}

		keys, rowErr := fn(ctx, row)
		b.record(row.LineNumber, keys, rowErr)
	}
	return nil
}

func (b *batch) record(line int, keys rowKeys, err error) {
	if err == nil {
		b.result.Inserted++
		return
	}

	var problem *rowProblem
	if !errors.As(err, &problem) {
		problem = failedRow(line, "", csvimport.ErrCodeImportRowFailed, "failed to import row")
		var de *shared.DomainError
		if errors.As(err, &de) {
			problem.detail.Code = csvimport.ErrCodeImportValidation
			problem.detail.Message = de.Message
		} else {
			b.logger.Warn("Import row failed",
				zap.String("entity", b.entity),
				zap.Int("row", line),
				zap.Error(err))
		}
	}

	switch problem.outcome {
	case outcomeDuplicate:
		b.result.SkippedDuplicate++
	case outcomeEmpty:
		b.result.SkippedEmpty++
	default:
		b.result.Failed++
	}
	b.errors.Add(problem.detail.WithKeys(keys.nim, keys.kodeKeg))
}

func (b *batch) finish() *ImportResult {
	b.result.Errors = b.errors.Errors()
	b.result.IsTruncated = b.errors.IsTruncated()
	if b.result.IsTruncated {
		b.result.TotalErrors = b.errors.TotalCount()
	}
	b.logger.Info("Import finished",
		zap.String("entity", b.entity),
		zap.Int("total_rows", b.result.TotalRows),
		zap.Int("inserted", b.result.Inserted),
		zap.Int("skipped_duplicate", b.result.SkippedDuplicate),
		zap.Int("skipped_empty", b.result.SkippedEmpty),
		zap.Int("failed", b.result.Failed))
	return b.result
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func splitAliases(column string) []string {
	return strings.Split(column, "|")
}
