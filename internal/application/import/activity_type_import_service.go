package importapp

import (
	"context"

	"github.com/poinmhs/backend/internal/application/access"
	"github.com/poinmhs/backend/internal/application/transaction"
	"github.com/poinmhs/backend/internal/domain/activity"
	csvimport "github.com/poinmhs/backend/internal/infrastructure/import"
	"go.uber.org/zap"
)

// Master poin sheet columns, matching the export template
const (
	colKodeKeg       = "Kode Keg (WAJIB 4 HURUF)|Kode Keg|kode_keg"
	colJenisKegiatan = "Jenis Kegiatan|jenis_kegiatan"
	colDeskripsi     = "Deskripsi|Posisi|posisi"
	colBobotPoin     = "Bobot Poin|bobot_poin"
)

// ActivityTypeImportService loads master poin entries from a spreadsheet
type ActivityTypeImportService struct {
	tx        transaction.Scope
	metrics   Metrics
	maxErrors int
	logger    *zap.Logger
}

// NewActivityTypeImportService creates a new ActivityTypeImportService
func NewActivityTypeImportService(tx transaction.Scope, logger *zap.Logger) *ActivityTypeImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityTypeImportService{
		tx:        tx,
		metrics:   nopMetrics{},
		maxErrors: defaultMaxErrors,
		logger:    logger,
	}
}

// SetMetrics sets the import metrics recorder
func (s *ActivityTypeImportService) SetMetrics(m Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// Import processes every row of the sheet. Existing codes are skipped.
func (s *ActivityTypeImportService) Import(ctx context.Context, p *access.Principal, sheet *csvimport.Sheet) (*ImportResult, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	if err := requireHeaders(sheet, colKodeKeg, colJenisKegiatan, colDeskripsi, colBobotPoin); err != nil {
		return nil, err
	}

	b := newBatch(EntityActivityType, len(sheet.Rows), s.maxErrors, s.logger)
	err := b.run(ctx, sheet.Rows, func(ctx context.Context, row *csvimport.Row) (rowKeys, error) {
		code := activity.NormalizeCode(csvimport.CleanStringUpper(lookup(row, colKodeKeg)))
		keys := rowKeys{kodeKeg: code}
		category := csvimport.CleanStringUpper(lookup(row, colJenisKegiatan))
		position := csvimport.CleanStringUpper(lookup(row, colDeskripsi))
		rawWeight := lookup(row, colBobotPoin)
		weight, err := csvimport.ParseInt(rawWeight)
		if err != nil {
			return keys, invalidValue(row.LineNumber, "Bobot Poin", "bobot poin must be a whole number", rawWeight)
		}
		if code == "" || category == "" || position == "" || weight == 0 {
			return keys, failedRow(row.LineNumber, "", csvimport.ErrCodeImportRequiredField,
				"kode keg, jenis kegiatan, deskripsi and bobot poin are required")
		}
		return keys, s.importRow(ctx, row.LineNumber, code, category, position, weight)
	})
	if err != nil {
		return nil, err
	}

	result := b.finish()
	s.metrics.RecordImport(ctx, EntityActivityType, result.Counts())
	return result, nil
}

func (s *ActivityTypeImportService) importRow(ctx context.Context, line int, code, category, position string, weight int) error {
	return s.tx.Execute(ctx, func(repos transaction.Repositories) error {
		exists, err := repos.ActivityTypes().ExistsByCode(ctx, code)
		if err != nil {
			return err
		}
		if exists {
			return duplicateRow(line, csvimport.ErrCodeImportDuplicateInDB, "kode keg already exists")
		}
		at, err := activity.NewActivityType(code, category, position, weight)
		if err != nil {
			return err
		}
		return repos.ActivityTypes().Save(ctx, at)
	})
}
