package importapp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/poinmhs/backend/internal/application/access"
	"github.com/poinmhs/backend/internal/application/ledger"
	"github.com/poinmhs/backend/internal/application/transaction"
	"github.com/poinmhs/backend/internal/domain/activity"
	"github.com/poinmhs/backend/internal/domain/claim"
	"github.com/poinmhs/backend/internal/domain/shared"
	"github.com/poinmhs/backend/internal/domain/student"
	csvimport "github.com/poinmhs/backend/internal/infrastructure/import"
	"go.uber.org/zap"
)

// Claim sheet columns. Alternatives are separated by "|".
const (
	colNIM            = "NIM"
	colKodeKegiatan   = "Kode Kegiatan|Kode Keg|kode_keg"
	colStatus         = "Status"
	colTglPengajuan   = "Tanggal Pengajuan|tanggal_pengajuan"
	colTglPelaksanaan = "Tanggal Pelaksanaan|tanggal_pelaksanaan"
	colPeriode        = "Periode Pengajuan (semester)|Periode Pengajuan|periode_pengajuan"
	colRincian        = "Rincian Acara|Deskripsi Kegiatan|rincian_acara"
	colTingkat        = "Tingkat"
	colTempat         = "Tempat"
	colMentor         = "Mentor"
	colNarasumber     = "Narasumber"
	colBukti          = "Bukti Kegiatan|bukti_kegiatan"
	colPoin           = "Poin"
)

// ClaimImportRow is a claim sheet row after normalisation
type ClaimImportRow struct {
	Line               int
	NIM                string
	KodeKeg            string
	Status             claim.Status
	PeriodePengajuan   string
	TanggalPengajuan   *time.Time
	RincianAcara       string
	Tingkat            string
	Tempat             string
	TanggalPelaksanaan *time.Time
	Mentor             string
	Narasumber         string
	BuktiKegiatan      string
	// Poin is the raw points cell, read only when the activity weight is zero
	Poin string
}

// fallbackPoints parses the points cell for activity types without a weight
func (r ClaimImportRow) fallbackPoints() (int, error) {
	n, err := csvimport.ParseInt(r.Poin)
	if err != nil || n < 0 {
		return 0, invalidValue(r.Line, "Poin", "poin must be a non-negative whole number", r.Poin)
	}
	return n, nil
}

func (r ClaimImportRow) details() claim.Details {
	d := claim.Details{
		Period:      r.PeriodePengajuan,
		Description: r.RincianAcara,
		Level:       r.Tingkat,
		Venue:       r.Tempat,
		Mentor:      r.Mentor,
		Speaker:     r.Narasumber,
	}
	if r.TanggalPengajuan != nil {
		d.SubmittedOn = *r.TanggalPengajuan
	}
	if r.TanggalPelaksanaan != nil {
		d.ExecutedOn = *r.TanggalPelaksanaan
	}
	return d
}

// ParseClaimRow normalises one claim sheet row. Missing keys are reported
// as empty rows; unreadable dates fail the row.
func ParseClaimRow(row *csvimport.Row) (ClaimImportRow, error) {
	out := ClaimImportRow{
		Line:             row.LineNumber,
		NIM:              student.NormalizeNIM(lookup(row, colNIM)),
		KodeKeg:          activity.NormalizeCode(lookup(row, colKodeKegiatan)),
		Status:           claim.ParseImportStatus(lookup(row, colStatus)),
		PeriodePengajuan: orDash(strings.TrimSpace(lookup(row, colPeriode))),
		RincianAcara:     orDash(strings.TrimSpace(lookup(row, colRincian))),
		Tingkat:          orDash(strings.TrimSpace(lookup(row, colTingkat))),
		Tempat:           orDash(strings.TrimSpace(lookup(row, colTempat))),
		Mentor:           strings.TrimSpace(lookup(row, colMentor)),
		Narasumber:       strings.TrimSpace(lookup(row, colNarasumber)),
		BuktiKegiatan:    strings.TrimSpace(lookup(row, colBukti)),
		Poin:             strings.TrimSpace(lookup(row, colPoin)),
	}
	if out.NIM == "" || out.KodeKeg == "" {
		return out, emptyRow(row.LineNumber, "nim or kode kegiatan is empty")
	}

	var err error
	raw := lookup(row, colTglPelaksanaan)
	if out.TanggalPelaksanaan, err = csvimport.ParseDate(raw); err != nil {
		return out, invalidValue(row.LineNumber, "Tanggal Pelaksanaan", "invalid date", raw)
	}
	if out.TanggalPelaksanaan == nil {
		return out, failedRow(row.LineNumber, "Tanggal Pelaksanaan", csvimport.ErrCodeImportRequiredField, "tanggal pelaksanaan is required")
	}
	raw = lookup(row, colTglPengajuan)
	if out.TanggalPengajuan, err = csvimport.ParseDate(raw); err != nil {
		return out, invalidValue(row.LineNumber, "Tanggal Pengajuan", "invalid date", raw)
	}
	return out, nil
}

// ClaimImportService merges historical claims from a spreadsheet into the
// claim table and the point ledger
type ClaimImportService struct {
	tx             transaction.Scope
	ledger         *ledger.PointLedger
	eventPublisher shared.EventPublisher
	metrics        Metrics
	maxErrors      int
	logger         *zap.Logger
}

// NewClaimImportService creates a new ClaimImportService
func NewClaimImportService(tx transaction.Scope, pointLedger *ledger.PointLedger, logger *zap.Logger) *ClaimImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pointLedger == nil {
		pointLedger = ledger.NewPointLedger(logger)
	}
	return &ClaimImportService{
		tx:        tx,
		ledger:    pointLedger,
		metrics:   nopMetrics{},
		maxErrors: defaultMaxErrors,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *ClaimImportService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the import metrics recorder
func (s *ClaimImportService) SetMetrics(m Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// Import processes every row of the sheet in its own transaction
func (s *ClaimImportService) Import(ctx context.Context, p *access.Principal, sheet *csvimport.Sheet) (*ImportResult, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	if err := requireHeaders(sheet, colNIM, colKodeKegiatan, colTglPelaksanaan); err != nil {
		return nil, err
	}

	seen := make(map[claim.DuplicateKey]struct{})
	b := newBatch(EntityClaim, len(sheet.Rows), s.maxErrors, s.logger)
	err := b.run(ctx, sheet.Rows, func(ctx context.Context, row *csvimport.Row) (rowKeys, error) {
		parsed, err := ParseClaimRow(row)
		keys := rowKeys{nim: parsed.NIM, kodeKeg: parsed.KodeKeg}
		if err != nil {
			return keys, err
		}
		return keys, s.importRow(ctx, parsed, seen)
	})
	if err != nil {
		return nil, err
	}

	result := b.finish()
	s.metrics.RecordImport(ctx, EntityClaim, result.Counts())
	return result, nil
}

func (s *ClaimImportService) importRow(ctx context.Context, row ClaimImportRow, seen map[claim.DuplicateKey]struct{}) error {
	var (
		created *claim.Claim
		credit  *ledger.Credit
		key     claim.DuplicateKey
	)
	err := s.tx.Execute(ctx, func(repos transaction.Repositories) error {
		st, err := repos.Students().FindByNIM(ctx, row.NIM)
		if err != nil {
			return referenceProblem(row.Line, "NIM", "student not found", err)
		}
		at, err := repos.ActivityTypes().FindByCode(ctx, row.KodeKeg)
		if err != nil {
			return referenceProblem(row.Line, "Kode Kegiatan", "activity type not found", err)
		}

		key = claim.NewDuplicateKey(st.ID, at.ID, *row.TanggalPelaksanaan)
		if _, ok := seen[key]; ok {
			return duplicateRow(row.Line, csvimport.ErrCodeImportDuplicateInFile, "duplicate row in file")
		}
		exists, err := repos.Claims().ExistsByDuplicateKey(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			return duplicateRow(row.Line, csvimport.ErrCodeImportDuplicateInDB, "claim already exists")
		}

		points := at.Weight
		if points == 0 {
			if points, err = row.fallbackPoints(); err != nil {
				return err
			}
		}
		c, err := claim.NewImportedClaim(st.ID, at.ID, row.details(), points, row.BuktiKegiatan, row.Status)
		if err != nil {
			return err
		}
		if err := repos.Claims().Create(ctx, c); err != nil {
			return err
		}
		if c.Status == claim.StatusApproved {
			if credit, err = s.ledger.ApplyApproval(ctx, repos.Students(), st.ID, c.Points); err != nil {
				return err
			}
		}
		created = c
		return nil
	})
	if err != nil {
		return err
	}

	seen[key] = struct{}{}
	s.publishDomainEvents(ctx, created, credit.Events()...)
	return nil
}

// referenceProblem reports a missing student or activity type as a row
// failure; other lookup errors propagate unchanged
func referenceProblem(line int, column, reason string, err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return failedRow(line, column, csvimport.ErrCodeImportReferenceNotFound, reason)
	}
	return err
}

func (s *ClaimImportService) publishDomainEvents(ctx context.Context, c *claim.Claim, related ...shared.DomainEvent) {
	events := append(append([]shared.DomainEvent(nil), c.GetDomainEvents()...), related...)
	c.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events",
			zap.String("claim_id", c.ID.String()),
			zap.Error(err))
	}
}

// lookup reads a column given as "|" separated alternatives
func lookup(row *csvimport.Row, column string) string {
	return row.Lookup(splitAliases(column)...)
}
