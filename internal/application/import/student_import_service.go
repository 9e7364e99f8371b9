package importapp

import (
	"context"
	"strings"

	"github.com/poinmhs/backend/internal/application/access"
	"github.com/poinmhs/backend/internal/application/transaction"
	"github.com/poinmhs/backend/internal/domain/identity"
	"github.com/poinmhs/backend/internal/domain/shared"
	"github.com/poinmhs/backend/internal/domain/student"
	csvimport "github.com/poinmhs/backend/internal/infrastructure/import"
	"go.uber.org/zap"
)

// Student sheet columns, matching the export
const (
	colStudentNIM    = "nim|NIM"
	colNamaMhs       = "nama_mhs|Nama Mahasiswa|Nama"
	colProdi         = "prodi"
	colAngkatan      = "angkatan"
	colTempatLahir   = "tempat_lahir"
	colTglLahir      = "tgl_lahir"
	colJenisKelamin  = "jenis_kelamin"
	colPekerjaan     = "pekerjaan"
	colAlamat        = "alamat"
	colAsalSekolah   = "asal_sekolah"
	colThnLulus      = "thn_lulus"
	colTlpSaya       = "tlp_saya"
	colTlpRumah      = "tlp_rumah"
	colEmail         = "email"
	colStudentTarget = "target_poin"
)

// ParseStudentRow normalises one student sheet row. Unreadable birth dates
// and e-mail addresses are dropped rather than failing the row.
func ParseStudentRow(row *csvimport.Row) (string, student.Profile, int, error) {
	nim := strings.ToUpper(csvimport.CleanString(lookup(row, colStudentNIM)))
	name := csvimport.CleanStringUpper(lookup(row, colNamaMhs))
	if nim == "" || name == "" {
		return nim, student.Profile{}, 0, emptyRow(row.LineNumber, "nim or nama_mhs is empty")
	}

	profile := student.Profile{
		Name:         name,
		Prodi:        csvimport.ConvertProdi(lookup(row, colProdi)),
		Angkatan:     csvimport.CleanString(lookup(row, colAngkatan)),
		TempatLahir:  orDash(csvimport.CleanStringUpper(lookup(row, colTempatLahir))),
		JenisKelamin: student.Gender(csvimport.ConvertGender(lookup(row, colJenisKelamin))),
		Pekerjaan:    orDash(csvimport.CleanStringUpper(lookup(row, colPekerjaan))),
		Alamat:       orDash(csvimport.CleanStringUpper(lookup(row, colAlamat))),
		AsalSekolah:  orDash(csvimport.CleanStringUpper(lookup(row, colAsalSekolah))),
		ThnLulus:     csvimport.CleanString(lookup(row, colThnLulus)),
		TlpSaya:      csvimport.CleanPhone(lookup(row, colTlpSaya)),
		TlpRumah:     csvimport.CleanPhone(lookup(row, colTlpRumah)),
	}
	if tgl, err := csvimport.ParseDate(lookup(row, colTglLahir)); err == nil {
		profile.TglLahir = tgl
	}
	if email, ok := csvimport.NormalizeEmail(lookup(row, colEmail)); ok {
		profile.Email = email
	}

	target := student.DefaultTargetPoin
	if raw := lookup(row, colStudentTarget); raw != "" {
		t, err := csvimport.ParseInt(raw)
		if err != nil || t < 0 {
			return nim, profile, 0, invalidValue(row.LineNumber, "target_poin", "target_poin must be a non-negative whole number", raw)
		}
		target = t
	}
	return nim, profile, target, nil
}

// StudentImportService creates students and their login users from a
// spreadsheet. Imported total_poin values are ignored.
type StudentImportService struct {
	tx             transaction.Scope
	eventPublisher shared.EventPublisher
	metrics        Metrics
	maxErrors      int
	logger         *zap.Logger
}

// NewStudentImportService creates a new StudentImportService
func NewStudentImportService(tx transaction.Scope, logger *zap.Logger) *StudentImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentImportService{
		tx:        tx,
		metrics:   nopMetrics{},
		maxErrors: defaultMaxErrors,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *StudentImportService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the import metrics recorder
func (s *StudentImportService) SetMetrics(m Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// Import processes every row of the sheet in its own transaction
func (s *StudentImportService) Import(ctx context.Context, p *access.Principal, sheet *csvimport.Sheet) (*ImportResult, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	if err := requireHeaders(sheet, colStudentNIM, colNamaMhs); err != nil {
		return nil, err
	}

	b := newBatch(EntityStudent, len(sheet.Rows), s.maxErrors, s.logger)
	err := b.run(ctx, sheet.Rows, func(ctx context.Context, row *csvimport.Row) (rowKeys, error) {
		nim, profile, target, err := ParseStudentRow(row)
		keys := rowKeys{nim: nim}
		if err != nil {
			return keys, err
		}
		return keys, s.importRow(ctx, row.LineNumber, nim, profile, target)
	})
	if err != nil {
		return nil, err
	}

	result := b.finish()
	s.metrics.RecordImport(ctx, EntityStudent, result.Counts())
	return result, nil
}

func (s *StudentImportService) importRow(ctx context.Context, line int, nim string, profile student.Profile, target int) error {
	var created *student.Student
	err := s.tx.Execute(ctx, func(repos transaction.Repositories) error {
		exists, err := repos.Students().ExistsByNIM(ctx, nim)
		if err != nil {
			return err
		}
		if exists {
			return duplicateRow(line, csvimport.ErrCodeImportDuplicateInDB, "student already exists")
		}

		st, err := student.NewStudent(nim, profile)
		if err != nil {
			return err
		}
		if err := st.SetTarget(target); err != nil {
			return err
		}
		if err := repos.Students().Save(ctx, st); err != nil {
			return err
		}

		hasUser, err := repos.Users().ExistsByIdentifier(ctx, st.NIM)
		if err != nil {
			return err
		}
		if !hasUser {
			u, err := identity.NewStudentUser(st.ID, st.NIM, st.Profile.Name)
			if err != nil {
				return err
			}
			if err := repos.Users().Save(ctx, u); err != nil {
				return err
			}
		}
		created = st
		return nil
	})
	if err != nil {
		return err
	}

	events := created.GetDomainEvents()
	created.ClearDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish domain events",
				zap.String("student_id", created.ID.String()),
				zap.Error(err))
		}
	}
	return nil
}
