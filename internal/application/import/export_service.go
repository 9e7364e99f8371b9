package importapp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/application/access"
	"github.com/poinmhs/backend/internal/domain/activity"
	"github.com/poinmhs/backend/internal/domain/claim"
	"github.com/poinmhs/backend/internal/domain/shared"
	"github.com/poinmhs/backend/internal/domain/student"
	csvimport "github.com/poinmhs/backend/internal/infrastructure/import"
	"go.uber.org/zap"
)

const exportPageSize = 500

// Export column sets. Claims and master poin reuse the import headers so an
// export can be edited and imported again.
var (
	ClaimExportHeaders = []string{
		"NIM", "Nama Mahasiswa", "Kode Kegiatan", "Jenis Kegiatan",
		"Periode Pengajuan (semester)", "Tanggal Pengajuan", "Rincian Acara",
		"Tingkat", "Tempat", "Tanggal Pelaksanaan", "Mentor", "Narasumber",
		"Bukti Kegiatan", "Poin", "Status", "Catatan",
	}
	StudentExportHeaders = []string{
		"nim", "nama_mhs", "prodi", "angkatan", "tempat_lahir", "tgl_lahir",
		"target_poin", "total_poin", "pekerjaan", "alamat", "asal_sekolah",
		"thn_lulus", "tlp_saya", "tlp_rumah", "email", "jenis_kelamin", "foto",
	}
	ActivityTypeExportHeaders = []string{
		"Kode Keg (WAJIB 4 HURUF)", "Jenis Kegiatan", "Deskripsi", "Bobot Poin",
	}
)

// Table is an export ready to be written as a workbook
type Table struct {
	Sheet    string
	Filename string
	Headers  []string
	Rows     [][]any
}

// XLSX renders the table as an xlsx workbook
func (t *Table) XLSX() ([]byte, error) {
	return csvimport.WriteXLSX(t.Sheet, t.Headers, t.Rows)
}

// ExportService builds spreadsheet exports of claims, students and the
// master poin catalog
type ExportService struct {
	claims   claim.ClaimRepository
	students student.StudentRepository
	types    activity.ActivityTypeRepository
	logger   *zap.Logger
}

// NewExportService creates a new ExportService
func NewExportService(
	claims claim.ClaimRepository,
	students student.StudentRepository,
	types activity.ActivityTypeRepository,
	logger *zap.Logger,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		claims:   claims,
		students: students,
		types:    types,
		logger:   logger,
	}
}

// Claims exports every claim, newest first
func (s *ExportService) Claims(ctx context.Context, p *access.Principal) (*Table, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	claims, err := collect(ctx, s.claims.FindAll)
	if err != nil {
		return nil, err
	}

	studentIDs := make([]uuid.UUID, 0, len(claims))
	typeIDs := make([]uuid.UUID, 0, len(claims))
	for _, c := range claims {
		studentIDs = append(studentIDs, c.StudentID)
		typeIDs = append(typeIDs, c.ActivityTypeID)
	}
	students, err := s.students.FindByIDs(ctx, uniqueIDs(studentIDs))
	if err != nil {
		return nil, err
	}
	types, err := s.types.FindByIDs(ctx, uniqueIDs(typeIDs))
	if err != nil {
		return nil, err
	}
	studentByID := make(map[uuid.UUID]student.Student, len(students))
	for _, st := range students {
		studentByID[st.ID] = st
	}
	typeByID := make(map[uuid.UUID]activity.ActivityType, len(types))
	for _, at := range types {
		typeByID[at.ID] = at
	}

	rows := make([][]any, 0, len(claims))
	for _, c := range claims {
		st := studentByID[c.StudentID]
		at := typeByID[c.ActivityTypeID]
		rows = append(rows, []any{
			st.NIM, st.Profile.Name, at.Code, at.Category,
			c.Details.Period, formatDate(c.Details.SubmittedOn), c.Details.Description,
			c.Details.Level, c.Details.Venue, formatDate(c.Details.ExecutedOn),
			c.Details.Mentor, c.Details.Speaker, c.EvidenceFileID, c.Points,
			c.Status.Label(), c.NoteText(),
		})
	}

	s.logger.Info("Claims exported", zap.Int("rows", len(rows)))
	return &Table{Sheet: "Klaim Kegiatan", Filename: "klaim_kegiatan.xlsx", Headers: ClaimExportHeaders, Rows: rows}, nil
}

// Students exports every student in ranking order
func (s *ExportService) Students(ctx context.Context, p *access.Principal) (*Table, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	students, err := collect(ctx, s.students.FindAll)
	if err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(students))
	for _, st := range students {
		var tglLahir string
		if st.Profile.TglLahir != nil {
			tglLahir = formatDate(*st.Profile.TglLahir)
		}
		rows = append(rows, []any{
			st.NIM, st.Profile.Name, st.Profile.Prodi, st.Profile.Angkatan,
			st.Profile.TempatLahir, tglLahir, st.TargetPoin, st.TotalPoin,
			st.Profile.Pekerjaan, st.Profile.Alamat, st.Profile.AsalSekolah,
			st.Profile.ThnLulus, st.Profile.TlpSaya, st.Profile.TlpRumah,
			st.Profile.Email, string(st.Profile.JenisKelamin), st.FotoFileID,
		})
	}

	s.logger.Info("Students exported", zap.Int("rows", len(rows)))
	return &Table{Sheet: "Mahasiswa", Filename: "mahasiswa.xlsx", Headers: StudentExportHeaders, Rows: rows}, nil
}

// ActivityTypes exports the master poin catalog
func (s *ExportService) ActivityTypes(ctx context.Context, p *access.Principal) (*Table, error) {
	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	types, err := collect(ctx, s.types.FindAll)
	if err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(types))
	for _, at := range types {
		rows = append(rows, []any{at.Code, at.Category, at.Position, at.Weight})
	}

	s.logger.Info("Activity types exported", zap.Int("rows", len(rows)))
	return &Table{Sheet: "Master Poin", Filename: "master_poin.xlsx", Headers: ActivityTypeExportHeaders, Rows: rows}, nil
}

// collect pages through a FindAll until a short page is returned
func collect[T any](ctx context.Context, findAll func(context.Context, shared.Filter) ([]T, error)) ([]T, error) {
	filter := shared.DefaultFilter()
	filter.PageSize = exportPageSize

	var all []T
	for {
		page, err := findAll(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < filter.PageSize {
			return all, nil
		}
		filter.Page++
	}
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(claim.DateLayout)
}
