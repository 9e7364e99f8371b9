package student

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/domain/activity"
	"github.com/poinmhs/backend/internal/domain/claim"
	"github.com/poinmhs/backend/internal/domain/student"
)

// CVBiodata is the personal block of a CV
type CVBiodata struct {
	ID           uuid.UUID `json:"id"`
	NIM          string    `json:"nim"`
	Name         string    `json:"nama_mhs"`
	Email        string    `json:"email"`
	TlpSaya      string    `json:"tlp_saya"`
	Alamat       string    `json:"alamat"`
	Prodi        string    `json:"prodi"`
	Angkatan     string    `json:"angkatan"`
	JenisKelamin string    `json:"jenis_kelamin"`
	FotoFileID   string    `json:"foto_file_id,omitempty"`
	TTL          string    `json:"ttl"`
}

// CVEntry is one approved activity on a CV
type CVEntry struct {
	ClaimID  uuid.UUID `json:"id"`
	Code     string    `json:"kode"`
	Name     string    `json:"nama_kegiatan"`
	Category string    `json:"jenis"`
	Position string    `json:"posisi"`
	Level    string    `json:"tingkat"`
	Date     string    `json:"tanggal"`
	Points   int       `json:"poin"`
}

// CVResponse is the data behind the printable CV
type CVResponse struct {
	Biodata    CVBiodata `json:"biodata"`
	Organisasi []CVEntry `json:"organisasi"`
	Prestasi   []CVEntry `json:"prestasi"`
	Lainnya    []CVEntry `json:"lainnya"`
	TotalPoin  int       `json:"total_poin"`
	TargetPoin int       `json:"target_poin"`
}

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatTanggal renders a date the Indonesian long way, e.g. "05 Juni 2003"
func FormatTanggal(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), indonesianMonths[t.Month()-1], t.Year())
}

// buildCV groups approved claims by CV section, newest activity first
func buildCV(s *student.Student, approved []claim.Claim, types map[uuid.UUID]*activity.ActivityType) *CVResponse {
	sort.SliceStable(approved, func(i, j int) bool {
		return approved[i].Details.ExecutedOn.After(approved[j].Details.ExecutedOn)
	})

	tempat := s.Profile.TempatLahir
	if tempat == "" {
		tempat = "-"
	}
	cv := &CVResponse{
		Biodata: CVBiodata{
			ID:           s.ID,
			NIM:          s.NIM,
			Name:         s.Profile.Name,
			Email:        s.Profile.Email,
			TlpSaya:      s.Profile.TlpSaya,
			Alamat:       s.Profile.Alamat,
			Prodi:        s.Profile.Prodi,
			Angkatan:     s.Profile.Angkatan,
			JenisKelamin: string(s.Profile.JenisKelamin),
			FotoFileID:   s.FotoFileID,
			TTL:          tempat + ", " + FormatTanggal(s.Profile.TglLahir),
		},
		Organisasi: []CVEntry{},
		Prestasi:   []CVEntry{},
		Lainnya:    []CVEntry{},
		TotalPoin:  s.TotalPoin,
		TargetPoin: s.TargetPoin,
	}

	for i := range approved {
		c := &approved[i]
		entry := CVEntry{
			ClaimID:  c.ID,
			Name:     orDash(c.Details.Description),
			Position: "-",
			Level:    orDash(c.Details.Level),
			Date:     c.Details.ExecutedOn.Format(claim.DateLayout),
			Points:   c.Points,
		}
		if at := types[c.ActivityTypeID]; at != nil {
			entry.Code = at.Code
			entry.Category = at.Category
			entry.Name = at.Category
			entry.Position = orDash(at.Position)
		}

		switch activity.SectionForCode(entry.Code) {
		case activity.SectionOrganisasi:
			cv.Organisasi = append(cv.Organisasi, entry)
		case activity.SectionPrestasi:
			cv.Prestasi = append(cv.Prestasi, entry)
		default:
			cv.Lainnya = append(cv.Lainnya, entry)
		}
	}
	return cv
}

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	fileNameFilter = regexp.MustCompile(`[^A-Z0-9_]`)
)

// CVFileName returns the download name of a CV PDF: CV_<NIM>_<NAME>.pdf
func CVFileName(nim, name string) string {
	n := whitespaceRun.ReplaceAllString(strings.ToUpper(strings.TrimSpace(name)), "_")
	n = fileNameFilter.ReplaceAllString(n, "")
	return fmt.Sprintf("CV_%s_%s.pdf", nim, n)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
