package claim

import (
	"time"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/application/filestore"
	"github.com/poinmhs/backend/internal/domain/activity"
	"github.com/poinmhs/backend/internal/domain/claim"
	"github.com/poinmhs/backend/internal/domain/student"
)

// ClaimDetailsInput carries the descriptive fields of a submission
type ClaimDetailsInput struct {
	PeriodePengajuan   string
	TanggalPengajuan   time.Time
	RincianAcara       string
	Tingkat            string
	Tempat             string
	TanggalPelaksanaan time.Time
	Mentor             string
	Narasumber         string
}

func (in ClaimDetailsInput) toDomain() claim.Details {
	return claim.Details{
		Period:      in.PeriodePengajuan,
		SubmittedOn: in.TanggalPengajuan,
		Description: in.RincianAcara,
		Level:       in.Tingkat,
		Venue:       in.Tempat,
		ExecutedOn:  in.TanggalPelaksanaan,
		Mentor:      in.Mentor,
		Speaker:     in.Narasumber,
	}
}

// CreateClaimInput is a new submission. StudentID is only honoured for
// admins filing on behalf of a student.
type CreateClaimInput struct {
	StudentID      *uuid.UUID
	ActivityTypeID uuid.UUID
	Details        ClaimDetailsInput
	Evidence       *filestore.Upload
}

// ResubmitClaimInput is the owner's correction of a claim in revision
type ResubmitClaimInput struct {
	Details  ClaimDetailsInput
	Evidence *filestore.Upload
}

// ReviewClaimInput is an admin decision
type ReviewClaimInput struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"catatan"`
}

// ListClaimsFilter narrows the claim list
type ListClaimsFilter struct {
	Status   string
	Page     int
	PageSize int
}

// StudentSummary is the student shown next to a claim
type StudentSummary struct {
	ID    uuid.UUID `json:"id"`
	NIM   string    `json:"nim"`
	Name  string    `json:"nama_mhs"`
	Prodi string    `json:"prodi,omitempty"`
}

// ActivityTypeSummary is the catalog entry shown next to a claim
type ActivityTypeSummary struct {
	ID       uuid.UUID `json:"id"`
	Code     string    `json:"kode_keg"`
	Category string    `json:"jenis_kegiatan"`
	Position string    `json:"posisi,omitempty"`
	Weight   int       `json:"bobot_poin"`
}

// ClaimResponse is the API view of a claim
type ClaimResponse struct {
	ID                 uuid.UUID            `json:"id"`
	StudentID          uuid.UUID            `json:"mahasiswa_id"`
	ActivityTypeID     uuid.UUID            `json:"master_poin_id"`
	PeriodePengajuan   string               `json:"periode_pengajuan"`
	TanggalPengajuan   string               `json:"tanggal_pengajuan"`
	RincianAcara       string               `json:"rincian_acara"`
	Tingkat            string               `json:"tingkat"`
	Tempat             string               `json:"tempat"`
	TanggalPelaksanaan string               `json:"tanggal_pelaksanaan"`
	Mentor             string               `json:"mentor"`
	Narasumber         string               `json:"narasumber"`
	BuktiFileID        string               `json:"bukti_file_id,omitempty"`
	Poin               int                  `json:"poin"`
	Status             claim.Status         `json:"status"`
	StatusLabel        string               `json:"status_label"`
	Catatan            *string              `json:"catatan"`
	Student            *StudentSummary      `json:"mahasiswa,omitempty"`
	ActivityType       *ActivityTypeSummary `json:"master_poin,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// ToClaimResponse converts a claim plus optional relations to its API view
func ToClaimResponse(c *claim.Claim, s *student.Student, a *activity.ActivityType) ClaimResponse {
	resp := ClaimResponse{
		ID:                 c.ID,
		StudentID:          c.StudentID,
		ActivityTypeID:     c.ActivityTypeID,
		PeriodePengajuan:   c.Details.Period,
		TanggalPengajuan:   formatDate(c.Details.SubmittedOn),
		RincianAcara:       c.Details.Description,
		Tingkat:            c.Details.Level,
		Tempat:             c.Details.Venue,
		TanggalPelaksanaan: formatDate(c.Details.ExecutedOn),
		Mentor:             c.Details.Mentor,
		Narasumber:         c.Details.Speaker,
		BuktiFileID:        c.EvidenceFileID,
		Poin:               c.Points,
		Status:             c.Status,
		StatusLabel:        c.Status.Label(),
		Catatan:            c.Note,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
	if s != nil {
		resp.Student = &StudentSummary{ID: s.ID, NIM: s.NIM, Name: s.Profile.Name, Prodi: s.Profile.Prodi}
	}
	if a != nil {
		resp.ActivityType = &ActivityTypeSummary{
			ID:       a.ID,
			Code:     a.Code,
			Category: a.Category,
			Position: a.Position,
			Weight:   a.Weight,
		}
	}
	return resp
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(claim.DateLayout)
}
