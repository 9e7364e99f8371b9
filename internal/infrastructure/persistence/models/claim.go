package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/domain/claim"
)

// ClaimModel is the persistence model for a klaim kegiatan
type ClaimModel struct {
	BaseModel
	StudentID          uuid.UUID    `gorm:"column:mahasiswa_id;type:uuid;not null;index:idx_klaim_student_status,priority:1;index:idx_klaim_duplicate,priority:1"`
	ActivityTypeID     uuid.UUID    `gorm:"column:master_poin_id;type:uuid;not null;index;index:idx_klaim_duplicate,priority:2"`
	PeriodePengajuan   string       `gorm:"column:periode_pengajuan;type:varchar(50);not null"`
	TanggalPengajuan   time.Time    `gorm:"column:tanggal_pengajuan;type:date;not null"`
	RincianAcara       string       `gorm:"column:rincian_acara;type:text;not null"`
	Tingkat            string       `gorm:"column:tingkat;type:varchar(100);not null"`
	Tempat             string       `gorm:"column:tempat;type:varchar(255);not null"`
	TanggalPelaksanaan time.Time    `gorm:"column:tanggal_pelaksanaan;type:date;not null;index:idx_klaim_duplicate,priority:3"`
	Mentor             string       `gorm:"column:mentor;type:varchar(150)"`
	Narasumber         string       `gorm:"column:narasumber;type:varchar(150)"`
	BuktiFileID        string       `gorm:"column:bukti_file_id;type:varchar(255)"`
	Poin               int          `gorm:"column:poin;not null;default:0"`
	Status             claim.Status `gorm:"column:status;type:varchar(20);not null;index:idx_klaim_student_status,priority:2"`
	Catatan            *string      `gorm:"column:catatan;type:text"`
}

// TableName returns the table name for GORM
func (ClaimModel) TableName() string {
	return "klaim_kegiatan"
}

// ToDomain converts the persistence model to a domain Claim
func (m *ClaimModel) ToDomain() *claim.Claim {
	return &claim.Claim{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		StudentID:         m.StudentID,
		ActivityTypeID:    m.ActivityTypeID,
		Details: claim.Details{
			Period:      m.PeriodePengajuan,
			SubmittedOn: m.TanggalPengajuan,
			Description: m.RincianAcara,
			Level:       m.Tingkat,
			Venue:       m.Tempat,
			ExecutedOn:  m.TanggalPelaksanaan,
			Mentor:      m.Mentor,
			Speaker:     m.Narasumber,
		},
		EvidenceFileID: m.BuktiFileID,
		Points:         m.Poin,
		Status:         m.Status,
		Note:           m.Catatan,
	}
}

// FromDomain populates the persistence model from a domain Claim
func (m *ClaimModel) FromDomain(c *claim.Claim) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.StudentID = c.StudentID
	m.ActivityTypeID = c.ActivityTypeID
	m.PeriodePengajuan = c.Details.Period
	m.TanggalPengajuan = c.Details.SubmittedOn
	m.RincianAcara = c.Details.Description
	m.Tingkat = c.Details.Level
	m.Tempat = c.Details.Venue
	m.TanggalPelaksanaan = c.Details.ExecutedOn
	m.Mentor = c.Details.Mentor
	m.Narasumber = c.Details.Speaker
	m.BuktiFileID = c.EvidenceFileID
	m.Poin = c.Points
	m.Status = c.Status
	m.Catatan = c.Note
}

// ClaimModelFromDomain creates a new persistence model from a domain Claim
func ClaimModelFromDomain(c *claim.Claim) *ClaimModel {
	m := &ClaimModel{}
	m.FromDomain(c)
	return m
}
