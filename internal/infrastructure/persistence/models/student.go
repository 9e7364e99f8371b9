package models

import (
	"time"

	"github.com/poinmhs/backend/internal/domain/student"
)

// StudentModel is the persistence model for the Student aggregate
type StudentModel struct {
	BaseModel
	NIM          string     `gorm:"column:nim;type:varchar(30);not null;uniqueIndex"`
	NamaMhs      string     `gorm:"column:nama_mhs;type:varchar(150);not null"`
	Prodi        string     `gorm:"column:prodi;type:varchar(50)"`
	Angkatan     string     `gorm:"column:angkatan;type:varchar(4)"`
	TempatLahir  string     `gorm:"column:tempat_lahir;type:varchar(100)"`
	TglLahir     *time.Time `gorm:"column:tgl_lahir;type:date"`
	JenisKelamin string     `gorm:"column:jenis_kelamin;type:varchar(1)"`
	Pekerjaan    string     `gorm:"column:pekerjaan;type:varchar(100)"`
	Alamat       string     `gorm:"column:alamat;type:text"`
	AsalSekolah  string     `gorm:"column:asal_sekolah;type:varchar(150)"`
	ThnLulus     string     `gorm:"column:thn_lulus;type:varchar(4)"`
	TlpSaya      string     `gorm:"column:tlp_saya;type:varchar(30)"`
	TlpRumah     string     `gorm:"column:tlp_rumah;type:varchar(30)"`
	Email        string     `gorm:"column:email;type:varchar(150)"`
	TargetPoin   int        `gorm:"column:target_poin;not null;default:50"`
	TotalPoin    int        `gorm:"column:total_poin;not null;default:0"`
	FotoFileID   string     `gorm:"column:foto_file_id;type:varchar(255)"`
	OrderIndex   int        `gorm:"column:order_index;not null;default:0"`
}

// TableName returns the table name for GORM
func (StudentModel) TableName() string {
	return "mahasiswa"
}

// ToDomain converts the persistence model to a domain Student
func (m *StudentModel) ToDomain() *student.Student {
	return &student.Student{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		NIM:               m.NIM,
		Profile: student.Profile{
			Name:         m.NamaMhs,
			Prodi:        m.Prodi,
			Angkatan:     m.Angkatan,
			TempatLahir:  m.TempatLahir,
			TglLahir:     m.TglLahir,
			JenisKelamin: student.Gender(m.JenisKelamin),
			Pekerjaan:    m.Pekerjaan,
			Alamat:       m.Alamat,
			AsalSekolah:  m.AsalSekolah,
			ThnLulus:     m.ThnLulus,
			TlpSaya:      m.TlpSaya,
			TlpRumah:     m.TlpRumah,
			Email:        m.Email,
		},
		TargetPoin: m.TargetPoin,
		TotalPoin:  m.TotalPoin,
		FotoFileID: m.FotoFileID,
		OrderIndex: m.OrderIndex,
	}
}

// FromDomain populates the persistence model from a domain Student
func (m *StudentModel) FromDomain(s *student.Student) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.NIM = s.NIM
	m.NamaMhs = s.Profile.Name
	m.Prodi = s.Profile.Prodi
	m.Angkatan = s.Profile.Angkatan
	m.TempatLahir = s.Profile.TempatLahir
	m.TglLahir = s.Profile.TglLahir
	m.JenisKelamin = string(s.Profile.JenisKelamin)
	m.Pekerjaan = s.Profile.Pekerjaan
	m.Alamat = s.Profile.Alamat
	m.AsalSekolah = s.Profile.AsalSekolah
	m.ThnLulus = s.Profile.ThnLulus
	m.TlpSaya = s.Profile.TlpSaya
	m.TlpRumah = s.Profile.TlpRumah
	m.Email = s.Profile.Email
	m.TargetPoin = s.TargetPoin
	m.TotalPoin = s.TotalPoin
	m.FotoFileID = s.FotoFileID
	m.OrderIndex = s.OrderIndex
}

// StudentModelFromDomain creates a new persistence model from a domain Student
func StudentModelFromDomain(s *student.Student) *StudentModel {
	m := &StudentModel{}
	m.FromDomain(s)
	return m
}
