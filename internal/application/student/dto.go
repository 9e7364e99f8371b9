package student

import (
	"time"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/domain/claim"
	"github.com/poinmhs/backend/internal/domain/student"
)

// ProfileRequest carries the admin-editable profile fields
type ProfileRequest struct {
	Name         string `json:"nama_mhs" form:"nama_mhs" binding:"required,max=150"`
	Prodi        string `json:"prodi" form:"prodi" binding:"max=50"`
	Angkatan     string `json:"angkatan" form:"angkatan" binding:"omitempty,len=4,numeric"`
	TempatLahir  string `json:"tempat_lahir" form:"tempat_lahir" binding:"max=100"`
	TglLahir     string `json:"tgl_lahir" form:"tgl_lahir" binding:"omitempty,datetime=2006-01-02"`
	JenisKelamin string `json:"jenis_kelamin" form:"jenis_kelamin" binding:"omitempty,oneof=L P"`
	Pekerjaan    string `json:"pekerjaan" form:"pekerjaan" binding:"max=100"`
	Alamat       string `json:"alamat" form:"alamat" binding:"max=255"`
	AsalSekolah  string `json:"asal_sekolah" form:"asal_sekolah" binding:"max=150"`
	ThnLulus     string `json:"thn_lulus" form:"thn_lulus" binding:"max=4"`
	TlpSaya      string `json:"tlp_saya" form:"tlp_saya" binding:"max=20"`
	TlpRumah     string `json:"tlp_rumah" form:"tlp_rumah" binding:"max=20"`
	Email        string `json:"email" form:"email" binding:"omitempty,email,max=150"`
}

func (r ProfileRequest) toDomain() student.Profile {
	var born *time.Time
	if t, err := time.Parse(claim.DateLayout, r.TglLahir); err == nil {
		born = &t
	}
	return student.Profile{
		Name:         r.Name,
		Prodi:        r.Prodi,
		Angkatan:     r.Angkatan,
		TempatLahir:  r.TempatLahir,
		TglLahir:     born,
		JenisKelamin: student.Gender(r.JenisKelamin),
		Pekerjaan:    r.Pekerjaan,
		Alamat:       r.Alamat,
		AsalSekolah:  r.AsalSekolah,
		ThnLulus:     r.ThnLulus,
		TlpSaya:      r.TlpSaya,
		TlpRumah:     r.TlpRumah,
		Email:        r.Email,
	}
}

// CreateStudentRequest represents a request to register a student
type CreateStudentRequest struct {
	NIM string `json:"nim" form:"nim" binding:"required,nim"`
	ProfileRequest
	TargetPoin *int `json:"target_poin" form:"target_poin" binding:"omitempty,min=0"`
}

// UpdateStudentRequest represents a request to edit a student. total_poin
// is deliberately absent.
type UpdateStudentRequest struct {
	ProfileRequest
	TargetPoin *int `json:"target_poin" form:"target_poin" binding:"omitempty,min=0"`
	OrderIndex *int `json:"order_index" form:"order_index"`
}

// StudentListFilter narrows the ranking list
type StudentListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// StudentResponse represents a student in API responses
type StudentResponse struct {
	ID           uuid.UUID `json:"id"`
	NIM          string    `json:"nim"`
	Name         string    `json:"nama_mhs"`
	Prodi        string    `json:"prodi"`
	Angkatan     string    `json:"angkatan"`
	TempatLahir  string    `json:"tempat_lahir"`
	TglLahir     *string   `json:"tgl_lahir"`
	JenisKelamin string    `json:"jenis_kelamin"`
	Pekerjaan    string    `json:"pekerjaan"`
	Alamat       string    `json:"alamat"`
	AsalSekolah  string    `json:"asal_sekolah"`
	ThnLulus     string    `json:"thn_lulus"`
	TlpSaya      string    `json:"tlp_saya"`
	TlpRumah     string    `json:"tlp_rumah"`
	Email        string    `json:"email"`
	TargetPoin   int       `json:"target_poin"`
	TotalPoin    int       `json:"total_poin"`
	Progress     float64   `json:"progress"`
	FotoFileID   string    `json:"foto_file_id,omitempty"`
	OrderIndex   int       `json:"order_index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ToStudentResponse converts the domain entity to a response
func ToStudentResponse(s *student.Student) StudentResponse {
	resp := StudentResponse{
		ID:           s.ID,
		NIM:          s.NIM,
		Name:         s.Profile.Name,
		Prodi:        s.Profile.Prodi,
		Angkatan:     s.Profile.Angkatan,
		TempatLahir:  s.Profile.TempatLahir,
		JenisKelamin: string(s.Profile.JenisKelamin),
		Pekerjaan:    s.Profile.Pekerjaan,
		Alamat:       s.Profile.Alamat,
		AsalSekolah:  s.Profile.AsalSekolah,
		ThnLulus:     s.Profile.ThnLulus,
		TlpSaya:      s.Profile.TlpSaya,
		TlpRumah:     s.Profile.TlpRumah,
		Email:        s.Profile.Email,
		TargetPoin:   s.TargetPoin,
		TotalPoin:    s.TotalPoin,
		Progress:     s.Progress(),
		FotoFileID:   s.FotoFileID,
		OrderIndex:   s.OrderIndex,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	if s.Profile.TglLahir != nil {
		d := s.Profile.TglLahir.Format(claim.DateLayout)
		resp.TglLahir = &d
	}
	return resp
}
