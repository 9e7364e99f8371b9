package student

import (
	"regexp"
	"strings"
	"time"

	"github.com/poinmhs/backend/internal/domain/shared"
)

// DefaultTargetPoin is the point goal assigned to every new student
const DefaultTargetPoin = 50

// Gender is the L/P marker used by the academic registry
type Gender string

const (
	GenderMale    Gender = "L"
	GenderFemale  Gender = "P"
	GenderUnknown Gender = ""
)

// IsValid checks if the gender marker is one of the accepted values
func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderUnknown
}

var (
	nimPattern      = regexp.MustCompile(`^[A-Za-z0-9.\-]{3,30}$`)
	angkatanPattern = regexp.MustCompile(`^\d{4}$`)
)

// Profile holds the descriptive, admin-editable part of a student record
type Profile struct {
	Name         string
	Prodi        string
	Angkatan     string
	TempatLahir  string
	TglLahir     *time.Time
	JenisKelamin Gender
	Pekerjaan    string
	Alamat       string
	AsalSekolah  string
	ThnLulus     string
	TlpSaya      string
	TlpRumah     string
	Email        string
}

// Validate checks the profile fields that have format rules
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return shared.NewValidationError("student name cannot be empty")
	}
	if len(p.Name) > 150 {
		return shared.NewValidationError("student name cannot exceed 150 characters")
	}
	if p.Angkatan != "" && !angkatanPattern.MatchString(p.Angkatan) {
		return shared.NewValidationError("angkatan must be a 4 digit year")
	}
	if !p.JenisKelamin.IsValid() {
		return shared.NewValidationError("jenis_kelamin must be L or P")
	}
	return nil
}

// Student is the aggregate root for a mahasiswa. TotalPoin is owned by the
// point ledger and only changes through CreditPoints.
type Student struct {
	shared.BaseAggregateRoot
	NIM        string
	Profile    Profile
	TargetPoin int
	TotalPoin  int
	FotoFileID string
	OrderIndex int
}

// NewStudent creates a student with the default target and an empty ledger
func NewStudent(nim string, profile Profile) (*Student, error) {
	nim = NormalizeNIM(nim)
	if err := validateNIM(nim); err != nil {
		return nil, err
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	s := &Student{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		NIM:               nim,
		Profile:           profile,
		TargetPoin:        DefaultTargetPoin,
		TotalPoin:         0,
	}
	s.AddDomainEvent(NewStudentCreatedEvent(s))
	return s, nil
}

// UpdateProfile replaces the descriptive fields
func (s *Student) UpdateProfile(profile Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	s.Profile = profile
	s.Touch()
	return nil
}

// SetTarget changes the point goal
func (s *Student) SetTarget(target int) error {
	if target < 0 {
		return shared.NewValidationError("target_poin cannot be negative")
	}
	s.TargetPoin = target
	s.Touch()
	return nil
}

// SetOrderIndex changes the secondary ordering key used on the ranking list
func (s *Student) SetOrderIndex(idx int) {
	s.OrderIndex = idx
	s.Touch()
}

// CreditPoints adds approved claim points to the running total
func (s *Student) CreditPoints(points int) error {
	if points < 0 {
		return shared.NewValidationError("points to credit cannot be negative")
	}
	s.TotalPoin += points
	s.Touch()
	s.AddDomainEvent(NewPointsCreditedEvent(s, points))
	return nil
}

// ReplacePhoto sets a new photo and returns the previous file id, if any
func (s *Student) ReplacePhoto(fileID string) string {
	previous := s.FotoFileID
	s.FotoFileID = fileID
	s.Touch()
	return previous
}

// ReachedTarget reports whether the student has met their point goal
func (s *Student) ReachedTarget() bool {
	return s.TotalPoin >= s.TargetPoin
}

// Progress returns TotalPoin as a percentage of TargetPoin, capped at 100
func (s *Student) Progress() float64 {
	if s.TargetPoin <= 0 {
		return 100
	}
	p := float64(s.TotalPoin) / float64(s.TargetPoin) * 100
	if p > 100 {
		return 100
	}
	return p
}

// NormalizeNIM trims and upper-cases an external student identifier
func NormalizeNIM(nim string) string {
	return strings.ToUpper(strings.TrimSpace(nim))
}

// ValidNIM reports whether nim, after normalization, is a well-formed identifier
func ValidNIM(nim string) bool {
	return nimPattern.MatchString(NormalizeNIM(nim))
}

func validateNIM(nim string) error {
	if nim == "" {
		return shared.NewValidationError("nim cannot be empty")
	}
	if !nimPattern.MatchString(nim) {
		return shared.NewValidationError("nim %q has an invalid format", nim)
	}
	return nil
}
