package activity

import (
	"regexp"
	"strings"

	"github.com/poinmhs/backend/internal/domain/shared"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{2,20}$`)

// CV sections that approved claims are grouped into, keyed by code prefix
const (
	SectionOrganisasi = "organisasi"
	SectionPrestasi   = "prestasi"
	SectionLainnya    = "lainnya"
)

var organisasiPrefixes = []string{"BEM", "UKM", "PIK", "OKS", "PKK", "PMS", "PNL", "MNT"}

const prestasiPrefix = "MDB"

// ActivityType is a master poin catalog entry. Weight is copied onto claims
// when they are created, so editing it never changes existing claims.
type ActivityType struct {
	shared.BaseAggregateRoot
	Code     string
	Category string
	Position string
	Weight   int
}

// NewActivityType creates a catalog entry
func NewActivityType(code, category, position string, weight int) (*ActivityType, error) {
	code = NormalizeCode(code)
	if err := validateCode(code); err != nil {
		return nil, err
	}
	if err := validateDetails(category, weight); err != nil {
		return nil, err
	}
	return &ActivityType{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Category:          strings.TrimSpace(category),
		Position:          strings.TrimSpace(position),
		Weight:            weight,
	}, nil
}

// Update changes the descriptive fields and the weight
func (a *ActivityType) Update(category, position string, weight int) error {
	if err := validateDetails(category, weight); err != nil {
		return err
	}
	a.Category = strings.TrimSpace(category)
	a.Position = strings.TrimSpace(position)
	a.Weight = weight
	a.Touch()
	return nil
}

// ChangeCode renames the catalog code
func (a *ActivityType) ChangeCode(code string) error {
	code = NormalizeCode(code)
	if err := validateCode(code); err != nil {
		return err
	}
	a.Code = code
	a.Touch()
	return nil
}

// CVSection returns the CV section claims of this type are listed under
func (a *ActivityType) CVSection() string {
	return SectionForCode(a.Code)
}

// SectionForCode maps an activity code onto a CV section by prefix
func SectionForCode(code string) string {
	code = NormalizeCode(code)
	if strings.HasPrefix(code, prestasiPrefix) {
		return SectionPrestasi
	}
	for _, p := range organisasiPrefixes {
		if strings.HasPrefix(code, p) {
			return SectionOrganisasi
		}
	}
	return SectionLainnya
}

// NormalizeCode trims and upper-cases a kode_keg value
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code, after normalization, is a well-formed kode_keg
func ValidCode(code string) bool {
	return codePattern.MatchString(NormalizeCode(code))
}

func validateCode(code string) error {
	if code == "" {
		return shared.NewValidationError("kode_keg cannot be empty")
	}
	if !codePattern.MatchString(code) {
		return shared.NewValidationError("kode_keg %q can only contain letters and digits", code)
	}
	return nil
}

func validateDetails(category string, weight int) error {
	if strings.TrimSpace(category) == "" {
		return shared.NewValidationError("jenis_kegiatan cannot be empty")
	}
	if weight < 0 {
		return shared.NewValidationError("bobot_poin cannot be negative")
	}
	return nil
}
