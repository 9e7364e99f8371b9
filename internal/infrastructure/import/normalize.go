package csvimport

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrInvalidDate is returned for a non-empty date cell in no known format
var ErrInvalidDate = errors.New("unrecognised date format")

// Spreadsheet serial 25569 is 1970-01-01
const excelUnixEpochSerial = 25569

var (
	separatorRun   = regexp.MustCompile(`[-_/]+`)
	nonDigit       = regexp.MustCompile(`\D`)
	nonLetter      = regexp.MustCompile(`[^a-zA-Z]`)
	emailTrailing  = regexp.MustCompile(`[-/ ]+$`)
	emailShape     = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	serialNumber   = regexp.MustCompile(`^\d+(\.\d+)?$`)
	oneOrTwoDigits = regexp.MustCompile(`^\d{1,2}$`)
	fourDigits     = regexp.MustCompile(`^\d{4}$`)
)

var indonesianMonths = map[string]time.Month{
	"januari":   time.January,
	"februari":  time.February,
	"maret":     time.March,
	"april":     time.April,
	"mei":       time.May,
	"juni":      time.June,
	"juli":      time.July,
	"agustus":   time.August,
	"september": time.September,
	"oktober":   time.October,
	"november":  time.November,
	"desember":  time.December,
}

// CleanString turns -, _ and / runs into spaces and collapses whitespace
func CleanString(s string) string {
	s = separatorRun.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// CleanStringUpper is CleanString followed by upper-casing. Casers are
// stateful, so one is built per call.
func CleanStringUpper(s string) string {
	return cases.Upper(language.Indonesian).String(CleanString(s))
}

// CleanPhone keeps digits only
func CleanPhone(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// ConvertProdi maps study programme codes to their level (01TI → S1, 02MI → D3)
func ConvertProdi(s string) string {
	k := strings.ToUpper(strings.TrimSpace(s))
	switch k {
	case "01TI":
		return "S1"
	case "02MI":
		return "D3"
	}
	return k
}

// ConvertGender returns "L", "P" or "" for anything else
func ConvertGender(s string) string {
	g := strings.ToUpper(nonLetter.ReplaceAllString(s, ""))
	if g == "L" || g == "P" {
		return g
	}
	return ""
}

// NormalizeEmail lower-cases a plausible address; ok is false when the
// value is not an email
func NormalizeEmail(s string) (string, bool) {
	cleaned := emailTrailing.ReplaceAllString(strings.TrimSpace(s), "")
	if cleaned == "" || strings.Contains(cleaned, "/") || !emailShape.MatchString(cleaned) {
		return "", false
	}
	return strings.ToLower(cleaned), true
}

// ParseInt parses an integer cell, accepting "12.0" as written by spreadsheets.
// Empty cells parse as 0.
func ParseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, errors.New("not a whole number")
	}
	return int(f), nil
}

// ParseDate accepts spreadsheet serial numbers, "22-juni-2003",
// "07/03/2003", "07-03-2003" and "2003-03-07". It returns nil for an
// empty cell.
func ParseDate(raw string) (*time.Time, error) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return nil, nil
	}

	if serialNumber.MatchString(text) {
		return parseSerial(text)
	}

	if text == "-" || len(text) < 5 || strings.HasPrefix(text, "-") {
		return nil, ErrInvalidDate
	}

	if parts := strings.Split(text, "-"); len(parts) == 3 {
		if month, ok := indonesianMonths[parts[1]]; ok {
			if oneOrTwoDigits.MatchString(parts[0]) && fourDigits.MatchString(parts[2]) {
				return civilDate(parts[2], int(month), parts[0])
			}
			return nil, ErrInvalidDate
		}
	}

	parts := strings.Split(strings.ReplaceAll(text, "/", "-"), "-")
	if len(parts) != 3 {
		return nil, ErrInvalidDate
	}

	if fourDigits.MatchString(parts[0]) && oneOrTwoDigits.MatchString(parts[1]) && oneOrTwoDigits.MatchString(parts[2]) {
		m, _ := strconv.Atoi(parts[1])
		return civilDate(parts[0], m, parts[2])
	}

	if oneOrTwoDigits.MatchString(parts[0]) && oneOrTwoDigits.MatchString(parts[1]) && fourDigits.MatchString(parts[2]) {
		m, _ := strconv.Atoi(parts[1])
		return civilDate(parts[2], m, parts[0])
	}

	return nil, ErrInvalidDate
}

func parseSerial(text string) (*time.Time, error) {
	serial, err := strconv.ParseFloat(text, 64)
	if err != nil || serial < 1 {
		return nil, ErrInvalidDate
	}
	days := int(math.Floor(serial)) - excelUnixEpochSerial
	t := time.Unix(0, 0).UTC().AddDate(0, 0, days)
	return &t, nil
}

// civilDate builds a UTC midnight date and rejects overflow such as 31-02
func civilDate(year string, month int, day string) (*time.Time, error) {
	y, _ := strconv.Atoi(year)
	d, _ := strconv.Atoi(day)
	if month < 1 || month > 12 || d < 1 {
		return nil, ErrInvalidDate
	}
	t := time.Date(y, time.Month(month), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != month {
		return nil, ErrInvalidDate
	}
	return &t, nil
}
