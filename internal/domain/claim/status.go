package claim

import (
	"strings"
)

// Status represents the review state of a claim
type Status string

const (
	StatusSubmitted   Status = "submitted"
	StatusRevision    Status = "revision"
	StatusResubmitted Status = "resubmitted"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
)

// AllStatuses lists the canonical statuses in lifecycle order
var AllStatuses = []Status{StatusSubmitted, StatusRevision, StatusResubmitted, StatusApproved, StatusRejected}

var statusLabels = map[Status]string{
	StatusSubmitted:   "Diajukan",
	StatusRevision:    "Revisi",
	StatusResubmitted: "Diajukan ulang",
	StatusApproved:    "Disetujui",
	StatusRejected:    "Ditolak",
}

// aliases accepted at the boundary, lower-cased with collapsed whitespace
var statusAliases = map[string]Status{
	"submitted":      StatusSubmitted,
	"diajukan":       StatusSubmitted,
	"revision":       StatusRevision,
	"revisi":         StatusRevision,
	"resubmitted":    StatusResubmitted,
	"diajukan ulang": StatusResubmitted,
	"approved":       StatusApproved,
	"disetujui":      StatusApproved,
	"rejected":       StatusRejected,
	"ditolak":        StatusRejected,
}

// IsValid checks if the status is one of the canonical values
func (s Status) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

// IsTerminal reports whether no further transition is allowed
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanReview reports whether an admin decision may be applied
func (s Status) CanReview() bool {
	return s == StatusSubmitted || s == StatusResubmitted
}

// CanResubmit reports whether the owner may edit and resend the claim
func (s Status) CanResubmit() bool {
	return s == StatusRevision
}

// CanDelete reports whether an admin may remove the claim. Approved claims
// are counted in the student's total_poin and stay.
func (s Status) CanDelete() bool {
	return s != StatusApproved
}

// IsReviewTarget reports whether s is an allowed outcome of a review
func (s Status) IsReviewTarget() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusRevision
}

// RequiresNote reports whether a review to s must carry a catatan
func (s Status) RequiresNote() bool {
	return s == StatusRejected || s == StatusRevision
}

// Label returns the Indonesian display label
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// String implements fmt.Stringer
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts English tokens or Indonesian labels in any casing into
// a canonical status. The second return is false for unrecognized input.
func ParseStatus(raw string) (Status, bool) {
	key := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	s, ok := statusAliases[key]
	return s, ok
}

// ParseImportStatus maps a free-text spreadsheet status onto the states an
// imported claim may start in. "selesai" means approved; anything not
// recognized as approved or rejected lands in Revision so an unknown value
// is never silently approved.
func ParseImportStatus(raw string) Status {
	key := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	if key == "selesai" {
		return StatusApproved
	}
	s, ok := statusAliases[key]
	if !ok {
		return StatusRevision
	}
	switch s {
	case StatusApproved, StatusRejected:
		return s
	default:
		return StatusRevision
	}
}
