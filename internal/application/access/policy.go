// Package access decides who may read or change which records. Every check
// fails closed: an unknown role is forbidden rather than given a narrower view.
package access

import (
	"context"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/domain/claim"
	"github.com/poinmhs/backend/internal/domain/identity"
	"github.com/poinmhs/backend/internal/domain/shared"
)

// Principal is the authenticated caller resolved from the session credential
type Principal struct {
	SubjectID  uuid.UUID
	Role       identity.Role
	StudentID  *uuid.UUID
	Identifier string
}

// IsAdmin reports whether the caller holds the admin role
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == identity.RoleAdmin
}

// IsStudent reports whether the caller holds the student role
func (p *Principal) IsStudent() bool {
	return p != nil && p.Role == identity.RoleStudent
}

// OwnsStudent reports whether the caller is linked to the given student record
func (p *Principal) OwnsStudent(studentID uuid.UUID) bool {
	return p.IsStudent() && p.StudentID != nil && *p.StudentID == studentID
}

// RequireAuthenticated fails with Unauthorized when there is no caller
func RequireAuthenticated(p *Principal) error {
	if p == nil || p.SubjectID == uuid.Nil {
		return shared.NewDomainError(shared.CodeUnauthorized, "authentication required")
	}
	if !p.Role.IsValid() {
		return shared.NewForbiddenError("role is not allowed to access this resource")
	}
	return nil
}

// RequireAdmin fails unless the caller is an administrator
func RequireAdmin(p *Principal) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return shared.NewForbiddenError("admin role required")
	}
	return nil
}

// RequireStudent fails unless the caller is a student linked to a record,
// and returns that record's id
func RequireStudent(p *Principal) (uuid.UUID, error) {
	if err := RequireAuthenticated(p); err != nil {
		return uuid.Nil, err
	}
	if !p.IsStudent() {
		return uuid.Nil, shared.NewForbiddenError("student role required")
	}
	if p.StudentID == nil || *p.StudentID == uuid.Nil {
		return uuid.Nil, shared.NewForbiddenError("session is not linked to a student record")
	}
	return *p.StudentID, nil
}

// ClaimListScope returns the student filter to apply when listing claims:
// nil for admins, the caller's own record for students
func ClaimListScope(p *Principal) (*uuid.UUID, error) {
	if err := RequireAuthenticated(p); err != nil {
		return nil, err
	}
	if p.IsAdmin() {
		return nil, nil
	}
	sid, err := RequireStudent(p)
	if err != nil {
		return nil, err
	}
	return &sid, nil
}

// CanReadClaim allows admins and the owning student
func CanReadClaim(p *Principal, c *claim.Claim) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if p.IsAdmin() {
		return nil
	}
	sid, err := RequireStudent(p)
	if err != nil {
		return err
	}
	if !c.IsOwnedBy(sid) {
		return shared.NewForbiddenError("claim belongs to another student")
	}
	return nil
}

// CanReadStudent allows admins and the student themselves
func CanReadStudent(p *Principal, studentID uuid.UUID) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if p.IsAdmin() || p.OwnsStudent(studentID) {
		return nil
	}
	if p.IsStudent() {
		return shared.NewForbiddenError("student record belongs to someone else")
	}
	return shared.NewForbiddenError("role is not allowed to access this resource")
}

type principalKey struct{}

// WithPrincipal stores the caller on the context
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the caller stored on the context, or nil
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
