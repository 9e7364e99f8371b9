package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role is the capability set a user acts with
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "mahasiswa"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleStudent
}

// BcryptCost is the hashing cost for stored passwords
var BcryptCost = bcrypt.DefaultCost

const (
	maxPasswordBytes = 72
	maxIdentifierLen = 50
)

// User is a login credential. Students log in with their NIM, staff with
// their NIP; both are stored in Identifier.
type User struct {
	shared.BaseAggregateRoot
	Identifier     string
	Name           string
	Role           Role
	StudentID      *uuid.UUID
	PasswordHash   string
	LastLoginAt    *time.Time
	FailedAttempts int
	LockedUntil    *time.Time
}

// NewStudentUser creates the credential linked to a student record. The
// initial password is the NIM itself.
func NewStudentUser(studentID uuid.UUID, nim, name string) (*User, error) {
	if studentID == uuid.Nil {
		return nil, shared.NewValidationError("student reference is required")
	}
	u, err := newUser(nim, name, RoleStudent, nim)
	if err != nil {
		return nil, err
	}
	u.StudentID = &studentID
	return u, nil
}

// NewAdminUser creates an administrator credential identified by NIP
func NewAdminUser(nip, name, password string) (*User, error) {
	return newUser(nip, name, RoleAdmin, password)
}

func newUser(identifier, name string, role Role, password string) (*User, error) {
	identifier = NormalizeIdentifier(identifier)
	if identifier == "" {
		return nil, shared.NewValidationError("identifier cannot be empty")
	}
	if len(identifier) > maxIdentifierLen {
		return nil, shared.NewValidationError("identifier cannot exceed %d characters", maxIdentifierLen)
	}
	if !role.IsValid() {
		return nil, shared.NewValidationError("unknown role %q", role)
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Identifier:        identifier,
		Name:              strings.TrimSpace(name),
		Role:              role,
		PasswordHash:      hash,
	}, nil
}

// SetPassword replaces the password hash
func (u *User) SetPassword(password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.Touch()
	return nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// IsLocked reports whether too many failed logins are still being penalized
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

// RecordLoginSuccess resets the failure counter
func (u *User) RecordLoginSuccess() {
	now := time.Now()
	u.LastLoginAt = &now
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.Touch()
}

// RecordLoginFailure counts a failed attempt and locks the account once
// maxAttempts is reached. Returns true when the account became locked.
func (u *User) RecordLoginFailure(maxAttempts int, lockDuration time.Duration) bool {
	u.FailedAttempts++
	u.Touch()
	if maxAttempts > 0 && u.FailedAttempts >= maxAttempts {
		until := time.Now().Add(lockDuration)
		u.LockedUntil = &until
		u.FailedAttempts = 0
		return true
	}
	return false
}

// NormalizeIdentifier trims and upper-cases a NIM or NIP
func NormalizeIdentifier(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func hashPassword(password string) (string, error) {
	if password == "" {
		return "", shared.NewValidationError("password cannot be empty")
	}
	if len(password) > maxPasswordBytes {
		return "", shared.NewValidationError("password cannot exceed %d bytes", maxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", shared.WrapDomainError("PASSWORD_HASH_ERROR", "failed to hash password", err)
	}
	return string(hash), nil
}
