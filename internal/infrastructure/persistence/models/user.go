package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/domain/identity"
)

// UserModel is the persistence model for a login credential
type UserModel struct {
	BaseModel
	Identifier     string        `gorm:"column:identifier;type:varchar(50);not null;uniqueIndex"`
	Name           string        `gorm:"column:name;type:varchar(150)"`
	Role           identity.Role `gorm:"column:role;type:varchar(20);not null"`
	StudentID      *uuid.UUID    `gorm:"column:mahasiswa_id;type:uuid;index"`
	PasswordHash   string        `gorm:"column:password_hash;type:varchar(255);not null"`
	LastLoginAt    *time.Time    `gorm:"column:last_login_at"`
	FailedAttempts int           `gorm:"column:failed_attempts;not null;default:0"`
	LockedUntil    *time.Time    `gorm:"column:locked_until"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Identifier:        m.Identifier,
		Name:              m.Name,
		Role:              m.Role,
		StudentID:         m.StudentID,
		PasswordHash:      m.PasswordHash,
		LastLoginAt:       m.LastLoginAt,
		FailedAttempts:    m.FailedAttempts,
		LockedUntil:       m.LockedUntil,
	}
}

// FromDomain populates the persistence model from a domain User
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Identifier = u.Identifier
	m.Name = u.Name
	m.Role = u.Role
	m.StudentID = u.StudentID
	m.PasswordHash = u.PasswordHash
	m.LastLoginAt = u.LastLoginAt
	m.FailedAttempts = u.FailedAttempts
	m.LockedUntil = u.LockedUntil
}

// UserModelFromDomain creates a new persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}

// AllModels lists every model, in dependency order, for AutoMigrate in tests
func AllModels() []any {
	return []any{
		&StudentModel{},
		&ActivityTypeModel{},
		&ClaimModel{},
		&UserModel{},
	}
}
