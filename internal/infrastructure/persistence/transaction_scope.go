package persistence

import (
	"context"

	"github.com/poinmhs/backend/internal/application/transaction"
	"github.com/poinmhs/backend/internal/domain/activity"
	"github.com/poinmhs/backend/internal/domain/claim"
	"github.com/poinmhs/backend/internal/domain/identity"
	"github.com/poinmhs/backend/internal/domain/student"
	"gorm.io/gorm"
)

// GormTransactionScope implements transaction.Scope using GORM transactions
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. A returned error rolls the
// transaction back, otherwise it is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos transaction.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{tx: tx})
	})
}

// gormRepositories hands out repositories bound to one transaction
type gormRepositories struct {
	tx *gorm.DB
}

func (r *gormRepositories) Students() student.StudentRepository {
	return NewGormStudentRepository(r.tx)
}

func (r *gormRepositories) Claims() claim.ClaimRepository {
	return NewGormClaimRepository(r.tx)
}

func (r *gormRepositories) ActivityTypes() activity.ActivityTypeRepository {
	return NewGormActivityTypeRepository(r.tx)
}

func (r *gormRepositories) Users() identity.UserRepository {
	return NewGormUserRepository(r.tx)
}

var (
	_ transaction.Scope        = (*GormTransactionScope)(nil)
	_ transaction.Repositories = (*gormRepositories)(nil)
)
