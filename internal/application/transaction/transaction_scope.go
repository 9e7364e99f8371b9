// Package transaction exposes the unit of work the services use for writes
// that span more than one aggregate.
package transaction

import (
	"context"

	"github.com/poinmhs/backend/internal/domain/activity"
	"github.com/poinmhs/backend/internal/domain/claim"
	"github.com/poinmhs/backend/internal/domain/identity"
	"github.com/poinmhs/backend/internal/domain/student"
)

// Scope runs a function inside one database transaction. If the function
// returns an error the transaction is rolled back, otherwise committed.
type Scope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories gives access to repositories bound to the current transaction
type Repositories interface {
	Students() student.StudentRepository
	Claims() claim.ClaimRepository
	ActivityTypes() activity.ActivityTypeRepository
	Users() identity.UserRepository
}
