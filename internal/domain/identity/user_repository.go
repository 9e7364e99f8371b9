package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for credential persistence
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)
	ExistsByIdentifier(ctx context.Context, identifier string) (bool, error)
	Save(ctx context.Context, u *User) error
	DeleteByStudent(ctx context.Context, studentID uuid.UUID) error
}
