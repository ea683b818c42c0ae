package repository

import (
	"context"
	"errors"

	"github.com/refhub/user-service/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no user matches the given id or email.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when a create hits the unique email index.
	ErrDuplicateEmail = errors.New("duplicate email")
)

// Patch carries a sparse update: only non-nil fields are written.
// Password must already be a bcrypt hash.
type Patch struct {
	Name     *string
	Email    *string
	Password *string
}

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, id string, p Patch) (*entity.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*entity.User, error)
}
