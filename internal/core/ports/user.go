package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/threadlinehq/accounts-service/internal/core/domain/user"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	// GetByEmail looks up an account holding the address within a realm,
	// regardless of its active or mirror-dummy status.
	GetByEmail(ctx context.Context, realmID uuid.UUID, email string) (*user.User, error)
	Update(ctx context.Context, user *user.User) error
	List(ctx context.Context, realmID uuid.UUID, limit, offset int) ([]*user.User, error)
	Count(ctx context.Context, realmID uuid.UUID) (int, error)
}

// UserService defines the interface for user business logic
type UserService interface {
	CreateUser(ctx context.Context, req *user.CreateUserRequest, realmID uuid.UUID) (*user.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetUserByEmail(ctx context.Context, realmID uuid.UUID, email string) (*user.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req *user.UpdateUserRequest) (*user.User, error)
	ListUsers(ctx context.Context, realmID uuid.UUID, limit, offset int) ([]*user.User, int, error)
	VerifyPassword(ctx context.Context, userID uuid.UUID, password string) error
}
