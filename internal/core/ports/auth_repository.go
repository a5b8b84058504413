package ports

import (
	"context"

	"github.com/giftkart/shipping-admin/internal/core/domain"
)

// UserRepository defines persistence for back-office accounts.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// Create returns domain.ErrUserExists on a duplicate username.
	Create(ctx context.Context, user *domain.User) error
}
