// Package users declares the repository contract for user accounts.
package users

import (
	"context"

	"taskman/internal/server/models"
)

// Repository defines persistence operations for user accounts. Lookups that
// miss return common.ErrorNotFound.
type Repository interface {
	// Create inserts the user and fills in ID and CreatedAt.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetPasswordHashByEmail returns only the stored password hash. The login
	// flow uses it so the full row is not pulled before credentials check out.
	GetPasswordHashByEmail(ctx context.Context, email string) (string, error)

	ExistsByID(ctx context.Context, id int64) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	// Update persists mutable profile fields and stamps UpdatedAt.
	Update(ctx context.Context, user *models.User) error

	Delete(ctx context.Context, id int64) error

	// TouchLastLogin records a successful login.
	TouchLastLogin(ctx context.Context, id int64) error
}
