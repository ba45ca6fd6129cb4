package services

import (
	"context"
	"database/sql"
	"fmt"

	"taskman/internal/common"
	"taskman/internal/logging"
	"taskman/internal/server/auth"
	"taskman/internal/server/models"
	"taskman/internal/server/repositories/repomanager"
	"taskman/internal/server/repositories/users"
)

// UserService implements account registration and profile management.
type UserService struct {
	repo   users.Repository
	hasher auth.Hasher
	logger logging.Logger
}

// NewUserService constructs a UserService bound to the connection pool.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *UserService {
	return &UserService{
		repo:   m.Users(db),
		logger: logger.With("component", "users"),
	}
}

// Register creates a new account with a hashed password. The plaintext
// password never leaves this method.
func (s *UserService) Register(ctx context.Context, user *models.User, password string) (*models.User, error) {
	exists, err := s.repo.EmailExists(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		return nil, common.ErrorAlreadyExists
	}

	hash, err := s.hasher.Secure(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	user.PasswordHash = hash
	user.IsActive = true
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", created.ID)
	return created, nil
}

// Get returns the user by id.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Update persists profile changes. Only the owner or an admin may update.
func (s *UserService) Update(ctx context.Context, actor *auth.Claims, user *models.User) error {
	if err := requireSelfOrAdmin(actor, user.ID); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	s.logger.Info(ctx, "user updated", "user_id", user.ID)
	return nil
}

// Delete removes the account. Only the owner or an admin may delete.
func (s *UserService) Delete(ctx context.Context, actor *auth.Claims, id int64) error {
	if err := requireSelfOrAdmin(actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "user deleted", "user_id", id)
	return nil
}

func requireSelfOrAdmin(actor *auth.Claims, targetID int64) error {
	if actor == nil {
		return common.ErrorUnauthorized
	}
	actorID, err := actor.UserID()
	if err != nil {
		return common.ErrorUnauthorized
	}
	if actorID != targetID && actor.Role != models.RoleAdmin {
		return common.ErrorUnauthorized
	}
	return nil
}
