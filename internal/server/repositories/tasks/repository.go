// Package tasks declares the repository contract for managed tasks.
package tasks

import (
	"context"

	"taskman/internal/server/models"
)

// Repository defines persistence operations for tasks. GetByID loads the
// task's tags as well; List does not, to keep the listing query flat.
type Repository interface {
	// Create inserts the task and fills in ID and CreatedAt.
	Create(ctx context.Context, task *models.Task) (*models.Task, error)

	// GetByID returns the task with its tags, or common.ErrorNotFound.
	GetByID(ctx context.Context, id int64) (*models.Task, error)

	// List returns tasks created by or assigned to the user, newest first.
	List(ctx context.Context, userID int64) ([]*models.Task, error)

	// Update persists mutable task fields and stamps UpdatedAt.
	Update(ctx context.Context, task *models.Task) error

	Delete(ctx context.Context, id int64) error
}
