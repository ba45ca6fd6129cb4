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
	"taskman/internal/server/repositories/tasks"
)

// TaskService implements task CRUD on behalf of an authenticated user.
type TaskService struct {
	repo   tasks.Repository
	logger logging.Logger
}

// NewTaskService constructs a TaskService bound to the connection pool.
func NewTaskService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *TaskService {
	return &TaskService{
		repo:   m.Tasks(db),
		logger: logger.With("component", "tasks"),
	}
}

// Create inserts a task owned by the actor.
func (s *TaskService) Create(ctx context.Context, actor *auth.Claims, task *models.Task) (*models.Task, error) {
	actorID, err := actorID(actor)
	if err != nil {
		return nil, err
	}
	if task.Title == "" {
		return nil, common.ErrorValidation
	}
	task.CreatedByID = actorID

	created, err := s.repo.Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}

	s.logger.Info(ctx, "task created", "task_id", created.ID, "user_id", actorID)
	return created, nil
}

// Get returns a task visible to the actor. A task is visible to its creator,
// its assignee, and admins.
func (s *TaskService) Get(ctx context.Context, actor *auth.Claims, id int64) (*models.Task, error) {
	actorID, err := actorID(actor)
	if err != nil {
		return nil, err
	}

	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, actorID, task) {
		// Hide existence from users who cannot see the task.
		return nil, common.ErrorNotFound
	}
	return task, nil
}

// List returns the actor's tasks, newest first.
func (s *TaskService) List(ctx context.Context, actor *auth.Claims) ([]*models.Task, error) {
	actorID, err := actorID(actor)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, actorID)
}

// Update persists task changes. Creator, assignee and admins may update.
func (s *TaskService) Update(ctx context.Context, actor *auth.Claims, task *models.Task) error {
	actorID, err := actorID(actor)
	if err != nil {
		return err
	}
	if task.Title == "" {
		return common.ErrorValidation
	}

	current, err := s.repo.GetByID(ctx, task.ID)
	if err != nil {
		return err
	}
	if !canSee(actor, actorID, current) {
		return common.ErrorNotFound
	}
	// Ownership does not change on update.
	task.CreatedByID = current.CreatedByID

	if err := s.repo.Update(ctx, task); err != nil {
		return err
	}
	s.logger.Info(ctx, "task updated", "task_id", task.ID, "user_id", actorID)
	return nil
}

// Delete removes the task. Only the creator and admins may delete.
func (s *TaskService) Delete(ctx context.Context, actor *auth.Claims, id int64) error {
	actorID, err := actorID(actor)
	if err != nil {
		return err
	}

	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if task.CreatedByID != actorID && actor.Role != models.RoleAdmin {
		return common.ErrorNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "task deleted", "task_id", id, "user_id", actorID)
	return nil
}

func actorID(actor *auth.Claims) (int64, error) {
	if actor == nil {
		return 0, common.ErrorUnauthorized
	}
	id, err := actor.UserID()
	if err != nil {
		return 0, common.ErrorUnauthorized
	}
	return id, nil
}

func canSee(actor *auth.Claims, actorID int64, task *models.Task) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	if task.CreatedByID == actorID {
		return true
	}
	return task.AssignedToID != nil && *task.AssignedToID == actorID
}
