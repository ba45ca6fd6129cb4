package httpapi

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"taskman/internal/common"
	"taskman/internal/dbx"
	"taskman/internal/server/models"
	"taskman/internal/server/repositories/refreshtokens"
	"taskman/internal/server/repositories/tasks"
	"taskman/internal/server/repositories/users"
)

// memManager is an in-memory repomanager.RepositoryManager so handler tests
// can exercise the full stack without a database.
type memManager struct {
	mu        sync.Mutex
	nextUser  int64
	nextTask  int64
	nextToken int64
	usersByID map[int64]*models.User
	tasksByID map[int64]*models.Task
	tokens    map[string]*models.RefreshToken
}

func newMemManager() *memManager {
	return &memManager{
		usersByID: map[int64]*models.User{},
		tasksByID: map[int64]*models.Task{},
		tokens:    map[string]*models.RefreshToken{},
	}
}

func (m *memManager) Users(db dbx.DBTX) users.Repository                 { return (*memUsers)(m) }
func (m *memManager) Tasks(db dbx.DBTX) tasks.Repository                 { return (*memTasks)(m) }
func (m *memManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return (*memTokens)(m) }
func (m *memManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

type memUsers memManager

func (r *memUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextUser++
	user.ID = r.nextUser
	user.CreatedAt = time.Now()
	r.usersByID[user.ID] = user
	return user, nil
}

func (r *memUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.usersByID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (r *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.usersByID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) GetPasswordHashByEmail(ctx context.Context, email string) (string, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return u.PasswordHash, nil
}

func (r *memUsers) ExistsByID(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.usersByID[id]
	return ok && u.IsActive, nil
}

func (r *memUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *memUsers) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.usersByID[user.ID]; !ok {
		return common.ErrorNotFound
	}
	r.usersByID[user.ID] = user
	return nil
}

func (r *memUsers) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.usersByID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.usersByID, id)
	return nil
}

func (r *memUsers) TouchLastLogin(ctx context.Context, id int64) error {
	return nil
}

type memTasks memManager

func (r *memTasks) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextTask++
	task.ID = r.nextTask
	task.CreatedAt = time.Now()
	r.tasksByID[task.ID] = task
	return task, nil
}

func (r *memTasks) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasksByID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (r *memTasks) List(ctx context.Context, userID int64) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Task
	for _, t := range r.tasksByID {
		if t.CreatedByID == userID || (t.AssignedToID != nil && *t.AssignedToID == userID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memTasks) Update(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasksByID[task.ID]; !ok {
		return common.ErrorNotFound
	}
	r.tasksByID[task.ID] = task
	return nil
}

func (r *memTasks) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasksByID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.tasksByID, id)
	return nil
}

type memTokens memManager

func (r *memTokens) Save(ctx context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextToken++
	token.ID = r.nextToken
	token.CreatedAt = time.Now()
	r.tokens[token.Token] = token
	return nil
}

func (r *memTokens) GetByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (r *memTokens) IsValid(ctx context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	return ok && t.Valid(time.Now()), nil
}

func (r *memTokens) AtomicInvalidate(ctx context.Context, token string, replacedByTokenID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok || t.Invalidated {
		return false, nil
	}
	now := time.Now()
	t.Invalidated = true
	t.RevokedAt = &now
	t.ReplacedByTokenID = &replacedByTokenID
	return true, nil
}

func (r *memTokens) RevokeAllForUser(ctx context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	now := time.Now()
	for _, t := range r.tokens {
		if t.UserID == userID && !t.Invalidated {
			t.Invalidated = true
			t.RevokedAt = &now
			n++
		}
	}
	return n, nil
}
