package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"time"

	"taskman/internal/common"
	"taskman/internal/dbx"
	"taskman/internal/logging"
	"taskman/internal/server/models"
	"taskman/internal/server/repositories/refreshtokens"
	"taskman/internal/server/repositories/tasks"
	"taskman/internal/server/repositories/users"
)

// The fakes below back the services with in-memory state so tests can drive
// the flows without a database. They deliberately ignore the DBTX handle;
// transaction semantics at the SQL level are covered by the repository and
// dbx tests.

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeManager struct {
	users  *fakeUserRepo
	tasks  *fakeTaskRepo
	tokens *fakeTokenRepo
}

func newFakeManager() *fakeManager {
	return &fakeManager{
		users:  &fakeUserRepo{byID: map[int64]*models.User{}},
		tasks:  &fakeTaskRepo{byID: map[int64]*models.Task{}},
		tokens: &fakeTokenRepo{byToken: map[string]*models.RefreshToken{}},
	}
}

func (m *fakeManager) Users(db dbx.DBTX) users.Repository                 { return m.users }
func (m *fakeManager) Tasks(db dbx.DBTX) tasks.Repository                 { return m.tasks }
func (m *fakeManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return m.tokens }
func (m *fakeManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.User

	getHashErr  error
	existsErr   error
	touchCalled int
}

func (r *fakeUserRepo) add(u *models.User) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	r.byID[u.ID] = u
	return u
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	return r.add(user), nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUserRepo) GetPasswordHashByEmail(ctx context.Context, email string) (string, error) {
	if r.getHashErr != nil {
		return "", r.getHashErr
	}
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return u.PasswordHash, nil
}

func (r *fakeUserRepo) ExistsByID(ctx context.Context, id int64) (bool, error) {
	if r.existsErr != nil {
		return false, r.existsErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	return ok && u.IsActive, nil
}

func (r *fakeUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; !ok {
		return common.ErrorNotFound
	}
	r.byID[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeUserRepo) TouchLastLogin(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touchCalled++
	return nil
}

type fakeTokenRepo struct {
	mu      sync.Mutex
	nextID  int64
	byToken map[string]*models.RefreshToken

	saveErr    error
	isValidErr error
	forceLose  bool
	revokedAll int
}

func (r *fakeTokenRepo) Save(ctx context.Context, token *models.RefreshToken) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	token.ID = r.nextID
	token.CreatedAt = time.Now()
	r.byToken[token.Token] = token
	return nil
}

func (r *fakeTokenRepo) GetByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byToken[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (r *fakeTokenRepo) IsValid(ctx context.Context, token string) (bool, error) {
	if r.isValidErr != nil {
		return false, r.isValidErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byToken[token]
	return ok && t.Valid(time.Now()), nil
}

func (r *fakeTokenRepo) AtomicInvalidate(ctx context.Context, token string, replacedByTokenID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.forceLose {
		return false, nil
	}
	t, ok := r.byToken[token]
	if !ok || t.Invalidated {
		return false, nil
	}
	now := time.Now()
	t.Invalidated = true
	t.RevokedAt = &now
	t.ReplacedByTokenID = &replacedByTokenID
	return true, nil
}

func (r *fakeTokenRepo) RevokeAllForUser(ctx context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revokedAll++
	var n int64
	now := time.Now()
	for _, t := range r.byToken {
		if t.UserID == userID && !t.Invalidated {
			t.Invalidated = true
			t.RevokedAt = &now
			n++
		}
	}
	return n, nil
}

// live returns how many tokens of the user are currently valid.
func (r *fakeTokenRepo) live(userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.byToken {
		if t.UserID == userID && t.Valid(time.Now()) {
			n++
		}
	}
	return n
}

type fakeTaskRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.Task
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	task.ID = r.nextID
	task.CreatedAt = time.Now()
	r.byID[task.ID] = task
	return task, nil
}

func (r *fakeTaskRepo) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (r *fakeTaskRepo) List(ctx context.Context, userID int64) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Task
	for _, t := range r.byID {
		if t.CreatedByID == userID || (t.AssignedToID != nil && *t.AssignedToID == userID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[task.ID]; !ok {
		return common.ErrorNotFound
	}
	r.byID[task.ID] = task
	return nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}
