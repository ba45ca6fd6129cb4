// Package repomanager wires repository constructors to a database handle and
// owns schema migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"taskman/internal/dbx"
	"taskman/internal/server/repositories/refreshtokens"
	"taskman/internal/server/repositories/tasks"
	"taskman/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX. Passing a *sql.Tx
// binds the repository to that transaction; passing the *sql.DB binds it to
// the pool.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Tasks(db dbx.DBTX) tasks.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository

	// RunMigrations brings the schema up to date.
	RunMigrations(ctx context.Context, db *sql.DB) error
}
