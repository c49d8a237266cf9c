package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/nodes"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a DBTX and owns schema
// migrations. Services hold a manager plus a *sql.DB and bind per call, so
// the same repository code runs inside and outside transactions.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Nodes(db dbx.DBTX) nodes.Repository
}
