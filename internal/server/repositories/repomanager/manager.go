package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/fundconnector/internal/dbx"
	"github.com/dmitrijs2005/fundconnector/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/fundconnector/internal/server/repositories/profiles"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code runs
// against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Profiles(db dbx.DBTX) profiles.Repository
}
