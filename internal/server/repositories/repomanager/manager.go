package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/keepsake/internal/dbx"
	"github.com/dmitrijs2005/keepsake/internal/server/repositories/entries"
	"github.com/dmitrijs2005/keepsake/internal/server/repositories/identities"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Identities(db dbx.DBTX) identities.Repository
	Entries(db dbx.DBTX) entries.Repository
}
