package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bkjournal/internal/dbx"
	"github.com/dmitrijs2005/bkjournal/internal/server/repositories/assignments"
	"github.com/dmitrijs2005/bkjournal/internal/server/repositories/auditlogs"
	"github.com/dmitrijs2005/bkjournal/internal/server/repositories/journals"
)

// RepositoryManager vends repositories bound to either the pool or an open
// transaction, so services can compose several writes into one unit of work.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Journals(db dbx.DBTX) journals.Repository
	Assignments(db dbx.DBTX) assignments.Repository
	AuditLogs(db dbx.DBTX) auditlogs.Repository
}
