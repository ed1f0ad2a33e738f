// Package auditlogs is the persistent audit sink for journal mutations.
package auditlogs

import (
	"context"

	"github.com/dmitrijs2005/bkjournal/internal/server/models"
)

type Repository interface {
	Record(ctx context.Context, ev *models.AuditEvent) error
}
