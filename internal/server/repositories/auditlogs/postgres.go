package auditlogs

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/bkjournal/internal/dbx"
	"github.com/dmitrijs2005/bkjournal/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Record appends ev. The table has no payload column.
func (r *PostgresRepository) Record(ctx context.Context, ev *models.AuditEvent) error {
	query := `
		INSERT INTO audit_logs (id, actor_id, action, entity_type, entity_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, ev.ID, ev.ActorID, string(ev.Action), ev.EntityType, ev.EntityID, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
