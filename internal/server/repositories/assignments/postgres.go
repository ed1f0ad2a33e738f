package assignments

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/bkjournal/internal/dbx"
)

// PostgresRepository reads counselor_assignments over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// IsAssigned reports whether an open (ended_at IS NULL) assignment links
// studentID to counselorID.
func (r *PostgresRepository) IsAssigned(ctx context.Context, studentID, counselorID string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM counselor_assignments
		WHERE student_id = $1 AND counselor_id = $2 AND ended_at IS NULL
	)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, studentID, counselorID).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}
