// Package journals provides the PostgreSQL-backed journal repository.
package journals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bkjournal/internal/common"
	"github.com/dmitrijs2005/bkjournal/internal/cryptox"
	"github.com/dmitrijs2005/bkjournal/internal/dbx"
	"github.com/dmitrijs2005/bkjournal/internal/server/models"
)

var ErrInvalidScope = errors.New("invalid scope")

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scopeClause(scope models.Scope) (string, error) {
	switch scope {
	case models.ScopeActive:
		return " AND deleted_at IS NULL", nil
	case models.ScopeIncludingDeleted:
		return "", nil
	default:
		return "", ErrInvalidScope
	}
}

// FindByID returns the record with the given id within scope, or
// common.ErrorNotFound.
func (r *PostgresRepository) FindByID(ctx context.Context, id string, scope models.Scope) (*models.JournalRecord, error) {
	clause, err := scopeClause(scope)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, student_id, counselor_id, session_date,
			encrypted_content, encryption_iv, encryption_tag,
			created_at, updated_at, deleted_at
		FROM journals
		WHERE id = $1` + clause

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rec, nil
}

// Create inserts rec. ID and timestamps are assigned by the caller; a record
// without an envelope is refused.
func (r *PostgresRepository) Create(ctx context.Context, rec *models.JournalRecord) error {
	if rec.Envelope.IsZero() {
		return fmt.Errorf("%w: journal has no envelope", common.ErrInvalidEnvelope)
	}

	query := `
		INSERT INTO journals (id, student_id, counselor_id, session_date,
			encrypted_content, encryption_iv, encryption_tag, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.StudentID, rec.CounselorID, rec.SessionDate,
		rec.Envelope.Ciphertext, rec.Envelope.IV, rec.Envelope.Tag,
		rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// UpdateContent replaces the envelope of an active journal owned by
// counselorID. student_id and counselor_id are never part of the SET list.
func (r *PostgresRepository) UpdateContent(ctx context.Context, id, counselorID string, env cryptox.Envelope, updatedAt time.Time) error {
	query := `
		UPDATE journals
		SET encrypted_content = $1, encryption_iv = $2, encryption_tag = $3, updated_at = $4
		WHERE id = $5 AND counselor_id = $6 AND deleted_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, env.Ciphertext, env.IV, env.Tag, updatedAt, id, counselorID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

// SoftDelete marks an active journal owned by counselorID as deleted. The
// envelope columns are left untouched.
func (r *PostgresRepository) SoftDelete(ctx context.Context, id, counselorID string, deletedAt time.Time) error {
	query := `
		UPDATE journals
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND counselor_id = $3 AND deleted_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, deletedAt, id, counselorID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

// FindManyByCounselor lists active journals of one counselor, newest session
// first. Envelope columns are not selected.
func (r *PostgresRepository) FindManyByCounselor(ctx context.Context, counselorID string, filter models.JournalFilter) ([]*models.JournalRecord, error) {
	query := `SELECT id, student_id, counselor_id, session_date, created_at, updated_at
		FROM journals
		WHERE counselor_id = $1 AND deleted_at IS NULL`
	args := []any{counselorID}

	if filter.StudentID != "" {
		query += ` AND student_id = $2`
		args = append(args, filter.StudentID)
	}
	query += ` ORDER BY session_date DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select journals: %w", err)
	}
	defer rows.Close()

	var result []*models.JournalRecord
	for rows.Next() {
		var item models.JournalRecord
		if err := rows.Scan(&item.ID, &item.StudentID, &item.CounselorID, &item.SessionDate,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SelectAllEnvelopes returns every journal, deleted ones included, with its
// envelope. Used by the ciphertext backup.
func (r *PostgresRepository) SelectAllEnvelopes(ctx context.Context) ([]*models.JournalRecord, error) {
	query := `SELECT id, student_id, counselor_id, session_date,
			encrypted_content, encryption_iv, encryption_tag,
			created_at, updated_at, deleted_at
		FROM journals
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select journals: %w", err)
	}
	defer rows.Close()

	var result []*models.JournalRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.JournalRecord, error) {
	var (
		rec              models.JournalRecord
		content, iv, tag sql.NullString
		deletedAt        sql.NullTime
	)

	if err := s.Scan(&rec.ID, &rec.StudentID, &rec.CounselorID, &rec.SessionDate,
		&content, &iv, &tag, &rec.CreatedAt, &rec.UpdatedAt, &deletedAt); err != nil {
		return nil, err
	}

	// NULL columns become empty strings; an incomplete envelope is rejected
	// by the codec, not here.
	rec.Envelope = cryptox.Envelope{Ciphertext: content.String, IV: iv.String, Tag: tag.String}
	if deletedAt.Valid {
		t := deletedAt.Time
		rec.DeletedAt = &t
	}

	return &rec, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
