package journals

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bkjournal/internal/common"
	"github.com/dmitrijs2005/bkjournal/internal/cryptox"
	"github.com/dmitrijs2005/bkjournal/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sessionDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	createdAt   = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	updatedAt   = time.Date(2024, 3, 2, 11, 0, 0, 0, time.UTC)

	ivHex  = "000102030405060708090a0b0c0d0e0f"
	tagHex = "f0e0d0c0b0a090807060504030201000"
)

var fullColumns = []string{
	"id", "student_id", "counselor_id", "session_date",
	"encrypted_content", "encryption_iv", "encryption_tag",
	"created_at", "updated_at", "deleted_at",
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestFindByID_ActiveScope(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(fullColumns).
		AddRow("j1", "s1", "c1", sessionDate, "abcd", ivHex, tagHex, createdAt, updatedAt, nil)

	mock.ExpectQuery(`SELECT id, student_id, .* FROM journals\s+WHERE id = \$1 AND deleted_at IS NULL`).
		WithArgs("j1").
		WillReturnRows(rows)

	rec, err := repo.FindByID(context.Background(), "j1", models.ScopeActive)
	require.NoError(t, err)

	assert.Equal(t, "j1", rec.ID)
	assert.Equal(t, "s1", rec.StudentID)
	assert.Equal(t, "c1", rec.CounselorID)
	assert.Equal(t, sessionDate, rec.SessionDate)
	assert.Equal(t, cryptox.Envelope{Ciphertext: "abcd", IV: ivHex, Tag: tagHex}, rec.Envelope)
	assert.Nil(t, rec.DeletedAt)
	assert.Equal(t, models.StateActive, rec.State())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_IncludingDeletedScope(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	deletedAt := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(fullColumns).
		AddRow("j1", "s1", "c1", sessionDate, "abcd", ivHex, tagHex, createdAt, updatedAt, deletedAt)

	mock.ExpectQuery(`SELECT id, student_id, .* FROM journals\s+WHERE id = \$1$`).
		WithArgs("j1").
		WillReturnRows(rows)

	rec, err := repo.FindByID(context.Background(), "j1", models.ScopeIncludingDeleted)
	require.NoError(t, err)
	require.NotNil(t, rec.DeletedAt)
	assert.Equal(t, deletedAt, *rec.DeletedAt)
	assert.Equal(t, models.StateDeleted, rec.State())
	assert.Equal(t, "abcd", rec.Envelope.Ciphertext, "soft delete keeps the envelope")
}

func TestFindByID_PartialEnvelopeIsPassedThrough(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(fullColumns).
		AddRow("j1", "s1", "c1", sessionDate, "abcd", ivHex, nil, createdAt, updatedAt, nil)

	mock.ExpectQuery(`FROM journals`).WithArgs("j1").WillReturnRows(rows)

	rec, err := repo.FindByID(context.Background(), "j1", models.ScopeActive)
	require.NoError(t, err)
	assert.Equal(t, "", rec.Envelope.Tag)
	assert.False(t, rec.Envelope.IsZero())
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM journals`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "nope", models.ScopeActive)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFindByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM journals`).WithArgs("j1").WillReturnError(errors.New("db is down"))

	_, err := repo.FindByID(context.Background(), "j1", models.ScopeActive)
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
	assert.Contains(t, err.Error(), "db error: db is down")
}

func TestFindByID_InvalidScope(t *testing.T) {
	repo, _, db := newRepoWithMock(t)
	defer db.Close()

	_, err := repo.FindByID(context.Background(), "j1", models.Scope(0))
	assert.ErrorIs(t, err, ErrInvalidScope)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO journals \(id, student_id, counselor_id, session_date,\s+encrypted_content, encryption_iv, encryption_tag, created_at, updated_at\)`).
		WithArgs("j1", "s1", "c1", sessionDate, "abcd", ivHex, tagHex, createdAt, createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.JournalRecord{
		ID: "j1", StudentID: "s1", CounselorID: "c1", SessionDate: sessionDate,
		Envelope:  cryptox.Envelope{Ciphertext: "abcd", IV: ivHex, Tag: tagHex},
		CreatedAt: createdAt, UpdatedAt: createdAt,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO journals`).WillReturnError(errors.New("duplicate key"))

	err := repo.Create(context.Background(), &models.JournalRecord{
		ID: "j1", Envelope: cryptox.Envelope{Ciphertext: "abcd", IV: ivHex, Tag: tagHex},
	})
	require.ErrorContains(t, err, "db error: duplicate key")
}

func TestCreate_RefusesEmptyEnvelope(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	err := repo.Create(context.Background(), &models.JournalRecord{ID: "j1", StudentID: "s1", CounselorID: "c1"})
	assert.ErrorIs(t, err, common.ErrInvalidEnvelope)
	assert.NoError(t, mock.ExpectationsWereMet(), "no statement is issued")
}

func TestUpdateContent(t *testing.T) {
	env := cryptox.Envelope{Ciphertext: "beef", IV: ivHex, Tag: tagHex}
	q := `UPDATE journals\s+SET encrypted_content = \$1, encryption_iv = \$2, encryption_tag = \$3, updated_at = \$4\s+WHERE id = \$5 AND counselor_id = \$6 AND deleted_at IS NULL`

	tests := []struct {
		name    string
		result  func(m sqlmock.Sqlmock)
		wantErr error
		errText string
	}{
		{"one row", func(m sqlmock.Sqlmock) {
			m.ExpectExec(q).WithArgs("beef", ivHex, tagHex, updatedAt, "j1", "c1").WillReturnResult(sqlmock.NewResult(0, 1))
		}, nil, ""},
		{"zero rows", func(m sqlmock.Sqlmock) {
			m.ExpectExec(q).WithArgs("beef", ivHex, tagHex, updatedAt, "j1", "c1").WillReturnResult(sqlmock.NewResult(0, 0))
		}, common.ErrorNotFound, ""},
		{"two rows", func(m sqlmock.Sqlmock) {
			m.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 2))
		}, nil, "unexpected rows affected: 2"},
		{"rows affected error", func(m sqlmock.Sqlmock) {
			m.ExpectExec(q).WillReturnResult(sqlmock.NewErrorResult(errors.New("rows-err")))
		}, nil, "rows affected error: rows-err"},
		{"exec error", func(m sqlmock.Sqlmock) {
			m.ExpectExec(q).WillReturnError(errors.New("db is down"))
		}, nil, "db error: db is down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()
			tt.result(mock)

			err := repo.UpdateContent(context.Background(), "j1", "c1", env, updatedAt)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				assert.ErrorContains(t, err, tt.errText)
			default:
				assert.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSoftDelete(t *testing.T) {
	q := `UPDATE journals\s+SET deleted_at = \$1, updated_at = \$1\s+WHERE id = \$2 AND counselor_id = \$3 AND deleted_at IS NULL`

	t.Run("success", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(q).WithArgs(updatedAt, "j1", "c1").WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, repo.SoftDelete(context.Background(), "j1", "c1", updatedAt))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already deleted", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(q).WithArgs(updatedAt, "j1", "c1").WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.SoftDelete(context.Background(), "j1", "c1", updatedAt), common.ErrorNotFound)
	})

	t.Run("exec error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(q).WillReturnError(errors.New("boom"))
		assert.ErrorContains(t, repo.SoftDelete(context.Background(), "j1", "c1", updatedAt), "db error: boom")
	})
}

func TestFindManyByCounselor(t *testing.T) {
	metaColumns := []string{"id", "student_id", "counselor_id", "session_date", "created_at", "updated_at"}

	t.Run("no filter", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		rows := sqlmock.NewRows(metaColumns).
			AddRow("j2", "s2", "c1", sessionDate.AddDate(0, 0, 1), createdAt, updatedAt).
			AddRow("j1", "s1", "c1", sessionDate, createdAt, createdAt)

		mock.ExpectQuery(`SELECT id, student_id, counselor_id, session_date, created_at, updated_at\s+FROM journals\s+WHERE counselor_id = \$1 AND deleted_at IS NULL ORDER BY session_date DESC`).
			WithArgs("c1").
			WillReturnRows(rows)

		got, err := repo.FindManyByCounselor(context.Background(), "c1", models.JournalFilter{})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "j2", got[0].ID)
		assert.Equal(t, "j1", got[1].ID)
		assert.True(t, got[0].Envelope.IsZero(), "listing must not load envelopes")
	})

	t.Run("student filter", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(`WHERE counselor_id = \$1 AND deleted_at IS NULL AND student_id = \$2 ORDER BY`).
			WithArgs("c1", "s1").
			WillReturnRows(sqlmock.NewRows(metaColumns).AddRow("j1", "s1", "c1", sessionDate, createdAt, createdAt))

		got, err := repo.FindManyByCounselor(context.Background(), "c1", models.JournalFilter{StudentID: "s1"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "s1", got[0].StudentID)
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(`FROM journals`).WillReturnError(errors.New("db err"))

		_, err := repo.FindManyByCounselor(context.Background(), "c1", models.JournalFilter{})
		assert.ErrorContains(t, err, "failed to select journals")
	})

	t.Run("row error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		rows := sqlmock.NewRows(metaColumns).
			AddRow("j1", "s1", "c1", sessionDate, createdAt, createdAt).
			RowError(0, errors.New("row broke"))
		mock.ExpectQuery(`FROM journals`).WillReturnRows(rows)

		_, err := repo.FindManyByCounselor(context.Background(), "c1", models.JournalFilter{})
		assert.ErrorContains(t, err, "row broke")
	})
}

func TestSelectAllEnvelopes(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	deletedAt := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(fullColumns).
		AddRow("j1", "s1", "c1", sessionDate, "aa", ivHex, tagHex, createdAt, createdAt, nil).
		AddRow("j2", "s2", "c2", sessionDate, "bb", ivHex, tagHex, createdAt, updatedAt, deletedAt)

	mock.ExpectQuery(`FROM journals\s+ORDER BY created_at`).WillReturnRows(rows)

	got, err := repo.SelectAllEnvelopes(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].DeletedAt)
	require.NotNil(t, got[1].DeletedAt)
	assert.Equal(t, "bb", got[1].Envelope.Ciphertext)
	require.NoError(t, mock.ExpectationsWereMet())
}
