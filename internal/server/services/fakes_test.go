package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bkjournal/internal/common"
	"github.com/dmitrijs2005/bkjournal/internal/cryptox"
	"github.com/dmitrijs2005/bkjournal/internal/dbx"
	"github.com/dmitrijs2005/bkjournal/internal/server/models"
	"github.com/dmitrijs2005/bkjournal/internal/server/repositories/assignments"
	"github.com/dmitrijs2005/bkjournal/internal/server/repositories/auditlogs"
	"github.com/dmitrijs2005/bkjournal/internal/server/repositories/journals"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// fakeJournalsRepo keeps records in memory and applies the same conditions
// as the SQL implementation.
type fakeJournalsRepo struct {
	mu      sync.Mutex
	records map[string]*models.JournalRecord

	findCalls   int
	ignoreScope bool
	findErr     error
	createErr   error
	listErr     error
}

func newFakeJournalsRepo() *fakeJournalsRepo {
	return &fakeJournalsRepo{records: map[string]*models.JournalRecord{}}
}

func (f *fakeJournalsRepo) FindByID(_ context.Context, id string, scope models.Scope) (*models.JournalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	r, ok := f.records[id]
	if !ok || (scope == models.ScopeActive && !f.ignoreScope && r.State() != models.StateActive) {
		return nil, common.ErrorNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeJournalsRepo) Create(_ context.Context, rec *models.JournalRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *rec
	f.records[rec.ID] = &cp
	return nil
}

func (f *fakeJournalsRepo) UpdateContent(_ context.Context, id, counselorID string, env cryptox.Envelope, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok || r.CounselorID != counselorID || r.DeletedAt != nil {
		return common.ErrorNotFound
	}
	r.Envelope = env
	r.UpdatedAt = updatedAt
	return nil
}

func (f *fakeJournalsRepo) SoftDelete(_ context.Context, id, counselorID string, deletedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok || r.CounselorID != counselorID || r.DeletedAt != nil {
		return common.ErrorNotFound
	}
	r.DeletedAt = &deletedAt
	r.UpdatedAt = deletedAt
	return nil
}

func (f *fakeJournalsRepo) FindManyByCounselor(_ context.Context, counselorID string, filter models.JournalFilter) ([]*models.JournalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.JournalRecord
	for _, r := range f.records {
		if r.CounselorID != counselorID || r.DeletedAt != nil {
			continue
		}
		if filter.StudentID != "" && r.StudentID != filter.StudentID {
			continue
		}
		cp := *r
		cp.Envelope = cryptox.Envelope{}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionDate.After(out[j].SessionDate) })
	return out, nil
}

func (f *fakeJournalsRepo) SelectAllEnvelopes(context.Context) ([]*models.JournalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.JournalRecord, 0, len(f.records))
	for _, r := range f.records {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeAssignmentsRepo struct {
	// key is studentID + "/" + counselorID
	assigned map[string]bool
	err      error
	calls    int
}

func (f *fakeAssignmentsRepo) IsAssigned(_ context.Context, studentID, counselorID string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.assigned[studentID+"/"+counselorID], nil
}

type fakeAuditRepo struct {
	events []models.AuditEvent
	err    error
}

func (f *fakeAuditRepo) Record(_ context.Context, ev *models.AuditEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, *ev)
	return nil
}

type fakeRepoManager struct {
	j *fakeJournalsRepo
	a *fakeAssignmentsRepo
	l *fakeAuditRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Journals(dbx.DBTX) journals.Repository        { return m.j }
func (m *fakeRepoManager) Assignments(dbx.DBTX) assignments.Repository  { return m.a }
func (m *fakeRepoManager) AuditLogs(dbx.DBTX) auditlogs.Repository      { return m.l }

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		j: newFakeJournalsRepo(),
		a: &fakeAssignmentsRepo{assigned: map[string]bool{}},
		l: &fakeAuditRepo{},
	}
}

// countingCodec records how often decryption is attempted.
type countingCodec struct {
	EnvelopeCodec
	decrypts int
}

func (c *countingCodec) Decrypt(env cryptox.Envelope) (string, error) {
	c.decrypts++
	return c.EnvelopeCodec.Decrypt(env)
}
