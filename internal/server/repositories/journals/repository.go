package journals

import (
	"context"
	"time"

	"github.com/dmitrijs2005/bkjournal/internal/cryptox"
	"github.com/dmitrijs2005/bkjournal/internal/server/models"
)

// Repository persists journal records. Reads take an explicit scope; writes
// that target an existing record are conditioned on the owning counselor and
// on the record still being active.
type Repository interface {
	FindByID(ctx context.Context, id string, scope models.Scope) (*models.JournalRecord, error)
	Create(ctx context.Context, rec *models.JournalRecord) error
	UpdateContent(ctx context.Context, id, counselorID string, env cryptox.Envelope, updatedAt time.Time) error
	SoftDelete(ctx context.Context, id, counselorID string, deletedAt time.Time) error
	FindManyByCounselor(ctx context.Context, counselorID string, filter models.JournalFilter) ([]*models.JournalRecord, error)
	SelectAllEnvelopes(ctx context.Context) ([]*models.JournalRecord, error)
}
