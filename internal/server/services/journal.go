// Package services contains server-side business logic. This file implements
// JournalService, the only path through which counseling journals are created,
// read, updated, deleted or listed.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/bkjournal/internal/common"
	"github.com/dmitrijs2005/bkjournal/internal/cryptox"
	"github.com/dmitrijs2005/bkjournal/internal/dbx"
	"github.com/dmitrijs2005/bkjournal/internal/logging"
	"github.com/dmitrijs2005/bkjournal/internal/server/access"
	"github.com/dmitrijs2005/bkjournal/internal/server/models"
	"github.com/dmitrijs2005/bkjournal/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// EnvelopeCodec seals and opens journal bodies. *cryptox.Codec satisfies it.
type EnvelopeCodec interface {
	Encrypt(plaintext string) (cryptox.Envelope, error)
	Decrypt(env cryptox.Envelope) (string, error)
}

// JournalService enforces ownership around storage and does all encryption
// and decryption of journal content.
type JournalService struct {
	db               *sql.DB
	repomanager      repomanager.RepositoryManager
	codec            EnvelopeCodec
	logger           logging.Logger
	minContentLength int

	now   func() time.Time
	newID func() string
}

// NewJournalService constructs a JournalService. minContentLength is counted
// in characters after trimming surrounding whitespace.
func NewJournalService(db *sql.DB, m repomanager.RepositoryManager, codec EnvelopeCodec,
	logger logging.Logger, minContentLength int) *JournalService {
	return &JournalService{
		db:               db,
		repomanager:      m,
		codec:            codec,
		logger:           logger,
		minContentLength: minContentLength,
		now:              func() time.Time { return time.Now().UTC() },
		newID:            uuid.NewString,
	}
}

// CreateJournal stores a new journal about studentID authored by the calling
// counselor. The student must currently be assigned to that counselor.
func (s *JournalService) CreateJournal(ctx context.Context, p models.Principal, studentID string,
	sessionDate time.Time, content string) (*models.JournalMeta, error) {

	if err := s.authorize(ctx, access.ActionCreate, p, "", ""); err != nil {
		return nil, err
	}

	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, fmt.Errorf("%w: student id is required", common.ErrValidation)
	}
	if sessionDate.IsZero() {
		return nil, fmt.Errorf("%w: session date is required", common.ErrValidation)
	}
	if err := s.validateContent(content); err != nil {
		return nil, err
	}

	assigned, err := s.repomanager.Assignments(s.db).IsAssigned(ctx, studentID, p.CounselorID)
	if err != nil {
		return nil, fmt.Errorf("error checking assignment: %w", err)
	}
	if !assigned {
		return nil, common.ErrInvalidAssignment
	}

	env, err := s.codec.Encrypt(content)
	if err != nil {
		return nil, fmt.Errorf("error encrypting journal: %w", err)
	}

	now := s.now()
	rec := &models.JournalRecord{
		ID:          s.newID(),
		StudentID:   studentID,
		CounselorID: p.CounselorID,
		SessionDate: dateOnly(sessionDate),
		Envelope:    env,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Journals(tx).Create(ctx, rec); err != nil {
			return fmt.Errorf("error creating journal: %w", err)
		}
		return s.audit(ctx, tx, p, models.AuditCreate, rec.ID, now)
	}); err != nil {
		return nil, err
	}

	meta := rec.Meta()
	return &meta, nil
}

// GetJournal returns the decrypted journal to its owner.
func (s *JournalService) GetJournal(ctx context.Context, p models.Principal, journalID string) (*models.Journal, error) {
	rec, err := s.findOwned(ctx, access.ActionRead, p, journalID)
	if err != nil {
		return nil, err
	}

	content, err := s.codec.Decrypt(rec.Envelope)
	if err != nil {
		return nil, s.envelopeError(ctx, rec.ID, err)
	}

	return &models.Journal{JournalMeta: rec.Meta(), Content: content}, nil
}

// UpdateJournal replaces the content of an active journal, sealing it under a
// new IV. Student and counselor cannot be changed.
func (s *JournalService) UpdateJournal(ctx context.Context, p models.Principal, journalID string,
	newContent string) (*models.JournalMeta, error) {

	rec, err := s.findOwned(ctx, access.ActionUpdate, p, journalID)
	if err != nil {
		return nil, err
	}

	if err := s.validateContent(newContent); err != nil {
		return nil, err
	}

	env, err := s.codec.Encrypt(newContent)
	if err != nil {
		return nil, fmt.Errorf("error encrypting journal: %w", err)
	}

	now := s.now()
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Journals(tx).UpdateContent(ctx, rec.ID, rec.CounselorID, env, now); err != nil {
			return fmt.Errorf("error updating journal: %w", err)
		}
		return s.audit(ctx, tx, p, models.AuditUpdate, rec.ID, now)
	}); err != nil {
		return nil, err
	}

	rec.Envelope = env
	rec.UpdatedAt = now
	meta := rec.Meta()
	return &meta, nil
}

// DeleteJournal soft-deletes an active journal. The envelope stays in storage.
func (s *JournalService) DeleteJournal(ctx context.Context, p models.Principal, journalID string) error {
	rec, err := s.findOwned(ctx, access.ActionDelete, p, journalID)
	if err != nil {
		return err
	}

	now := s.now()
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Journals(tx).SoftDelete(ctx, rec.ID, rec.CounselorID, now); err != nil {
			return fmt.Errorf("error deleting journal: %w", err)
		}
		return s.audit(ctx, tx, p, models.AuditDelete, rec.ID, now)
	})
}

// ListJournalsForCounselor returns metadata of the caller's active journals.
// Nothing is decrypted.
func (s *JournalService) ListJournalsForCounselor(ctx context.Context, p models.Principal,
	filter models.JournalFilter) ([]models.JournalMeta, error) {

	if err := s.authorize(ctx, access.ActionList, p, "", ""); err != nil {
		return nil, err
	}

	filter.StudentID = strings.TrimSpace(filter.StudentID)

	recs, err := s.repomanager.Journals(s.db).FindManyByCounselor(ctx, p.CounselorID, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing journals: %w", err)
	}

	out := make([]models.JournalMeta, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Meta())
	}
	return out, nil
}

// --- helpers below ---

// findOwned loads an active journal and checks ownership before anything
// else touches it.
func (s *JournalService) findOwned(ctx context.Context, action access.Action, p models.Principal,
	journalID string) (*models.JournalRecord, error) {

	// ids are UUIDs; anything else cannot name a stored journal
	id, err := uuid.Parse(strings.TrimSpace(journalID))
	if err != nil {
		return nil, common.ErrorNotFound
	}

	rec, err := s.repomanager.Journals(s.db).FindByID(ctx, id.String(), models.ScopeActive)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading journal: %w", err)
	}
	if rec.State() != models.StateActive {
		return nil, common.ErrorNotFound
	}

	if err := s.authorize(ctx, action, p, rec.CounselorID, rec.ID); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *JournalService) authorize(ctx context.Context, action access.Action, p models.Principal,
	owner, journalID string) error {

	err := access.Authorize(action, p, owner)
	if err != nil {
		s.logger.Warn(ctx, "journal access denied",
			"actor_id", p.ID, "role", string(p.Role), "action", string(action), "journal_id", journalID)
	}
	return err
}

func (s *JournalService) validateContent(content string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return fmt.Errorf("%w: content is required", common.ErrValidation)
	}
	if utf8.RuneCountInString(trimmed) < s.minContentLength {
		return fmt.Errorf("%w: content must be at least %d characters", common.ErrValidation, s.minContentLength)
	}
	return nil
}

// envelopeError classifies a decryption failure. Only the journal id is
// logged.
func (s *JournalService) envelopeError(ctx context.Context, journalID string, err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidEnvelope):
		s.logger.Error(ctx, "stored journal envelope is malformed",
			"security_event", "integrity", "journal_id", journalID, "reason", "invalid_envelope")
		return err
	case errors.Is(err, cryptox.ErrDecryptionFailed):
		s.logger.Error(ctx, "journal envelope failed authentication",
			"security_event", "integrity", "journal_id", journalID, "reason", "decryption_failed")
		return fmt.Errorf("%w: %w", common.ErrIntegrity, err)
	default:
		return fmt.Errorf("error decrypting journal: %w", err)
	}
}

func (s *JournalService) audit(ctx context.Context, tx dbx.DBTX, p models.Principal,
	action models.AuditAction, journalID string, at time.Time) error {

	ev := &models.AuditEvent{
		ID:         s.newID(),
		ActorID:    p.ID,
		Action:     action,
		EntityType: common.JournalEntityType,
		EntityID:   journalID,
		CreatedAt:  at,
	}
	if err := s.repomanager.AuditLogs(tx).Record(ctx, ev); err != nil {
		return fmt.Errorf("error recording audit event: %w", err)
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
