// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/dmitrijs2005/bkjournal/internal/cryptox"
)

// JournalState is the lifecycle position of a stored journal. A journal that
// has never been written has no state at all.
type JournalState int

const (
	StateActive JournalState = iota + 1
	StateDeleted
)

func (s JournalState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Scope selects which lifecycle states a repository read may return. Every
// read takes one explicitly.
type Scope int

const (
	ScopeActive Scope = iota + 1
	ScopeIncludingDeleted
)

// JournalRecord is the persisted row. Content only ever exists here in
// encrypted form.
type JournalRecord struct {
	ID          string
	StudentID   string
	CounselorID string
	SessionDate time.Time
	Envelope    cryptox.Envelope
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

func (r *JournalRecord) State() JournalState {
	if r.DeletedAt != nil {
		return StateDeleted
	}
	return StateActive
}

// Meta strips the envelope off the record.
func (r *JournalRecord) Meta() JournalMeta {
	return JournalMeta{
		ID:          r.ID,
		StudentID:   r.StudentID,
		CounselorID: r.CounselorID,
		SessionDate: r.SessionDate,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// JournalMeta is the non-sensitive view of a journal returned by create,
// update and list.
type JournalMeta struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	CounselorID string    `json:"counselor_id"`
	SessionDate time.Time `json:"session_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Journal is a decrypted journal as handed to its owner.
type Journal struct {
	JournalMeta
	Content string `json:"content"`
}

// JournalFilter narrows a counselor's listing.
type JournalFilter struct {
	StudentID string
}
