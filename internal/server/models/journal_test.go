package models

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/bkjournal/internal/cryptox"
	"github.com/stretchr/testify/assert"
)

func TestJournalRecord_State(t *testing.T) {
	r := &JournalRecord{ID: "j1"}
	assert.Equal(t, StateActive, r.State())

	now := time.Now()
	r.DeletedAt = &now
	assert.Equal(t, StateDeleted, r.State())
	assert.Equal(t, "deleted", r.State().String())
}

func TestJournalRecord_MetaDropsEnvelope(t *testing.T) {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	r := &JournalRecord{
		ID: "j1", StudentID: "s1", CounselorID: "c1", SessionDate: d,
		Envelope: cryptox.Envelope{Ciphertext: "aa", IV: "bb", Tag: "cc"},
	}

	m := r.Meta()
	assert.Equal(t, JournalMeta{ID: "j1", StudentID: "s1", CounselorID: "c1", SessionDate: d}, m)
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleCounselor, RoleHomeroomTeacher, RoleStudent} {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Role("PRINCIPAL").Valid())
	assert.False(t, Role("").Valid())
}
