package models

import "time"

// AuditAction names a journal mutation recorded in the audit log.
type AuditAction string

const (
	AuditCreate AuditAction = "CREATE"
	AuditUpdate AuditAction = "UPDATE"
	AuditDelete AuditAction = "DELETE"
)

// AuditEvent is what the journal service hands to the audit sink. It has no
// payload fields by construction: neither plaintext nor envelope data can be
// attached to it.
type AuditEvent struct {
	ID         string
	ActorID    string
	Action     AuditAction
	EntityType string
	EntityID   string
	CreatedAt  time.Time
}
