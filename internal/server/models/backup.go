package models

import "time"

// EnvelopeSnapshot is one journal as exported to a ciphertext backup. It
// carries the encrypted content verbatim and nothing decrypted.
type EnvelopeSnapshot struct {
	ID               string     `json:"id"`
	StudentID        string     `json:"student_id"`
	CounselorID      string     `json:"counselor_id"`
	SessionDate      string     `json:"session_date"`
	EncryptedContent string     `json:"encrypted_content"`
	EncryptionIV     string     `json:"encryption_iv"`
	EncryptionTag    string     `json:"encryption_tag"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
}

// BackupManifest wraps a full export.
type BackupManifest struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Count       int                `json:"count"`
	Journals    []EnvelopeSnapshot `json:"journals"`
}
