package models

import "time"

// Attachment is a stored image bound to exactly one content entity. The
// owning entity controls its lifecycle; owner columns exist for lookup only.
type Attachment struct {
	ID         string      `db:"id" json:"id"`
	URI        string      `db:"uri" json:"uri"`
	StorageKey string      `db:"storage_key" json:"-"`
	MimeType   string      `db:"mime_type" json:"mime_type"`
	SizeBytes  int64       `db:"size_bytes" json:"size_bytes"`
	OwnerKind  ContentKind `db:"owner_kind" json:"owner_kind"`
	OwnerID    string      `db:"owner_id" json:"owner_id"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}
