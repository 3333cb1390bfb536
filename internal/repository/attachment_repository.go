package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smansa-dev/portal-api/internal/models"
)

// AttachmentRepository manages attachment metadata rows.
type AttachmentRepository struct {
	db *sqlx.DB
}

// NewAttachmentRepository constructs a new attachment repository.
func NewAttachmentRepository(db *sqlx.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Create inserts attachment metadata.
func (r *AttachmentRepository) Create(ctx context.Context, attachment *models.Attachment) error {
	if attachment.ID == "" {
		attachment.ID = uuid.NewString()
	}
	if attachment.CreatedAt.IsZero() {
		attachment.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO attachments (id, uri, storage_key, mime_type, size_bytes, owner_kind, owner_id, created_at)
VALUES (:id, :uri, :storage_key, :mime_type, :size_bytes, :owner_kind, :owner_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, attachment); err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	return nil
}

// FindByID returns an attachment by identifier.
func (r *AttachmentRepository) FindByID(ctx context.Context, id string) (*models.Attachment, error) {
	const query = `SELECT id, uri, storage_key, mime_type, size_bytes, owner_kind, owner_id, created_at
FROM attachments WHERE id = $1`
	var attachment models.Attachment
	if err := r.db.GetContext(ctx, &attachment, query, id); err != nil {
		return nil, err
	}
	return &attachment, nil
}

// Delete removes attachment metadata. Deleting a missing id is not an error;
// the blob store contract is idempotent and the metadata row follows it.
func (r *AttachmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM attachments WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}
