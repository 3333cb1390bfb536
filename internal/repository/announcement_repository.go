package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smansa-dev/portal-api/internal/models"
)

const announcementColumns = `n.id, n.title, n.body, n.category, n.is_published, n.is_pinned,
n.start_date, n.end_date, n.attachment_id, a.uri AS attachment_uri, n.created_at, n.updated_at`

// AnnouncementRepository provides persistence for announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// List returns announcements matching the filter. Visibility narrows to
// published rows whose active window contains filter.AsOf.
func (r *AnnouncementRepository) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	base := "FROM announcements n LEFT JOIN attachments a ON a.id = n.attachment_id WHERE 1=1"
	var conditions []string
	var args []interface{}

	asOf := filter.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	if filter.VisibleOnly {
		conditions = append(conditions, "n.is_published = TRUE")
		conditions = append(conditions, fmt.Sprintf("n.start_date <= $%d", len(args)+1))
		args = append(args, asOf)
		conditions = append(conditions, fmt.Sprintf("(n.end_date IS NULL OR n.end_date >= $%d)", len(args)+1))
		args = append(args, asOf)
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("n.category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Pinned != nil {
		conditions = append(conditions, fmt.Sprintf("n.is_pinned = $%d", len(args)+1))
		args = append(args, *filter.Pinned)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(n.title) LIKE $%d OR LOWER(n.body) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s
ORDER BY n.is_pinned DESC, n.start_date DESC, n.id ASC
LIMIT %d OFFSET %d`, announcementColumns, base, size, offset)
	var announcements []models.Announcement
	if err := r.db.SelectContext(ctx, &announcements, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}
	return announcements, total, nil
}

// FindByID returns an announcement by identifier.
func (r *AnnouncementRepository) FindByID(ctx context.Context, id string) (*models.Announcement, error) {
	query := fmt.Sprintf("SELECT %s FROM announcements n LEFT JOIN attachments a ON a.id = n.attachment_id WHERE n.id = $1", announcementColumns)
	var announcement models.Announcement
	if err := r.db.GetContext(ctx, &announcement, query, id); err != nil {
		return nil, err
	}
	return &announcement, nil
}

// Create inserts a new announcement as a single row write.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	if announcement.ID == "" {
		announcement.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if announcement.CreatedAt.IsZero() {
		announcement.CreatedAt = now
	}
	announcement.UpdatedAt = now
	query := `INSERT INTO announcements (id, title, body, category, is_published, is_pinned, start_date, end_date, attachment_id, created_at, updated_at)
VALUES (:id, :title, :body, :category, :is_published, :is_pinned, :start_date, :end_date, :attachment_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of an existing announcement.
func (r *AnnouncementRepository) Update(ctx context.Context, announcement *models.Announcement) error {
	announcement.UpdatedAt = time.Now().UTC()
	query := `UPDATE announcements SET title = :title, body = :body, category = :category,
is_published = :is_published, is_pinned = :is_pinned, start_date = :start_date,
end_date = :end_date, attachment_id = :attachment_id, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, announcement)
	if err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an announcement row.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM announcements WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
