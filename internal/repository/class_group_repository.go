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

const classGroupColumns = `g.id, g.name, g.description, g.graduation_year, g.is_public,
g.attachment_id, a.uri AS attachment_uri, g.created_at, g.updated_at`

// ClassGroupRepository manages persistence for alumni class groups.
type ClassGroupRepository struct {
	db *sqlx.DB
}

// NewClassGroupRepository constructs a new class group repository.
func NewClassGroupRepository(db *sqlx.DB) *ClassGroupRepository {
	return &ClassGroupRepository{db: db}
}

// List returns class groups matching filter criteria.
func (r *ClassGroupRepository) List(ctx context.Context, filter models.ClassGroupFilter) ([]models.ClassGroup, int, error) {
	base := "FROM class_groups g LEFT JOIN attachments a ON a.id = g.attachment_id WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.VisibleOnly {
		conditions = append(conditions, "g.is_public = TRUE")
	}
	if filter.GraduationYear != 0 {
		conditions = append(conditions, fmt.Sprintf("g.graduation_year = $%d", len(args)+1))
		args = append(args, filter.GraduationYear)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(g.name) LIKE $%d OR LOWER(g.description) LIKE $%d)", len(args)+1, len(args)+1))
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
ORDER BY g.graduation_year DESC, g.id ASC
LIMIT %d OFFSET %d`, classGroupColumns, base, size, offset)
	var groups []models.ClassGroup
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list class groups: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count class groups: %w", err)
	}
	return groups, total, nil
}

// FindByID returns a class group by identifier.
func (r *ClassGroupRepository) FindByID(ctx context.Context, id string) (*models.ClassGroup, error) {
	query := fmt.Sprintf("SELECT %s FROM class_groups g LEFT JOIN attachments a ON a.id = g.attachment_id WHERE g.id = $1", classGroupColumns)
	var group models.ClassGroup
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// Create inserts a new class group as a single row write.
func (r *ClassGroupRepository) Create(ctx context.Context, group *models.ClassGroup) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now
	query := `INSERT INTO class_groups (id, name, description, graduation_year, is_public, attachment_id, created_at, updated_at)
VALUES (:id, :name, :description, :graduation_year, :is_public, :attachment_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create class group: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of an existing class group.
func (r *ClassGroupRepository) Update(ctx context.Context, group *models.ClassGroup) error {
	group.UpdatedAt = time.Now().UTC()
	query := `UPDATE class_groups SET name = :name, description = :description,
graduation_year = :graduation_year, is_public = :is_public,
attachment_id = :attachment_id, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, group)
	if err != nil {
		return fmt.Errorf("update class group: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a class group row.
func (r *ClassGroupRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM class_groups WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete class group: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
