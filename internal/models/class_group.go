package models

import "time"

// Graduation year bounds accepted by the mutation path.
const (
	GraduationYearMin = 2000
	GraduationYearMax = 2100
)

// ClassGroup represents an alumni class group.
type ClassGroup struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Description    string    `db:"description" json:"description"`
	GraduationYear int       `db:"graduation_year" json:"graduation_year"`
	IsPublic       bool      `db:"is_public" json:"is_public"`
	AttachmentID   *string   `db:"attachment_id" json:"attachment_id,omitempty"`
	AttachmentURI  *string   `db:"attachment_uri" json:"attachment_uri,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// VisibleAt reports whether public callers may see the group.
func (g *ClassGroup) VisibleAt(asOf time.Time) bool {
	return g.IsPublic
}

// ClassGroupFilter defines filter criteria for listing class groups.
type ClassGroupFilter struct {
	GraduationYear int
	Search         string
	VisibleOnly    bool
	AsOf           time.Time
	Page           int
	PageSize       int
}
