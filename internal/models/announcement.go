package models

import "time"

// AnnouncementCategory groups announcements on public listings.
type AnnouncementCategory string

const (
	CategoryUpdates      AnnouncementCategory = "UPDATES"
	CategoryAchievements AnnouncementCategory = "ACHIEVEMENTS"
	CategoryEvents       AnnouncementCategory = "EVENTS"
)

// Valid reports whether the category is a known value.
func (c AnnouncementCategory) Valid() bool {
	switch c {
	case CategoryUpdates, CategoryAchievements, CategoryEvents:
		return true
	}
	return false
}

// Announcement represents a persisted announcement row.
type Announcement struct {
	ID            string               `db:"id" json:"id"`
	Title         string               `db:"title" json:"title"`
	Body          string               `db:"body" json:"body"`
	Category      AnnouncementCategory `db:"category" json:"category"`
	IsPublished   bool                 `db:"is_published" json:"is_published"`
	IsPinned      bool                 `db:"is_pinned" json:"is_pinned"`
	StartDate     time.Time            `db:"start_date" json:"start_date"`
	EndDate       *time.Time           `db:"end_date" json:"end_date,omitempty"`
	AttachmentID  *string              `db:"attachment_id" json:"attachment_id,omitempty"`
	AttachmentURI *string              `db:"attachment_uri" json:"attachment_uri,omitempty"`
	CreatedAt     time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `db:"updated_at" json:"updated_at"`
}

// VisibleAt reports whether public callers may see the announcement as of the
// given time: it must be published, already started, and not yet expired.
func (a *Announcement) VisibleAt(asOf time.Time) bool {
	if !a.IsPublished {
		return false
	}
	if a.StartDate.After(asOf) {
		return false
	}
	if a.EndDate != nil && a.EndDate.Before(asOf) {
		return false
	}
	return true
}

// AnnouncementFilter defines filter criteria for listing announcements.
type AnnouncementFilter struct {
	Category    AnnouncementCategory
	Pinned      *bool
	Search      string
	VisibleOnly bool
	AsOf        time.Time
	Page        int
	PageSize    int
}
