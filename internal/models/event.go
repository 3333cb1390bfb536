package models

import "time"

// EventStatus categorizes an event on listings; it never gates visibility.
type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "UPCOMING"
	EventStatusOngoing   EventStatus = "ONGOING"
	EventStatusCompleted EventStatus = "COMPLETED"
	EventStatusCancelled EventStatus = "CANCELLED"
)

// Valid reports whether the status is a known value.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusUpcoming, EventStatusOngoing, EventStatusCompleted, EventStatusCancelled:
		return true
	}
	return false
}

// Event represents a persisted school event.
type Event struct {
	ID            string      `db:"id" json:"id"`
	Title         string      `db:"title" json:"title"`
	Description   string      `db:"description" json:"description"`
	Status        EventStatus `db:"status" json:"status"`
	StartDate     time.Time   `db:"start_date" json:"start_date"`
	EndDate       time.Time   `db:"end_date" json:"end_date"`
	IsPublished   bool        `db:"is_published" json:"is_published"`
	IsFeatured    bool        `db:"is_featured" json:"is_featured"`
	AttachmentID  *string     `db:"attachment_id" json:"attachment_id,omitempty"`
	AttachmentURI *string     `db:"attachment_uri" json:"attachment_uri,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// VisibleAt reports whether public callers may see the event as of the given
// time. Status and dates are query-time categorization only; the publish flag
// is the sole gate.
func (e *Event) VisibleAt(asOf time.Time) bool {
	return e.IsPublished
}

// EventTimeframe narrows event listings relative to a point in time.
type EventTimeframe string

const (
	TimeframeUpcoming EventTimeframe = "upcoming"
	TimeframePast     EventTimeframe = "past"
)

// EventFilter defines filter criteria for listing events.
type EventFilter struct {
	Status      EventStatus
	Timeframe   EventTimeframe
	Featured    *bool
	Search      string
	VisibleOnly bool
	AsOf        time.Time
	Page        int
	PageSize    int
}
