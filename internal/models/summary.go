package models

import "time"

// SiteSummary aggregates public content counts for the homepage.
type SiteSummary struct {
	UpcomingEvents      int       `json:"upcoming_events"`
	ActiveAnnouncements int       `json:"active_announcements"`
	PublicClassGroups   int       `json:"public_class_groups"`
	GeneratedAt         time.Time `json:"generated_at"`
}
