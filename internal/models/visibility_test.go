package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var asOf = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestEventVisibility(t *testing.T) {
	published := &Event{IsPublished: true, Status: EventStatusCancelled,
		StartDate: asOf.AddDate(0, -1, 0), EndDate: asOf.AddDate(0, -1, 1)}
	assert.True(t, published.VisibleAt(asOf), "dates and status must not hide a published event")

	draft := &Event{IsPublished: false, Status: EventStatusUpcoming,
		StartDate: asOf.AddDate(0, 1, 0), EndDate: asOf.AddDate(0, 1, 1)}
	assert.False(t, draft.VisibleAt(asOf))
}

func TestAnnouncementVisibility(t *testing.T) {
	yesterday := asOf.AddDate(0, 0, -1)
	tomorrow := asOf.AddDate(0, 0, 1)

	tests := []struct {
		name    string
		ann     Announcement
		visible bool
	}{
		{"published and active", Announcement{IsPublished: true, StartDate: yesterday}, true},
		{"unpublished", Announcement{IsPublished: false, StartDate: yesterday}, false},
		{"not yet started", Announcement{IsPublished: true, StartDate: tomorrow}, false},
		{"expired", Announcement{IsPublished: true, StartDate: yesterday.AddDate(0, -1, 0), EndDate: &yesterday}, false},
		{"expiring later", Announcement{IsPublished: true, StartDate: yesterday, EndDate: &tomorrow}, true},
		{"starts exactly now", Announcement{IsPublished: true, StartDate: asOf}, true},
		{"ends exactly now", Announcement{IsPublished: true, StartDate: yesterday, EndDate: &asOf}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.visible, tc.ann.VisibleAt(asOf))
		})
	}
}

func TestAnnouncementVisibilityDeterministic(t *testing.T) {
	tomorrow := asOf.AddDate(0, 0, 1)
	ann := Announcement{IsPublished: true, StartDate: asOf.AddDate(0, 0, -1), EndDate: &tomorrow}
	for i := 0; i < 3; i++ {
		assert.True(t, ann.VisibleAt(asOf))
	}
	assert.False(t, ann.VisibleAt(asOf.AddDate(0, 0, 2)), "same entity, later asOf")
}

func TestClassGroupVisibility(t *testing.T) {
	assert.True(t, (&ClassGroup{IsPublic: true}).VisibleAt(asOf))
	assert.False(t, (&ClassGroup{IsPublic: false}).VisibleAt(asOf))
}
