package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smansa-dev/portal-api/internal/models"
	appErrors "github.com/smansa-dev/portal-api/pkg/errors"
)

type cacheStoreStub struct {
	entries map[string]*models.SiteSummary
	sets    int
	deletes int
}

func newCacheStoreStub() *cacheStoreStub {
	return &cacheStoreStub{entries: make(map[string]*models.SiteSummary)}
}

func (c *cacheStoreStub) Get(ctx context.Context, key string, dest interface{}) error {
	entry, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*dest.(*models.SiteSummary) = *entry
	return nil
}

func (c *cacheStoreStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.sets++
	summary := value.(*models.SiteSummary)
	copy := *summary
	c.entries[key] = &copy
	return nil
}

func (c *cacheStoreStub) Delete(ctx context.Context, key string) error {
	c.deletes++
	delete(c.entries, key)
	return nil
}

func newTestSummaryService() (*SummaryService, *eventRepoStub, *announcementRepoStub, *classGroupRepoStub, *cacheStoreStub) {
	events := newEventRepoStub()
	announcements := newAnnouncementRepoStub()
	groups := newClassGroupRepoStub()
	cache := newCacheStoreStub()
	svc := NewSummaryService(events, announcements, groups, cache, nil, time.Minute, nil)
	return svc, events, announcements, groups, cache
}

func TestSummaryServiceComputesAndCaches(t *testing.T) {
	svc, events, announcements, groups, cache := newTestSummaryService()
	ctx := context.Background()

	events.events["evt-1"] = &models.Event{ID: "evt-1", IsPublished: true}
	events.events["evt-2"] = &models.Event{ID: "evt-2", IsPublished: false}
	announcements.announcements["ann-1"] = &models.Announcement{
		ID: "ann-1", IsPublished: true, StartDate: time.Now().UTC().Add(-time.Hour),
	}
	groups.groups["grp-1"] = &models.ClassGroup{ID: "grp-1", IsPublic: true}
	groups.groups["grp-2"] = &models.ClassGroup{ID: "grp-2", IsPublic: false}

	summary, err := svc.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, summary.UpcomingEvents)
	require.Equal(t, 1, summary.ActiveAnnouncements)
	require.Equal(t, 1, summary.PublicClassGroups)
	require.Equal(t, 1, cache.sets)

	// Second read is served from cache even after the store changes.
	groups.groups["grp-3"] = &models.ClassGroup{ID: "grp-3", IsPublic: true}
	cached, err := svc.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, cached.PublicClassGroups)
	require.Equal(t, 1, cache.sets)
}

func TestSummaryServiceInvalidate(t *testing.T) {
	svc, _, _, groups, cache := newTestSummaryService()
	ctx := context.Background()

	groups.groups["grp-1"] = &models.ClassGroup{ID: "grp-1", IsPublic: true}

	_, err := svc.Get(ctx)
	require.NoError(t, err)
	require.Len(t, cache.entries, 1)

	svc.Invalidate(ctx)
	require.Empty(t, cache.entries)
	require.Equal(t, 1, cache.deletes)

	groups.groups["grp-2"] = &models.ClassGroup{ID: "grp-2", IsPublic: true}
	refreshed, err := svc.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, refreshed.PublicClassGroups)
}

func TestSummaryServiceWorksWithoutCache(t *testing.T) {
	events := newEventRepoStub()
	announcements := newAnnouncementRepoStub()
	groups := newClassGroupRepoStub()
	svc := NewSummaryService(events, announcements, groups, nil, nil, time.Minute, nil)

	summary, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Zero(t, summary.UpcomingEvents)
	svc.Invalidate(context.Background())
}
