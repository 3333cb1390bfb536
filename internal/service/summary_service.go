package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/smansa-dev/portal-api/internal/models"
	appErrors "github.com/smansa-dev/portal-api/pkg/errors"
)

const summaryCacheKey = "portal:summary"

// SummaryCache is the cache surface the summary aggregate needs.
type SummaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SummaryService aggregates public content counts. The aggregate is the only
// cached read in the system; mutations invalidate it synchronously before they
// return.
type SummaryService struct {
	events        eventRepository
	announcements announcementRepository
	groups        classGroupRepository
	cache         SummaryCache
	metrics       *MetricsService
	ttl           time.Duration
	logger        *zap.Logger
}

// NewSummaryService constructs the service. A nil cache disables caching and
// every call recomputes the counts.
func NewSummaryService(events eventRepository, announcements announcementRepository, groups classGroupRepository, cache SummaryCache, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *SummaryService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{
		events:        events,
		announcements: announcements,
		groups:        groups,
		cache:         cache,
		metrics:       metrics,
		ttl:           ttl,
		logger:        logger,
	}
}

// Get returns the summary, serving from cache when a fresh copy exists.
func (s *SummaryService) Get(ctx context.Context) (*models.SiteSummary, error) {
	if s.cache != nil {
		var cached models.SiteSummary
		err := s.cache.Get(ctx, summaryCacheKey, &cached)
		if err == nil {
			s.metrics.ObserveSummaryCache(true)
			return &cached, nil
		}
		s.metrics.ObserveSummaryCache(false)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("summary cache read failed", zap.Error(err))
		}
	}

	summary, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, summaryCacheKey, summary, s.ttl); err != nil {
			s.logger.Warn("summary cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

// Invalidate drops the cached summary. Content mutations call this before
// returning so the next read reflects the change.
func (s *SummaryService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, summaryCacheKey); err != nil {
		s.logger.Warn("summary cache invalidation failed", zap.Error(err))
	}
}

func (s *SummaryService) compute(ctx context.Context) (*models.SiteSummary, error) {
	now := time.Now().UTC()

	_, upcomingEvents, err := s.events.List(ctx, models.EventFilter{
		VisibleOnly: true,
		Timeframe:   models.TimeframeUpcoming,
		AsOf:        now,
		Page:        1,
		PageSize:    1,
	})
	if err != nil {
		return nil, storeError(err, "failed to count upcoming events")
	}

	_, activeAnnouncements, err := s.announcements.List(ctx, models.AnnouncementFilter{
		VisibleOnly: true,
		AsOf:        now,
		Page:        1,
		PageSize:    1,
	})
	if err != nil {
		return nil, storeError(err, "failed to count active announcements")
	}

	_, publicGroups, err := s.groups.List(ctx, models.ClassGroupFilter{
		VisibleOnly: true,
		AsOf:        now,
		Page:        1,
		PageSize:    1,
	})
	if err != nil {
		return nil, storeError(err, "failed to count public class groups")
	}

	return &models.SiteSummary{
		UpcomingEvents:      upcomingEvents,
		ActiveAnnouncements: activeAnnouncements,
		PublicClassGroups:   publicGroups,
		GeneratedAt:         now,
	}, nil
}
