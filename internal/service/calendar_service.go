package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campusops/deptdesk-api/internal/calendar"
	"github.com/campusops/deptdesk-api/internal/models"
	appErrors "github.com/campusops/deptdesk-api/pkg/errors"
)

type calendarEntryRepository interface {
	ListByBatch(ctx context.Context, batchID string) ([]models.TimetableEntryDetail, error)
}

type calendarCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CalendarConfig tunes how entries materialize into events.
type CalendarConfig struct {
	Horizon   calendar.Horizon
	GraceDays int
	CacheTTL  time.Duration
}

// CalendarService renders timetable entries into concrete calendar events.
// Events are always rebuilt from their source entries; the cache only
// shortcuts repeated reads of an unchanged week.
type CalendarService struct {
	entries calendarEntryRepository
	cache   calendarCache
	metrics *MetricsService
	logger  *zap.Logger
	config  CalendarConfig
}

// NewCalendarService constructs a CalendarService instance. metrics may
// be nil.
func NewCalendarService(entries calendarEntryRepository, cache calendarCache, metrics *MetricsService, logger *zap.Logger, config CalendarConfig) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Horizon.WeeksBefore <= 0 && config.Horizon.WeeksAfter <= 0 {
		config.Horizon = calendar.DefaultHorizon()
	}
	if config.GraceDays <= 0 {
		config.GraceDays = calendar.DefaultGraceDays
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 2 * time.Minute
	}
	return &CalendarService{entries: entries, cache: cache, metrics: metrics, logger: logger, config: config}
}

// WeekEvents returns resolved events for the calendar week containing
// selected. Only dated entries render in this view.
func (s *CalendarService) WeekEvents(ctx context.Context, batchID string, selected, now time.Time) ([]calendar.Event, error) {
	weekStart, _ := calendar.WeekBounds(selected)
	key := fmt.Sprintf("calendar:week:%s:%s", batchID, weekStart.Format("2006-01-02"))

	var cached []calendar.Event
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("week view cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false)
	}

	entries, err := s.loadEntries(ctx, batchID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	events, err := calendar.BuildWeek(entries, selected, now, s.config.GraceDays)
	if err != nil {
		return nil, s.wrapBuildError(err)
	}
	s.metrics.ObserveMaterialization("week", len(events), time.Since(started))

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, events, s.config.CacheTTL); err != nil {
			s.logger.Warn("week view cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return events, nil
}

// ExpandedEvents materializes every entry of a batch across the horizon
// anchored on reference. Recurring entries project one event per week.
func (s *CalendarService) ExpandedEvents(ctx context.Context, batchID string, reference, now time.Time) ([]calendar.Event, error) {
	weekStart, _ := calendar.WeekBounds(reference)
	key := fmt.Sprintf("calendar:expanded:%s:%s", batchID, weekStart.Format("2006-01-02"))

	var cached []calendar.Event
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("expanded view cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false)
	}

	entries, err := s.loadEntries(ctx, batchID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	events, err := calendar.Expand(entries, reference, now, s.config.Horizon, s.config.GraceDays)
	if err != nil {
		return nil, s.wrapBuildError(err)
	}
	s.metrics.ObserveMaterialization("expanded", len(events), time.Since(started))

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, events, s.config.CacheTTL); err != nil {
			s.logger.Warn("expanded view cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return events, nil
}

// InvalidateBatch drops cached week and expanded views for a batch after a
// mutation. Keys follow calendar:<view>:<batch>:<weekStart>.
func (s *CalendarService) InvalidateBatch(ctx context.Context, batchID string) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("calendar:*:%s:*", batchID)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("calendar cache invalidation failed", zap.String("batch_id", batchID), zap.Error(err))
	}
}

func (s *CalendarService) loadEntries(ctx context.Context, batchID string) ([]calendar.Entry, error) {
	details, err := s.entries.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
	}

	entries := make([]calendar.Entry, 0, len(details))
	for _, detail := range details {
		entries = append(entries, calendar.Entry{
			ID:               detail.ID,
			DayOfWeek:        detail.DayOfWeek,
			Date:             detail.Date,
			SlotName:         detail.TimeSlotName,
			EntryType:        string(detail.EntryType),
			BatchName:        detail.BatchName,
			SubjectName:      detail.SubjectName,
			FacultyName:      detail.FacultyName,
			CustomEventTitle: detail.CustomEventTitle,
			CustomEventColor: detail.CustomEventColor,
		})
	}
	return entries, nil
}

func (s *CalendarService) wrapBuildError(err error) error {
	if errors.Is(err, calendar.ErrMalformedSlot) {
		return appErrors.Wrap(err, appErrors.ErrMalformedTimeSlot.Code, appErrors.ErrMalformedTimeSlot.Status, err.Error())
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to materialize calendar events")
}
