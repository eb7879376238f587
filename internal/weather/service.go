package weather

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wfang22/weather-lookup/internal/logger"
)

// DefaultTTL is the maximum snapshot age before a lookup goes back to the
// network.
const DefaultTTL = 3600 * time.Second

// Service orchestrates cache-vs-network decisions and keeps the store
// consistent after every successful fetch.
type Service struct {
	store   Store
	fetcher Fetcher
	ttl     time.Duration
	log     *zap.Logger
}

// NewService creates a new Service. A non-positive ttl falls back to
// DefaultTTL.
func NewService(store Store, fetcher Fetcher, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		store:   store,
		fetcher: fetcher,
		ttl:     ttl,
		log:     logger.WithModule("service"),
	}
}

// Lookup returns the weather view for a city, serving from cache when a
// fresh snapshot exists and fetching otherwise. A cache hit never touches
// the network; a miss runs exactly one fetch cycle and, on success, writes
// through to both the snapshot and history tables.
func (s *Service) Lookup(ctx context.Context, cityID string, now time.Time) (WeatherView, error) {
	if doc, ok := s.store.GetSnapshot(cityID, now, s.ttl); ok {
		s.log.Debug("cache hit", zap.String("city_id", cityID))
		view := DecodeWeather(doc)
		// Repair step: history rows may be missing even though a snapshot
		// exists (e.g. seeded cache), so re-upsert the forecast days.
		s.recordExtremes(cityID, view.Forecast)
		return view, nil
	}

	doc, err := s.fetcher.Fetch(ctx, cityID)
	if err != nil {
		return WeatherView{}, err
	}

	view := DecodeWeather(doc)

	name := view.City
	if name == "" {
		name = s.store.ResolveDisplayName(cityID)
	}
	if err := s.store.PutSnapshot(cityID, name, doc, now); err != nil {
		// A broken cache must not block a successful fetch.
		s.log.Warn("snapshot write skipped", zap.String("city_id", cityID), zap.Error(err))
	}
	s.recordExtremes(cityID, view.Forecast)

	return view, nil
}

// Refresh runs a TTL-honoring lookup for a city, discarding the view. Used
// by the scheduler to keep tracked cities warm.
func (s *Service) Refresh(ctx context.Context, cityID string) error {
	_, err := s.Lookup(ctx, cityID, time.Now())
	return err
}

// History returns all recorded daily extremes for a city, ascending by date.
func (s *Service) History(cityID string) []DailyExtreme {
	return s.store.ListHistory(cityID)
}

// RecentTrend returns the trailing window of completed days before asOfDate,
// ascending by date.
func (s *Service) RecentTrend(cityID, asOfDate string, limit int) []DailyExtreme {
	return s.store.ListRecentHistory(cityID, asOfDate, limit)
}

// DisplayName resolves the cached display name for a city.
func (s *Service) DisplayName(cityID string) string {
	return s.store.ResolveDisplayName(cityID)
}

func (s *Service) recordExtremes(cityID string, forecast []ForecastDay) {
	for _, day := range forecast {
		if day.Date == "" {
			continue
		}
		if err := s.store.UpsertDailyExtreme(cityID, day.Date, day.High, day.Low); err != nil {
			s.log.Warn("history write skipped",
				zap.String("city_id", cityID),
				zap.String("date", day.Date),
				zap.Error(err))
		}
	}
}
