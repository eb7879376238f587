package weather

import (
	"context"
	"time"
)

// Fetcher abstracts the remote weather source. A single Fetch call performs
// the full two-stage cycle (current conditions, then daily forecast) and
// returns the merged document.
type Fetcher interface {
	Fetch(ctx context.Context, cityID string) ([]byte, error)
}

// Store is the contract the durable store must satisfy. Implementations
// absorb storage outages: reads behave as misses and writes report a plain
// error the caller may skip past, so a broken cache never blocks a fetch.
type Store interface {
	PutSnapshot(cityID, cityName string, document []byte, capturedAt time.Time) error
	GetSnapshot(cityID string, now time.Time, maxAge time.Duration) ([]byte, bool)
	UpsertDailyExtreme(cityID, date string, high, low int) error
	ListHistory(cityID string) []DailyExtreme
	ListRecentHistory(cityID, asOfDate string, limit int) []DailyExtreme
	ResolveDisplayName(cityID string) string
}
