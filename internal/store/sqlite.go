package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfang22/weather-lookup/internal/logger"
	"github.com/wfang22/weather-lookup/internal/weather"
)

// snapshotRow is the one-row-per-city cache of the merged weather document.
type snapshotRow struct {
	CityID     string    `gorm:"column:city_id;primaryKey"`
	CityName   string    `gorm:"column:city_name"`
	JSONData   string    `gorm:"column:json_data"`
	LastUpdate time.Time `gorm:"column:last_update"`
}

func (snapshotRow) TableName() string { return "weather_cache" }

// historyRow is one day's temperature extremes for a city. The composite
// primary key guarantees at most one row per (city, date).
type historyRow struct {
	CityID string `gorm:"column:city_id;primaryKey"`
	Date   string `gorm:"column:date;primaryKey"`
	High   int    `gorm:"column:high"`
	Low    int    `gorm:"column:low"`
}

func (historyRow) TableName() string { return "weather_history" }

// SQLiteStore is a durable weather store backed by a single sqlite file.
// It is safe for concurrent use; writes are idempotent upserts, so
// overlapping writes for the same key resolve last-write-wins.
type SQLiteStore struct {
	db  *gorm.DB
	log *zap.Logger
}

// Open initialises the sqlite database at path and migrates the schema.
// An empty path or ":memory:" opens a shared in-memory database.
func Open(path string) (*SQLiteStore, error) {
	dsn := buildDSN(path)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.AutoMigrate(&snapshotRow{}, &historyRow{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &SQLiteStore{
		db:  db,
		log: logger.WithModule("store"),
	}, nil
}

func buildDSN(path string) string {
	path = strings.TrimSpace(path)
	switch {
	case path == "", strings.EqualFold(path, ":memory:"):
		return "file::memory:?cache=shared"
	default:
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
		return fmt.Sprintf("file:%s?_journal_mode=WAL", filepath.ToSlash(path))
	}
}

// PutSnapshot upserts the cached document for a city.
func (s *SQLiteStore) PutSnapshot(cityID, cityName string, document []byte, capturedAt time.Time) error {
	row := snapshotRow{
		CityID:     cityID,
		CityName:   cityName,
		JSONData:   string(document),
		LastUpdate: capturedAt,
	}

	err := s.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "city_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"city_name", "json_data", "last_update"}),
		}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("cache snapshot for %s: %w", cityID, err)
	}
	return nil
}

// GetSnapshot returns the cached document for a city if it is no older than
// maxAge relative to now. Expired rows stay in place and read as a miss, as
// do storage errors.
func (s *SQLiteStore) GetSnapshot(cityID string, now time.Time, maxAge time.Duration) ([]byte, bool) {
	var row snapshotRow
	err := s.db.Take(&row, "city_id = ?", cityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false
	}
	if err != nil {
		s.log.Warn("snapshot read failed", zap.String("city_id", cityID), zap.Error(err))
		return nil, false
	}

	if now.Sub(row.LastUpdate) > maxAge {
		s.log.Debug("cache expired", zap.String("city_id", cityID), zap.Duration("age", now.Sub(row.LastUpdate)))
		return nil, false
	}

	return []byte(row.JSONData), true
}

// UpsertDailyExtreme records one day's high/low for a city, replacing any
// existing row for the same (city, date).
func (s *SQLiteStore) UpsertDailyExtreme(cityID, date string, high, low int) error {
	row := historyRow{
		CityID: cityID,
		Date:   date,
		High:   high,
		Low:    low,
	}

	err := s.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "city_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"high", "low"}),
		}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert history for %s %s: %w", cityID, date, err)
	}
	return nil
}

// ListHistory returns all recorded extremes for a city, ascending by date.
// Storage errors degrade to an empty result.
func (s *SQLiteStore) ListHistory(cityID string) []weather.DailyExtreme {
	var rows []historyRow
	if err := s.db.Where("city_id = ?", cityID).Order("date ASC").Find(&rows).Error; err != nil {
		s.log.Warn("history read failed", zap.String("city_id", cityID), zap.Error(err))
		return nil
	}
	return toExtremes(rows)
}

// ListRecentHistory returns at most limit rows strictly before asOfDate,
// ascending by date. Charts want a trailing window of completed days only,
// rendered left-to-right, even though the selection is most-recent-first.
func (s *SQLiteStore) ListRecentHistory(cityID, asOfDate string, limit int) []weather.DailyExtreme {
	if limit <= 0 {
		limit = 6
	}

	var rows []historyRow
	err := s.db.
		Where("city_id = ? AND date < ?", cityID, asOfDate).
		Order("date DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		s.log.Warn("recent history read failed", zap.String("city_id", cityID), zap.Error(err))
		return nil
	}

	extremes := toExtremes(rows)
	sort.Slice(extremes, func(i, j int) bool { return extremes[i].Date < extremes[j].Date })
	return extremes
}

// ResolveDisplayName returns the cached display name for a city, falling
// back to the identifier when no snapshot (or no name) exists.
func (s *SQLiteStore) ResolveDisplayName(cityID string) string {
	var row snapshotRow
	if err := s.db.Take(&row, "city_id = ?", cityID).Error; err != nil {
		return cityID
	}
	if row.CityName == "" {
		return cityID
	}
	return row.CityName
}

// Close flushes and closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toExtremes(rows []historyRow) []weather.DailyExtreme {
	extremes := make([]weather.DailyExtreme, 0, len(rows))
	for _, r := range rows {
		extremes = append(extremes, weather.DailyExtreme{
			CityID: r.CityID,
			Date:   r.Date,
			High:   r.High,
			Low:    r.Low,
		})
	}
	return extremes
}
