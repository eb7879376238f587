package weather

import (
	"time"
)

// DateLayout is the calendar-date format used by the remote API and the
// history table.
const DateLayout = "2006-01-02"

// ForecastDay is one day of a city's forecast as decoded from the merged
// weather document.
type ForecastDay struct {
	Date      string `json:"date"`
	Condition string `json:"condition"`
	High      int    `json:"high"`
	Low       int    `json:"low"`
	WindDir   string `json:"windDirection"`
	WindScale string `json:"windScale"`
	Weekday   string `json:"weekday"`
}

// WeatherView is the decoded, display-ready view of a merged weather
// document. Missing fields in the document are left at their zero values.
type WeatherView struct {
	City        string        `json:"city"`
	CityID      string        `json:"cityId"`
	Date        string        `json:"date"`
	Temperature string        `json:"temperature"`
	Humidity    string        `json:"humidity"`
	Condition   string        `json:"condition"`
	Forecast    []ForecastDay `json:"forecast"`
}

// Snapshot is the most recent merged weather document cached for a city.
type Snapshot struct {
	CityID     string    `json:"cityId"`
	CityName   string    `json:"cityName"`
	Document   []byte    `json:"document"`
	CapturedAt time.Time `json:"capturedAt"`
}

// DailyExtreme is one day's high/low temperature pair for a city.
// At most one record exists per (city, date).
type DailyExtreme struct {
	CityID string `json:"cityId"`
	Date   string `json:"date"`
	High   int    `json:"high"`
	Low    int    `json:"low"`
}
