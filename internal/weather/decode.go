package weather

import (
	"encoding/json"
	"strconv"
	"time"
)

var weekdayNames = [...]string{"星期日", "星期一", "星期二", "星期三", "星期四", "星期五", "星期六"}

// DecodeWeather turns a merged weather document into a WeatherView.
// The API reports numeric values as strings; they are converted here.
// Missing or malformed fields are left at their zero values rather than
// failing, so a partial document still yields a usable view.
func DecodeWeather(document []byte) WeatherView {
	var payload struct {
		Location struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"location"`
		Now struct {
			Temperature string `json:"temperature"`
			Humidity    string `json:"humidity"`
			Text        string `json:"text"`
		} `json:"now"`
		Daily []struct {
			Date          string `json:"date"`
			TextDay       string `json:"text_day"`
			High          string `json:"high"`
			Low           string `json:"low"`
			WindDirection string `json:"wind_direction"`
			WindScale     string `json:"wind_scale"`
		} `json:"daily"`
	}

	var view WeatherView
	if err := json.Unmarshal(document, &payload); err != nil {
		return view
	}

	view.City = payload.Location.Name
	view.CityID = payload.Location.ID
	view.Temperature = payload.Now.Temperature
	view.Humidity = payload.Now.Humidity
	view.Condition = payload.Now.Text
	view.Date = time.Now().Format(DateLayout)

	for _, d := range payload.Daily {
		day := ForecastDay{
			Date:      d.Date,
			Condition: d.TextDay,
			WindDir:   d.WindDirection,
			WindScale: d.WindScale,
		}
		day.High, _ = strconv.Atoi(d.High)
		day.Low, _ = strconv.Atoi(d.Low)
		if t, err := time.Parse(DateLayout, d.Date); err == nil {
			day.Weekday = weekdayNames[int(t.Weekday())]
		}
		view.Forecast = append(view.Forecast, day)
	}

	return view
}
