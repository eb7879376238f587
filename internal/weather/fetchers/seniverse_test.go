package fetchers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfang22/weather-lookup/internal/weather"
)

func nowBody(cityID, name, temp string) string {
	return fmt.Sprintf(`{"results":[{"location":{"id":%q,"name":%q},"now":{"temperature":%q,"text":"晴"}}]}`, cityID, name, temp)
}

func dailyBody(dates ...string) string {
	days := ""
	for i, d := range dates {
		if i > 0 {
			days += ","
		}
		days += fmt.Sprintf(`{"date":%q,"high":"8","low":"-2"}`, d)
	}
	return fmt.Sprintf(`{"results":[{"daily":[%s]}]}`, days)
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *SeniverseFetcher) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	f := NewSeniverseFetcher(srv.Client(), "test-key", srv.URL, 3)
	return srv, f
}

func TestFetchMergesStages(t *testing.T) {
	var nowQuery, dailyQuery map[string][]string

	_, f := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v3/weather/now.json":
			nowQuery = r.URL.Query()
			fmt.Fprint(w, nowBody("beijing", "北京", "5"))
		case "/v3/weather/daily.json":
			dailyQuery = r.URL.Query()
			fmt.Fprint(w, dailyBody("2026-01-05", "2026-01-06", "2026-01-07"))
		default:
			http.NotFound(w, r)
		}
	})

	doc, err := f.Fetch(context.Background(), "beijing")
	require.NoError(t, err)

	var merged map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc, &merged))
	require.Contains(t, merged, "location")
	require.Contains(t, merged, "now")
	require.Contains(t, merged, "daily")

	view := weather.DecodeWeather(doc)
	assert.Equal(t, "北京", view.City)
	assert.Equal(t, "5", view.Temperature)
	assert.Len(t, view.Forecast, 3)

	// Shared parameters on both stages, window parameters on daily only.
	assert.Equal(t, []string{"test-key"}, nowQuery["key"])
	assert.Equal(t, []string{"beijing"}, nowQuery["location"])
	assert.Equal(t, []string{"zh-Hans"}, nowQuery["language"])
	assert.Equal(t, []string{"c"}, nowQuery["unit"])
	assert.Equal(t, []string{"0"}, dailyQuery["start"])
	assert.Equal(t, []string{"3"}, dailyQuery["days"])
}

func TestFetchEmptyResults(t *testing.T) {
	for _, stage := range []string{"now", "daily"} {
		t.Run(stage, func(t *testing.T) {
			_, f := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				if stage == "now" && r.URL.Path == "/v3/weather/now.json" {
					fmt.Fprint(w, `{"results":[]}`)
					return
				}
				switch r.URL.Path {
				case "/v3/weather/now.json":
					fmt.Fprint(w, nowBody("beijing", "北京", "5"))
				case "/v3/weather/daily.json":
					fmt.Fprint(w, `{"results":[]}`)
				}
			})

			_, err := f.Fetch(context.Background(), "beijing")
			require.ErrorIs(t, err, weather.ErrEmptyResult)
		})
	}
}

func TestFetchInvalidFormat(t *testing.T) {
	_, f := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"unknown location"}`)
	})

	_, err := f.Fetch(context.Background(), "nowhere")
	require.ErrorIs(t, err, weather.ErrInvalidFormat)
}

func TestFetchNetworkError(t *testing.T) {
	srv, f := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := f.Fetch(context.Background(), "beijing")
	require.ErrorIs(t, err, weather.ErrNetwork)
}

func TestFetchServerError(t *testing.T) {
	_, f := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := f.Fetch(context.Background(), "beijing")
	require.ErrorIs(t, err, weather.ErrNetwork)
}

func TestFetchMissingAPIKey(t *testing.T) {
	f := NewSeniverseFetcher(http.DefaultClient, "", "https://api.seniverse.com", 3)

	_, err := f.Fetch(context.Background(), "beijing")
	require.Error(t, err)
}

// Overlapping fetches for different cities must each come back with their
// own location, now and daily data.
func TestFetchConcurrentCities(t *testing.T) {
	_, f := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		city := r.URL.Query().Get("location")
		switch r.URL.Path {
		case "/v3/weather/now.json":
			if city == "beijing" {
				fmt.Fprint(w, nowBody("beijing", "北京", "5"))
			} else {
				fmt.Fprint(w, nowBody("shanghai", "上海", "12"))
			}
		case "/v3/weather/daily.json":
			if city == "beijing" {
				fmt.Fprint(w, dailyBody("2026-01-05"))
			} else {
				fmt.Fprint(w, dailyBody("2026-01-05", "2026-01-06"))
			}
		}
	})

	const rounds = 20
	var wg sync.WaitGroup
	results := make(map[string][]weather.WeatherView)
	var mu sync.Mutex

	for i := 0; i < rounds; i++ {
		for _, city := range []string{"beijing", "shanghai"} {
			city := city
			wg.Add(1)
			go func() {
				defer wg.Done()

				doc, err := f.Fetch(context.Background(), city)
				if !assert.NoError(t, err) {
					return
				}

				mu.Lock()
				results[city] = append(results[city], weather.DecodeWeather(doc))
				mu.Unlock()
			}()
		}
	}
	wg.Wait()

	require.Len(t, results["beijing"], rounds)
	require.Len(t, results["shanghai"], rounds)
	for _, v := range results["beijing"] {
		assert.Equal(t, "北京", v.City)
		assert.Equal(t, "5", v.Temperature)
		assert.Len(t, v.Forecast, 1)
	}
	for _, v := range results["shanghai"] {
		assert.Equal(t, "上海", v.City)
		assert.Equal(t, "12", v.Temperature)
		assert.Len(t, v.Forecast, 2)
	}
}
